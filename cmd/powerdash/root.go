package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jgoulah/powerdash/internal/config"
	"github.com/jgoulah/powerdash/internal/database"
	"github.com/jgoulah/powerdash/internal/kepco"
	"github.com/jgoulah/powerdash/internal/logging"
)

var (
	cfgFile string
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:   "powerdash",
	Short: "Serve and query KEPCO electricity usage statistics",
	Long: `PowerDash fronts the KEPCO open data API. It normalizes the upstream's
inconsistent responses, aggregates usage by industry and region, and summarizes
facility usage kept in a local SQLite database.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "facility database file (default is ./powerdash.db)")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// getDBPath returns the database file path (local directory)
func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return "powerdash.db"
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// openDB opens the database connection
func openDB() (*database.DB, error) {
	path := getDBPath()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}

// newLogger builds the configured logger, falling back to a no-op one
// so CLI output is never lost to a bad log setting.
func newLogger(cfg *config.Config) *zap.Logger {
	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Printf("⚠ Logger setup failed, continuing without logs: %v\n", err)
		return zap.NewNop()
	}
	return log
}

// newUpstream builds the KEPCO client, warning when no key is configured.
func newUpstream(cfg *config.Config, log *zap.Logger, obs kepco.Observer) *kepco.Client {
	if cfg.Upstream.APIKey == "" {
		fmt.Println("⚠ No KEPCO API key configured (set upstream.api_key or KEPCO_API_KEY)")
	}
	return kepco.New(cfg.Upstream, log, obs)
}
