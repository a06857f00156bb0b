package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/powerdash/internal/database"
	"github.com/jgoulah/powerdash/internal/insights"
	"github.com/jgoulah/powerdash/internal/publisher"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the facility usage summary",
	Long: `Summarizes the facilities stored in the database and publishes the result
to MQTT (retained topics under mqtt.topic_prefix) and/or the Home Assistant
HTTP API, depending on which targets are enabled in config.`,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := newLogger(cfg)
	defer log.Sync()

	pub, err := publisher.New(cfg.MQTT, cfg.HomeAssistant, log)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	n, err := publishSummary(cmd.Context(), db, pub)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Published summary of %d facilities\n", n)
	return nil
}

// publishSummary summarizes every stored facility and publishes the result.
func publishSummary(ctx context.Context, db *database.DB, pub *publisher.Publisher) (int, error) {
	facilities, err := db.ListFacilities()
	if err != nil {
		return 0, fmt.Errorf("listing facilities: %w", err)
	}
	if err := pub.PublishSummary(ctx, insights.Summarize(facilities)); err != nil {
		return 0, fmt.Errorf("publishing summary: %w", err)
	}
	return len(facilities), nil
}
