package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jgoulah/powerdash/internal/api"
	"github.com/jgoulah/powerdash/internal/config"
	"github.com/jgoulah/powerdash/internal/database"
	"github.com/jgoulah/powerdash/internal/insights"
	"github.com/jgoulah/powerdash/internal/metrics"
	"github.com/jgoulah/powerdash/internal/publisher"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and dashboard",
	Long: `Starts the JSON API over the KEPCO upstream, the facility insights endpoints,
Prometheus metrics on /metrics and the static dashboard.

When publish.schedule is set, the facility summary is also published to
MQTT and/or Home Assistant on that cron schedule.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr and PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	log := newLogger(cfg)
	defer log.Sync()

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	m := metrics.New()
	upstream := newUpstream(cfg, log, m)

	h := &api.Handlers{
		Log:      log.Named("api"),
		Insights: insights.NewService(upstream),
		Store:    db,
	}
	router := api.NewRouter(h, m, cfg.GetStaticDir())

	srv := &http.Server{
		Addr:              cfg.GetAddr(),
		Handler:           api.Wrap(router, cfg.GetCORSOrigins(), log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      2 * cfg.Upstream.GetTimeout(),
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Publish.Schedule != "" {
		sched, err := startPublishSchedule(ctx, cfg, db, log)
		if err != nil {
			return err
		}
		defer func() { <-sched.Stop().Done() }()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server starting", zap.String("addr", srv.Addr), zap.String("static_dir", cfg.GetStaticDir()))
		fmt.Printf("✓ Server running → http://localhost%s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("http server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// startPublishSchedule registers the summary publish job on the configured cron spec.
func startPublishSchedule(ctx context.Context, cfg *config.Config, db *database.DB, log *zap.Logger) (*cron.Cron, error) {
	pub, err := publisher.New(cfg.MQTT, cfg.HomeAssistant, log)
	if err != nil {
		return nil, fmt.Errorf("creating publisher: %w", err)
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.Publish.Schedule, func() {
		n, err := publishSummary(ctx, db, pub)
		if err != nil {
			log.Error("scheduled publish failed", zap.Error(err))
			return
		}
		log.Info("scheduled publish complete", zap.Int("facilities", n))
	})
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("parsing publish schedule %q: %w", cfg.Publish.Schedule, err)
	}

	go func() {
		<-ctx.Done()
		pub.Close()
	}()

	c.Start()
	log.Info("publish schedule started", zap.String("schedule", cfg.Publish.Schedule))
	return c, nil
}
