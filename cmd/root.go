/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/seckatie/coffee/internal/config"
	"github.com/seckatie/coffee/internal/core"
	"github.com/seckatie/coffee/internal/core/db"
	"github.com/seckatie/coffee/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "coffee",
	Short: "Scrape the Astronomy Coffee archive into SQLite",
	Long: `coffee downloads the daily pages of the Astronomy Coffee archive, pulls the
title, authors and links out of every paper listed on a page, and stores them in
a local SQLite database.

Scrape today's page, a run of days going backwards, or every day of one or more
months:

  coffee scrape-date --date 2003-01-02
  coffee scrape-back --start-date 2003-01-31 --num-days 31
  coffee scrape-month --year 2003 --month 1 --month 2`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("db", "coffee.db", "Path to the SQLite database file")
	rootCmd.PersistentFlags().String("config", "", "Optional config file (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().String("base-url", core.DefaultBaseURL, "Archive root URL")
	rootCmd.PersistentFlags().Duration("timeout", core.DefaultPageTimeout, "Per-page fetch timeout")
	rootCmd.PersistentFlags().Duration("index-timeout", core.DefaultIndexTimeout, "Month index fetch timeout")
	rootCmd.PersistentFlags().Duration("pace", core.DefaultPace, "Pause between fetches (0 disables)")
	rootCmd.PersistentFlags().Bool("render", false, "Load pages in headless Chrome instead of a plain GET")
	rootCmd.PersistentFlags().String("chrome-path", "", "Path to Chrome/Chromium executable")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write run metrics to this file in Prometheus text format")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// app holds what a command needs for one run: the resolved config, the logger
// and an open, migrated store.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	db      *db.DB
	metrics *core.Metrics
}

// setup loads config, builds the logger and opens the store.
func setup(cmd *cobra.Command) (*app, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to read --config: %w", err)
	}
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return nil, err
	}

	database, err := initDB(cfg.DB, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, db: database}, nil
}

func initDB(path string, logger *zap.Logger) (*db.DB, error) {
	database, err := db.NewSQLiteDB(path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Debug("database migrated", zap.String("path", path))
	return database, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// newScraper wires the store to the configured fetchers. Metrics are only
// collected when a metrics file was requested.
func (a *app) newScraper() *core.Scraper {
	if a.cfg.MetricsFile != "" {
		a.metrics = core.NewMetrics()
		a.metrics.Subscribe(a.db)
	}

	pages, index := a.fetchers()
	return core.NewScraper(a.db, pages, core.Options{
		IndexFetcher: index,
		BaseURL:      a.cfg.BaseURL,
		Pace:         a.cfg.Pace,
		Logger:       a.logger,
		Metrics:      a.metrics,
	})
}

func (a *app) fetchers() (pages, index core.Fetcher) {
	if !a.cfg.Render {
		return core.NewHTTPFetcher(a.cfg.Timeout), core.NewHTTPFetcher(a.cfg.IndexTimeout)
	}

	chromePath := a.cfg.ChromePath
	if chromePath == "" && runtime.GOOS == "darwin" {
		// Best-effort default for macOS.
		chromePath = "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
	}
	opts := core.RenderOptions{ChromePath: chromePath, Headless: true, Timeout: a.cfg.Timeout}
	indexOpts := opts
	indexOpts.Timeout = a.cfg.IndexTimeout
	return core.NewRenderFetcher(opts, a.logger), core.NewRenderFetcher(indexOpts, a.logger)
}

// runScrape opens everything a scrape needs, runs fn and writes metrics. An
// interrupt cancels the run between pages.
func runScrape(cmd *cobra.Command, fn func(ctx context.Context, s *core.Scraper, logger *zap.Logger) error) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runErr := fn(ctx, a.newScraper(), a.logger)
	if runErr == nil {
		a.metrics.MarkCompleted()
	}
	if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
		a.logger.Error("failed to write metrics", zap.Error(err))
	}
	return runErr
}
