/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/seckatie/coffee/internal/core"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// scrapeBackCmd scrapes a run of consecutive days, newest first.
var scrapeBackCmd = &cobra.Command{
	Use:   "scrape-back",
	Short: "Scrape a number of days going backwards from a start date",
	Long: `Scrape num-days consecutive archive pages, starting at start-date (today by
default) and walking back one day at a time. Days without a page are reported
and skipped; any other failure stops the run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := dateFlag(cmd, "start-date")
		if err != nil {
			return err
		}
		n, err := cmd.Flags().GetInt("num-days")
		if err != nil {
			return fmt.Errorf("failed to read --num-days: %w", err)
		}
		if n < 0 {
			return fmt.Errorf("--num-days must not be negative, got %d", n)
		}
		return runScrape(cmd, func(ctx context.Context, s *core.Scraper, logger *zap.Logger) error {
			run, err := s.ScrapeBack(ctx, start, n)
			if err != nil {
				return err
			}
			logger.Info("scrape-back finished",
				zap.Int("pages", len(run.Pages)),
				zap.Strings("skipped", run.Skipped),
			)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(scrapeBackCmd)

	scrapeBackCmd.Flags().StringP("start-date", "s", "", "First (newest) date to scrape (YYYY-MM-DD, default today)")
	scrapeBackCmd.Flags().IntP("num-days", "n", 1, "Number of days to scrape")
}
