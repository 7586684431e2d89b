/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/seckatie/coffee/internal/core"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// scrapeMonthCmd scrapes every day listed on one or more month indexes.
var scrapeMonthCmd = &cobra.Command{
	Use:   "scrape-month",
	Short: "Scrape every day listed on the month index pages",
	Long: `Scrape every day page linked from the archive's month index for each
requested month of a year. Defaults to the current month.

  coffee scrape-month --year 2003 --month 1 --month 2
  coffee scrape-month -y 2003 -m 1,2,3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		year, err := cmd.Flags().GetInt("year")
		if err != nil {
			return fmt.Errorf("failed to read --year: %w", err)
		}
		months, err := cmd.Flags().GetIntSlice("month")
		if err != nil {
			return fmt.Errorf("failed to read --month: %w", err)
		}
		return runScrape(cmd, func(ctx context.Context, s *core.Scraper, logger *zap.Logger) error {
			run, err := s.ScrapeMonth(ctx, year, months)
			if err != nil {
				return err
			}
			logger.Info("scrape-month finished",
				zap.Int("year", year),
				zap.Ints("months", months),
				zap.Int("pages", len(run.Pages)),
			)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(scrapeMonthCmd)

	now := time.Now()
	scrapeMonthCmd.Flags().IntP("year", "y", now.Year(), "Year to scrape")
	scrapeMonthCmd.Flags().IntSliceP("month", "m", []int{int(now.Month())}, "Month(s) to scrape, 1-12 (repeatable)")
}
