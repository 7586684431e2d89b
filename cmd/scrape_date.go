/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"context"
	"time"

	"github.com/seckatie/coffee/internal/core"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// scrapeDateCmd scrapes a single day's page.
var scrapeDateCmd = &cobra.Command{
	Use:   "scrape-date",
	Short: "Scrape the archive page for one day (today by default)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dateFlag(cmd, "date")
		if err != nil {
			return err
		}
		return runScrape(cmd, func(ctx context.Context, s *core.Scraper, logger *zap.Logger) error {
			res, err := s.ScrapeDate(ctx, d)
			if err != nil {
				return err
			}
			logger.Info("scrape-date finished",
				zap.String("date", res.Date),
				zap.Int("stored", res.Stored),
				zap.Int("degraded", res.Degraded),
			)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(scrapeDateCmd)

	scrapeDateCmd.Flags().StringP("date", "d", "", "Date to scrape (YYYY-MM-DD, default today)")
}

// dateFlag parses an optional YYYY-MM-DD flag. An empty value yields the zero
// time, which the scraper reads as today.
func dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	s, err := cmd.Flags().GetString(name)
	if err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return time.Time{}, nil
	}
	return core.ParseDate(s)
}
