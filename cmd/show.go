/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/seckatie/coffee/internal/core"
	"github.com/seckatie/coffee/internal/core/db"
	"github.com/spf13/cobra"
)

// showCmd prints what the store holds for a day.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "List the stored papers for one day (today by default)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dateFlag(cmd, "date")
		if err != nil {
			return err
		}
		if d.IsZero() {
			y, m, day := time.Now().Date()
			d = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
		}

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		return showDay(cmd.Context(), a.db, core.FormatDate(d), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringP("date", "d", "", "Date to show (YYYY-MM-DD, default today)")
}

func showDay(ctx context.Context, store *db.DB, date string, w io.Writer) error {
	records, err := store.ListDailyByDate(ctx, date)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(w, "No records for %s\n", date)
		return nil
	}

	for _, r := range records {
		if r.Degraded() {
			fmt.Fprintf(w, "[degraded] %s\n  error: %s\n", r.Title, r.ErrException)
			continue
		}
		authors, err := store.AuthorsFor(ctx, r.ID)
		if err != nil {
			return err
		}
		links, err := store.LinksFor(ctx, r.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n", r.Title)
		fmt.Fprintf(w, "  authors: %s\n", strings.Join(authors, "; "))
		for _, l := range links {
			fmt.Fprintf(w, "  link: %s\n", l)
		}
	}
	return nil
}
