package main

import (
	"fmt"
	"io"
	"time"

	"github.com/VelisCore/velink/internal/analytics"
	"github.com/VelisCore/velink/internal/shortener"
	"github.com/VelisCore/velink/internal/store"
	"github.com/spf13/cobra"
)

func newStatsCmd(flags *rootFlags) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "stats <code>",
		Short: "Print click statistics for a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := flags.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			code := shortener.Code(args[0])

			link, err := store.NewPostgresStore(pool).FindByCode(cmd.Context(), code)
			if err != nil {
				return err
			}

			report, err := analytics.NewStats(pool).Link(cmd.Context(), args[0], days)
			if err != nil {
				return err
			}

			renderStats(cmd.OutOrStdout(), link, report)

			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", analytics.DefaultStatsDays, "Days of daily click series")

	return cmd
}

func renderStats(w io.Writer, link *shortener.Link, report *analytics.LinkStats) {
	fmt.Fprintf(w, "Code:        %s\n", link.Code)
	fmt.Fprintf(w, "Target:      %s\n", link.TargetURL)
	fmt.Fprintf(w, "Created:     %s\n", link.CreatedAt.Format(time.RFC3339))

	if link.ExpiresAt != nil {
		state := "expires"
		if link.Expired(time.Now()) {
			state = "expired"
		}

		fmt.Fprintf(w, "Expiry:      %s %s\n", state, link.ExpiresAt.Format(time.RFC3339))
	} else {
		fmt.Fprintf(w, "Expiry:      never\n")
	}

	fmt.Fprintf(w, "Active:      %t\n", link.Active)
	fmt.Fprintf(w, "Clicks:      %d\n", report.TotalClicks)

	if len(report.Daily) > 0 {
		fmt.Fprintf(w, "\nDaily clicks:\n")

		for _, d := range report.Daily {
			fmt.Fprintf(w, "  %s  %d\n", d.Day.Format("2006-01-02"), d.Clicks)
		}
	}

	for _, breakdown := range []struct {
		label  string
		counts []analytics.FieldCount
	}{
		{"Referrers", report.Referrers},
		{"Devices", report.Devices},
		{"Browsers", report.Browsers},
	} {
		if len(breakdown.counts) == 0 {
			continue
		}

		fmt.Fprintf(w, "\n%s:\n", breakdown.label)

		for _, c := range breakdown.counts {
			fmt.Fprintf(w, "  %-12s %d\n", c.Value, c.Clicks)
		}
	}
}
