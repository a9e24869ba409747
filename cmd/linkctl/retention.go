package main

import (
	"fmt"
	"time"

	"github.com/VelisCore/velink/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// minSweepAge keeps a fat-fingered sweep from deleting links that are
// merely minutes old.
const minSweepAge = 24 * time.Hour

func newSweepCmd(flags *rootFlags) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete stale links that never received a click",
		Long: `Deletes links older than the given age that have a zero click count.
Links with any recorded click are never swept, regardless of age.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan < minSweepAge {
				return fmt.Errorf("--older-than must be at least %s", minSweepAge)
			}

			logger, err := flags.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			pool, err := flags.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			cutoff := time.Now().Add(-olderThan)

			swept, err := store.NewPostgresStore(pool).SweepStaleLinks(cmd.Context(), cutoff)
			if err != nil {
				return err
			}

			logger.Info("swept stale links",
				zap.Int64("deleted", swept),
				zap.Time("createdBefore", cutoff),
			)

			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 90*24*time.Hour,
		"Minimum age of zero-click links to delete")

	return cmd
}

func newPruneCmd(flags *rootFlags) *cobra.Command {
	var before string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete click events recorded before a cutoff",
		Long: `Deletes click events that occurred before the cutoff. Click counters
are left untouched, so link totals survive pruning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cutoff, err := parseCutoff(before)
			if err != nil {
				return err
			}

			logger, err := flags.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			pool, err := flags.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			pruned, err := store.NewPostgresStore(pool).PruneClicks(cmd.Context(), cutoff)
			if err != nil {
				return err
			}

			logger.Info("pruned click events",
				zap.Int64("deleted", pruned),
				zap.Time("before", cutoff),
			)

			return nil
		},
	}

	cmd.Flags().StringVar(&before, "before", "",
		"Cutoff as RFC 3339 timestamp or YYYY-MM-DD date (required)")
	_ = cmd.MarkFlagRequired("before")

	return cmd
}

// parseCutoff accepts an RFC 3339 timestamp or a bare date. Bare dates
// mean midnight UTC of that day.
func parseCutoff(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid cutoff %q: want RFC 3339 timestamp or YYYY-MM-DD", s)
}
