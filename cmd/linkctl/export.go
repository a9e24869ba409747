package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/VelisCore/velink/internal/shortener"
	"github.com/VelisCore/velink/internal/store"
	"github.com/spf13/cobra"
)

// exportPageSize bounds one store round-trip while collecting a full
// click history.
const exportPageSize = 500

// exportDoc is the data-subject export document. Field names match the
// HTTP export so downstream tooling can consume either.
type exportDoc struct {
	Link   exportLink    `json:"link"`
	Clicks []exportClick `json:"clicks"`
}

type exportLink struct {
	Code        string            `json:"code"`
	TargetURL   string            `json:"targetUrl"`
	CreatedAt   time.Time         `json:"createdAt"`
	ExpiresAt   *time.Time        `json:"expiresAt,omitempty"`
	Active      bool              `json:"active"`
	ClickCount  int64             `json:"clickCount"`
	Description string            `json:"description,omitempty"`
	Options     map[string]string `json:"options,omitempty"`
}

type exportClick struct {
	ID            string    `json:"id"`
	OccurredAt    time.Time `json:"occurredAt"`
	ReferrerClass string    `json:"referrerClass"`
	Device        string    `json:"device"`
	Browser       string    `json:"browser"`
}

func newExportCmd(flags *rootFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <code>",
		Short: "Export a link and its click history to stdout",
		Long: `Writes the link and every stored click event to stdout, as one JSON
document or as CSV rows. This is the data-subject export path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "csv" {
				return fmt.Errorf("invalid format %q: want json or csv", format)
			}

			pool, err := flags.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := store.NewPostgresStore(pool)
			code := shortener.Code(args[0])

			link, err := repo.FindByCode(cmd.Context(), code)
			if err != nil {
				return err
			}

			events, err := collectClicks(cmd.Context(), repo, code)
			if err != nil {
				return err
			}

			if format == "csv" {
				return writeClicksCSV(cmd.OutOrStdout(), events)
			}

			return writeExportJSON(cmd.OutOrStdout(), link, events)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or csv")

	return cmd
}

func collectClicks(ctx context.Context, repo shortener.Repository, code shortener.Code) ([]*shortener.ClickEvent, error) {
	var all []*shortener.ClickEvent

	for offset := 0; ; offset += exportPageSize {
		events, total, err := repo.Clicks(ctx, code, shortener.Page{Limit: exportPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}

		all = append(all, events...)

		if int64(len(all)) >= total || len(events) == 0 {
			return all, nil
		}
	}
}

func writeExportJSON(w io.Writer, link *shortener.Link, events []*shortener.ClickEvent) error {
	doc := exportDoc{
		Link: exportLink{
			Code:        string(link.Code),
			TargetURL:   link.TargetURL,
			CreatedAt:   link.CreatedAt,
			ExpiresAt:   link.ExpiresAt,
			Active:      link.Active,
			ClickCount:  link.ClickCount,
			Description: link.Metadata.Description,
			Options:     link.Metadata.Options,
		},
		Clicks: make([]exportClick, 0, len(events)),
	}

	for _, e := range events {
		doc.Clicks = append(doc.Clicks, exportClick{
			ID:            e.ID,
			OccurredAt:    e.OccurredAt,
			ReferrerClass: e.ReferrerClass,
			Device:        e.Device,
			Browser:       e.Browser,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(doc)
}

func writeClicksCSV(w io.Writer, events []*shortener.ClickEvent) error {
	cw := csv.NewWriter(w)

	records := [][]string{{"id", "code", "occurred_at", "referrer_class", "device", "browser"}}
	for _, e := range events {
		records = append(records, []string{
			e.ID,
			string(e.Code),
			e.OccurredAt.Format(time.RFC3339),
			e.ReferrerClass,
			e.Device,
			e.Browser,
		})
	}

	return cw.WriteAll(records)
}
