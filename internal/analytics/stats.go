package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VelisCore/velink/internal/shortener"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultStatsDays is the length of the daily click series.
const DefaultStatsDays = 30

// DayCount is one day of the click series.
type DayCount struct {
	Day    time.Time `json:"day"`
	Clicks int64     `json:"clicks"`
}

// FieldCount is one bucket of a breakdown.
type FieldCount struct {
	Value  string `json:"value"`
	Clicks int64  `json:"clicks"`
}

// LinkStats is the per-link report. TotalClicks comes from the link's
// counter, so it survives event pruning; the breakdowns cover whatever
// events are still stored.
type LinkStats struct {
	Code        string       `json:"code"`
	TotalClicks int64        `json:"totalClicks"`
	Daily       []DayCount   `json:"daily"`
	Referrers   []FieldCount `json:"referrers"`
	Devices     []FieldCount `json:"devices"`
	Browsers    []FieldCount `json:"browsers"`
}

// TopLink is one row of the overview leaderboard.
type TopLink struct {
	Code       string `json:"code"`
	TargetURL  string `json:"targetUrl"`
	ClickCount int64  `json:"clickCount"`
}

// Overview is the service-wide report. Disabled and expired links count
// like any other; stats are an admin surface.
type Overview struct {
	TotalLinks  int64     `json:"totalLinks"`
	ActiveLinks int64     `json:"activeLinks"`
	TotalClicks int64     `json:"totalClicks"`
	TopLinks    []TopLink `json:"topLinks"`
}

// StatsProvider answers aggregate questions about links and clicks.
type StatsProvider interface {
	Link(ctx context.Context, code string, days int) (*LinkStats, error)
	Overview(ctx context.Context, top int) (*Overview, error)
}

// Stats is the PostgreSQL StatsProvider. Reporting queries live here,
// with the collaborator, so the core store never grows them.
type Stats struct {
	pool *pgxpool.Pool
}

// NewStats creates a stats reader on the shared pool.
func NewStats(pool *pgxpool.Pool) *Stats {
	return &Stats{pool: pool}
}

var _ StatsProvider = (*Stats)(nil)

// Link builds the per-link report. Unknown codes return
// shortener.ErrNotFound.
func (s *Stats) Link(ctx context.Context, code string, days int) (*LinkStats, error) {
	if days <= 0 {
		days = DefaultStatsDays
	}

	stats := &LinkStats{Code: code}

	err := s.pool.QueryRow(ctx, `SELECT click_count FROM links WHERE code = $1`, code).Scan(&stats.TotalClicks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	since := time.Now().AddDate(0, 0, -days).UTC()

	stats.Daily, err = s.daily(ctx, code, since)
	if err != nil {
		return nil, err
	}

	for _, c := range []struct {
		column string
		out    *[]FieldCount
	}{
		{"referrer_class", &stats.Referrers},
		{"device", &stats.Devices},
		{"browser", &stats.Browsers},
	} {
		*c.out, err = s.countBy(ctx, code, c.column)
		if err != nil {
			return nil, err
		}
	}

	return stats, nil
}

// Overview builds the service-wide report with up to top leaderboard
// rows.
func (s *Stats) Overview(ctx context.Context, top int) (*Overview, error) {
	if top <= 0 {
		top = 10
	}

	overview := &Overview{}

	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE active), COALESCE(SUM(click_count), 0)
		FROM links
	`).Scan(&overview.TotalLinks, &overview.ActiveLinks, &overview.TotalClicks)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT code, target_url, click_count
		FROM links
		ORDER BY click_count DESC, created_at DESC
		LIMIT $1
	`, top)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t TopLink

		if err := rows.Scan(&t.Code, &t.TargetURL, &t.ClickCount); err != nil {
			return nil, err
		}

		overview.TopLinks = append(overview.TopLinks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return overview, nil
}

func (s *Stats) daily(ctx context.Context, code string, since time.Time) ([]DayCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date_trunc('day', occurred_at) AS day, COUNT(*)
		FROM click_events
		WHERE code = $1 AND occurred_at >= $2
		GROUP BY day
		ORDER BY day
	`, code, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []DayCount

	for rows.Next() {
		var d DayCount

		if err := rows.Scan(&d.Day, &d.Clicks); err != nil {
			return nil, err
		}

		series = append(series, d)
	}

	return series, rows.Err()
}

// countBy is the one group-by shape behind every breakdown. The column
// comes from a fixed list above, never from caller input.
func (s *Stats) countBy(ctx context.Context, code, column string) ([]FieldCount, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(NULLIF(%s, ''), 'unknown') AS value, COUNT(*) AS clicks
		FROM click_events
		WHERE code = $1
		GROUP BY value
		ORDER BY clicks DESC, value
	`, column)

	rows, err := s.pool.Query(ctx, query, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []FieldCount

	for rows.Next() {
		var c FieldCount

		if err := rows.Scan(&c.Value, &c.Clicks); err != nil {
			return nil, err
		}

		counts = append(counts, c)
	}

	return counts, rows.Err()
}
