package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/VelisCore/velink/internal/shortener"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint errors.
const uniqueViolation = "23505"

const linkColumns = "code, target_url, url_hash, created_at, expires_at, active, click_count, metadata"

// PostgresStore is the PostgreSQL implementation of shortener.Repository
// and shortener.Sweeper. Code uniqueness rides on the primary key; the
// database transaction is the only concurrency control for clicks.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var (
	_ shortener.Repository = (*PostgresStore)(nil)
	_ shortener.Sweeper    = (*PostgresStore)(nil)
)

func (p *PostgresStore) Insert(ctx context.Context, link *shortener.Link) error {
	query := `
		INSERT INTO links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	meta, err := json.Marshal(link.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	_, err = p.pool.Exec(ctx, query,
		string(link.Code),
		link.TargetURL,
		string(link.URLHash),
		link.CreatedAt,
		link.ExpiresAt,
		link.Active,
		link.ClickCount,
		meta,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shortener.ErrDuplicateCode
		}

		return err
	}

	return nil
}

func (p *PostgresStore) ExistsByCode(ctx context.Context, code shortener.Code) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM links WHERE code = $1)`

	var exists bool

	if err := p.pool.QueryRow(ctx, query, string(code)).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func (p *PostgresStore) FindByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE code = $1
	`

	return scanLink(p.pool.QueryRow(ctx, query, string(code)))
}

func (p *PostgresStore) FindByURLHash(ctx context.Context, hash shortener.URLHash) (*shortener.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE url_hash = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	return scanLink(p.pool.QueryRow(ctx, query, string(hash)))
}

func (p *PostgresStore) List(ctx context.Context, filter shortener.Filter, page shortener.Page) ([]*shortener.Link, int64, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 5)

	if filter.Active != nil {
		args = append(args, *filter.Active)
		where = append(where, fmt.Sprintf("active = $%d", len(args)))
	}

	if filter.Live {
		args = append(args, time.Now())
		where = append(where, fmt.Sprintf("active AND (expires_at IS NULL OR expires_at >= $%d)", len(args)))
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(target_url ILIKE $%d OR metadata->>'description' ILIKE $%d)", len(args), len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64

	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM links"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + linkColumns + " FROM links" + clause + " ORDER BY created_at DESC"

	if page.Limit > 0 {
		args = append(args, page.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	if page.Offset > 0 {
		args = append(args, page.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var links []*shortener.Link

	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, 0, err
		}

		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return links, total, nil
}

func (p *PostgresStore) Delete(ctx context.Context, code shortener.Code) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM links WHERE code = $1`, string(code))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) SetActive(ctx context.Context, code shortener.Code, active bool) error {
	tag, err := p.pool.Exec(ctx, `UPDATE links SET active = $2 WHERE code = $1`, string(code), active)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) UpdateMetadata(ctx context.Context, code shortener.Code, meta shortener.Metadata) error {
	encoded, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	tag, err := p.pool.Exec(ctx, `UPDATE links SET metadata = $2 WHERE code = $1`, string(code), encoded)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

// RecordClick runs the counter increment and the event insert in one
// transaction, so the counter can never drift from the stored events.
// The increment happens in the database, never as read-modify-write.
func (p *PostgresStore) RecordClick(ctx context.Context, code shortener.Code, event *shortener.ClickEvent) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin click tx: %w", err)
	}

	if err := recordClickTx(ctx, tx, code, event); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("click tx: %w, rollback: %v", err, rbErr)
		}

		return err
	}

	return tx.Commit(ctx)
}

func recordClickTx(ctx context.Context, tx pgx.Tx, code shortener.Code, event *shortener.ClickEvent) error {
	tag, err := tx.Exec(ctx, `UPDATE links SET click_count = click_count + 1 WHERE code = $1`, string(code))
	if err != nil {
		return fmt.Errorf("increment click count: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	query := `
		INSERT INTO click_events (id, code, occurred_at, referrer_class, device, browser)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = tx.Exec(ctx, query,
		event.ID,
		string(event.Code),
		event.OccurredAt,
		event.ReferrerClass,
		event.Device,
		event.Browser,
	)
	if err != nil {
		return fmt.Errorf("insert click event: %w", err)
	}

	return nil
}

func (p *PostgresStore) Clicks(ctx context.Context, code shortener.Code, page shortener.Page) ([]*shortener.ClickEvent, int64, error) {
	var total int64

	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM click_events WHERE code = $1`, string(code)).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, code, occurred_at, referrer_class, device, browser
		FROM click_events
		WHERE code = $1
		ORDER BY occurred_at DESC
	`
	args := []any{string(code)}

	if page.Limit > 0 {
		args = append(args, page.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	if page.Offset > 0 {
		args = append(args, page.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []*shortener.ClickEvent

	for rows.Next() {
		var e shortener.ClickEvent

		if err := rows.Scan(&e.ID, &e.Code, &e.OccurredAt, &e.ReferrerClass, &e.Device, &e.Browser); err != nil {
			return nil, 0, err
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// PruneClicks deletes events older than the cutoff. Counters are left
// alone, so totals survive retention pruning.
func (p *PostgresStore) PruneClicks(ctx context.Context, before time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM click_events WHERE occurred_at < $1`, before)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// SweepStaleLinks deletes links created before the cutoff that never
// received a click.
func (p *PostgresStore) SweepStaleLinks(ctx context.Context, createdBefore time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM links WHERE click_count = 0 AND created_at < $1`, createdBefore)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func scanLink(row pgx.Row) (*shortener.Link, error) {
	var (
		link shortener.Link
		meta []byte
	)

	err := row.Scan(
		&link.Code,
		&link.TargetURL,
		&link.URLHash,
		&link.CreatedAt,
		&link.ExpiresAt,
		&link.Active,
		&link.ClickCount,
		&meta,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &link.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}

	return &link, nil
}
