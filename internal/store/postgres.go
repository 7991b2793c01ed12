package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/guildbot/internal/report"
)

// PostgresSink is a PostgreSQL implementation of report.Sink. Each tick
// appends one row, giving a history of the aggregate over time.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a new PostgreSQL reporting sink.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// Migrate creates the message_totals table if it does not exist.
func (p *PostgresSink) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS message_totals (
			id          BIGSERIAL PRIMARY KEY,
			total       BIGINT      NOT NULL,
			reported_at TIMESTAMPTZ NOT NULL
		)
	`

	_, err := p.pool.Exec(ctx, query)

	return err
}

func (p *PostgresSink) Report(ctx context.Context, value uint64) error {
	query := `
		INSERT INTO message_totals (total, reported_at)
		VALUES ($1, $2)
	`

	_, err := p.pool.Exec(ctx, query, int64(value), time.Now().UTC())

	return err
}

// Latest returns the most recently reported aggregate.
func (p *PostgresSink) Latest(ctx context.Context) (uint64, time.Time, error) {
	query := `
		SELECT total, reported_at
		FROM message_totals
		ORDER BY id DESC
		LIMIT 1
	`

	var (
		total      int64
		reportedAt time.Time
	)

	err := p.pool.QueryRow(ctx, query).Scan(&total, &reportedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, time.Time{}, report.ErrNoReport
		}

		return 0, time.Time{}, err
	}

	return uint64(total), reportedAt, nil
}

// Compile-time check.
var _ report.Sink = (*PostgresSink)(nil)
