package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbalab/cexdexarb/internal/domain"
)

// JournalStore implements domain.ExecutionJournal using PostgreSQL. Every
// saga transition is written through, so a crash between legs leaves the
// last reached state queryable.
type JournalStore struct {
	pool *pgxpool.Pool
}

// NewJournalStore creates a new JournalStore.
func NewJournalStore(pool *pgxpool.Pool) *JournalStore {
	return &JournalStore{pool: pool}
}

// Create inserts a fresh execution record.
func (s *JournalStore) Create(ctx context.Context, rec domain.ExecutionRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO executions (id, direction, state, amount_base, cex_price, execution_price, notional_quote, estimated_profit_percent, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, string(rec.Direction), string(rec.State),
		rec.Plan.AmountBase, rec.Plan.CexPrice, rec.Plan.ExecutionPrice,
		rec.Plan.NotionalQuote, rec.Plan.EstimatedProfitPercent,
		rec.Error, rec.StartedAt, rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert execution %s: %w", rec.ID, err)
	}
	return nil
}

// Update overwrites the record's mutable fields and replaces its legs.
func (s *JournalStore) Update(ctx context.Context, rec domain.ExecutionRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE executions
		SET state = $2, error = $3, completed_at = $4
		WHERE id = $1`,
		rec.ID, string(rec.State), rec.Error, rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update execution %s: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update execution %s: %w", rec.ID, domain.ErrNotFound)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM execution_legs WHERE execution_id = $1`, rec.ID); err != nil {
		return fmt.Errorf("postgres: clear legs for %s: %w", rec.ID, err)
	}
	for _, leg := range rec.Legs {
		_, err := tx.Exec(ctx, `
			INSERT INTO execution_legs (execution_id, venue, side, amount, price, receipt, submitted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ID, string(leg.Venue), leg.Side, leg.Amount, leg.Price, leg.Receipt, leg.SubmittedAt,
		)
		if err != nil {
			return fmt.Errorf("postgres: insert leg for %s: %w", rec.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID returns an execution record with its legs.
func (s *JournalStore) GetByID(ctx context.Context, id string) (domain.ExecutionRecord, error) {
	var (
		rec         domain.ExecutionRecord
		direction   string
		state       string
		completedAt *time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, direction, state, amount_base, cex_price, execution_price, notional_quote, estimated_profit_percent, error, started_at, completed_at
		FROM executions WHERE id = $1`,
		id,
	).Scan(&rec.ID, &direction, &state,
		&rec.Plan.AmountBase, &rec.Plan.CexPrice, &rec.Plan.ExecutionPrice,
		&rec.Plan.NotionalQuote, &rec.Plan.EstimatedProfitPercent,
		&rec.Error, &rec.StartedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ExecutionRecord{}, domain.ErrNotFound
		}
		return domain.ExecutionRecord{}, fmt.Errorf("postgres: get execution %s: %w", id, err)
	}
	rec.Direction = domain.Direction(direction)
	rec.State = domain.ExecutionState(state)
	rec.CompletedAt = completedAt
	rec.Plan.Direction = rec.Direction

	rows, err := s.pool.Query(ctx, `
		SELECT venue, side, amount, price, receipt, submitted_at
		FROM execution_legs WHERE execution_id = $1 ORDER BY id`,
		id,
	)
	if err != nil {
		return domain.ExecutionRecord{}, fmt.Errorf("postgres: get legs for %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			leg   domain.ExecutionLeg
			venue string
		)
		if err := rows.Scan(&venue, &leg.Side, &leg.Amount, &leg.Price, &leg.Receipt, &leg.SubmittedAt); err != nil {
			return domain.ExecutionRecord{}, err
		}
		leg.Venue = domain.LegVenue(venue)
		rec.Legs = append(rec.Legs, leg)
	}
	if err := rows.Err(); err != nil {
		return domain.ExecutionRecord{}, err
	}
	return rec, nil
}
