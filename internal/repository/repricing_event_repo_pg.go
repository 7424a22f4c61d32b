package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RepricingEventRepository interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, event domain.RepricingEvent) (bool, error)
	ListBySession(ctx context.Context, repricingSessionID string) ([]domain.RepricingEvent, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type PGRepricingEventRepository struct {
	db *pgxpool.Pool
}

func NewRepricingEventRepository(db *pgxpool.Pool) RepricingEventRepository {
	return &PGRepricingEventRepository{db: db}
}

const createRepricingEvents = `
CREATE TABLE IF NOT EXISTS repricing_events (
    id                   TEXT PRIMARY KEY,
    type                 TEXT NOT NULL,
    repricing_session_id TEXT NOT NULL,
    customer_id          TEXT NOT NULL DEFAULT '',
    impersonated_by      TEXT NOT NULL DEFAULT '',
    occurred_at          TIMESTAMPTZ NOT NULL,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS repricing_events_session_idx ON repricing_events (repricing_session_id, occurred_at);
`

func (r *PGRepricingEventRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, createRepricingEvents)
	return err
}

// Save stores event once; a redelivered event id reports false.
func (r *PGRepricingEventRepository) Save(ctx context.Context, event domain.RepricingEvent) (bool, error) {
	cmd, err := r.db.Exec(ctx, `INSERT INTO repricing_events (id, type, repricing_session_id, customer_id, impersonated_by, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, string(event.Type), event.RepricingSessionID, event.CustomerID, event.ImpersonatedBy, event.OccurredAt)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *PGRepricingEventRepository) ListBySession(ctx context.Context, repricingSessionID string) ([]domain.RepricingEvent, error) {
	rows, err := r.db.Query(ctx, `SELECT id, type, repricing_session_id, customer_id, impersonated_by, occurred_at FROM repricing_events WHERE repricing_session_id=$1 ORDER BY occurred_at`, repricingSessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.RepricingEvent, 0)
	for rows.Next() {
		var e domain.RepricingEvent
		var eventType string
		if err := rows.Scan(&e.ID, &eventType, &e.RepricingSessionID, &e.CustomerID, &e.ImpersonatedBy, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.Type = domain.RepricingEventType(eventType)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *PGRepricingEventRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM repricing_events WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

var _ RepricingEventRepository = (*PGRepricingEventRepository)(nil)
