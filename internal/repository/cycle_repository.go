package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
)

// CycleRepository records per-date completion markers for scheduling cycles.
type CycleRepository interface {
	Record(ctx context.Context, marker *domain.CycleMarker) error
	Get(ctx context.Context, cycleDate string) (*domain.CycleMarker, error)
}

type cycleRepository struct {
	pool *pgxpool.Pool
}

// NewCycleRepository instantiates repository.
func NewCycleRepository(pool *pgxpool.Pool) CycleRepository {
	return &cycleRepository{pool: pool}
}

func (r *cycleRepository) Record(ctx context.Context, marker *domain.CycleMarker) error {
	const query = `
        INSERT INTO survey_cycles (cycle_date, completed_at, dispatched, failed)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (cycle_date) DO UPDATE
        SET completed_at=EXCLUDED.completed_at,
            dispatched=survey_cycles.dispatched + EXCLUDED.dispatched,
            failed=survey_cycles.failed + EXCLUDED.failed`
	_, err := r.pool.Exec(ctx, query,
		marker.CycleDate,
		marker.CompletedAt,
		marker.Dispatched,
		marker.Failed,
	)
	return err
}

func (r *cycleRepository) Get(ctx context.Context, cycleDate string) (*domain.CycleMarker, error) {
	const query = `
        SELECT cycle_date, completed_at, dispatched, failed
        FROM survey_cycles WHERE cycle_date=$1`
	var m domain.CycleMarker
	if err := r.pool.QueryRow(ctx, query, cycleDate).Scan(
		&m.CycleDate,
		&m.CompletedAt,
		&m.Dispatched,
		&m.Failed,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
