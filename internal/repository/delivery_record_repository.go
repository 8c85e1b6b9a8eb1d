package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
)

// DeliveryRecordRepository tracks one row per message handed to the gateway,
// used for retry bookkeeping and duplicate provider callback detection.
type DeliveryRecordRepository interface {
	Create(ctx context.Context, record *domain.DeliveryRecord) error
	Update(ctx context.Context, record *domain.DeliveryRecord) error
	GetByProviderSID(ctx context.Context, sid string) (*domain.DeliveryRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type deliveryRecordRepository struct {
	pool *pgxpool.Pool
}

// NewDeliveryRecordRepository instantiates repository.
func NewDeliveryRecordRepository(pool *pgxpool.Pool) DeliveryRecordRepository {
	return &deliveryRecordRepository{pool: pool}
}

func (r *deliveryRecordRepository) Create(ctx context.Context, record *domain.DeliveryRecord) error {
	const query = `
        INSERT INTO delivery_records (kind, to_number, body, provider_sid, status, attempt_count, last_error)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		record.Kind,
		record.ToNumber,
		record.Body,
		record.ProviderSID,
		record.Status,
		record.AttemptCount,
		record.LastError,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *deliveryRecordRepository) Update(ctx context.Context, record *domain.DeliveryRecord) error {
	const query = `
        UPDATE delivery_records
        SET provider_sid=$1, status=$2, attempt_count=$3, last_error=$4, sent_at=$5
        WHERE id=$6`
	_, err := r.pool.Exec(ctx, query,
		record.ProviderSID,
		record.Status,
		record.AttemptCount,
		record.LastError,
		record.SentAt,
		record.ID,
	)
	return err
}

func (r *deliveryRecordRepository) GetByProviderSID(ctx context.Context, sid string) (*domain.DeliveryRecord, error) {
	const query = `
        SELECT id, kind, to_number, body, provider_sid, status, attempt_count, last_error, created_at, sent_at
        FROM delivery_records WHERE provider_sid=$1`
	var rec domain.DeliveryRecord
	if err := r.pool.QueryRow(ctx, query, sid).Scan(
		&rec.ID,
		&rec.Kind,
		&rec.ToNumber,
		&rec.Body,
		&rec.ProviderSID,
		&rec.Status,
		&rec.AttemptCount,
		&rec.LastError,
		&rec.CreatedAt,
		&rec.SentAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *deliveryRecordRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM delivery_records WHERE created_at < $1`
	cmd, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
