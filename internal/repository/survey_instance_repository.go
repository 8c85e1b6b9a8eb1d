package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
)

// SurveyInstanceRepository persists survey instances. The uniqueness of
// (participant, campaign, survey date) and the pending-to-answered transition
// are enforced here with single atomic statements so concurrent scheduler
// runs and inbound replies cannot produce duplicates.
type SurveyInstanceRepository interface {
	// CreateIfAbsent inserts the instance unless one already exists for its
	// key. Returns false without error when the key was already taken.
	CreateIfAbsent(ctx context.Context, instance *domain.SurveyInstance) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.SurveyInstance, error)
	// LatestPending returns the most recent pending instance for a
	// participant across all campaigns, or pgx.ErrNoRows.
	LatestPending(ctx context.Context, participantID string) (*domain.SurveyInstance, error)
	// MarkAnswered flips pending to answered. Returns false when the
	// instance was not pending, which the caller reports as AlreadyAnswered.
	MarkAnswered(ctx context.Context, id string, answeredAt time.Time) (bool, error)
	// RevertAnswered undoes MarkAnswered when the response write that should
	// follow it fails, so the instance never stays answered without a
	// response row.
	RevertAnswered(ctx context.Context, id string) error
	AttachDelivery(ctx context.Context, id, deliveryID string) error
	// ExpirePendingBefore marks stale pending instances expired and returns
	// how many rows changed.
	ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type surveyInstanceRepository struct {
	pool *pgxpool.Pool
}

// NewSurveyInstanceRepository instantiates repository.
func NewSurveyInstanceRepository(pool *pgxpool.Pool) SurveyInstanceRepository {
	return &surveyInstanceRepository{pool: pool}
}

func (r *surveyInstanceRepository) CreateIfAbsent(ctx context.Context, instance *domain.SurveyInstance) (bool, error) {
	const query = `
        INSERT INTO survey_instances (participant_id, campaign_id, survey_date, status)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (participant_id, campaign_id, survey_date) DO NOTHING
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		instance.ParticipantID,
		instance.CampaignID,
		instance.SurveyDate,
		domain.SurveyStatusPending,
	).Scan(&instance.ID, &instance.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	instance.Status = domain.SurveyStatusPending
	return true, nil
}

func (r *surveyInstanceRepository) GetByID(ctx context.Context, id string) (*domain.SurveyInstance, error) {
	const query = `
        SELECT id, participant_id, campaign_id, survey_date, status, delivery_id, created_at, answered_at
        FROM survey_instances WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *surveyInstanceRepository) LatestPending(ctx context.Context, participantID string) (*domain.SurveyInstance, error) {
	const query = `
        SELECT si.id, si.participant_id, si.campaign_id, si.survey_date, si.status, si.delivery_id, si.created_at, si.answered_at
        FROM survey_instances si
        JOIN campaigns c ON c.id = si.campaign_id
        WHERE si.participant_id=$1 AND si.status=$2 AND c.is_active
        ORDER BY si.survey_date DESC, si.created_at DESC
        LIMIT 1`
	return r.fetchSingle(ctx, query, participantID, domain.SurveyStatusPending)
}

func (r *surveyInstanceRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.SurveyInstance, error) {
	var si domain.SurveyInstance
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&si.ID,
		&si.ParticipantID,
		&si.CampaignID,
		&si.SurveyDate,
		&si.Status,
		&si.DeliveryID,
		&si.CreatedAt,
		&si.AnsweredAt,
	); err != nil {
		return nil, err
	}
	return &si, nil
}

func (r *surveyInstanceRepository) MarkAnswered(ctx context.Context, id string, answeredAt time.Time) (bool, error) {
	const query = `
        UPDATE survey_instances SET status=$1, answered_at=$2
        WHERE id=$3 AND status=$4`
	cmd, err := r.pool.Exec(ctx, query,
		domain.SurveyStatusAnswered,
		answeredAt,
		id,
		domain.SurveyStatusPending,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *surveyInstanceRepository) RevertAnswered(ctx context.Context, id string) error {
	const query = `
        UPDATE survey_instances SET status=$1, answered_at=NULL
        WHERE id=$2 AND status=$3`
	_, err := r.pool.Exec(ctx, query,
		domain.SurveyStatusPending,
		id,
		domain.SurveyStatusAnswered,
	)
	return err
}

func (r *surveyInstanceRepository) AttachDelivery(ctx context.Context, id, deliveryID string) error {
	const query = `UPDATE survey_instances SET delivery_id=$1 WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, deliveryID, id)
	return err
}

func (r *surveyInstanceRepository) ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
        UPDATE survey_instances SET status=$1
        WHERE status=$2 AND survey_date < $3`
	cmd, err := r.pool.Exec(ctx, query,
		domain.SurveyStatusExpired,
		domain.SurveyStatusPending,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
