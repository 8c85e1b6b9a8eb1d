package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
)

// ResponseRepository persists completed surveys. Responses are immutable;
// there is no update path.
type ResponseRepository interface {
	Create(ctx context.Context, response *domain.Response) error
	GetByInstance(ctx context.Context, instanceID string) (*domain.Response, error)
	// ListAnswered returns responses for a participant/campaign pair ordered
	// by survey date ascending, the order the aggregator consumes.
	ListAnswered(ctx context.Context, participantID, campaignID string) ([]domain.Response, error)
}

type responseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository instantiates repository.
func NewResponseRepository(pool *pgxpool.Pool) ResponseRepository {
	return &responseRepository{pool: pool}
}

func (r *responseRepository) Create(ctx context.Context, response *domain.Response) error {
	const query = `
        INSERT INTO responses (survey_instance_id, participant_id, campaign_id, survey_date,
                               joy, achievement, meaningfulness, influence_text, submitted_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		response.SurveyInstanceID,
		response.ParticipantID,
		response.CampaignID,
		response.SurveyDate,
		response.Joy,
		response.Achievement,
		response.Meaningfulness,
		response.InfluenceText,
		response.SubmittedAt,
	).Scan(&response.ID)
}

func (r *responseRepository) GetByInstance(ctx context.Context, instanceID string) (*domain.Response, error) {
	const query = `
        SELECT id, survey_instance_id, participant_id, campaign_id, survey_date,
               joy, achievement, meaningfulness, influence_text, submitted_at
        FROM responses WHERE survey_instance_id=$1`
	var resp domain.Response
	if err := r.pool.QueryRow(ctx, query, instanceID).Scan(
		&resp.ID,
		&resp.SurveyInstanceID,
		&resp.ParticipantID,
		&resp.CampaignID,
		&resp.SurveyDate,
		&resp.Joy,
		&resp.Achievement,
		&resp.Meaningfulness,
		&resp.InfluenceText,
		&resp.SubmittedAt,
	); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *responseRepository) ListAnswered(ctx context.Context, participantID, campaignID string) ([]domain.Response, error) {
	const query = `
        SELECT id, survey_instance_id, participant_id, campaign_id, survey_date,
               joy, achievement, meaningfulness, influence_text, submitted_at
        FROM responses
        WHERE participant_id=$1 AND campaign_id=$2
        ORDER BY survey_date ASC`
	rows, err := r.pool.Query(ctx, query, participantID, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResponses(rows)
}

func scanResponses(rows pgx.Rows) ([]domain.Response, error) {
	var result []domain.Response
	for rows.Next() {
		var resp domain.Response
		if err := rows.Scan(
			&resp.ID,
			&resp.SurveyInstanceID,
			&resp.ParticipantID,
			&resp.CampaignID,
			&resp.SurveyDate,
			&resp.Joy,
			&resp.Achievement,
			&resp.Meaningfulness,
			&resp.InfluenceText,
			&resp.SubmittedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, resp)
	}
	return result, rows.Err()
}
