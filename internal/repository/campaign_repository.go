package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
)

// CampaignRepository encapsulates campaign persistence. The core only reads
// date bounds and the active flag; creation is an administrative passthrough.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	ListActive(ctx context.Context) ([]domain.Campaign, error)
}

type campaignRepository struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository instantiates repository.
func NewCampaignRepository(pool *pgxpool.Pool) CampaignRepository {
	return &campaignRepository{pool: pool}
}

func (r *campaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	const query = `
        INSERT INTO campaigns (name, description, start_date, end_date, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		campaign.Name,
		campaign.Description,
		campaign.StartDate,
		campaign.EndDate,
		campaign.IsActive,
	).Scan(&campaign.ID, &campaign.CreatedAt)
}

func (r *campaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	const query = `
        SELECT id, name, description, start_date, end_date, is_active, created_at
        FROM campaigns WHERE id=$1`
	var c domain.Campaign
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.StartDate,
		&c.EndDate,
		&c.IsActive,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *campaignRepository) ListActive(ctx context.Context) ([]domain.Campaign, error) {
	const query = `
        SELECT id, name, description, start_date, end_date, is_active, created_at
        FROM campaigns WHERE is_active ORDER BY start_date`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCampaigns(rows)
}

func scanCampaigns(rows pgx.Rows) ([]domain.Campaign, error) {
	var result []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Description,
			&c.StartDate,
			&c.EndDate,
			&c.IsActive,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
