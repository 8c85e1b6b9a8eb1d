package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
)

// ParticipantRepository encapsulates participant persistence. Participants
// are owned by the administrative subsystem; the core only reads them.
type ParticipantRepository interface {
	Create(ctx context.Context, participant *domain.Participant) error
	GetByID(ctx context.Context, id string) (*domain.Participant, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Participant, error)
	ListEnrolled(ctx context.Context) ([]domain.Participant, error)
}

type participantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository instantiates repository.
func NewParticipantRepository(pool *pgxpool.Pool) ParticipantRepository {
	return &participantRepository{pool: pool}
}

func (r *participantRepository) Create(ctx context.Context, participant *domain.Participant) error {
	const query = `
        INSERT INTO participants (name, phone_number, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		participant.Name,
		participant.PhoneNumber,
		participant.IsActive,
	).Scan(&participant.ID, &participant.CreatedAt)
}

func (r *participantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	const query = `
        SELECT id, name, phone_number, is_active, created_at
        FROM participants WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *participantRepository) GetByPhone(ctx context.Context, phone string) (*domain.Participant, error) {
	const query = `
        SELECT id, name, phone_number, is_active, created_at
        FROM participants WHERE phone_number=$1`
	return r.fetchSingle(ctx, query, phone)
}

func (r *participantRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Participant, error) {
	var p domain.Participant
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&p.ID,
		&p.Name,
		&p.PhoneNumber,
		&p.IsActive,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participantRepository) ListEnrolled(ctx context.Context) ([]domain.Participant, error) {
	const query = `
        SELECT id, name, phone_number, is_active, created_at
        FROM participants WHERE is_active ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanParticipants(rows)
}

func scanParticipants(rows pgx.Rows) ([]domain.Participant, error) {
	var result []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.PhoneNumber,
			&p.IsActive,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
