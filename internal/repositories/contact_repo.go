package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/michelvankessel/nedcloud-website/internal/database"
	"github.com/michelvankessel/nedcloud-website/internal/models"
)

type ContactRepository struct {
	pool *pgxpool.Pool
}

func NewContactRepository(db *database.DB) *ContactRepository {
	return &ContactRepository{pool: db.Pool}
}

func (r *ContactRepository) Create(ctx context.Context, sub *models.ContactSubmission) (*models.ContactSubmission, error) {
	sub.ID = uuid.New().String()
	sub.CreatedAt = time.Now()

	query := `
		INSERT INTO contact_submissions (id, name, email, subject, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		sub.ID, sub.Name, sub.Email, sub.Subject, sub.Message, sub.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return sub, nil
}

func (r *ContactRepository) List(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error) {
	query := `
		SELECT id, name, email, subject, message, read, created_at
		FROM contact_submissions ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact submissions: %w", err)
	}
	defer rows.Close()

	subs := make([]*models.ContactSubmission, 0)
	for rows.Next() {
		var sub models.ContactSubmission
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Email, &sub.Subject,
			&sub.Message, &sub.Read, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact submission: %w", err)
		}
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return subs, nil
}

func (r *ContactRepository) MarkRead(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contact_submissions SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
