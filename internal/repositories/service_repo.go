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

type ServiceRepository struct {
	pool *pgxpool.Pool
}

func NewServiceRepository(db *database.DB) *ServiceRepository {
	return &ServiceRepository{pool: db.Pool}
}

const serviceColumns = `id, title, slug, description, content, icon, features,
	sort_order, published, created_at, updated_at`

func scanServiceRow(scanner rowScanner) (*models.Service, error) {
	var svc models.Service

	err := scanner.Scan(
		&svc.ID, &svc.Title, &svc.Slug, &svc.Description, &svc.Content,
		&svc.Icon, &svc.Features, &svc.SortOrder, &svc.Published,
		&svc.CreatedAt, &svc.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &svc, nil
}

func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	return scanServiceRow(r.pool.QueryRow(ctx, query, id))
}

func (r *ServiceRepository) GetBySlug(ctx context.Context, slug string) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE slug = $1`
	return scanServiceRow(r.pool.QueryRow(ctx, query, slug))
}

// List orders by sort_order so the public page renders services in their
// configured position.
func (r *ServiceRepository) List(ctx context.Context, publishedOnly bool) ([]*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if publishedOnly {
		query += ` WHERE published = TRUE`
	}
	query += ` ORDER BY sort_order ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	services := make([]*models.Service, 0)
	for rows.Next() {
		svc, err := scanServiceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return services, nil
}

func (r *ServiceRepository) Create(ctx context.Context, svc *models.Service) (*models.Service, error) {
	svc.ID = uuid.New().String()

	now := time.Now()
	svc.CreatedAt = now
	svc.UpdatedAt = now
	if svc.Features == nil {
		svc.Features = []string{}
	}

	query := `
		INSERT INTO services (id, title, slug, description, content, icon,
			features, sort_order, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		svc.ID, svc.Title, svc.Slug, svc.Description, svc.Content, svc.Icon,
		svc.Features, svc.SortOrder, svc.Published, svc.CreatedAt, svc.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return svc, nil
}

func (r *ServiceRepository) Update(ctx context.Context, svc *models.Service) error {
	query := `
		UPDATE services
		SET title = $2, slug = $3, description = $4, content = $5, icon = $6,
			features = $7, sort_order = $8, published = $9, updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		svc.ID, svc.Title, svc.Slug, svc.Description, svc.Content, svc.Icon,
		svc.Features, svc.SortOrder, svc.Published,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
