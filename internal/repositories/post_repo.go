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

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(db *database.DB) *PostRepository {
	return &PostRepository{pool: db.Pool}
}

const postColumns = `id, title, slug, excerpt, content, tags, published,
	published_at, author_id, created_at, updated_at`

func scanPostRow(scanner rowScanner) (*models.Post, error) {
	var post models.Post
	var authorID *string

	err := scanner.Scan(
		&post.ID, &post.Title, &post.Slug, &post.Excerpt, &post.Content,
		&post.Tags, &post.Published, &post.PublishedAt, &authorID,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if authorID != nil {
		post.AuthorID = *authorID
	}
	return &post, nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	return scanPostRow(r.pool.QueryRow(ctx, query, id))
}

func (r *PostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE slug = $1`
	return scanPostRow(r.pool.QueryRow(ctx, query, slug))
}

func (r *PostRepository) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	if publishedOnly {
		query += ` WHERE published = TRUE`
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*models.Post, 0)
	for rows.Next() {
		post, err := scanPostRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return posts, nil
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	post.ID = uuid.New().String()

	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if post.Published && post.PublishedAt == nil {
		post.PublishedAt = &now
	}

	var authorID *string
	if post.AuthorID != "" {
		authorID = &post.AuthorID
	}

	query := `
		INSERT INTO posts (id, title, slug, excerpt, content, tags, published,
			published_at, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		post.ID, post.Title, post.Slug, post.Excerpt, post.Content, post.Tags,
		post.Published, post.PublishedAt, authorID, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return post, nil
}

// Update replaces the editable fields. published_at keeps its original
// value across republishes, is set on first publish and cleared on
// unpublish.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET title = $2, slug = $3, excerpt = $4, content = $5, tags = $6,
			published = $7,
			published_at = CASE WHEN $7 THEN COALESCE(published_at, now()) ELSE NULL END,
			updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		post.ID, post.Title, post.Slug, post.Excerpt, post.Content, post.Tags,
		post.Published,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
