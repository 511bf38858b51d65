package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michelvankessel/nedcloud-website/internal/models"
)

func newTestContentService(posts PostRepository, services ServiceRepository, contacts ContactRepository) *ContentService {
	if posts == nil {
		posts = &MockPostRepository{}
	}
	if services == nil {
		services = &MockServiceRepository{}
	}
	if contacts == nil {
		contacts = &MockContactRepository{}
	}
	return NewContentService(posts, services, contacts, slog.Default())
}

func TestContentService_CreatePost_NormalizesTitleAndSlug(t *testing.T) {
	posts := &MockPostRepository{
		CreateFunc: func(ctx context.Context, post *models.Post) (*models.Post, error) {
			assert.Equal(t, "Cloud migration", post.Title)
			assert.Equal(t, "cloud-migration", post.Slug)
			post.ID = "post123"
			return post, nil
		},
	}

	svc := newTestContentService(posts, nil, nil)
	created, err := svc.CreatePost(context.Background(), &models.Post{
		Title: "  Cloud migration  ",
		Slug:  " Cloud-Migration ",
	})
	require.NoError(t, err)
	assert.Equal(t, "post123", created.ID)
}

func TestContentService_CreatePost_RequiresTitleAndSlug(t *testing.T) {
	svc := newTestContentService(nil, nil, nil)

	cases := map[string]*models.Post{
		"empty title":      {Slug: "a-slug"},
		"empty slug":       {Title: "Title"},
		"whitespace title": {Title: "   ", Slug: "a-slug"},
	}

	for name, post := range cases {
		_, err := svc.CreatePost(context.Background(), post)
		assert.ErrorIs(t, err, models.ErrBadRequest, name)
	}
}

func TestContentService_CreatePost_SlugConflict(t *testing.T) {
	posts := &MockPostRepository{
		CreateFunc: func(ctx context.Context, post *models.Post) (*models.Post, error) {
			return nil, models.ErrConflict
		},
	}

	svc := newTestContentService(posts, nil, nil)
	_, err := svc.CreatePost(context.Background(), &models.Post{Title: "Title", Slug: "taken"})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestContentService_UpdatePost_ReturnsStoredRow(t *testing.T) {
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	stored := &models.Post{
		ID:        "post123",
		Title:     "Revised title",
		Slug:      "cloud-migration",
		Published: true,
		CreatedAt: created,
		UpdatedAt: time.Now(),
	}

	posts := &MockPostRepository{
		UpdateFunc: func(ctx context.Context, post *models.Post) error {
			return nil
		},
		GetByIDFunc: func(ctx context.Context, id string) (*models.Post, error) {
			assert.Equal(t, "post123", id)
			return stored, nil
		},
	}

	svc := newTestContentService(posts, nil, nil)
	result, err := svc.UpdatePost(context.Background(), &models.Post{ID: "post123", Title: "Revised title", Slug: "cloud-migration"})
	require.NoError(t, err)

	// The caller gets the database row, timestamps included
	assert.Same(t, stored, result)
	assert.Equal(t, created, result.CreatedAt)
}

func TestContentService_UpdatePost_NotFound(t *testing.T) {
	posts := &MockPostRepository{
		UpdateFunc: func(ctx context.Context, post *models.Post) error {
			return models.ErrNotFound
		},
	}

	svc := newTestContentService(posts, nil, nil)
	_, err := svc.UpdatePost(context.Background(), &models.Post{ID: "missing"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestContentService_GetPost_SlugThenID(t *testing.T) {
	post := &models.Post{ID: "post123", Slug: "cloud-migration"}
	posts := &MockPostRepository{
		GetBySlugFunc: func(ctx context.Context, slug string) (*models.Post, error) {
			return nil, models.ErrNotFound
		},
		GetByIDFunc: func(ctx context.Context, id string) (*models.Post, error) {
			assert.Equal(t, "post123", id)
			return post, nil
		},
	}

	svc := newTestContentService(posts, nil, nil)
	result, err := svc.GetPost(context.Background(), "post123")
	require.NoError(t, err)
	assert.Same(t, post, result)
}

func TestContentService_ListPosts_ClampsPagination(t *testing.T) {
	posts := &MockPostRepository{
		ListFunc: func(ctx context.Context, publishedOnly bool, limit, offset int) ([]*models.Post, error) {
			assert.Equal(t, 20, limit)
			assert.Equal(t, 0, offset)
			return []*models.Post{}, nil
		},
	}

	svc := newTestContentService(posts, nil, nil)
	_, err := svc.ListPosts(context.Background(), true, 5000, -3)
	require.NoError(t, err)
}

func TestContentService_CreateService_NormalizesSlug(t *testing.T) {
	repo := &MockServiceRepository{
		CreateFunc: func(ctx context.Context, s *models.Service) (*models.Service, error) {
			assert.Equal(t, "managed-hosting", s.Slug)
			s.ID = "svc123"
			return s, nil
		},
	}

	svc := newTestContentService(nil, repo, nil)
	created, err := svc.CreateService(context.Background(), &models.Service{
		Title: "Managed hosting",
		Slug:  " Managed-Hosting ",
	})
	require.NoError(t, err)
	assert.Equal(t, "svc123", created.ID)
}

func TestContentService_UpdateService_ReturnsStoredRow(t *testing.T) {
	stored := &models.Service{ID: "svc123", Title: "Managed hosting", SortOrder: 2}
	repo := &MockServiceRepository{
		UpdateFunc: func(ctx context.Context, s *models.Service) error {
			return nil
		},
		GetByIDFunc: func(ctx context.Context, id string) (*models.Service, error) {
			return stored, nil
		},
	}

	svc := newTestContentService(nil, repo, nil)
	result, err := svc.UpdateService(context.Background(), &models.Service{ID: "svc123"})
	require.NoError(t, err)
	assert.Same(t, stored, result)
}

func TestContentService_MarkContactRead_NotFound(t *testing.T) {
	contacts := &MockContactRepository{
		MarkReadFunc: func(ctx context.Context, id string) error {
			return models.ErrNotFound
		},
	}

	svc := newTestContentService(nil, nil, contacts)
	err := svc.MarkContactRead(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
