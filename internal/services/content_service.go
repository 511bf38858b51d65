package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/michelvankessel/nedcloud-website/internal/models"
)

// PostRepository defines the post store operations the content service needs
type PostRepository interface {
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*models.Post, error)
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
}

// ServiceRepository defines the service offering store operations
type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*models.Service, error)
	GetBySlug(ctx context.Context, slug string) (*models.Service, error)
	List(ctx context.Context, publishedOnly bool) ([]*models.Service, error)
	Create(ctx context.Context, svc *models.Service) (*models.Service, error)
	Update(ctx context.Context, svc *models.Service) error
	Delete(ctx context.Context, id string) error
}

// ContactRepository defines the contact submission store operations
type ContactRepository interface {
	Create(ctx context.Context, sub *models.ContactSubmission) (*models.ContactSubmission, error)
	List(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error)
	MarkRead(ctx context.Context, id string) error
}

// ContentService handles the marketing-site content entities.
type ContentService struct {
	posts    PostRepository
	services ServiceRepository
	contacts ContactRepository
	logger   *slog.Logger
}

// NewContentService creates a new ContentService
func NewContentService(posts PostRepository, services ServiceRepository, contacts ContactRepository, logger *slog.Logger) *ContentService {
	return &ContentService{
		posts:    posts,
		services: services,
		contacts: contacts,
		logger:   logger,
	}
}

func (s *ContentService) GetPost(ctx context.Context, idOrSlug string) (*models.Post, error) {
	post, err := s.posts.GetBySlug(ctx, idOrSlug)
	if err == nil {
		return post, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to get post", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	post, err = s.posts.GetByID(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get post", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return post, nil
}

func (s *ContentService) ListPosts(ctx context.Context, publishedOnly bool, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	posts, err := s.posts.List(ctx, publishedOnly, limit, offset)
	if err != nil {
		s.logger.Error("failed to list posts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return posts, nil
}

func (s *ContentService) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	post.Title = strings.TrimSpace(post.Title)
	post.Slug = strings.TrimSpace(strings.ToLower(post.Slug))
	if post.Title == "" || post.Slug == "" {
		return nil, models.ErrBadRequest
	}

	created, err := s.posts.Create(ctx, post)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create post", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("post created", slog.String("post_id", created.ID), slog.String("slug", created.Slug))
	return created, nil
}

// UpdatePost writes the new content and returns the stored row, so callers
// see the database-owned fields (created_at, updated_at, an earlier
// published_at) rather than what they sent.
func (s *ContentService) UpdatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to update post", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	stored, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		s.logger.Error("failed to reload post after update", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return stored, nil
}

func (s *ContentService) DeletePost(ctx context.Context, id string) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete post", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

func (s *ContentService) GetService(ctx context.Context, idOrSlug string) (*models.Service, error) {
	svc, err := s.services.GetBySlug(ctx, idOrSlug)
	if err == nil {
		return svc, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to get service", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	svc, err = s.services.GetByID(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get service", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return svc, nil
}

func (s *ContentService) ListServices(ctx context.Context, publishedOnly bool) ([]*models.Service, error) {
	services, err := s.services.List(ctx, publishedOnly)
	if err != nil {
		s.logger.Error("failed to list services", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return services, nil
}

func (s *ContentService) CreateService(ctx context.Context, svc *models.Service) (*models.Service, error) {
	svc.Title = strings.TrimSpace(svc.Title)
	svc.Slug = strings.TrimSpace(strings.ToLower(svc.Slug))
	if svc.Title == "" || svc.Slug == "" {
		return nil, models.ErrBadRequest
	}

	created, err := s.services.Create(ctx, svc)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create service", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("service created", slog.String("service_id", created.ID), slog.String("slug", created.Slug))
	return created, nil
}

func (s *ContentService) UpdateService(ctx context.Context, svc *models.Service) (*models.Service, error) {
	if err := s.services.Update(ctx, svc); err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to update service", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	stored, err := s.services.GetByID(ctx, svc.ID)
	if err != nil {
		s.logger.Error("failed to reload service after update", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return stored, nil
}

func (s *ContentService) DeleteService(ctx context.Context, id string) error {
	if err := s.services.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete service", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

func (s *ContentService) SubmitContact(ctx context.Context, sub *models.ContactSubmission) (*models.ContactSubmission, error) {
	created, err := s.contacts.Create(ctx, sub)
	if err != nil {
		s.logger.Error("failed to store contact submission", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	s.logger.Info("contact submission received", slog.String("submission_id", created.ID))
	return created, nil
}

func (s *ContentService) ListContactSubmissions(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	subs, err := s.contacts.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list contact submissions", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return subs, nil
}

func (s *ContentService) MarkContactRead(ctx context.Context, id string) error {
	if err := s.contacts.MarkRead(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to mark contact submission read", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}
