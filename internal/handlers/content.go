package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/michelvankessel/nedcloud-website/internal/auth"
	"github.com/michelvankessel/nedcloud-website/internal/models"
	pkghttp "github.com/michelvankessel/nedcloud-website/pkg/http"
)

// ContentServiceInterface defines the interface for content business logic
type ContentServiceInterface interface {
	GetPost(ctx context.Context, idOrSlug string) (*models.Post, error)
	ListPosts(ctx context.Context, publishedOnly bool, limit, offset int) ([]*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
	GetService(ctx context.Context, idOrSlug string) (*models.Service, error)
	ListServices(ctx context.Context, publishedOnly bool) ([]*models.Service, error)
	CreateService(ctx context.Context, svc *models.Service) (*models.Service, error)
	UpdateService(ctx context.Context, svc *models.Service) (*models.Service, error)
	DeleteService(ctx context.Context, id string) error
	SubmitContact(ctx context.Context, sub *models.ContactSubmission) (*models.ContactSubmission, error)
	ListContactSubmissions(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error)
	MarkContactRead(ctx context.Context, id string) error
}

// ContentHandler handles the content CRUD and contact form endpoints
type ContentHandler struct {
	service ContentServiceInterface
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(service ContentServiceInterface) *ContentHandler {
	return &ContentHandler{service: service}
}

// PostRequest is the write DTO for posts
type PostRequest struct {
	Title     string   `json:"title" validate:"required,max=200"`
	Slug      string   `json:"slug" validate:"required,max=200"`
	Excerpt   string   `json:"excerpt" validate:"max=500"`
	Content   string   `json:"content" validate:"required,max=100000"`
	Tags      []string `json:"tags" validate:"max=20,dive,max=50"`
	Published bool     `json:"published"`
}

// PostResponse is the read DTO for posts
type PostResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	Tags        []string   `json:"tags"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ServiceRequest is the write DTO for service offerings
type ServiceRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Slug        string   `json:"slug" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=500"`
	Content     string   `json:"content" validate:"max=100000"`
	Icon        string   `json:"icon" validate:"max=100"`
	Features    []string `json:"features" validate:"max=20,dive,max=200"`
	SortOrder   int      `json:"sort_order" validate:"min=0"`
	Published   bool     `json:"published"`
}

// ServiceResponse is the read DTO for service offerings
type ServiceResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Icon        string    `json:"icon"`
	Features    []string  `json:"features"`
	SortOrder   int       `json:"sort_order"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ContactSubmissionResponse is the read DTO for contact submissions
type ContactSubmissionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactRequest is the public contact form DTO
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=200"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=10000"`
}

func serviceToResponse(svc *models.Service) *ServiceResponse {
	return &ServiceResponse{
		ID:          svc.ID,
		Title:       svc.Title,
		Slug:        svc.Slug,
		Description: svc.Description,
		Content:     svc.Content,
		Icon:        svc.Icon,
		Features:    svc.Features,
		SortOrder:   svc.SortOrder,
		Published:   svc.Published,
		CreatedAt:   svc.CreatedAt,
		UpdatedAt:   svc.UpdatedAt,
	}
}

func postToResponse(post *models.Post) *PostResponse {
	return &PostResponse{
		ID:          post.ID,
		Title:       post.Title,
		Slug:        post.Slug,
		Excerpt:     post.Excerpt,
		Content:     post.Content,
		Tags:        post.Tags,
		Published:   post.Published,
		PublishedAt: post.PublishedAt,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
}

// ListPosts returns published posts; authenticated callers also see drafts.
func (h *ContentHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	publishedOnly := auth.SessionFromContext(r.Context()) == nil

	posts, err := h.service.ListPosts(r.Context(), publishedOnly, 20, 0)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	out := make([]*PostResponse, len(posts))
	for i, post := range posts {
		out[i] = postToResponse(post)
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

// GetPost returns a single post by slug or id.
func (h *ContentHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Post not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	if !post.Published && auth.SessionFromContext(r.Context()) == nil {
		pkghttp.WriteNotFound(w, "Post not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, postToResponse(post))
}

// CreatePost creates a post (session required).
func (h *ContentHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	claims := auth.SessionFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	post, err := h.service.CreatePost(r.Context(), &models.Post{
		Title:     req.Title,
		Slug:      req.Slug,
		Excerpt:   req.Excerpt,
		Content:   req.Content,
		Tags:      req.Tags,
		Published: req.Published,
		AuthorID:  claims.UserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "A post with this slug already exists")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Title and slug are required")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, postToResponse(post))
}

// UpdatePost replaces a post's content (session required).
func (h *ContentHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	post, err := h.service.UpdatePost(r.Context(), &models.Post{
		ID:        chi.URLParam(r, "id"),
		Title:     req.Title,
		Slug:      req.Slug,
		Excerpt:   req.Excerpt,
		Content:   req.Content,
		Tags:      req.Tags,
		Published: req.Published,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Post not found")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "A post with this slug already exists")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	// The stored row, not the request echo: timestamps and the original
	// publish date come from the database.
	pkghttp.WriteJSON(w, http.StatusOK, postToResponse(post))
}

// DeletePost removes a post (ADMIN only, enforced in routes).
func (h *ContentHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Post not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListServices returns published services in display order; authenticated
// callers also see unpublished ones.
func (h *ContentHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	publishedOnly := auth.SessionFromContext(r.Context()) == nil

	services, err := h.service.ListServices(r.Context(), publishedOnly)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	out := make([]*ServiceResponse, len(services))
	for i, svc := range services {
		out[i] = serviceToResponse(svc)
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

// GetService returns a single service by slug or id.
func (h *ContentHandler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.service.GetService(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Service not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	if !svc.Published && auth.SessionFromContext(r.Context()) == nil {
		pkghttp.WriteNotFound(w, "Service not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, serviceToResponse(svc))
}

// CreateService creates a service offering (session required).
func (h *ContentHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req ServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	svc, err := h.service.CreateService(r.Context(), &models.Service{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Content:     req.Content,
		Icon:        req.Icon,
		Features:    req.Features,
		SortOrder:   req.SortOrder,
		Published:   req.Published,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "A service with this slug already exists")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Title and slug are required")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, serviceToResponse(svc))
}

// UpdateService replaces a service offering (session required).
func (h *ContentHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var req ServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	svc, err := h.service.UpdateService(r.Context(), &models.Service{
		ID:          chi.URLParam(r, "id"),
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Content:     req.Content,
		Icon:        req.Icon,
		Features:    req.Features,
		SortOrder:   req.SortOrder,
		Published:   req.Published,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Service not found")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "A service with this slug already exists")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, serviceToResponse(svc))
}

// DeleteService removes a service offering (ADMIN only, enforced in routes).
func (h *ContentHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteService(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Service not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitContact stores a public contact form submission.
func (h *ContentHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	_, err := h.service.SubmitContact(r.Context(), &models.ContactSubmission{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "Thank you for your message. We will get back to you soon.",
	})
}

// ListContactSubmissions returns stored submissions (session required).
func (h *ContentHandler) ListContactSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.ListContactSubmissions(r.Context(), 20, 0)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	out := make([]*ContactSubmissionResponse, len(subs))
	for i, sub := range subs {
		out[i] = &ContactSubmissionResponse{
			ID:        sub.ID,
			Name:      sub.Name,
			Email:     sub.Email,
			Subject:   sub.Subject,
			Message:   sub.Message,
			Read:      sub.Read,
			CreatedAt: sub.CreatedAt,
		}
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

// MarkContactRead marks a submission as read (session required).
func (h *ContentHandler) MarkContactRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkContactRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Submission not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
