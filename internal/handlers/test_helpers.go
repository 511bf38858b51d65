package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/michelvankessel/nedcloud-website/internal/auth"
	"github.com/michelvankessel/nedcloud-website/internal/models"
	"github.com/michelvankessel/nedcloud-website/internal/services"
	pkghttp "github.com/michelvankessel/nedcloud-website/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithSessionContext adds session claims to the request context for testing
// authenticated endpoints
func WithSessionContext(req *http.Request, userID, email, role string) *http.Request {
	claims := &models.SessionClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
	}
	ctx := context.WithValue(req.Context(), auth.SessionContextKey, claims)
	return req.WithContext(ctx)
}

// WithChiRouteContext adds chi URL parameters to request context for testing
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc                func(ctx context.Context, email, password, ipAddress, userAgent string) (*services.LoginResult, error)
	VerifyTwoFactorLoginFunc func(ctx context.Context, email, code, ipAddress, userAgent string) (*services.LoginResult, error)
	ChangePasswordFunc       func(ctx context.Context, userID, currentPassword, newPassword, ipAddress, userAgent string) error
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.LoginFunc(ctx, email, password, ipAddress, userAgent)
}

func (m *MockAuthService) VerifyTwoFactorLogin(ctx context.Context, email, code, ipAddress, userAgent string) (*services.LoginResult, error) {
	if m.VerifyTwoFactorLoginFunc == nil {
		return nil, models.ErrInvalidTwoFactorCode
	}
	return m.VerifyTwoFactorLoginFunc(ctx, email, code, ipAddress, userAgent)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, ipAddress, userAgent string) error {
	if m.ChangePasswordFunc == nil {
		return models.ErrInvalidCredentials
	}
	return m.ChangePasswordFunc(ctx, userID, currentPassword, newPassword, ipAddress, userAgent)
}

// MockTwoFactorService implements TwoFactorServiceInterface for testing
type MockTwoFactorService struct {
	SetupFunc    func(ctx context.Context, userID string) (*services.SetupResult, error)
	ActivateFunc func(ctx context.Context, userID, code string, encrypted models.EncryptedSecret) ([]string, error)
	DisableFunc  func(ctx context.Context, userID, code string) error
}

func (m *MockTwoFactorService) Setup(ctx context.Context, userID string) (*services.SetupResult, error) {
	if m.SetupFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.SetupFunc(ctx, userID)
}

func (m *MockTwoFactorService) Activate(ctx context.Context, userID, code string, encrypted models.EncryptedSecret) ([]string, error) {
	if m.ActivateFunc == nil {
		return nil, models.ErrInvalidTwoFactorCode
	}
	return m.ActivateFunc(ctx, userID, code, encrypted)
}

func (m *MockTwoFactorService) Disable(ctx context.Context, userID, code string) error {
	if m.DisableFunc == nil {
		return models.ErrInvalidTwoFactorCode
	}
	return m.DisableFunc(ctx, userID, code)
}

// MockContentService implements ContentServiceInterface for testing
type MockContentService struct {
	GetPostFunc                func(ctx context.Context, idOrSlug string) (*models.Post, error)
	ListPostsFunc              func(ctx context.Context, publishedOnly bool, limit, offset int) ([]*models.Post, error)
	CreatePostFunc             func(ctx context.Context, post *models.Post) (*models.Post, error)
	UpdatePostFunc             func(ctx context.Context, post *models.Post) (*models.Post, error)
	DeletePostFunc             func(ctx context.Context, id string) error
	GetServiceFunc             func(ctx context.Context, idOrSlug string) (*models.Service, error)
	ListServicesFunc           func(ctx context.Context, publishedOnly bool) ([]*models.Service, error)
	CreateServiceFunc          func(ctx context.Context, svc *models.Service) (*models.Service, error)
	UpdateServiceFunc          func(ctx context.Context, svc *models.Service) (*models.Service, error)
	DeleteServiceFunc          func(ctx context.Context, id string) error
	SubmitContactFunc          func(ctx context.Context, sub *models.ContactSubmission) (*models.ContactSubmission, error)
	ListContactSubmissionsFunc func(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error)
	MarkContactReadFunc        func(ctx context.Context, id string) error
}

func (m *MockContentService) GetPost(ctx context.Context, idOrSlug string) (*models.Post, error) {
	if m.GetPostFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetPostFunc(ctx, idOrSlug)
}

func (m *MockContentService) ListPosts(ctx context.Context, publishedOnly bool, limit, offset int) ([]*models.Post, error) {
	if m.ListPostsFunc == nil {
		return []*models.Post{}, nil
	}
	return m.ListPostsFunc(ctx, publishedOnly, limit, offset)
}

func (m *MockContentService) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	if m.CreatePostFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreatePostFunc(ctx, post)
}

func (m *MockContentService) UpdatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	if m.UpdatePostFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdatePostFunc(ctx, post)
}

func (m *MockContentService) DeletePost(ctx context.Context, id string) error {
	if m.DeletePostFunc == nil {
		return models.ErrNotFound
	}
	return m.DeletePostFunc(ctx, id)
}

func (m *MockContentService) GetService(ctx context.Context, idOrSlug string) (*models.Service, error) {
	if m.GetServiceFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetServiceFunc(ctx, idOrSlug)
}

func (m *MockContentService) ListServices(ctx context.Context, publishedOnly bool) ([]*models.Service, error) {
	if m.ListServicesFunc == nil {
		return []*models.Service{}, nil
	}
	return m.ListServicesFunc(ctx, publishedOnly)
}

func (m *MockContentService) CreateService(ctx context.Context, svc *models.Service) (*models.Service, error) {
	if m.CreateServiceFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateServiceFunc(ctx, svc)
}

func (m *MockContentService) UpdateService(ctx context.Context, svc *models.Service) (*models.Service, error) {
	if m.UpdateServiceFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateServiceFunc(ctx, svc)
}

func (m *MockContentService) DeleteService(ctx context.Context, id string) error {
	if m.DeleteServiceFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteServiceFunc(ctx, id)
}

func (m *MockContentService) SubmitContact(ctx context.Context, sub *models.ContactSubmission) (*models.ContactSubmission, error) {
	if m.SubmitContactFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.SubmitContactFunc(ctx, sub)
}

func (m *MockContentService) ListContactSubmissions(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error) {
	if m.ListContactSubmissionsFunc == nil {
		return []*models.ContactSubmission{}, nil
	}
	return m.ListContactSubmissionsFunc(ctx, limit, offset)
}

func (m *MockContentService) MarkContactRead(ctx context.Context, id string) error {
	if m.MarkContactReadFunc == nil {
		return models.ErrNotFound
	}
	return m.MarkContactReadFunc(ctx, id)
}
