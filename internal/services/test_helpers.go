package services

import (
	"context"
	"time"

	"github.com/michelvankessel/nedcloud-website/internal/models"
)

// MockUserRepository is a mock implementation of UserRepository for testing
type MockUserRepository struct {
	GetByEmailFunc        func(ctx context.Context, email string) (*models.User, error)
	GetByIDFunc           func(ctx context.Context, id string) (*models.User, error)
	CreateFunc            func(ctx context.Context, user *models.User) (*models.User, error)
	EnableTwoFactorFunc   func(ctx context.Context, id string, secret models.EncryptedSecret, codeHashes []string, verifiedAt time.Time) error
	DisableTwoFactorFunc  func(ctx context.Context, id string) error
	UpdateBackupCodesFunc func(ctx context.Context, id string, expected, remaining []string) error
	UpdatePasswordFunc    func(ctx context.Context, id, passwordHash string) error
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) EnableTwoFactor(ctx context.Context, id string, secret models.EncryptedSecret, codeHashes []string, verifiedAt time.Time) error {
	if m.EnableTwoFactorFunc != nil {
		return m.EnableTwoFactorFunc(ctx, id, secret, codeHashes, verifiedAt)
	}
	return nil
}

func (m *MockUserRepository) DisableTwoFactor(ctx context.Context, id string) error {
	if m.DisableTwoFactorFunc != nil {
		return m.DisableTwoFactorFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) UpdateBackupCodes(ctx context.Context, id string, expected, remaining []string) error {
	if m.UpdateBackupCodesFunc != nil {
		return m.UpdateBackupCodesFunc(ctx, id, expected, remaining)
	}
	return nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

// NewTestUser creates a user with sensible defaults for testing
func NewTestUser(id, email, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      models.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MockPostRepository is a mock implementation of PostRepository for testing
type MockPostRepository struct {
	GetByIDFunc   func(ctx context.Context, id string) (*models.Post, error)
	GetBySlugFunc func(ctx context.Context, slug string) (*models.Post, error)
	ListFunc      func(ctx context.Context, publishedOnly bool, limit, offset int) ([]*models.Post, error)
	CreateFunc    func(ctx context.Context, post *models.Post) (*models.Post, error)
	UpdateFunc    func(ctx context.Context, post *models.Post) error
	DeleteFunc    func(ctx context.Context, id string) error
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockPostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	if m.GetBySlugFunc != nil {
		return m.GetBySlugFunc(ctx, slug)
	}
	return nil, models.ErrNotFound
}

func (m *MockPostRepository) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*models.Post, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, publishedOnly, limit, offset)
	}
	return []*models.Post{}, nil
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, post)
	}
	return post, nil
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, post)
	}
	return nil
}

func (m *MockPostRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockServiceRepository is a mock implementation of ServiceRepository for testing
type MockServiceRepository struct {
	GetByIDFunc   func(ctx context.Context, id string) (*models.Service, error)
	GetBySlugFunc func(ctx context.Context, slug string) (*models.Service, error)
	ListFunc      func(ctx context.Context, publishedOnly bool) ([]*models.Service, error)
	CreateFunc    func(ctx context.Context, svc *models.Service) (*models.Service, error)
	UpdateFunc    func(ctx context.Context, svc *models.Service) error
	DeleteFunc    func(ctx context.Context, id string) error
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id string) (*models.Service, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockServiceRepository) GetBySlug(ctx context.Context, slug string) (*models.Service, error) {
	if m.GetBySlugFunc != nil {
		return m.GetBySlugFunc(ctx, slug)
	}
	return nil, models.ErrNotFound
}

func (m *MockServiceRepository) List(ctx context.Context, publishedOnly bool) ([]*models.Service, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, publishedOnly)
	}
	return []*models.Service{}, nil
}

func (m *MockServiceRepository) Create(ctx context.Context, svc *models.Service) (*models.Service, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, svc)
	}
	return svc, nil
}

func (m *MockServiceRepository) Update(ctx context.Context, svc *models.Service) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, svc)
	}
	return nil
}

func (m *MockServiceRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockContactRepository is a mock implementation of ContactRepository for testing
type MockContactRepository struct {
	CreateFunc   func(ctx context.Context, sub *models.ContactSubmission) (*models.ContactSubmission, error)
	ListFunc     func(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error)
	MarkReadFunc func(ctx context.Context, id string) error
}

func (m *MockContactRepository) Create(ctx context.Context, sub *models.ContactSubmission) (*models.ContactSubmission, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, sub)
	}
	return sub, nil
}

func (m *MockContactRepository) List(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.ContactSubmission{}, nil
}

func (m *MockContactRepository) MarkRead(ctx context.Context, id string) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, id)
	}
	return nil
}
