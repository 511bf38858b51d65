package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/michelvankessel/nedcloud-website/internal/auth"
	"github.com/michelvankessel/nedcloud-website/internal/models"
	pkgauth "github.com/michelvankessel/nedcloud-website/pkg/auth"
	pkglogger "github.com/michelvankessel/nedcloud-website/pkg/logger"
)

// UserRepository defines the user store operations the auth services need
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	EnableTwoFactor(ctx context.Context, id string, secret models.EncryptedSecret, codeHashes []string, verifiedAt time.Time) error
	DisableTwoFactor(ctx context.Context, id string) error
	UpdateBackupCodes(ctx context.Context, id string, expected, remaining []string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// Login statuses
const (
	StatusAuthenticated     = "authenticated"
	StatusTwoFactorRequired = "two_factor_required"
)

// SessionUser is the account view carried in login responses.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// LoginResult is the outcome of a successful credential check: either a
// session, or a signal that a second factor is still required.
type LoginResult struct {
	Status string       `json:"status"`
	Token  string       `json:"token,omitempty"`
	User   *SessionUser `json:"user,omitempty"`
}

// AuthService orchestrates password verification, the two-factor
// requirement decision, and session issuance.
type AuthService struct {
	repo          UserRepository
	tm            *auth.TokenManager
	totp          *auth.TOTPManager
	encryptionKey string
	logger        *slog.Logger
	audit         *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, tm *auth.TokenManager, totp *auth.TOTPManager, encryptionKey string, logger *slog.Logger, audit *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:          repo,
		tm:            tm,
		totp:          totp,
		encryptionKey: encryptionKey,
		logger:        logger,
		audit:         audit,
	}
}

// Login verifies email + password. Accounts with two-factor enabled never
// receive a session from this call alone; they get StatusTwoFactorRequired
// and must complete VerifyTwoFactorLogin. Unknown email, missing password
// hash and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.audit.LogAuthEvent(pkglogger.SecurityEvent{
				EventType:     "login_failed",
				IPAddress:     ipAddress,
				UserAgent:     userAgent,
				FailureReason: "invalid_credentials",
			})
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.HasPassword() {
		s.logger.Info("login failed: invalid credentials")
		s.audit.LogAuthEvent(pkglogger.SecurityEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			UserAgent:     userAgent,
			FailureReason: "invalid_credentials",
		})
		return nil, models.ErrInvalidCredentials
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		s.audit.LogAuthEvent(pkglogger.SecurityEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			UserAgent:     userAgent,
			FailureReason: "invalid_credentials",
		})
		return nil, models.ErrInvalidCredentials
	}

	if user.TwoFactorEnabled {
		// Password is correct but a second factor is still required.
		// The caller resumes via VerifyTwoFactorLogin keyed by email.
		s.audit.LogAuthEvent(pkglogger.SecurityEvent{
			EventType: "login_two_factor_pending",
			UserID:    user.ID,
			IPAddress: ipAddress,
			UserAgent: userAgent,
			Success:   true,
		})
		return &LoginResult{Status: StatusTwoFactorRequired}, nil
	}

	token, err := s.tm.GenerateSessionToken(user)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.audit.LogAuthEvent(pkglogger.SecurityEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   true,
	})

	return &LoginResult{
		Status: StatusAuthenticated,
		Token:  token,
		User:   sessionUser(user),
	}, nil
}

// VerifyTwoFactorLogin completes a pending login with a 6-digit TOTP code
// or a backup code. Backup-code consumption persists the shrunken hash
// list with a compare-and-swap, so a code can only ever be spent once. A
// failed attempt consumes nothing.
func (s *AuthService) VerifyTwoFactorLogin(ctx context.Context, email, code, ipAddress, userAgent string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrTwoFactorNotEnabled
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return nil, models.ErrTwoFactorNotEnabled
	}

	secret, err := auth.DecryptSecret(*user.TwoFactorSecret, s.encryptionKey)
	if err != nil {
		// A stored secret that cannot be decrypted is data corruption,
		// not a user error.
		s.logger.Error("failed to decrypt stored TOTP secret",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if s.totp.VerifyCode(code, secret) {
		s.audit.LogAuthEvent(pkglogger.SecurityEvent{
			EventType: "two_factor_login_success",
			UserID:    user.ID,
			IPAddress: ipAddress,
			UserAgent: userAgent,
			Success:   true,
			Metadata:  map[string]string{"method": "totp"},
		})
		return s.issueSession(user)
	}

	// TOTP failed; fall back to backup codes.
	if len(user.TwoFactorBackupCodes) > 0 {
		valid, remaining := auth.ConsumeBackupCode(code, user.TwoFactorBackupCodes)
		if valid {
			err := s.repo.UpdateBackupCodes(ctx, user.ID, user.TwoFactorBackupCodes, remaining)
			if err != nil {
				if errors.Is(err, models.ErrConflict) {
					// A concurrent request consumed a code first;
					// treat this attempt as failed.
					s.logger.Warn("backup code consumption lost the race",
						slog.String("user_id", user.ID))
					return nil, s.failTwoFactor(user, ipAddress, userAgent)
				}
				s.logger.Error("failed to persist backup codes",
					slog.String("user_id", user.ID), slog.Any("error", err))
				return nil, models.ErrInternalServer
			}

			s.audit.LogAuthEvent(pkglogger.SecurityEvent{
				EventType: "two_factor_login_success",
				UserID:    user.ID,
				IPAddress: ipAddress,
				UserAgent: userAgent,
				Success:   true,
				Metadata:  map[string]string{"method": "backup_code"},
			})
			s.logger.Info("backup code consumed",
				slog.String("user_id", user.ID),
				slog.Int("codes_remaining", len(remaining)))
			return s.issueSession(user)
		}
	}

	return nil, s.failTwoFactor(user, ipAddress, userAgent)
}

// ChangePassword replaces the caller's password after re-verifying the
// current one. The new password must pass the same strength rules as at
// account creation.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, ipAddress, userAgent string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if !user.HasPassword() || pkgauth.ComparePassword(user.PasswordHash, currentPassword) != nil {
		s.audit.LogAuthEvent(pkglogger.SecurityEvent{
			EventType:     "password_change_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			UserAgent:     userAgent,
			FailureReason: "invalid_current_password",
		})
		return models.ErrInvalidCredentials
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logger.Error("failed to update password", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password changed", slog.String("user_id", user.ID))
	s.audit.LogAuthEvent(pkglogger.SecurityEvent{
		EventType: "password_changed",
		UserID:    user.ID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   true,
	})
	return nil
}

func (s *AuthService) failTwoFactor(user *models.User, ipAddress, userAgent string) error {
	s.logger.Info("two-factor verification failed", slog.String("user_id", user.ID))
	s.audit.LogAuthEvent(pkglogger.SecurityEvent{
		EventType:     "two_factor_login_failed",
		UserID:        user.ID,
		IPAddress:     ipAddress,
		UserAgent:     userAgent,
		FailureReason: "invalid_code",
	})
	return models.ErrInvalidTwoFactorCode
}

func (s *AuthService) issueSession(user *models.User) (*LoginResult, error) {
	token, err := s.tm.GenerateSessionToken(user)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return &LoginResult{
		Status: StatusAuthenticated,
		Token:  token,
		User:   sessionUser(user),
	}, nil
}

func sessionUser(user *models.User) *SessionUser {
	return &SessionUser{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
}
