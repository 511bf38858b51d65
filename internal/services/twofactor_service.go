package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/michelvankessel/nedcloud-website/internal/auth"
	"github.com/michelvankessel/nedcloud-website/internal/models"
	pkglogger "github.com/michelvankessel/nedcloud-website/pkg/logger"
)

// TwoFactorService handles enrollment and disablement of two-factor
// authentication for an already authenticated account.
type TwoFactorService struct {
	repo            UserRepository
	totp            *auth.TOTPManager
	encryptionKey   string
	backupCodeCount int
	logger          *slog.Logger
	audit           *pkglogger.AuditLogger
}

// NewTwoFactorService creates a new TwoFactorService
func NewTwoFactorService(repo UserRepository, totp *auth.TOTPManager, encryptionKey string, backupCodeCount int, logger *slog.Logger, audit *pkglogger.AuditLogger) *TwoFactorService {
	return &TwoFactorService{
		repo:            repo,
		totp:            totp,
		encryptionKey:   encryptionKey,
		backupCodeCount: backupCodeCount,
		logger:          logger,
		audit:           audit,
	}
}

// SetupResult is the transient enrollment payload. The plaintext secret
// and its ciphertext live only in the client round trip between Setup and
// Activate; the server keeps no state in between.
type SetupResult struct {
	Secret          string
	EncryptedSecret models.EncryptedSecret
	QRCode          string
}

// Setup generates a fresh secret, its ciphertext and a provisioning QR
// code without persisting anything. Returns ErrConflict when two-factor
// is already enabled; it must be disabled before re-enrollment.
func (s *TwoFactorService) Setup(ctx context.Context, userID string) (*SetupResult, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to fetch user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.TwoFactorEnabled {
		return nil, models.ErrConflict
	}

	enrollment, err := s.totp.GenerateEnrollment(user.Email)
	if err != nil {
		s.logger.Error("failed to generate TOTP enrollment", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	encrypted, err := auth.EncryptSecret(enrollment.Secret, s.encryptionKey)
	if err != nil {
		s.logger.Error("failed to encrypt TOTP secret", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("two-factor setup initiated", slog.String("user_id", userID))

	return &SetupResult{
		Secret:          enrollment.Secret,
		EncryptedSecret: encrypted,
		QRCode:          enrollment.QRCode,
	}, nil
}

// Activate verifies a TOTP code against the client-held ciphertext from
// Setup and, on success, commits the secret together with freshly
// generated backup codes. Nothing is persisted when verification fails,
// so a secret nobody proved possession of never reaches storage.
// Returns the plaintext backup codes; this is the only time they exist.
func (s *TwoFactorService) Activate(ctx context.Context, userID, code string, encrypted models.EncryptedSecret) ([]string, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to fetch user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.TwoFactorEnabled {
		return nil, models.ErrConflict
	}

	// The ciphertext comes back from the client, so re-derive the secret
	// and demand a valid code before trusting it.
	secret, err := auth.DecryptSecret(encrypted, s.encryptionKey)
	if err != nil {
		s.logger.Warn("activation with undecryptable secret", slog.String("user_id", userID))
		return nil, models.ErrInvalidTwoFactorCode
	}

	if !s.totp.VerifyCode(code, secret) {
		s.audit.LogAuthEvent(pkglogger.SecurityEvent{
			EventType:     "two_factor_activation_failed",
			UserID:        userID,
			FailureReason: "invalid_code",
		})
		return nil, models.ErrInvalidTwoFactorCode
	}

	backupCodes, err := auth.GenerateBackupCodes(s.backupCodeCount)
	if err != nil {
		s.logger.Error("failed to generate backup codes", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	hashes := auth.HashBackupCodes(backupCodes)

	if err := s.repo.EnableTwoFactor(ctx, userID, encrypted, hashes, time.Now()); err != nil {
		s.logger.Error("failed to enable two-factor", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("two-factor enabled", slog.String("user_id", userID))
	s.audit.LogAuthEvent(pkglogger.SecurityEvent{
		EventType: "two_factor_enabled",
		UserID:    userID,
		Success:   true,
	})

	return backupCodes, nil
}

// Disable turns off two-factor authentication. A currently valid TOTP
// code or an unused backup code is required even though the caller holds
// a session: a hijacked session alone must not be enough to strip the
// second factor.
func (s *TwoFactorService) Disable(ctx context.Context, userID, code string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to fetch user", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return models.ErrTwoFactorNotEnabled
	}

	secret, err := auth.DecryptSecret(*user.TwoFactorSecret, s.encryptionKey)
	if err != nil {
		s.logger.Error("failed to decrypt stored TOTP secret",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	verified := s.totp.VerifyCode(code, secret)
	if !verified {
		valid, _ := auth.ConsumeBackupCode(code, user.TwoFactorBackupCodes)
		verified = valid
	}

	if !verified {
		s.audit.LogAuthEvent(pkglogger.SecurityEvent{
			EventType:     "two_factor_disable_failed",
			UserID:        userID,
			FailureReason: "invalid_code",
		})
		return models.ErrInvalidTwoFactorCode
	}

	if err := s.repo.DisableTwoFactor(ctx, userID); err != nil {
		s.logger.Error("failed to disable two-factor", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("two-factor disabled", slog.String("user_id", userID))
	s.audit.LogAuthEvent(pkglogger.SecurityEvent{
		EventType: "two_factor_disabled",
		UserID:    userID,
		Success:   true,
	})

	return nil
}
