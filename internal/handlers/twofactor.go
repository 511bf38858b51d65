package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/michelvankessel/nedcloud-website/internal/auth"
	"github.com/michelvankessel/nedcloud-website/internal/models"
	"github.com/michelvankessel/nedcloud-website/internal/services"
	pkghttp "github.com/michelvankessel/nedcloud-website/pkg/http"
)

// TwoFactorServiceInterface defines the interface for 2FA enrollment logic
type TwoFactorServiceInterface interface {
	Setup(ctx context.Context, userID string) (*services.SetupResult, error)
	Activate(ctx context.Context, userID, code string, encrypted models.EncryptedSecret) ([]string, error)
	Disable(ctx context.Context, userID, code string) error
}

// TwoFactorHandler handles 2FA enrollment endpoints for authenticated users
type TwoFactorHandler struct {
	service TwoFactorServiceInterface
}

// NewTwoFactorHandler creates a new TwoFactorHandler
func NewTwoFactorHandler(service TwoFactorServiceInterface) *TwoFactorHandler {
	return &TwoFactorHandler{service: service}
}

// SetupResponse carries the transient enrollment payload. The client must
// send encrypted_secret back on verify; the server keeps nothing between
// the two calls.
type SetupResponse struct {
	Secret          string `json:"secret"`
	EncryptedSecret string `json:"encrypted_secret"`
	QRCode          string `json:"qr_code"`
}

// ActivateRequest verifies possession of the secret from setup
type ActivateRequest struct {
	Token           string `json:"token" validate:"required,len=6,numeric"`
	EncryptedSecret string `json:"encrypted_secret" validate:"required"`
}

// ActivateResponse confirms enablement and returns the one-time view of
// the plaintext backup codes.
type ActivateResponse struct {
	Success     bool     `json:"success"`
	BackupCodes []string `json:"backup_codes"`
}

// DisableRequest requires re-proving factor possession
type DisableRequest struct {
	Token string `json:"token" validate:"required,min=6,max=20"`
}

// Setup generates a fresh secret, ciphertext and QR code.
func (h *TwoFactorHandler) Setup(w http.ResponseWriter, r *http.Request) {
	claims := auth.SessionFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	result, err := h.service.Setup(r.Context(), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteBadRequest(w, "Two-factor authentication is already enabled. Disable it first to set up again.")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		default:
			pkghttp.WriteInternalError(w, "Failed to generate two-factor setup")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SetupResponse{
		Secret:          result.Secret,
		EncryptedSecret: string(result.EncryptedSecret),
		QRCode:          result.QRCode,
	})
}

// Activate verifies the first code and enables two-factor authentication.
func (h *TwoFactorHandler) Activate(w http.ResponseWriter, r *http.Request) {
	claims := auth.SessionFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	backupCodes, err := h.service.Activate(r.Context(), claims.UserID, req.Token,
		models.EncryptedSecret(req.EncryptedSecret))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidTwoFactorCode):
			pkghttp.WriteBadRequest(w, "Invalid verification code")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteBadRequest(w, "Two-factor authentication is already enabled")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		default:
			pkghttp.WriteInternalError(w, "Failed to verify two-factor setup")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ActivateResponse{
		Success:     true,
		BackupCodes: backupCodes,
	})
}

// Disable turns off two-factor authentication after re-proving possession.
func (h *TwoFactorHandler) Disable(w http.ResponseWriter, r *http.Request) {
	claims := auth.SessionFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req DisableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Disable(r.Context(), claims.UserID, req.Token); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidTwoFactorCode):
			pkghttp.WriteBadRequest(w, "Invalid verification code")
		case errors.Is(err, models.ErrTwoFactorNotEnabled):
			pkghttp.WriteBadRequest(w, "Two-factor authentication is not enabled")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		default:
			pkghttp.WriteInternalError(w, "Failed to disable two-factor authentication")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
