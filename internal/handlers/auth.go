package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/michelvankessel/nedcloud-website/internal/auth"
	"github.com/michelvankessel/nedcloud-website/internal/models"
	"github.com/michelvankessel/nedcloud-website/internal/services"
	pkgauth "github.com/michelvankessel/nedcloud-website/pkg/auth"
	pkghttp "github.com/michelvankessel/nedcloud-website/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, ipAddress, userAgent string) (*services.LoginResult, error)
	VerifyTwoFactorLogin(ctx context.Context, email, code, ipAddress, userAgent string) (*services.LoginResult, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword, ipAddress, userAgent string) error
}

// AuthHandler handles login-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,max=100"`
}

// TwoFactorLoginRequest represents the second login step: a 6-digit TOTP
// code or an 8-character backup code, keyed by the verified email.
type TwoFactorLoginRequest struct {
	Email string `json:"email" validate:"required,email,max=200"`
	Token string `json:"token" validate:"required,min=6,max=20"`
}

// TwoFactorLoginResponse reports the outcome of the second login step
type TwoFactorLoginResponse struct {
	Valid bool                  `json:"valid"`
	Token string                `json:"token,omitempty"`
	User  *services.SessionUser `json:"user,omitempty"`
}

// ChangePasswordRequest carries the current password as proof of identity
// alongside the replacement.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,max=100"`
	NewPassword     string `json:"new_password" validate:"required,max=100"`
}

// Login handles the primary credential check. Accounts with two-factor
// enabled receive {"status":"two_factor_required"} instead of a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	result, err := h.service.Login(r.Context(), req.Email, req.Password, ipAddress, userAgent)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			// One generic message for unknown email and wrong password
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// TwoFactorLogin handles the second login step with a TOTP or backup code.
func (h *AuthHandler) TwoFactorLogin(w http.ResponseWriter, r *http.Request) {
	var req TwoFactorLoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	result, err := h.service.VerifyTwoFactorLogin(r.Context(), req.Email, req.Token, ipAddress, userAgent)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidTwoFactorCode):
			pkghttp.WriteJSON(w, http.StatusOK, TwoFactorLoginResponse{Valid: false})
		case errors.Is(err, models.ErrTwoFactorNotEnabled):
			pkghttp.WriteBadRequest(w, "Two-factor authentication is not enabled for this account")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, TwoFactorLoginResponse{
		Valid: true,
		Token: result.Token,
		User:  result.User,
	})
}

// ChangePassword replaces the caller's password (session required). The
// new password goes through the same strength validation as at signup.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := auth.SessionFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	err := h.service.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword, ipAddress, userAgent)
	if err != nil {
		var validationErr *pkgauth.PasswordValidationError
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteBadRequest(w, "Current password is incorrect")
		case errors.As(err, &validationErr):
			pkghttp.WriteBadRequest(w, validationErr.Error())
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		default:
			pkghttp.WriteInternalError(w, "Failed to change password")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
