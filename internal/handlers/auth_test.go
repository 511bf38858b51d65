package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/michelvankessel/nedcloud-website/internal/handlers"
	"github.com/michelvankessel/nedcloud-website/internal/models"
	"github.com/michelvankessel/nedcloud-website/internal/services"
	pkgauth "github.com/michelvankessel/nedcloud-website/pkg/auth"
)

func TestLogin_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress, userAgent string) (*services.LoginResult, error) {
			assert.Equal(t, "admin@nedcloud.nl", email)
			return &services.LoginResult{
				Status: services.StatusAuthenticated,
				Token:  "session_token_123",
				User:   &services.SessionUser{ID: "user123", Email: email, Role: models.RoleAdmin},
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "Admin@Nedcloud.NL",
		Password: "CorrectHorse1",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp services.LoginResult
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, services.StatusAuthenticated, resp.Status)
	assert.Equal(t, "session_token_123", resp.Token)
}

func TestLogin_TwoFactorRequired(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress, userAgent string) (*services.LoginResult, error) {
			return &services.LoginResult{Status: services.StatusTwoFactorRequired}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "admin@nedcloud.nl",
		Password: "CorrectHorse1",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp services.LoginResult
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, services.StatusTwoFactorRequired, resp.Status)
	assert.Empty(t, resp.Token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress, userAgent string) (*services.LoginResult, error) {
			return nil, models.ErrInvalidCredentials
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "admin@nedcloud.nl",
		Password: "WrongPassword1",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestLogin_ValidationFailures(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, nil)

	cases := map[string]handlers.LoginRequest{
		"missing email":    {Password: "CorrectHorse1"},
		"missing password": {Email: "admin@nedcloud.nl"},
		"malformed email":  {Email: "not-an-email", Password: "CorrectHorse1"},
	}

	for name, body := range cases {
		req := handlers.NewTestRequest(t, "POST", "/auth/login", body)
		w := httptest.NewRecorder()
		handler.Login(w, req)

		assert.Equal(t, 400, w.Code, name)
	}
}

func TestTwoFactorLogin_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		VerifyTwoFactorLoginFunc: func(ctx context.Context, email, code, ipAddress, userAgent string) (*services.LoginResult, error) {
			assert.Equal(t, "admin@nedcloud.nl", email)
			assert.Equal(t, "123456", code)
			return &services.LoginResult{
				Status: services.StatusAuthenticated,
				Token:  "session_token_123",
				User:   &services.SessionUser{ID: "user123", Email: email, Role: models.RoleAdmin},
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/2fa/verify-login", handlers.TwoFactorLoginRequest{
		Email: "admin@nedcloud.nl",
		Token: "123456",
	})

	w := httptest.NewRecorder()
	handler.TwoFactorLogin(w, req)

	var resp handlers.TwoFactorLoginResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.True(t, resp.Valid)
	assert.Equal(t, "session_token_123", resp.Token)
}

func TestTwoFactorLogin_InvalidCodeIsNotAnError(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		VerifyTwoFactorLoginFunc: func(ctx context.Context, email, code, ipAddress, userAgent string) (*services.LoginResult, error) {
			return nil, models.ErrInvalidTwoFactorCode
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/2fa/verify-login", handlers.TwoFactorLoginRequest{
		Email: "admin@nedcloud.nl",
		Token: "000000",
	})

	w := httptest.NewRecorder()
	handler.TwoFactorLogin(w, req)

	// A wrong code is a 200 with valid=false, not an error status
	var resp handlers.TwoFactorLoginResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.False(t, resp.Valid)
	assert.Empty(t, resp.Token)
}

func TestTwoFactorLogin_NotEnabled(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		VerifyTwoFactorLoginFunc: func(ctx context.Context, email, code, ipAddress, userAgent string) (*services.LoginResult, error) {
			return nil, models.ErrTwoFactorNotEnabled
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/2fa/verify-login", handlers.TwoFactorLoginRequest{
		Email: "editor@nedcloud.nl",
		Token: "123456",
	})

	w := httptest.NewRecorder()
	handler.TwoFactorLogin(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestTwoFactorLogin_TokenLengthValidation(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, nil)

	// Too short for a TOTP code, too long for a backup code
	for _, token := range []string{"12345", "123456789012345678901"} {
		req := handlers.NewTestRequest(t, "POST", "/auth/2fa/verify-login", handlers.TwoFactorLoginRequest{
			Email: "admin@nedcloud.nl",
			Token: token,
		})
		w := httptest.NewRecorder()
		handler.TwoFactorLogin(w, req)

		handlers.AssertErrorResponse(t, w, 400, "bad_request")
	}
}

func TestChangePassword_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		ChangePasswordFunc: func(ctx context.Context, userID, currentPassword, newPassword, ipAddress, userAgent string) error {
			assert.Equal(t, "user123", userID)
			assert.Equal(t, "CorrectHorse1", currentPassword)
			assert.Equal(t, "BatteryStaple9", newPassword)
			return nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.WithSessionContext(
		handlers.NewTestRequest(t, "POST", "/auth/password", handlers.ChangePasswordRequest{
			CurrentPassword: "CorrectHorse1",
			NewPassword:     "BatteryStaple9",
		}),
		"user123", "admin@nedcloud.nl", models.RoleAdmin)

	w := httptest.NewRecorder()
	handler.ChangePassword(w, req)

	var resp map[string]bool
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.True(t, resp["success"])
}

func TestChangePassword_Unauthenticated(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/password", handlers.ChangePasswordRequest{
		CurrentPassword: "CorrectHorse1",
		NewPassword:     "BatteryStaple9",
	})

	w := httptest.NewRecorder()
	handler.ChangePassword(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		ChangePasswordFunc: func(ctx context.Context, userID, currentPassword, newPassword, ipAddress, userAgent string) error {
			return models.ErrInvalidCredentials
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.WithSessionContext(
		handlers.NewTestRequest(t, "POST", "/auth/password", handlers.ChangePasswordRequest{
			CurrentPassword: "WrongPassword1",
			NewPassword:     "BatteryStaple9",
		}),
		"user123", "admin@nedcloud.nl", models.RoleAdmin)

	w := httptest.NewRecorder()
	handler.ChangePassword(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestChangePassword_WeakNewPassword(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		ChangePasswordFunc: func(ctx context.Context, userID, currentPassword, newPassword, ipAddress, userAgent string) error {
			return &pkgauth.PasswordValidationError{Errors: []string{"too short"}}
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.WithSessionContext(
		handlers.NewTestRequest(t, "POST", "/auth/password", handlers.ChangePasswordRequest{
			CurrentPassword: "CorrectHorse1",
			NewPassword:     "weak",
		}),
		"user123", "admin@nedcloud.nl", models.RoleAdmin)

	w := httptest.NewRecorder()
	handler.ChangePassword(w, req)

	// The generic validation message, never the specific rules
	handlers.AssertErrorResponse(t, w, 400, "bad_request")
	assert.Contains(t, w.Body.String(), "invalid password")
}
