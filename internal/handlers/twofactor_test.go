package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/michelvankessel/nedcloud-website/internal/handlers"
	"github.com/michelvankessel/nedcloud-website/internal/models"
	"github.com/michelvankessel/nedcloud-website/internal/services"
)

func TestTwoFactorSetup_Success(t *testing.T) {
	mock := &handlers.MockTwoFactorService{
		SetupFunc: func(ctx context.Context, userID string) (*services.SetupResult, error) {
			assert.Equal(t, "user123", userID)
			return &services.SetupResult{
				Secret:          "JBSWY3DPEHPK3PXP",
				EncryptedSecret: "aabb:ccdd",
				QRCode:          "data:image/png;base64,abc",
			}, nil
		},
	}

	handler := handlers.NewTwoFactorHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/auth/2fa/setup", nil)
	req = handlers.WithSessionContext(req, "user123", "admin@nedcloud.nl", models.RoleAdmin)

	w := httptest.NewRecorder()
	handler.Setup(w, req)

	var resp handlers.SetupResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", resp.Secret)
	assert.Equal(t, "aabb:ccdd", resp.EncryptedSecret)
	assert.Contains(t, resp.QRCode, "data:image/png;base64,")
}

func TestTwoFactorSetup_Unauthenticated(t *testing.T) {
	handler := handlers.NewTwoFactorHandler(&handlers.MockTwoFactorService{})
	req := handlers.NewTestRequest(t, "POST", "/auth/2fa/setup", nil)

	w := httptest.NewRecorder()
	handler.Setup(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestTwoFactorSetup_AlreadyEnabled(t *testing.T) {
	mock := &handlers.MockTwoFactorService{
		SetupFunc: func(ctx context.Context, userID string) (*services.SetupResult, error) {
			return nil, models.ErrConflict
		},
	}

	handler := handlers.NewTwoFactorHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/auth/2fa/setup", nil)
	req = handlers.WithSessionContext(req, "user123", "admin@nedcloud.nl", models.RoleAdmin)

	w := httptest.NewRecorder()
	handler.Setup(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestTwoFactorActivate_Success(t *testing.T) {
	mock := &handlers.MockTwoFactorService{
		ActivateFunc: func(ctx context.Context, userID, code string, encrypted models.EncryptedSecret) ([]string, error) {
			assert.Equal(t, "user123", userID)
			assert.Equal(t, "123456", code)
			assert.Equal(t, models.EncryptedSecret("aabb:ccdd"), encrypted)
			return []string{"AAAA1111", "BBBB2222"}, nil
		},
	}

	handler := handlers.NewTwoFactorHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/auth/2fa/verify", handlers.ActivateRequest{
		Token:           "123456",
		EncryptedSecret: "aabb:ccdd",
	})
	req = handlers.WithSessionContext(req, "user123", "admin@nedcloud.nl", models.RoleAdmin)

	w := httptest.NewRecorder()
	handler.Activate(w, req)

	var resp handlers.ActivateResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"AAAA1111", "BBBB2222"}, resp.BackupCodes)
}

func TestTwoFactorActivate_InvalidCode(t *testing.T) {
	mock := &handlers.MockTwoFactorService{
		ActivateFunc: func(ctx context.Context, userID, code string, encrypted models.EncryptedSecret) ([]string, error) {
			return nil, models.ErrInvalidTwoFactorCode
		},
	}

	handler := handlers.NewTwoFactorHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/auth/2fa/verify", handlers.ActivateRequest{
		Token:           "000000",
		EncryptedSecret: "aabb:ccdd",
	})
	req = handlers.WithSessionContext(req, "user123", "admin@nedcloud.nl", models.RoleAdmin)

	w := httptest.NewRecorder()
	handler.Activate(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestTwoFactorActivate_TokenMustBeSixDigits(t *testing.T) {
	handler := handlers.NewTwoFactorHandler(&handlers.MockTwoFactorService{})

	for _, token := range []string{"12345", "1234567", "abcdef", ""} {
		req := handlers.NewTestRequest(t, "POST", "/auth/2fa/verify", handlers.ActivateRequest{
			Token:           token,
			EncryptedSecret: "aabb:ccdd",
		})
		req = handlers.WithSessionContext(req, "user123", "admin@nedcloud.nl", models.RoleAdmin)

		w := httptest.NewRecorder()
		handler.Activate(w, req)

		handlers.AssertErrorResponse(t, w, 400, "bad_request")
	}
}

func TestTwoFactorDisable_Success(t *testing.T) {
	mock := &handlers.MockTwoFactorService{
		DisableFunc: func(ctx context.Context, userID, code string) error {
			assert.Equal(t, "user123", userID)
			return nil
		},
	}

	handler := handlers.NewTwoFactorHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/auth/2fa/disable", handlers.DisableRequest{Token: "123456"})
	req = handlers.WithSessionContext(req, "user123", "admin@nedcloud.nl", models.RoleAdmin)

	w := httptest.NewRecorder()
	handler.Disable(w, req)

	var resp map[string]bool
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.True(t, resp["success"])
}

func TestTwoFactorDisable_NotEnabled(t *testing.T) {
	mock := &handlers.MockTwoFactorService{
		DisableFunc: func(ctx context.Context, userID, code string) error {
			return models.ErrTwoFactorNotEnabled
		},
	}

	handler := handlers.NewTwoFactorHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/auth/2fa/disable", handlers.DisableRequest{Token: "123456"})
	req = handlers.WithSessionContext(req, "user123", "admin@nedcloud.nl", models.RoleAdmin)

	w := httptest.NewRecorder()
	handler.Disable(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestTwoFactorDisable_AcceptsBackupCodeLength(t *testing.T) {
	mock := &handlers.MockTwoFactorService{
		DisableFunc: func(ctx context.Context, userID, code string) error {
			assert.Equal(t, "AAAA1111", code)
			return nil
		},
	}

	handler := handlers.NewTwoFactorHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/auth/2fa/disable", handlers.DisableRequest{Token: "AAAA1111"})
	req = handlers.WithSessionContext(req, "user123", "admin@nedcloud.nl", models.RoleAdmin)

	w := httptest.NewRecorder()
	handler.Disable(w, req)

	assert.Equal(t, 200, w.Code)
}
