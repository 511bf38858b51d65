package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/michelvankessel/nedcloud-website/internal/auth"
	"github.com/michelvankessel/nedcloud-website/internal/config"
	"github.com/michelvankessel/nedcloud-website/internal/database"
	"github.com/michelvankessel/nedcloud-website/internal/handlers"
	middlewareCustom "github.com/michelvankessel/nedcloud-website/internal/middleware"
	"github.com/michelvankessel/nedcloud-website/internal/ratelimit"
	"github.com/michelvankessel/nedcloud-website/internal/repositories"
	"github.com/michelvankessel/nedcloud-website/internal/routes"
	"github.com/michelvankessel/nedcloud-website/internal/services"
	pkghttp "github.com/michelvankessel/nedcloud-website/pkg/http"
	pkglogger "github.com/michelvankessel/nedcloud-website/pkg/logger"
)

// TestServer wraps httptest.Server with a real database and the full
// production middleware and routing stack.
type TestServer struct {
	Server  *httptest.Server
	DB      *database.DB
	Config  *config.Config
	Limiter *ratelimit.Limiter
}

// TestServerOptions tweaks the stack for specific scenarios
type TestServerOptions struct {
	AuthMaxRequests int // 0 means the default of 10
}

// NewTestServer wires the full HTTP stack against the given database
func NewTestServer(db *database.DB, opts TestServerOptions) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	authMax := opts.AuthMaxRequests
	if authMax == 0 {
		authMax = 10
	}

	cfg := &config.Config{
		Auth: config.AuthConfig{
			SessionSecret:   "integration-test-session-secret",
			SessionExpiry:   time.Hour,
			EncryptionKey:   testEncryptionKey,
			TOTPIssuer:      "Nedcloud Test",
			BackupCodeCount: 8,
		},
		RateLimit: config.RateLimitConfig{
			Window:          time.Minute,
			AuthMaxRequests: authMax,
			APIMaxRequests:  100,
			SweepInterval:   time.Minute,
		},
		Server: config.ServerConfig{
			Port: "0",
			Env:  "test",
		},
	}

	userRepo := repositories.NewUserRepository(db)
	postRepo := repositories.NewPostRepository(db)
	serviceRepo := repositories.NewServiceRepository(db)
	contactRepo := repositories.NewContactRepository(db)

	tokenManager := auth.NewTokenManager(cfg.Auth.SessionSecret, cfg.Auth.SessionExpiry)
	totpManager := auth.NewTOTPManager(cfg.Auth.TOTPIssuer)
	auditLogger := pkglogger.NewAuditLogger(logger)

	limiter := ratelimit.New(ratelimit.Config{
		Auth:          ratelimit.Limit{Max: cfg.RateLimit.AuthMaxRequests, Window: cfg.RateLimit.Window},
		API:           ratelimit.Limit{Max: cfg.RateLimit.APIMaxRequests, Window: cfg.RateLimit.Window},
		SweepInterval: cfg.RateLimit.SweepInterval,
	}, logger)

	authService := services.NewAuthService(userRepo, tokenManager, totpManager, cfg.Auth.EncryptionKey, logger, auditLogger)
	twoFactorService := services.NewTwoFactorService(userRepo, totpManager, cfg.Auth.EncryptionKey, cfg.Auth.BackupCodeCount, logger, auditLogger)
	contentService := services.NewContentService(postRepo, serviceRepo, contactRepo, logger)

	ipConfig := &pkghttp.IPConfig{}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	twoFactorHandler := handlers.NewTwoFactorHandler(twoFactorService)
	contentHandler := handlers.NewContentHandler(contentService)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(r, authHandler, twoFactorHandler, contentHandler, tokenManager, limiter, ipConfig, auditLogger)

	return &TestServer{
		Server:  httptest.NewServer(r),
		DB:      db,
		Config:  cfg,
		Limiter: limiter,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
	if ts.Limiter != nil {
		ts.Limiter.Stop()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with a session token
func (ts *TestServer) RequestWithAuth(method, path, token string, body interface{}) (*http.Response, error) {
	return ts.Request(method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// ParseJSONResponse parses a JSON response body into target
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}
