package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/michelvankessel/nedcloud-website/internal/auth"
	"github.com/michelvankessel/nedcloud-website/internal/handlers"
	"github.com/michelvankessel/nedcloud-website/internal/middleware"
	"github.com/michelvankessel/nedcloud-website/internal/models"
	"github.com/michelvankessel/nedcloud-website/internal/ratelimit"
	pkghttp "github.com/michelvankessel/nedcloud-website/pkg/http"
	pkglogger "github.com/michelvankessel/nedcloud-website/pkg/logger"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	twoFactorHandler *handlers.TwoFactorHandler,
	contentHandler *handlers.ContentHandler,
	tokenManager *auth.TokenManager,
	limiter *ratelimit.Limiter,
	ipConfig *pkghttp.IPConfig,
	audit *pkglogger.AuditLogger,
) {
	authLimit := middleware.RateLimit(limiter, ratelimit.ClassAuth, ipConfig, audit)
	apiLimit := middleware.RateLimit(limiter, ratelimit.ClassAPI, ipConfig, audit)

	// Public auth routes under the strict budget. The second login step is
	// public too: the caller holds no session yet.
	router.With(authLimit).Post("/auth/login", authHandler.Login)
	router.With(authLimit).Post("/auth/2fa/verify-login", authHandler.TwoFactorLogin)

	// Public content routes under the general budget. The session is
	// optional here: anonymous callers see published content only, a valid
	// bearer token additionally reveals drafts.
	router.Group(func(r chi.Router) {
		r.Use(apiLimit)
		r.Use(auth.OptionalSession(tokenManager))
		r.Get("/posts", contentHandler.ListPosts)
		r.Get("/posts/{slug}", contentHandler.GetPost)
		r.Get("/services", contentHandler.ListServices)
		r.Get("/services/{slug}", contentHandler.GetService)
		r.Post("/contact", contentHandler.SubmitContact)
	})

	// Protected routes - session required
	router.Group(func(r chi.Router) {
		r.Use(apiLimit)
		r.Use(auth.SessionMiddleware(tokenManager))

		r.Post("/auth/2fa/setup", twoFactorHandler.Setup)
		r.Post("/auth/2fa/verify", twoFactorHandler.Activate)
		r.Post("/auth/2fa/disable", twoFactorHandler.Disable)
		r.Post("/auth/password", authHandler.ChangePassword)

		r.Post("/posts", contentHandler.CreatePost)
		r.Put("/posts/{id}", contentHandler.UpdatePost)
		r.Post("/services", contentHandler.CreateService)
		r.Put("/services/{id}", contentHandler.UpdateService)
		r.Get("/contact-submissions", contentHandler.ListContactSubmissions)
		r.Put("/contact-submissions/{id}/read", contentHandler.MarkContactRead)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Delete("/posts/{id}", contentHandler.DeletePost)
			r.Delete("/services/{id}", contentHandler.DeleteService)
		})
	})
}
