package api

import (
	"net/http"
	"time"

	"taskhive/internal/api/handler"
	appmiddleware "taskhive/internal/api/middleware"
	"taskhive/internal/app/service"
	"taskhive/internal/common/security"
	"taskhive/internal/platform/cache"
	"taskhive/internal/platform/config"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	cfg *config.Config,
	tokens *security.TokenService,
	limiter *cache.Limiter,
	authService *service.AuthService,
	taskService *service.TaskService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Verifies a token found in the Authorization header, the "token"
	// cookie, or a "token" body field, in that order, and leaves the
	// outcome in the request context for the Authenticator middleware.
	r.Use(jwtauth.Verify(tokens.JWTAuth(),
		jwtauth.TokenFromHeader,
		appmiddleware.TokenFromCookie,
		appmiddleware.TokenFromBody,
	))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public, rate limited)
		authHandler := handler.NewAuthHandler(authService)
		v1.Route("/auth", func(auth chi.Router) {
			auth.Use(appmiddleware.RateLimit(limiter, cfg.AuthRateLimit, cfg.AuthRateWindow))
			authHandler.RegisterRoutes(auth)
		})

		// Task routes (authenticated, some admin-only)
		taskHandler := handler.NewTaskHandler(taskService)
		v1.Route("/tasks", taskHandler.RegisterRoutes)
	})

	return r
}
