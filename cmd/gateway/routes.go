package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	api "github.com/mind-engage/scorecheck/internal/api/http"
	auth "github.com/mind-engage/scorecheck/internal/auth/middleware"
	"github.com/mind-engage/scorecheck/internal/config"
	"github.com/mind-engage/scorecheck/internal/grading"
	"github.com/mind-engage/scorecheck/internal/metrics"
	"github.com/mind-engage/scorecheck/internal/scores"
)

type deps struct {
	validator *grading.Validator
	store     scores.Store
	metrics   *metrics.Recorder // nil disables /metrics
	gatherer  prometheus.Gatherer
}

func newRouter(cfg config.Config, d deps) chi.Router {
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Local login (enabled in offline mode by default; can be enabled online via env)
	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, auth.Accounts{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
			DevUsers:      cfg.Mode == config.ModeOffline,
		}))
	}

	// Protected API (JWT -> subject and role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Route("/scores", func(sr chi.Router) {
			api.MountScores(sr, api.Scoring{
				Validator: d.validator,
				Store:     d.store,
				Metrics:   d.metrics,
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	if d.metrics != nil && d.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.gatherer))
	}
	return r
}
