package server

import (
	"context"
	"net/http"
	"time"

	"github.com/Surya5599/habittracker/internal/config"
	"github.com/Surya5599/habittracker/internal/insights"
	"github.com/Surya5599/habittracker/internal/logger"
	"github.com/Surya5599/habittracker/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

type Server struct {
	cfg           *config.Config
	store         storage.Store
	insights      insights.Builder
	authProviders map[string]*oidcProvider
	sessionCookie *securecookie.SecureCookie

	// today is overridable in tests
	today func() time.Time
}

func New(cfg *config.Config, store storage.Store) (*Server, error) {
	s := &Server{
		cfg:   cfg,
		store: store,
		insights: insights.Builder{
			Thresholds:   cfg.Stats.Thresholds.WithDefaults(),
			WeekStartsOn: cfg.WeekStart(),
		},
		today: cfg.Today,
	}

	if cfg.AuthEnabled {
		providers, err := configureProviders(context.Background(), cfg.OIDCProviders)
		if err != nil {
			return nil, err
		}
		codec, err := newSessionCodec()
		if err != nil {
			return nil, err
		}
		s.authProviders = providers
		s.sessionCookie = codec
	}
	return s, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/version", s.getVersionInfo)
	r.Handle("/metrics", promhttp.Handler())

	if s.cfg.AuthEnabled {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", s.simpleLogin)
			r.Get("/login/{id}", s.login)
			r.Get("/callback/{id}", s.callback)
			r.Post("/logout", s.logout)
			r.Get("/token", s.getAPIToken)
			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware)
				r.Post("/api_keys", s.generateAPIKey)
				r.Get("/api_keys", s.listAPIKeys)
				r.Delete("/api_keys/{key_hash}", s.revokeAPIKey)
			})
		})
	}

	r.Group(func(r chi.Router) {
		if s.cfg.AuthEnabled {
			r.Use(s.authMiddleware)
		}
		r.Use(s.userAwareMetricsMiddleware)

		r.Route("/habits", func(r chi.Router) {
			r.Get("/", s.listHabits)
			r.Post("/", s.createHabit)
			r.Get("/{habit_id}", s.getHabit)
			r.Put("/{habit_id}", s.updateHabit)
			r.Delete("/{habit_id}", s.deleteHabit)
			r.Get("/{habit_id}/summary", s.getHabitSummary)
		})
		r.Route("/completions", func(r chi.Router) {
			r.Get("/", s.listCompletions)
			r.Put("/{habit_id}/{date}", s.setCompletion)
		})
		r.Route("/notes", func(r chi.Router) {
			r.Get("/", s.listNotes)
			r.Put("/{date}", s.putNote)
			r.Delete("/{date}", s.deleteNote)
		})
		r.Delete("/data/", s.clearData)
		r.Route("/stats", func(r chi.Router) {
			r.Get("/period", s.getPeriodStats)
			r.Get("/ranking", s.getRanking)
			r.Get("/signals", s.getSignals)
			r.Get("/story", s.getStory)
		})
	})

	if len(s.cfg.CORS.AllowedOrigins) == 0 {
		return r
	}
	logger.Info("CORS enabled", "origins", s.cfg.CORS.AllowedOrigins)
	return cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(r)
}
