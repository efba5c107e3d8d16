package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Tiliavir/timesheet/internal/http/handlers"
	"github.com/Tiliavir/timesheet/internal/http/middleware"
)

type RouterConfig struct {
	Timesheets     *handlers.TimesheetHandler
	Dashboard      *handlers.DashboardHandler
	Auth           *handlers.AuthHandler
	Health         *handlers.HealthHandler
	RequireAPI     func(http.Handler) http.Handler // 401 JSON without a session
	RequirePage    func(http.Handler) http.Handler // redirect to /login without a session
	Log            zerolog.Logger
	Secure         func(http.Handler) http.Handler
	IPRateLimit    func(http.Handler) http.Handler
	LoginRateLimit func(http.Handler) http.Handler
	Metrics        *middleware.Metrics // nil disables /metrics

	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Only set it behind a proxy that overwrites those headers, since the
	// rate limiters key on that address.
	TrustProxy bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	if cfg.TrustProxy {
		r.Use(chimid.RealIP)
	}
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}

	r.Get("/health", cfg.Health.ServeHTTP)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Exposition())
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})

	r.Get("/login", cfg.Auth.LoginPage)
	r.With(optional(cfg.LoginRateLimit)).Post("/login", cfg.Auth.Login)
	r.Post("/logout", cfg.Auth.Logout)
	r.Get("/login/oauth", cfg.Auth.OAuthBegin)
	r.Get("/login/oauth/callback", cfg.Auth.OAuthCallback)

	api := func(r chi.Router) {
		r.Use(cfg.RequireAPI)
		r.Get("/", cfg.Timesheets.List)
		r.Post("/", cfg.Timesheets.Create)
		r.Get("/week", cfg.Timesheets.Week)
		r.Put("/{id}", cfg.Timesheets.Update)
		r.Delete("/{id}", cfg.Timesheets.Delete)
	}
	r.Route("/timesheets", api)
	r.Route("/api/timesheets", api)

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(cfg.RequirePage)
		r.Get("/", cfg.Dashboard.Index)
		r.Get("/entries/new", cfg.Dashboard.NewEntry)
		r.Post("/entries", cfg.Dashboard.CreateEntry)
		r.Get("/entries/{id}/edit", cfg.Dashboard.EditEntry)
		r.Post("/entries/{id}", cfg.Dashboard.UpdateEntry)
		r.Get("/entries/{id}/delete", cfg.Dashboard.ConfirmDelete)
		r.Post("/entries/{id}/delete", cfg.Dashboard.DeleteEntry)
	})

	return r
}

func optional(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimid.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("request_id", chimid.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
