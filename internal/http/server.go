// Package http serves the back office REST API and the dashboard page.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "zeendr/internal/log"
	"zeendr/internal/middleware/ratelimit"
	"zeendr/internal/middleware/security"
	"zeendr/internal/middleware/trace"
	"zeendr/internal/services"
	appweb "zeendr/web"
)

// Services groups what the handlers call.
type Services struct {
	Auth      *services.AuthService
	Orders    *services.OrderService
	Expenses  *services.ExpenseService
	Inventory *services.InventoryService
	Catalog   *services.CatalogService
	Reports   *services.ReportService
}

type Options struct {
	RateLimitPerMinute int
	// SecureCookies marks the session cookie Secure; set it behind TLS.
	SecureCookies bool
	// Ready reports whether dependencies are reachable, for /readyz.
	Ready  func(context.Context) error
	Logger *applog.Logger
}

type Server struct {
	http.Server
	svc       Services
	opts      Options
	templates *template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	now       func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.ForComponent(applog.ComponentHTTP)
	}
	s := &Server{
		svc:      svc,
		opts:     opts,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
		now:      time.Now,
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		s.tracer.Middleware,
		applog.Middleware(s.opts.Logger),
		applog.RequestIDMiddleware(trace.RequestID),
		middleware.Recoverer,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.detector.Middleware,
	)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, rateLimited))
		r.Get("/", http.RedirectHandler("/dashboard", http.StatusSeeOther).ServeHTTP)
		r.Get("/dashboard", s.handleDashboard)
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(security.NoStore, s.authenticate)
			r.Post("/logout", s.handleLogout)
			s.orderRoutes(r)
			s.inventoryRoutes(r)
			s.expenseRoutes(r)
			s.catalogRoutes(r)
			s.reportRoutes(r)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "ruta no encontrada"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "método no permitido"})
	})
	return r
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
