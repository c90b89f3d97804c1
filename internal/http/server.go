package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/middleware/cors"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	appweb "expenses/web"
)

// ExpenseService is the record service behind the API.
// *services.ExpenseService implements it.
type ExpenseService interface {
	List(ctx context.Context) ([]core.Expense, error)
	Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error)
	Update(ctx context.Context, id int64, in core.ExpenseInput) (core.Expense, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// Options configures NewServer.
type Options struct {
	Addr string
	// PublicAPIURL is injected into the page. Empty means same origin.
	PublicAPIURL       string
	AllowedOrigins     []string
	RateLimitPerMinute int
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	service      ExpenseService
	templates    *template.Template
	publicAPIURL string
	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	logger       *applog.Logger
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(service ExpenseService, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	resolver := security.NewClientIPResolver()
	s := &Server{
		service:      service,
		templates:    t,
		publicAPIURL: strings.TrimRight(opts.PublicAPIURL, "/"),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:       trace.NewMiddleware(logger, resolver.ExtractClientIP),
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig(apiOrigin(s.publicAPIURL)))
	limit := s.limiter.Middleware(resolver.ExtractClientIP, s.onRateLimited)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = cors.New(origins)(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.NewFields().
			WithComponent(applog.ComponentRateLimit).
			WithHTTPRequest(r.Method, r.URL.Path, "", "").
			ToSlice()...)
	TooManyRequestsError().Write(w)
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
