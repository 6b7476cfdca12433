package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"expenseweb/internal/api"
	"expenseweb/internal/core"
	"expenseweb/internal/forms"
	"expenseweb/internal/log"
	"expenseweb/internal/middleware/ratelimit"
	"expenseweb/internal/middleware/security"
	"expenseweb/internal/middleware/trace"
	"expenseweb/internal/page"
	"expenseweb/internal/session"
	"expenseweb/internal/view"
	appweb "expenseweb/web"
)

// ActivityReader lists journaled submissions, newest first.
type ActivityReader interface {
	Recent(ctx context.Context, limit int) ([]core.Activity, error)
}

// Check is a named readiness check.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Deps are the collaborators the handlers use.
type Deps struct {
	API      *api.Client
	Loader   *page.Loader
	Forms    *forms.Controller
	Sessions *session.Manager
	// Activity is nil when the journal is disabled.
	Activity ActivityReader
	// Checks run on /readyz in addition to the backend ping.
	Checks []Check
	// SessionCount reports live sessions for /metrics, when the store knows.
	SessionCount func() int
	Logger       *log.Logger
}

type Config struct {
	Addr      string
	RateLimit ratelimit.Config
}

type appMetrics struct {
	start      time.Time
	succeeded  int64
	rejected   int64
	failed     int64
	toggles    int64
	renderErrs int64
}

type Server struct {
	http.Server
	templates *template.Template

	api          *api.Client
	loader       *page.Loader
	forms        *forms.Controller
	sessions     *session.Manager
	activity     ActivityReader
	checks       []Check
	sessionCount func() int
	logger       *log.Logger

	trace    *trace.Middleware
	detector *security.Detector
	limiter  *ratelimit.Limiter

	metrics      appMetrics
	shutdownOnce sync.Once
}

// ActivityLimit is how many journal entries the activity fragment shows.
const ActivityLimit = 20

func parseTemplates() (*template.Template, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"periodTable": func(id, heading string, table view.PeriodTable) periodTableData {
			return periodTableData{ID: id, Heading: heading, Table: table}
		},
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	detector := security.NewDetector()
	s := &Server{
		templates:    tmpl,
		api:          deps.API,
		loader:       deps.Loader,
		forms:        deps.Forms,
		sessions:     deps.Sessions,
		activity:     deps.Activity,
		checks:       deps.Checks,
		sessionCount: deps.SessionCount,
		logger:       logger,
		trace:        trace.NewMiddleware(logger, detector.ExtractClientIP),
		detector:     detector,
		limiter:      ratelimit.NewLimiter(cfg.RateLimit),
		metrics:      appMetrics{start: time.Now()},
	}

	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/expenses", s.handleExpensesFragment)
	mux.HandleFunc("GET /ui/categories", s.handleCategoriesFragment)
	mux.HandleFunc("GET /ui/summary", s.handleSummaryFragment)
	mux.HandleFunc("GET /ui/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /ui/analytics/history", s.handleAnalyticsHistory)
	mux.HandleFunc("GET /ui/activity", s.handleActivity)
	mux.HandleFunc("POST /ui/panels/{name}/toggle", s.handleTogglePanel)

	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("POST /categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("POST /expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, ratelimit.MutatingOnly, s.onRateLimit)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = detector.Middleware(h)
	h = s.trace.Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// onRateLimit answers throttled HTMX requests with an alert instead of a
// bare error page.
func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		Header("Retry-After", "60").
		TriggerErrorNotification("Too many requests. Please try again later.").
		Write(w)
}

// Shutdown stops background work and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) countOutcome(out forms.Outcome) {
	switch {
	case out.Succeeded:
		atomic.AddInt64(&s.metrics.succeeded, 1)
	case out.Submitted:
		atomic.AddInt64(&s.metrics.failed, 1)
	default:
		atomic.AddInt64(&s.metrics.rejected, 1)
	}
}
