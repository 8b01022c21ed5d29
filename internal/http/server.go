package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/csvio"
	"fintrack/internal/log"
)

const (
	dashboardCacheKey = "dashboard"
	mutationsPerMin   = 60
)

// Ledger is what the API needs from the service layer.
type Ledger interface {
	AddTransaction(ctx context.Context, t core.Transaction) (int64, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	AddOrUpdateBudget(ctx context.Context, category string, amount float64) error
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	DeleteBudget(ctx context.Context, id int64) error
	GetSummary(ctx context.Context) (core.Summary, error)
	GetExpensesByCategory(ctx context.Context) ([]core.CategoryTotal, error)
	GetMonthlySummary(ctx context.Context) ([]core.MonthTotals, error)
	GetAllCategories(ctx context.Context) ([]string, error)
	BudgetStatuses(ctx context.Context) ([]core.BudgetStatus, error)
	Dashboard(ctx context.Context) (core.Snapshot, error)
	ImportTransactions(ctx context.Context, txs []core.Transaction) (int, error)
	Ping(ctx context.Context) error
}

// Options tunes the server. The zero value disables the dashboard cache.
type Options struct {
	DashboardCacheTTL time.Duration
	CSVDelimiter      rune
	Logger            *log.Logger
}

type Server struct {
	http.Server
	ledger      Ledger
	codec       *csvio.Codec
	logger      *log.Logger
	structured  *log.StructuredLogger
	rateLimiter *rateLimiter
	metrics     securityMetrics

	// nil when caching is disabled
	dashboardCache *cache.LRUCache[core.Snapshot]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

type ctxKey int

const (
	requestIDKey ctxKey = iota
	clientIPKey
)

func NewServer(addr string, ledger Ledger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ledger:       ledger,
		codec:        csvio.New(opts.CSVDelimiter),
		logger:       logger.WithComponent(log.ComponentHTTP),
		structured:   log.NewStructuredLogger(logger),
		rateLimiter:  newRateLimiter(mutationsPerMin, time.Minute),
		cacheManager: cache.NewManager(),
	}

	if opts.DashboardCacheTTL > 0 {
		s.dashboardCache = cache.NewLRUCache[core.Snapshot](1, opts.DashboardCacheTTL)
		s.cacheManager.Register(s.dashboardCache)
		s.cacheManager.StartCleanup(opts.DashboardCacheTTL)
	}

	s.Handler = s.routes(logger)
	return s
}

func (s *Server) routes(logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.withSecurityHeaders)
	r.Use(log.Middleware(logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		id, _ := r.Context().Value(requestIDKey).(string)
		return id
	}))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Delete("/transactions/{id}", s.handleDeleteTransaction)

		r.Get("/budgets", s.handleListBudgets)
		r.Put("/budgets", s.handleUpsertBudget)
		r.Delete("/budgets/{id}", s.handleDeleteBudget)

		r.Get("/summary", s.handleSummary)
		r.Get("/reports/expenses-by-category", s.handleExpensesByCategory)
		r.Get("/reports/monthly", s.handleMonthlySummary)
		r.Get("/reports/budgets", s.handleBudgetStatus)
		r.Get("/categories", s.handleCategories)
		r.Get("/dashboard", s.handleDashboard)

		r.Get("/export.csv", s.handleExportCSV)
		r.Post("/import", s.handleImport)
	})

	return r
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		s.cacheManager.Stop()
		hits, suspicious := s.metrics.snapshot()
		s.logger.InfoContext(ctx, "HTTP server shutting down",
			log.FieldOperation, log.OpShutdown,
			"rate_limit_hits", hits,
			"suspicious_requests", suspicious)
	})
	return s.Server.Shutdown(ctx)
}

// withSecurityHeaders adds security headers, rate limiting of mutating
// requests, and request logging.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = context.WithValue(ctx, clientIPKey, clientIP)
		r = r.WithContext(ctx)

		s.structured.LogHTTPStart(ctx, r, requestID, clientIP)

		if reason := detectSuspiciousRequest(r, &s.metrics); reason != "" {
			s.logger.WithComponent(log.ComponentSecurity).WarnContext(ctx, "Suspicious request detected",
				log.FieldReason, reason,
				log.FieldRequestID, requestID,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}

		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, &s.metrics) {
			s.logger.WithComponent(log.ComponentRateLimit).WarnContext(ctx, "Rate limit exceeded",
				log.FieldRequestID, requestID,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(int(s.rateLimiter.window.Seconds())))
			writeJSON(w, r, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
			s.structured.LogHTTPEnd(ctx, r, http.StatusTooManyRequests, time.Since(start).Milliseconds(), requestID, clientIP)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.structured.LogHTTPEnd(ctx, r, status, time.Since(start).Milliseconds(), requestID, clientIP)
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// invalidateDashboard drops the cached snapshot after a mutation.
func (s *Server) invalidateDashboard() {
	if s.dashboardCache != nil {
		s.dashboardCache.Purge()
	}
}

func (s *Server) dashboard(ctx context.Context) (core.Snapshot, bool, error) {
	if s.dashboardCache != nil {
		if snap, ok := s.dashboardCache.Get(dashboardCacheKey); ok {
			return snap, true, nil
		}
	}
	snap, err := s.ledger.Dashboard(ctx)
	if err != nil {
		return core.Snapshot{}, false, err
	}
	if s.dashboardCache != nil {
		s.dashboardCache.Set(dashboardCacheKey, snap)
	}
	return snap, false, nil
}
