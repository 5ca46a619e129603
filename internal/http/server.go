// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"moneytracker/internal/core"
	"moneytracker/internal/log"
	"moneytracker/internal/middleware/ratelimit"
	"moneytracker/internal/middleware/security"
	"moneytracker/internal/middleware/trace"
	"moneytracker/internal/services"
)

// Ledger is the set of ledger operations the API exposes.
type Ledger interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, name string) (core.Category, error)
	EnsureCategoriesSeeded(ctx context.Context) (int, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListTransactionsForMonth(ctx context.Context, month core.YearMonth) ([]core.Transaction, error)
	UpsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	SaveTransactions(ctx context.Context, rows []core.Transaction) (services.BatchResult, error)
	DeleteTransaction(ctx context.Context, id string) error
	MonthlySummary(ctx context.Context, month core.YearMonth) ([]core.MonthlyCategorySummary, error)
	MonthlySeries(ctx context.Context, end core.YearMonth, monthsBack int) ([]core.MonthlySeriesPoint, error)
	MonthOverview(ctx context.Context, month core.YearMonth) (core.MonthOverview, error)
}

type Options struct {
	// Calendar buckets months; the zero value uses the process zone.
	Calendar core.Calendar
	// TrendMonths is the series length when a request gives no count.
	TrendMonths int
	Logger      *log.Logger
	// Ready reports whether dependencies are reachable; nil means always.
	Ready     func(ctx context.Context) error
	RateLimit ratelimit.Config
	// TrustedProxies are CIDRs, beyond the private ranges, whose
	// forwarding headers are believed.
	TrustedProxies []string
	// Now defaults to time.Now and picks the current month.
	Now func() time.Time
}

type Server struct {
	http.Server
	ledger      Ledger
	cal         core.Calendar
	trendMonths int
	ready       func(ctx context.Context) error
	now         func() time.Time
	logger      *log.Logger
	limiter     *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires the routes and middleware and returns a server ready to
// ListenAndServe.
func NewServer(addr string, ledger Ledger, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.TrendMonths < 1 {
		opts.TrendMonths = services.DefaultTrendMonths
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	resolver, err := security.NewClientIPResolver(opts.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		ledger:      ledger,
		cal:         opts.Calendar,
		trendMonths: opts.TrendMonths,
		ready:       opts.Ready,
		now:         opts.Now,
		logger:      logger,
		limiter:     ratelimit.NewLimiter(opts.RateLimit),
		tracer:      trace.NewMiddleware(logger, resolver.ClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("POST /api/categories/seed", s.handleSeedCategories)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("PUT /api/transactions", s.handleUpsertTransaction)
	mux.HandleFunc("POST /api/transactions/batch", s.handleSaveTransactions)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/series", s.handleSeries)
	mux.HandleFunc("GET /api/overview", s.handleOverview)

	var h http.Handler = mux
	h = s.limiter.WritesOnly(resolver.ClientIP, s.handleRateLimited)(h)
	h = s.tracer.Handler(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops background work and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "HTTP server stopping",
			log.FieldOperation, log.OpShutdown,
			"requests_served", s.tracer.Requests(),
			"active_clients", s.limiter.ActiveClients())
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) currentMonth() core.YearMonth {
	return core.MonthOfDate(s.cal.Truncate(s.now()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ready"})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
}
