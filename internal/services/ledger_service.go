package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"moneytracker/internal/amqp"
	"moneytracker/internal/cache"
	"moneytracker/internal/core"
	"moneytracker/internal/log"
)

// DefaultTrendMonths is the length of the trailing series in an overview.
const DefaultTrendMonths = 12

// TransactionStore is the persistence the ledger needs for transactions.
type TransactionStore interface {
	TransactionReader
	GetAll(ctx context.Context) ([]core.Transaction, error)
	GetByMonth(ctx context.Context, ym core.YearMonth) ([]core.Transaction, error)
	Upsert(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Delete(ctx context.Context, id string) error
}

// CategoryStore is the persistence the ledger needs for categories.
type CategoryStore interface {
	GetAll(ctx context.Context) ([]core.Category, error)
	Create(ctx context.Context, name string) (core.Category, error)
	EnsureSeeded(ctx context.Context) (int, error)
}

// EventPublisher receives an event after each successful write.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, e *amqp.LedgerEvent) error
}

// RowFailure records why one row of a batch was not saved.
type RowFailure struct {
	Index int
	ID    string
	Err   error
}

// BatchResult reports the outcome of SaveTransactions.
type BatchResult struct {
	Saved    int
	Skipped  int
	Failed   int
	Failures []RowFailure
}

type Option func(*LedgerService)

// WithPublisher sends ledger events to p. A nil p disables publishing.
func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.events = p }
}

// WithOverviewCache caches MonthOverview results in c.
func WithOverviewCache(c cache.Cache[core.MonthOverview]) Option {
	return func(s *LedgerService) { s.overviews = c }
}

// WithTrendMonths sets the overview trend length. Values below 1 are ignored.
func WithTrendMonths(n int) Option {
	return func(s *LedgerService) {
		if n >= 1 {
			s.trendMonths = n
		}
	}
}

// LedgerService is what callers (HTTP handlers, CLIs) use to read and
// change the ledger.
type LedgerService struct {
	txs         TransactionStore
	cats        CategoryStore
	agg         *Aggregator
	events      EventPublisher
	overviews   cache.Cache[core.MonthOverview]
	trendMonths int
	generation  atomic.Uint64
}

func NewLedgerService(txs TransactionStore, cats CategoryStore, cal core.Calendar, opts ...Option) *LedgerService {
	s := &LedgerService{
		txs:         txs,
		cats:        cats,
		agg:         NewAggregator(txs, cal),
		trendMonths: DefaultTrendMonths,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.cats.GetAll(ctx)
}

func (s *LedgerService) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	c, err := s.cats.Create(ctx, name)
	if err != nil {
		return core.Category{}, err
	}
	s.changed(ctx, amqp.NewLedgerEvent(amqp.CategoryCreated, c.ID))
	return c, nil
}

// EnsureCategoriesSeeded installs the default categories into an empty
// ledger and returns how many were added.
func (s *LedgerService) EnsureCategoriesSeeded(ctx context.Context) (int, error) {
	n, err := s.cats.EnsureSeeded(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e := amqp.NewLedgerEvent(amqp.CategoriesSeeded, "")
		e.Count = n
		s.changed(ctx, e)
	}
	return n, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.txs.GetAll(ctx)
}

func (s *LedgerService) ListTransactionsForMonth(ctx context.Context, month core.YearMonth) ([]core.Transaction, error) {
	return s.txs.GetByMonth(ctx, month)
}

// UpsertTransaction validates t and stores it, returning the stored copy.
func (s *LedgerService) UpsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	saved, err := s.txs.Upsert(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.changed(ctx, upsertedEvent(saved))
	return saved, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.txs.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, amqp.NewLedgerEvent(amqp.TransactionDeleted, id))
	return nil
}

// SaveTransactions upserts each valid row on its own. Rows that fail
// validation or name an unknown category are skipped; storage failures are
// counted and returned joined. A single transactions.saved event covers
// every saved row.
func (s *LedgerService) SaveTransactions(ctx context.Context, rows []core.Transaction) (BatchResult, error) {
	var res BatchResult
	if len(rows) == 0 {
		return res, nil
	}

	cats, err := s.cats.GetAll(ctx)
	if err != nil {
		return res, fmt.Errorf("load categories: %w", err)
	}
	known := make(map[string]struct{}, len(cats))
	for _, c := range cats {
		known[c.ID] = struct{}{}
	}

	var (
		errs   []error
		months = make(map[core.YearMonth]struct{})
	)
	for i, t := range rows {
		if err := t.Validate(); err != nil {
			res.Skipped++
			res.Failures = append(res.Failures, RowFailure{Index: i, ID: t.ID, Err: err})
			continue
		}
		if _, ok := known[t.CategoryID]; !ok {
			res.Skipped++
			res.Failures = append(res.Failures, RowFailure{
				Index: i,
				ID:    t.ID,
				Err:   fmt.Errorf("%w: unknown category %q", core.ErrValidation, t.CategoryID),
			})
			continue
		}

		saved, err := s.txs.Upsert(ctx, t)
		if err != nil {
			res.Failed++
			res.Failures = append(res.Failures, RowFailure{Index: i, ID: t.ID, Err: err})
			errs = append(errs, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		res.Saved++
		months[core.MonthOfDate(saved.Date)] = struct{}{}
	}

	// One event covers the whole batch.
	if res.Saved > 0 {
		e := amqp.NewLedgerEvent(amqp.TransactionsSaved, "")
		e.Count = res.Saved
		if len(months) == 1 {
			for m := range months {
				e.Month = m.String()
			}
		}
		s.changed(ctx, e)
	}

	if res.Skipped > 0 || res.Failed > 0 {
		slog.WarnContext(ctx, "Batch save incomplete",
			log.FieldComponent, log.ComponentLedger,
			log.FieldOperation, log.OpBatch,
			"saved", res.Saved,
			"skipped", res.Skipped,
			"failed", res.Failed)
	}
	return res, errors.Join(errs...)
}

// MonthlySummary aggregates month across the current category list.
func (s *LedgerService) MonthlySummary(ctx context.Context, month core.YearMonth) ([]core.MonthlyCategorySummary, error) {
	cats, err := s.cats.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return s.agg.MonthlySummary(ctx, month, cats)
}

func (s *LedgerService) MonthlySeries(ctx context.Context, end core.YearMonth, monthsBack int) ([]core.MonthlySeriesPoint, error) {
	return s.agg.MonthlySeries(ctx, end, monthsBack)
}

// MonthOverview returns the summary, totals and trailing trend for month.
// Results are cached until the next write.
func (s *LedgerService) MonthOverview(ctx context.Context, month core.YearMonth) (core.MonthOverview, error) {
	// Entries are keyed by the write generation they were computed in, so a
	// result that raced with a write is never read back.
	key := overviewKey(s.generation.Load(), month)
	if s.overviews != nil {
		if o, ok := s.overviews.Get(key); ok {
			return o, nil
		}
	}

	var (
		summary []core.MonthlyCategorySummary
		trend   []core.MonthlySeriesPoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.MonthlySummary(gctx, month)
		return err
	})
	g.Go(func() error {
		var err error
		trend, err = s.agg.MonthlySeries(gctx, month, s.trendMonths)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.MonthOverview{}, fmt.Errorf("month overview %s: %w", month, err)
	}

	o := core.MonthOverview{
		Month:      month,
		Income:     decimal.Zero,
		Expense:    decimal.Zero,
		ByCategory: summary,
		Trend:      trend,
	}
	for _, c := range summary {
		o.Income = o.Income.Add(c.Income)
		o.Expense = o.Expense.Add(c.Expense)
	}

	if s.overviews != nil {
		s.overviews.Set(key, o)
	}
	return o, nil
}

// changed invalidates derived views and publishes e.
func (s *LedgerService) changed(ctx context.Context, e *amqp.LedgerEvent) {
	s.generation.Add(1)
	if s.overviews != nil {
		s.overviews.Purge()
	}

	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldComponent, log.ComponentLedger,
			"type", e.Type,
			log.FieldTransactionID, e.ID,
			log.FieldMonth, e.Month,
			log.FieldError, err)
	}
}

func overviewKey(gen uint64, month core.YearMonth) string {
	return strconv.FormatUint(gen, 10) + ":" + month.String()
}

func upsertedEvent(t core.Transaction) *amqp.LedgerEvent {
	e := amqp.NewLedgerEvent(amqp.TransactionUpserted, t.ID)
	e.Month = core.MonthOfDate(t.Date).String()
	return e
}
