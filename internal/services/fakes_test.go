package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"moneytracker/internal/amqp"
	"moneytracker/internal/core"
)

type memTransactions struct {
	mu       sync.Mutex
	cal      core.Calendar
	rows     map[string]core.Transaction
	nextID   int
	rangeErr error
	failIDs  map[string]bool
	reads    int
}

func newMemTransactions(cal core.Calendar) *memTransactions {
	return &memTransactions{cal: cal, rows: map[string]core.Transaction{}, failIDs: map[string]bool{}}
}

func (m *memTransactions) sorted(keep func(core.Transaction) bool) []core.Transaction {
	var out []core.Transaction
	for _, t := range m.rows {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return out
}

func (m *memTransactions) GetAll(ctx context.Context) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(core.Transaction) bool { return true }), nil
}

func (m *memTransactions) GetByMonth(ctx context.Context, ym core.YearMonth) ([]core.Transaction, error) {
	return m.GetByRange(ctx, m.cal.MonthRange(ym))
}

func (m *memTransactions) GetByRange(ctx context.Context, r core.DateRange) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.rangeErr != nil {
		return nil, m.rangeErr
	}
	return m.sorted(func(t core.Transaction) bool { return r.Contains(m.cal.ToInstant(t.Date)) }), nil
}

func (m *memTransactions) Upsert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIDs[t.ID] {
		return core.Transaction{}, core.StorageError("upsert transaction", fmt.Errorf("disk full"))
	}
	if t.ID == "" {
		m.nextID++
		t.ID = fmt.Sprintf("gen-%d", m.nextID)
	}
	t.Name = strings.TrimSpace(t.Name)
	m.rows[t.ID] = t
	return t, nil
}

func (m *memTransactions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memTransactions) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

type memCategories struct {
	mu   sync.Mutex
	cats []core.Category
	err  error
}

func (m *memCategories) GetAll(ctx context.Context) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]core.Category(nil), m.cats...), nil
}

func (m *memCategories) Create(ctx context.Context, name string) (core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyCategoryName
	}
	for _, c := range m.cats {
		if strings.EqualFold(c.Name, name) {
			return core.Category{}, core.ErrCategoryExists
		}
	}
	c := core.Category{ID: "cat-" + strings.ToLower(name), Name: name}
	m.cats = append(m.cats, c)
	return c, nil
}

func (m *memCategories) EnsureSeeded(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.cats) > 0 {
		return 0, nil
	}
	m.cats = []core.Category{{ID: "seed-1", Name: "Food"}, {ID: "seed-2", Name: "Misc"}}
	return 2, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.LedgerEvent
	err    error
}

func (r *recordingPublisher) PublishLedgerEvent(ctx context.Context, e *amqp.LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return r.err
}

func (r *recordingPublisher) types() []amqp.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]amqp.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func tx(cal core.Calendar, id, day, category, amount string, kind core.Kind) core.Transaction {
	d, err := core.ParseDate(day, cal.Location())
	if err != nil {
		panic(err)
	}
	return core.Transaction{
		ID:         id,
		Date:       d,
		CategoryID: category,
		Name:       "item " + id,
		Amount:     decimal.RequireFromString(amount),
		Kind:       kind,
	}
}

func ym(y int, m time.Month) core.YearMonth {
	return core.YearMonth{Year: y, Month: m}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
