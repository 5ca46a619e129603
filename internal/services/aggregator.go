package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"moneytracker/internal/core"
)

// TransactionReader is the slice of the transaction store the aggregator
// reads from.
type TransactionReader interface {
	GetByRange(ctx context.Context, r core.DateRange) ([]core.Transaction, error)
}

// Aggregator derives per-category summaries and monthly series from stored
// transactions. It holds no state of its own.
type Aggregator struct {
	txs TransactionReader
	cal core.Calendar
}

func NewAggregator(txs TransactionReader, cal core.Calendar) *Aggregator {
	return &Aggregator{txs: txs, cal: cal}
}

// MonthlySummary returns one entry per listed category plus one per unlisted
// category id that has rows in month, ordered by expense descending, then
// category name, then id.
func (a *Aggregator) MonthlySummary(ctx context.Context, month core.YearMonth, categories []core.Category) ([]core.MonthlyCategorySummary, error) {
	rows, err := a.txs.GetByRange(ctx, a.cal.MonthRange(month))
	if err != nil {
		return nil, fmt.Errorf("load month %s: %w", month, err)
	}

	byID := make(map[string]*core.MonthlyCategorySummary, len(categories))
	out := make([]*core.MonthlyCategorySummary, 0, len(categories))
	for _, c := range categories {
		if _, dup := byID[c.ID]; dup {
			continue
		}
		s := &core.MonthlyCategorySummary{
			CategoryID:   c.ID,
			CategoryName: c.Name,
			Income:       decimal.Zero,
			Expense:      decimal.Zero,
		}
		byID[c.ID] = s
		out = append(out, s)
	}

	for _, t := range rows {
		s, ok := byID[t.CategoryID]
		if !ok {
			s = &core.MonthlyCategorySummary{
				CategoryID:   t.CategoryID,
				CategoryName: core.UnknownCategoryName,
				Income:       decimal.Zero,
				Expense:      decimal.Zero,
			}
			byID[t.CategoryID] = s
			out = append(out, s)
		}
		if t.Kind.IsIncome() {
			s.Income = s.Income.Add(t.Amount)
		} else {
			s.Expense = s.Expense.Add(t.Amount)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		x, y := out[i], out[j]
		if c := x.Expense.Cmp(y.Expense); c != 0 {
			return c > 0
		}
		if x.CategoryName != y.CategoryName {
			return x.CategoryName < y.CategoryName
		}
		return x.CategoryID < y.CategoryID
	})

	result := make([]core.MonthlyCategorySummary, len(out))
	for i, s := range out {
		result[i] = *s
	}
	return result, nil
}

// MonthlySeries returns exactly monthsBack points ending at end, oldest
// first. Months without rows are zero.
func (a *Aggregator) MonthlySeries(ctx context.Context, end core.YearMonth, monthsBack int) ([]core.MonthlySeriesPoint, error) {
	if monthsBack < 1 {
		return nil, fmt.Errorf("%w: months back must be at least 1, got %d", core.ErrValidation, monthsBack)
	}

	months := core.MonthSequence(end, monthsBack)
	points := make([]core.MonthlySeriesPoint, len(months))
	index := make(map[core.YearMonth]int, len(months))
	for i, m := range months {
		points[i] = core.MonthlySeriesPoint{Month: m, Income: decimal.Zero, Expense: decimal.Zero}
		index[m] = i
	}

	rows, err := a.txs.GetByRange(ctx, a.cal.SpanRange(months[0], end))
	if err != nil {
		return nil, fmt.Errorf("load series ending %s: %w", end, err)
	}

	for _, t := range rows {
		i, ok := index[core.MonthOfDate(t.Date)]
		if !ok {
			continue
		}
		if t.Kind.IsIncome() {
			points[i].Income = points[i].Income.Add(t.Amount)
		} else {
			points[i].Expense = points[i].Expense.Add(t.Amount)
		}
	}
	return points, nil
}
