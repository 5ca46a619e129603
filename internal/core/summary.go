package core

import "github.com/shopspring/decimal"

// UnknownCategoryName labels aggregates whose category id is not in the
// supplied category list.
const UnknownCategoryName = "(Unknown)"

// MonthlyCategorySummary holds one category's totals for a month.
type MonthlyCategorySummary struct {
	CategoryID   string
	CategoryName string
	Income       decimal.Decimal
	Expense      decimal.Decimal
}

func (s MonthlyCategorySummary) Net() decimal.Decimal {
	return s.Income.Sub(s.Expense)
}

// MonthlySeriesPoint holds totals across all categories for one month.
type MonthlySeriesPoint struct {
	Month   YearMonth
	Income  decimal.Decimal
	Expense decimal.Decimal
}

func (p MonthlySeriesPoint) Net() decimal.Decimal {
	return p.Income.Sub(p.Expense)
}

// MonthOverview is everything a dashboard needs for one month.
type MonthOverview struct {
	Month      YearMonth
	Income     decimal.Decimal
	Expense    decimal.Decimal
	ByCategory []MonthlyCategorySummary
	Trend      []MonthlySeriesPoint
}

func (o MonthOverview) Net() decimal.Decimal {
	return o.Income.Sub(o.Expense)
}
