package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"moneytracker/internal/core"
	"moneytracker/internal/log"
	"moneytracker/internal/services"
)

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type transactionResponse struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Kind       string `json:"kind"`
}

type summaryResponse struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Income       string `json:"income"`
	Expense      string `json:"expense"`
	Net          string `json:"net"`
}

type seriesResponse struct {
	Month   string `json:"month"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

type overviewResponse struct {
	Month      string            `json:"month"`
	Income     string            `json:"income"`
	Expense    string            `json:"expense"`
	Net        string            `json:"net"`
	ByCategory []summaryResponse `json:"by_category"`
	Trend      []seriesResponse  `json:"trend"`
}

type rowFailureResponse struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

type batchResponse struct {
	Saved    int                  `json:"saved"`
	Skipped  int                  `json:"skipped"`
	Failed   int                  `json:"failed"`
	Failures []rowFailureResponse `json:"failures"`
}

type seedResponse struct {
	Inserted int `json:"inserted"`
}

// formatAmount renders amounts with exactly two decimals.
func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func newCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name}
}

func newCategoryList(cats []core.Category) []categoryResponse {
	out := make([]categoryResponse, len(cats))
	for i, c := range cats {
		out[i] = newCategoryResponse(c)
	}
	return out
}

func newTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:         t.ID,
		Date:       t.Date.String(),
		CategoryID: t.CategoryID,
		Name:       t.Name,
		Amount:     formatAmount(t.Amount),
		Kind:       t.Kind.String(),
	}
}

func newTransactionList(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(txs))
	for i, t := range txs {
		out[i] = newTransactionResponse(t)
	}
	return out
}

func newSummaryList(rows []core.MonthlyCategorySummary) []summaryResponse {
	out := make([]summaryResponse, len(rows))
	for i, s := range rows {
		out[i] = summaryResponse{
			CategoryID:   s.CategoryID,
			CategoryName: s.CategoryName,
			Income:       formatAmount(s.Income),
			Expense:      formatAmount(s.Expense),
			Net:          formatAmount(s.Net()),
		}
	}
	return out
}

func newSeriesList(points []core.MonthlySeriesPoint) []seriesResponse {
	out := make([]seriesResponse, len(points))
	for i, p := range points {
		out[i] = seriesResponse{
			Month:   p.Month.String(),
			Income:  formatAmount(p.Income),
			Expense: formatAmount(p.Expense),
			Net:     formatAmount(p.Net()),
		}
	}
	return out
}

func newOverviewResponse(o core.MonthOverview) overviewResponse {
	return overviewResponse{
		Month:      o.Month.String(),
		Income:     formatAmount(o.Income),
		Expense:    formatAmount(o.Expense),
		Net:        formatAmount(o.Net()),
		ByCategory: newSummaryList(o.ByCategory),
		Trend:      newSeriesList(o.Trend),
	}
}

func newBatchResponse(res services.BatchResult) batchResponse {
	out := batchResponse{
		Saved:    res.Saved,
		Skipped:  res.Skipped,
		Failed:   res.Failed,
		Failures: make([]rowFailureResponse, len(res.Failures)),
	}
	for i, f := range res.Failures {
		out.Failures[i] = rowFailureResponse{Index: f.Index, ID: f.ID, Error: publicMessage(f.Err)}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to write response body", log.FieldError, err)
	}
}

// statusFor maps an error class to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides storage detail from clients.
func publicMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrConflict):
		return log.ErrorTypeConflict
	case errors.Is(err, core.ErrStorage):
		return log.ErrorTypeStorage
	default:
		return log.ErrorTypeInternal
	}
}

// writeError logs err with op and writes the mapped status.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	ctx := r.Context()
	logger := log.FromContext(ctx)
	fields := log.NewFields()
	if month := r.URL.Query().Get("month"); month != "" {
		fields.WithMonth(month)
	}
	if status >= http.StatusInternalServerError {
		log.NewStructuredLogger(logger).LogError(ctx, "Request failed", err, op, errorType(err), fields)
	} else {
		fields.WithOperation(op).WithErrorType(errorType(err)).WithError(err)
		logger.WarnContext(ctx, "Request rejected", fields.ToSlice()...)
	}
	writeJSON(w, status, errorResponse{Error: publicMessage(err)})
}
