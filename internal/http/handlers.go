package http

import (
	"net/http"
	"sort"
	"strings"

	"moneytracker/internal/core"
	"moneytracker/internal/log"
	"moneytracker/internal/services"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryList(cats))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	c, err := s.ledger.CreateCategory(r.Context(), sanitizeInput(req.Name))
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCategoryResponse(c))
}

func (s *Server) handleSeedCategories(w http.ResponseWriter, r *http.Request) {
	n, err := s.ledger.EnsureCategoriesSeeded(r.Context())
	if err != nil {
		writeError(w, r, log.OpSeed, err)
		return
	}
	writeJSON(w, http.StatusOK, seedResponse{Inserted: n})
}

// handleListTransactions lists every transaction, or one month's when
// ?month=YYYY-MM is given.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		txs []core.Transaction
		err error
	)
	if strings.TrimSpace(r.URL.Query().Get("month")) == "" {
		txs, err = s.ledger.ListTransactions(r.Context())
	} else {
		var month core.YearMonth
		month, err = parseMonth(r, "month", core.YearMonth{})
		if err == nil {
			txs, err = s.ledger.ListTransactionsForMonth(r.Context(), month)
		}
	}
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionList(txs))
}

func (s *Server) handleUpsertTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpsert, err)
		return
	}
	t, err := req.toTransaction(s.cal)
	if err != nil {
		writeError(w, r, log.OpUpsert, err)
		return
	}
	saved, err := s.ledger.UpsertTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, log.OpUpsert, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponse(saved))
}

// handleSaveTransactions saves a JSON array of transactions row by row.
// Unparseable rows are reported as skipped alongside the ledger's own
// skips. Any storage failure turns the status into 500; the body still
// reports every row.
func (s *Server) handleSaveTransactions(w http.ResponseWriter, r *http.Request) {
	var reqs []transactionRequest
	if err := decodeJSON(w, r, &reqs); err != nil {
		writeError(w, r, log.OpBatch, err)
		return
	}

	var (
		rows     []core.Transaction
		origin   []int
		rejected []services.RowFailure
	)
	for i, req := range reqs {
		t, err := req.toTransaction(s.cal)
		if err != nil {
			rejected = append(rejected, services.RowFailure{Index: i, ID: strings.TrimSpace(req.ID), Err: err})
			continue
		}
		rows = append(rows, t)
		origin = append(origin, i)
	}

	res, err := s.ledger.SaveTransactions(r.Context(), rows)
	if err != nil && len(rows) > 0 && res.Saved+res.Skipped+res.Failed == 0 {
		// Nothing was attempted, e.g. the category list could not be loaded.
		writeError(w, r, log.OpBatch, err)
		return
	}
	for i := range res.Failures {
		res.Failures[i].Index = origin[res.Failures[i].Index]
	}
	res.Skipped += len(rejected)
	res.Failures = append(res.Failures, rejected...)
	sort.SliceStable(res.Failures, func(i, j int) bool { return res.Failures[i].Index < res.Failures[j].Index })

	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Batch save had storage failures",
			log.FieldOperation, log.OpBatch,
			log.FieldError, err,
			"saved", res.Saved,
			"failed", res.Failed)
	}
	writeJSON(w, status, newBatchResponse(res))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, log.OpDelete, core.ErrValidation)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r, "month", s.currentMonth())
	if err != nil {
		writeError(w, r, log.OpSummary, err)
		return
	}
	rows, err := s.ledger.MonthlySummary(r.Context(), month)
	if err != nil {
		writeError(w, r, log.OpSummary, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryList(rows))
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	end, err := parseMonth(r, "end", s.currentMonth())
	if err != nil {
		writeError(w, r, log.OpSeries, err)
		return
	}
	count, err := parseCount(r, "count", s.trendMonths)
	if err != nil {
		writeError(w, r, log.OpSeries, err)
		return
	}
	points, err := s.ledger.MonthlySeries(r.Context(), end, count)
	if err != nil {
		writeError(w, r, log.OpSeries, err)
		return
	}
	writeJSON(w, http.StatusOK, newSeriesList(points))
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r, "month", s.currentMonth())
	if err != nil {
		writeError(w, r, log.OpOverview, err)
		return
	}
	o, err := s.ledger.MonthOverview(r.Context(), month)
	if err != nil {
		writeError(w, r, log.OpOverview, err)
		return
	}
	writeJSON(w, http.StatusOK, newOverviewResponse(o))
}
