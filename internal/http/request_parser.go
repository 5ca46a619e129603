package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"moneytracker/internal/core"
)

const maxBodyBytes = 1 << 20

// maxSeriesMonths bounds the count query parameter.
const maxSeriesMonths = 240

// amountField accepts an amount as a JSON string ("12,50") or number (12.5).
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: amount must be a string or number", core.ErrValidation)
	}
	*a = amountField(n.String())
	return nil
}

type transactionRequest struct {
	ID         string      `json:"id"`
	Date       string      `json:"date"`
	CategoryID string      `json:"category_id"`
	Name       string      `json:"name"`
	Amount     amountField `json:"amount"`
	Kind       string      `json:"kind"`
}

// toTransaction parses the request fields in cal's zone. Domain rules are
// checked later by Transaction.Validate.
func (req transactionRequest) toTransaction(cal core.Calendar) (core.Transaction, error) {
	date, err := core.ParseDate(req.Date, cal.Location())
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.Transaction{}, err
	}
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:         strings.TrimSpace(req.ID),
		Date:       date,
		CategoryID: strings.TrimSpace(req.CategoryID),
		Name:       sanitizeInput(req.Name),
		Amount:     amount,
		Kind:       kind,
	}, nil
}

type categoryRequest struct {
	Name string `json:"name"`
}

// decodeJSON reads one JSON value from the body into dst. Malformed or
// oversized bodies are validation failures.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: request body too large", core.ErrValidation)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is empty", core.ErrValidation)
		case errors.Is(err, core.ErrValidation):
			return err
		default:
			return fmt.Errorf("%w: malformed JSON: %v", core.ErrValidation, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must hold a single JSON value", core.ErrValidation)
	}
	return nil
}

// parseMonth reads a YYYY-MM query parameter, defaulting to fallback when
// absent.
func parseMonth(r *http.Request, key string, fallback core.YearMonth) (core.YearMonth, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return fallback, nil
	}
	return core.ParseYearMonth(v)
}

// parseCount reads a positive integer query parameter.
func parseCount(r *http.Request, key string, fallback int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxSeriesMonths {
		return 0, fmt.Errorf("%w: %s must be between 1 and %d", core.ErrValidation, key, maxSeriesMonths)
	}
	return n, nil
}
