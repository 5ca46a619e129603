package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"moneytracker/internal/core"
	"moneytracker/internal/log"
)

// TransactionStore persists transactions. Amounts and dates cross its
// boundary as decimals and local days; rows hold cents and Unix instants.
type TransactionStore struct {
	db  *DB
	cal core.Calendar
}

func NewTransactionStore(db *DB, cal core.Calendar) *TransactionStore {
	return &TransactionStore{db: db, cal: cal}
}

// GetAll returns every transaction, newest day first, then by name.
func (s *TransactionStore) GetAll(ctx context.Context) ([]core.Transaction, error) {
	var out []core.Transaction
	err := s.db.withConn(ctx, "list transactions", func(q *Queries) error {
		rows, err := q.ListTransactions(ctx)
		if err != nil {
			return err
		}
		out, err = s.decodeAll(rows)
		return err
	})
	return out, err
}

// GetByMonth returns the transactions whose day falls in ym.
func (s *TransactionStore) GetByMonth(ctx context.Context, ym core.YearMonth) ([]core.Transaction, error) {
	return s.GetByRange(ctx, s.cal.MonthRange(ym))
}

// GetByRange returns the transactions whose stored instant is in r.
func (s *TransactionStore) GetByRange(ctx context.Context, r core.DateRange) ([]core.Transaction, error) {
	start, end := s.cal.ToInstant(r.Start), s.cal.ToInstant(r.End)

	var out []core.Transaction
	err := s.db.withConn(ctx, "list transactions by range", func(q *Queries) error {
		rows, err := q.ListTransactionsBetween(ctx, start, end)
		if err != nil {
			return err
		}
		out, err = s.decodeAll(rows)
		return err
	})
	return out, err
}

// Upsert inserts t, or replaces every mutable field of the row with t's id.
// A missing id is generated. The stored form is returned.
func (s *TransactionStore) Upsert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if strings.TrimSpace(t.ID) == "" {
		t.ID = uuid.NewString()
	}
	t.Name = strings.TrimSpace(t.Name)
	// A Date's calendar fields are authoritative; re-anchor them here.
	t.Date = s.cal.Day(t.Date.Year(), t.Date.Month(), t.Date.Day())

	row, err := s.encode(t)
	if err != nil {
		return core.Transaction{}, err
	}

	err = s.db.withConn(ctx, "upsert transaction", func(q *Queries) error {
		return q.UpsertTransaction(ctx, row)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.DebugContext(ctx, "Transaction upserted",
		log.FieldComponent, log.ComponentStorage,
		log.FieldTransactionID, row.ID,
		"date", t.Date.String(),
		log.FieldCategoryID, row.CategoryID,
		log.FieldAmountCents, row.CostCents,
		log.FieldKind, t.Kind.String())

	return t, nil
}

// Delete removes the transaction with id. Missing ids are not an error.
func (s *TransactionStore) Delete(ctx context.Context, id string) error {
	var affected int64
	err := s.db.withConn(ctx, "delete transaction", func(q *Queries) error {
		var err error
		affected, err = q.DeleteTransaction(ctx, id)
		return err
	})
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "Transaction delete",
		log.FieldComponent, log.ComponentStorage,
		log.FieldTransactionID, id,
		"deleted", affected > 0)
	return nil
}

func (s *TransactionStore) encode(t core.Transaction) (transactionRow, error) {
	cents, err := core.EncodeCents(t.Amount)
	if err != nil {
		return transactionRow{}, err
	}
	return transactionRow{
		ID:         t.ID,
		Date:       s.cal.ToInstant(t.Date),
		CategoryID: t.CategoryID,
		Name:       t.Name,
		CostCents:  cents,
		Kind:       int64(t.Kind),
	}, nil
}

func (s *TransactionStore) decode(r transactionRow) (core.Transaction, error) {
	kind := core.Kind(r.Kind)
	if !kind.IsValid() {
		return core.Transaction{}, core.StorageError("decode transaction",
			fmt.Errorf("row %s has unknown kind %d", r.ID, r.Kind))
	}
	return core.Transaction{
		ID:         r.ID,
		Date:       s.cal.FromInstant(r.Date),
		CategoryID: r.CategoryID,
		Name:       r.Name,
		Amount:     core.DecodeCents(r.CostCents),
		Kind:       kind,
	}, nil
}

func (s *TransactionStore) decodeAll(rows []transactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		t, err := s.decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
