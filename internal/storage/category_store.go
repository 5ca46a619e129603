package storage

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"moneytracker/internal/core"
	"moneytracker/internal/log"
)

// DefaultCategories are inserted by EnsureSeeded into an empty ledger. The
// ids are fixed so seeding from several processes converges.
var DefaultCategories = []core.Category{
	{ID: "00000000-0000-0000-0000-000000000001", Name: "Food"},
	{ID: "00000000-0000-0000-0000-000000000002", Name: "Subscriptions"},
	{ID: "00000000-0000-0000-0000-000000000003", Name: "Delivery Fees"},
	{ID: "00000000-0000-0000-0000-000000000004", Name: "Online Purchases"},
	{ID: "00000000-0000-0000-0000-000000000005", Name: "Groceries"},
	{ID: "00000000-0000-0000-0000-000000000006", Name: "Misc"},
}

type CategoryStore struct {
	db *DB
}

func NewCategoryStore(db *DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// GetAll returns every category ordered by name.
func (s *CategoryStore) GetAll(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	err := s.db.withConn(ctx, "list categories", func(q *Queries) error {
		rows, err := q.ListCategories(ctx)
		if err != nil {
			return err
		}
		out = make([]core.Category, len(rows))
		for i, r := range rows {
			out[i] = core.Category{ID: r.ID, Name: r.Name}
		}
		return nil
	})
	return out, err
}

// Create adds a category named name. Names are unique ignoring case.
func (s *CategoryStore) Create(ctx context.Context, name string) (core.Category, error) {
	cat := core.Category{ID: uuid.NewString(), Name: strings.TrimSpace(name)}
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}

	err := s.db.withConn(ctx, "create category", func(q *Queries) error {
		n, err := q.CountCategoriesByName(ctx, cat.Name)
		if err != nil {
			return err
		}
		if n > 0 {
			return core.ErrCategoryExists
		}
		// A concurrent writer can still win between the check and the insert.
		if err := q.InsertCategory(ctx, categoryRow{ID: cat.ID, Name: cat.Name}); err != nil {
			if isUniqueViolation(err) {
				return core.ErrCategoryExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}

	slog.InfoContext(ctx, "Category created",
		log.FieldComponent, log.ComponentStorage,
		log.FieldCategoryID, cat.ID,
		"name", cat.Name)
	return cat, nil
}

// EnsureSeeded inserts DefaultCategories when no category exists and
// returns how many rows it added. Repeated or concurrent calls are safe.
func (s *CategoryStore) EnsureSeeded(ctx context.Context) (int, error) {
	inserted := 0
	err := s.db.withTx(ctx, "seed categories", func(q *Queries) error {
		n, err := q.CountCategories(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, c := range DefaultCategories {
			affected, err := q.InsertCategoryOrIgnore(ctx, categoryRow{ID: c.ID, Name: c.Name})
			if err != nil {
				return err
			}
			inserted += int(affected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if inserted > 0 {
		slog.InfoContext(ctx, "Default categories seeded", log.FieldComponent, log.ComponentStorage, "count", inserted)
	}
	return inserted, nil
}
