package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL used by the stores, bound to one connection or
// transaction.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// transactionRow is the typed projection of a transactions row.
type transactionRow struct {
	ID         string
	Date       int64
	CategoryID string
	Name       string
	CostCents  int64
	Kind       int64
}

// categoryRow is the typed projection of a categories row.
type categoryRow struct {
	ID   string
	Name string
}

const selectTransactions = `
SELECT id, date, category_id, name, cost_cents, kind
FROM transactions
`

const orderTransactions = `
ORDER BY date DESC, name ASC, id ASC
`

func (q *Queries) ListTransactions(ctx context.Context) ([]transactionRow, error) {
	rows, err := q.db.QueryContext(ctx, selectTransactions+orderTransactions)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

const listTransactionsBetween = selectTransactions + `
WHERE date >= ? AND date < ?
` + orderTransactions

func (q *Queries) ListTransactionsBetween(ctx context.Context, start, end int64) ([]transactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsBetween, start, end)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]transactionRow, error) {
	defer rows.Close()
	var items []transactionRow
	for rows.Next() {
		var i transactionRow
		if err := rows.Scan(&i.ID, &i.Date, &i.CategoryID, &i.Name, &i.CostCents, &i.Kind); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertTransaction = `
INSERT INTO transactions (id, date, category_id, name, cost_cents, kind)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    date = excluded.date,
    category_id = excluded.category_id,
    name = excluded.name,
    cost_cents = excluded.cost_cents,
    kind = excluded.kind
`

func (q *Queries) UpsertTransaction(ctx context.Context, arg transactionRow) error {
	_, err := q.db.ExecContext(ctx, upsertTransaction,
		arg.ID, arg.Date, arg.CategoryID, arg.Name, arg.CostCents, arg.Kind)
	return err
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listCategories = `SELECT id, name FROM categories ORDER BY name ASC, id ASC`

func (q *Queries) ListCategories(ctx context.Context) ([]categoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []categoryRow
	for rows.Next() {
		var i categoryRow
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countCategories = `SELECT COUNT(*) FROM categories`

func (q *Queries) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCategories).Scan(&n)
	return n, err
}

const countCategoriesByName = `SELECT COUNT(*) FROM categories WHERE lower(name) = lower(?)`

func (q *Queries) CountCategoriesByName(ctx context.Context, name string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCategoriesByName, name).Scan(&n)
	return n, err
}

const insertCategory = `INSERT INTO categories (id, name) VALUES (?, ?)`

func (q *Queries) InsertCategory(ctx context.Context, arg categoryRow) error {
	_, err := q.db.ExecContext(ctx, insertCategory, arg.ID, arg.Name)
	return err
}

const insertCategoryOrIgnore = `INSERT OR IGNORE INTO categories (id, name) VALUES (?, ?)`

func (q *Queries) InsertCategoryOrIgnore(ctx context.Context, arg categoryRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertCategoryOrIgnore, arg.ID, arg.Name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
