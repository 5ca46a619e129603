package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind values are persisted; do not renumber without a migration.
const (
	KindExpense Kind = 0
	KindIncome  Kind = 1
	KindRefund  Kind = 2
)

const maxNameLength = 200

type (
	// Kind classifies a transaction.
	Kind int

	// Date is a calendar day at local midnight, without time of day.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID         string
		Date       Date
		CategoryID string
		Name       string
		Amount     decimal.Decimal
		Kind       Kind
	}

	Category struct {
		ID   string
		Name string
	}
)

// IsIncome reports whether k belongs to the income kind-class. Income and
// Refund are income; everything else is expense.
func (k Kind) IsIncome() bool {
	return k == KindIncome || k == KindRefund
}

func (k Kind) IsValid() bool {
	switch k {
	case KindExpense, KindIncome, KindRefund:
		return true
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case KindExpense:
		return "expense"
	case KindIncome:
		return "income"
	case KindRefund:
		return "refund"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind accepts the names returned by String, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense", "":
		return KindExpense, nil
	case "income":
		return KindIncome, nil
	case "refund":
		return KindRefund, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.IsValid() {
		return nil, ErrInvalidKind
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the day as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses YYYY-MM-DD as a day in the process's local zone.
// Stores re-anchor dates in their own calendar on write.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b), time.Local)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON shadows time.Time's RFC 3339 encoding.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	return d.UnmarshalText([]byte(s))
}

// ParseDate parses YYYY-MM-DD as local midnight in loc.
func ParseDate(s string, loc *time.Location) (Date, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), loc)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// Validate checks the invariants required before a transaction is
// persisted. The store itself does not call it.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name too long (max %d characters)", ErrValidation, maxNameLength)
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	m, err := MoneyFromDecimal(t.Amount)
	if err != nil {
		return err
	}
	return m.Validate()
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	return nil
}
