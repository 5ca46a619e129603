package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewCalendar(time.UTC).Day(2025, 1, 1), true},
		{NewCalendar(time.UTC).Day(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	day := NewCalendar(time.UTC).Day(2025, 1, 1)
	amount := decimal.RequireFromString("12.50")
	good := Transaction{Date: day, CategoryID: "food", Name: "Lunch", Amount: amount, Kind: KindExpense}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Date: Date{}, CategoryID: "food", Name: "a", Amount: amount},
		{Date: day, CategoryID: "food", Name: "   ", Amount: amount},
		{Date: day, CategoryID: "", Name: "a", Amount: amount},
		{Date: day, CategoryID: "food", Name: "a", Amount: decimal.Zero},
		{Date: day, CategoryID: "food", Name: "a", Amount: decimal.RequireFromString("-1")},
		{Date: day, CategoryID: "food", Name: "a", Amount: decimal.RequireFromString("0.004")}, // rounds to zero cents
		{Date: day, CategoryID: "food", Name: "a", Amount: amount, Kind: Kind(7)},
		{Date: day, CategoryID: "food", Name: strings.Repeat("x", 201), Amount: amount},
	}
	for i, tx := range bads {
		err := tx.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestKind(t *testing.T) {
	if KindExpense.IsIncome() || !KindIncome.IsIncome() || !KindRefund.IsIncome() {
		t.Fatalf("unexpected kind-class mapping")
	}
	for _, k := range []Kind{KindExpense, KindIncome, KindRefund} {
		parsed, err := ParseKind(strings.ToUpper(k.String()))
		if err != nil || parsed != k {
			t.Fatalf("parse %s: got %v (err=%v)", k, parsed, err)
		}
	}
	if _, err := ParseKind("transfer"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if int(KindExpense) != 0 || int(KindIncome) != 1 || int(KindRefund) != 2 {
		t.Fatalf("persisted kind numbers changed")
	}
}

func TestTransactionJSONShape(t *testing.T) {
	type payload struct {
		Date Date `json:"date"`
		Kind Kind `json:"kind"`
	}
	in := payload{Date: NewCalendar(time.UTC).Day(2024, 3, 15), Kind: KindRefund}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"date":"2024-03-15","kind":"refund"}` {
		t.Fatalf("unexpected json %s", b)
	}

	var out payload
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Date.String() != "2024-03-15" || out.Kind != KindRefund {
		t.Fatalf("unexpected decoded payload %+v", out)
	}
	if err := json.Unmarshal([]byte(`{"date":"15/03/2024"}`), &out); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}
