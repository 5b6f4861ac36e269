package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 1205})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "12.05" {
		t.Fatalf("expected 12.05, got %s", b)
	}

	var m Money
	if err := json.Unmarshal([]byte(`300`), &m); err != nil {
		t.Fatal(err)
	}
	if m.Cents != 30000 {
		t.Fatalf("expected 30000 cents, got %d", m.Cents)
	}
	if err := json.Unmarshal([]byte(`"19.99"`), &m); err != nil {
		t.Fatal(err)
	}
	if m.Cents != 1999 {
		t.Fatalf("expected 1999 cents, got %d", m.Cents)
	}
	if err := json.Unmarshal([]byte(`-3`), &m); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestBudgetValidate(t *testing.T) {
	b := Budget{Name: "Groceries", Amount: Money{Cents: 5000}}
	if err := b.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Budget{Name: "  ", Amount: Money{Cents: 100}}).Validate(); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := (Budget{Name: "x", Amount: Money{}}).Validate(); err == nil {
		t.Fatal("expected error for zero amount")
	}
}
