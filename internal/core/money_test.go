package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1000", "1000", true},
		{"$1.000", "1000", true},
		{"1.000.000", "1000000", true},
		{"12.500,50", "12500.5", true},
		{"12,500.50", "12500.5", true},
		{"2500.75", "2500.75", true},
		{"1,5", "1.5", true},
		{"1,000", "1000", true},
		{" 3500 ", "3500", true},
		{"", "", false},
		{"abc", "", false},
		{"$", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestFormatCOP(t *testing.T) {
	cases := []struct {
		in   Money
		want string
	}{
		{Pesos(0), "$0"},
		{Pesos(999), "$999"},
		{Pesos(1000), "$1.000"},
		{Pesos(2500000), "$2.500.000"},
		{Pesos(-1500), "-$1.500"},
		{MoneyFromFloat(1234.5), "$1.235"},
		{MoneyFromFloat(1234.4), "$1.234"},
		{MoneyFromFloat(-0.4), "$0"},
	}
	for _, tc := range cases {
		if got := FormatCOP(tc.in); got != tc.want {
			t.Fatalf("FormatCOP(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	m := Pesos(10000)
	if got := m.LessPercent(decimal.NewFromInt(10)); !got.Equal(Pesos(9000)) {
		t.Fatalf("LessPercent: got %s", got)
	}
	if got := m.Div(decimal.Zero); !got.IsZero() {
		t.Fatalf("Div by zero should be zero, got %s", got)
	}
	if got := m.Div(decimal.NewFromInt(4)); !got.Equal(Pesos(2500)) {
		t.Fatalf("Div: got %s", got)
	}
	if got := SumMoney(Pesos(1), Pesos(2), Pesos(3)); !got.Equal(Pesos(6)) {
		t.Fatalf("SumMoney: got %s", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 1500.5, "b": "$2.000", "c": null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !v.A.Equal(MoneyFromFloat(1500.5)) || !v.B.Equal(Pesos(2000)) || !v.C.IsZero() {
		t.Fatalf("unexpected values: %s %s %s", v.A, v.B, v.C)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":1500.5,"b":2000,"c":0}` {
		t.Fatalf("unexpected json: %s", out)
	}
}

func TestMoneyScan(t *testing.T) {
	var m Money
	for _, src := range []any{"1200.5", int64(1200), float64(99.5), []byte("7")} {
		if err := m.Scan(src); err != nil {
			t.Fatalf("scan %v: %v", src, err)
		}
	}
	if !m.Equal(Pesos(7)) {
		t.Fatalf("expected last scan to win, got %s", m)
	}
}
