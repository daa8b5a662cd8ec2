package google

import "testing"

func TestColumnLetter(t *testing.T) {
	for n, want := range map[int]string{1: "A", 6: "F", 12: "L", 26: "Z", 27: "AA", 52: "AZ"} {
		if got := columnLetter(n); got != want {
			t.Errorf("columnLetter(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		ref   string
		sheet string
		row   int
		ok    bool
	}{
		{"2024 Pedidos!A12:L12", "2024 Pedidos", 12, true},
		{rowRange("2024 Gastos", 3, 6), "2024 Gastos", 3, true},
		{"2024 Pedidos!A12:L13", "", 0, false},
		{"mem:2024 Pedidos:0", "", 0, false},
		{"", "", 0, false},
	}
	for _, tt := range tests {
		sheet, row, ok := parseRef(tt.ref)
		if sheet != tt.sheet || row != tt.row || ok != tt.ok {
			t.Errorf("parseRef(%q) = %q, %d, %v", tt.ref, sheet, row, ok)
		}
	}
}
