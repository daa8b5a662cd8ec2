package backend

import (
	"context"
	"strings"
	"testing"

	"zeendr/internal/config"
	"zeendr/internal/ledger/memory"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	cfg, err := FromAppConfig(&config.Config{LedgerBackend: "sheets", GoogleSpreadsheetID: "abc", GoogleOrdersSheet: "Pedidos"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SheetsBackend || cfg.GoogleSpreadsheetID != "abc" || cfg.GoogleOrdersSheet != "Pedidos" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{LedgerBackend: "excel"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "memory", cfg: Config{Type: MemoryBackend}},
		{name: "sheets with json", cfg: Config{Type: SheetsBackend, GoogleSpreadsheetID: "x", GoogleServiceAccountJSON: "{}"}},
		{name: "unknown", cfg: Config{Type: "sqlite"}, wantErr: "invalid backend type"},
		{name: "sheets without id", cfg: Config{Type: SheetsBackend, GoogleServiceAccountJSON: "{}"}, wantErr: "Spreadsheet ID"},
		{name: "sheets without credentials", cfg: Config{Type: SheetsBackend, GoogleSpreadsheetID: "x"}, wantErr: "GoogleServiceAccount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if _, ok := res.Ledger.(*memory.Store); !ok {
		t.Fatalf("ledger is %T, want *memory.Store", res.Ledger)
	}
	if res.Cleanup != nil {
		t.Fatal("memory ledger needs no cleanup")
	}
}
