package backend

import (
	"context"
	"fmt"
	"log/slog"

	gledger "zeendr/internal/ledger/google"
	"zeendr/internal/ledger/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		f.logger.Info("Initialized memory ledger")
		return &BackendResult{Ledger: memory.New()}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gledger.New(ctx, gledger.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		OrdersSheet:     config.GoogleOrdersSheet,
		ExpensesSheet:   config.GoogleExpensesSheet,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets ledger: %w", err)
	}

	f.logger.Info("Initialized Google Sheets ledger",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"orders_sheet", config.GoogleOrdersSheet,
		"expenses_sheet", config.GoogleExpensesSheet)

	return &BackendResult{Ledger: cli}, nil
}
