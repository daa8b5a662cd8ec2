// Package google writes the ledger to a Google Sheets spreadsheet using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"zeendr/internal/core"
	"zeendr/internal/ledger"
)

var _ ledger.Writer = (*Client)(nil)

type Options struct {
	SpreadsheetID   string
	OrdersSheet     string
	ExpensesSheet   string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ordersBase    string
	expensesBase  string

	mu    sync.Mutex
	known map[string]bool
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	orders, expenses := opts.OrdersSheet, opts.ExpensesSheet
	if orders == "" {
		orders = ledger.DefaultOrdersSheet
	}
	if expenses == "" {
		expenses = ledger.DefaultExpensesSheet
	}
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		ordersBase:    orders,
		expensesBase:  expenses,
		known:         map[string]bool{},
	}, nil
}

func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	creds := []byte(strings.TrimSpace(credentialsJSON))
	if len(creds) == 0 {
		if credentialsFile == "" {
			credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		}
		if credentialsFile == "" {
			return nil, errors.New("missing service account credentials")
		}
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = b
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "component", "ledger")
	return svc, nil
}

func (c *Client) UpsertOrder(ctx context.Context, o core.Order, ref string) (string, error) {
	if o.ID <= 0 {
		return "", errors.New("order without id")
	}
	sheet := ledger.SheetName(c.ordersBase, ledger.OrderYear(o))
	return c.upsert(ctx, sheet, ref, ledger.OrderHeader, ledger.OrderRow(o))
}

func (c *Client) UpsertExpense(ctx context.Context, e core.Expense, ref string) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	sheet := ledger.SheetName(c.expensesBase, ledger.ExpenseYear(e))
	return c.upsert(ctx, sheet, ref, ledger.ExpenseHeader, ledger.ExpenseRow(e))
}

// upsert rewrites the row named by ref when it lives in sheet and appends
// after the last used row otherwise.
func (c *Client) upsert(ctx context.Context, sheet, ref string, header []string, row []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := c.ensureSheet(ctx, sheet, header); err != nil {
		return "", err
	}

	target := 0
	if name, n, ok := parseRef(ref); ok && name == sheet {
		target = n
	} else {
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A:A").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("read %s: %w", sheet, err)
		}
		target = len(resp.Values) + 1
	}

	rng := rowRange(sheet, target, len(row))
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{row}}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write %s: %w", rng, err)
	}
	return rng, nil
}

// ensureSheet creates the yearly sheet with its header row the first time
// it is needed.
func (c *Client) ensureSheet(ctx context.Context, sheet string, header []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.known[sheet] {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			c.known[s.Properties.Title] = true
		}
	}
	if c.known[sheet] {
		return nil
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}}}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheet %s: %w", sheet, err)
	}

	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rowRange(sheet, 1, len(header)),
		&gsheet.ValueRange{Values: [][]any{cells}}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header %s: %w", sheet, err)
	}
	c.known[sheet] = true
	slog.InfoContext(ctx, "Ledger sheet created", "component", "ledger", "sheet", sheet)
	return nil
}
