package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"zeendr/internal/cache"
	"zeendr/internal/core"
	"zeendr/internal/report"
	"zeendr/internal/storage"
)

// ReportService computes the dashboard aggregations. Results are cached
// for a short TTL and dropped whenever a write goes through a service.
type ReportService struct {
	repo  *storage.SQLiteRepository
	fees  report.FeeTable
	cache cache.Cache[any]

	// generation counts invalidations; a result computed across one is
	// returned but not stored.
	mu         sync.Mutex
	generation uint64
}

func NewReportService(repo *storage.SQLiteRepository, fees report.FeeTable, c cache.Cache[any]) *ReportService {
	return &ReportService{repo: repo, fees: fees, cache: c}
}

// Invalidate implements Invalidator.
func (s *ReportService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cache != nil {
		s.cache.Purge()
	}
}

func (s *ReportService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// store caches v unless an invalidation happened since gen was read.
func (s *ReportService) store(gen uint64, key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache != nil && s.generation == gen {
		s.cache.Set(key, v)
	}
}

type dataset struct {
	orders   []core.Order
	expenses []core.Expense
	products []core.Product
}

// load reads orders, expenses and products concurrently.
func (s *ReportService) load(ctx context.Context, orders, expenses, products bool) (dataset, error) {
	var d dataset
	g, gctx := errgroup.WithContext(ctx)
	q := s.repo.Queries()
	if orders {
		g.Go(func() error {
			var err error
			d.orders, err = q.ListOrders(gctx)
			if err != nil {
				return fmt.Errorf("load orders: %w", err)
			}
			return nil
		})
	}
	if expenses {
		g.Go(func() error {
			var err error
			d.expenses, err = q.ListExpenses(gctx)
			if err != nil {
				return fmt.Errorf("load expenses: %w", err)
			}
			return nil
		})
	}
	if products {
		g.Go(func() error {
			var err error
			d.products, err = q.ListProducts(gctx, "")
			if err != nil {
				return fmt.Errorf("load products: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dataset{}, err
	}
	return d, nil
}

// cached returns the value stored under key or computes and stores it.
func cached[T any](s *ReportService, key string, compute func() (T, error)) (T, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if t, ok := v.(T); ok {
				return t, nil
			}
		}
	}
	gen := s.currentGeneration()
	start := time.Now()
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	s.store(gen, key, v)
	slog.Debug("Report computed", "key", key, "duration_ms", time.Since(start).Milliseconds())
	return v, nil
}

// Monthly returns the financial report of a year; year 0 buckets every
// year together.
func (s *ReportService) Monthly(ctx context.Context, year int) (report.Financials, error) {
	return cached(s, fmt.Sprintf("monthly:%d", year), func() (report.Financials, error) {
		d, err := s.load(ctx, true, true, false)
		if err != nil {
			return report.Financials{}, err
		}
		return report.BuildFinancials(d.orders, d.expenses, s.fees, year), nil
	})
}

func (s *ReportService) KPIs(ctx context.Context, year int, month time.Month) (report.KPIComparison, error) {
	return cached(s, fmt.Sprintf("kpi:%d-%02d", year, month), func() (report.KPIComparison, error) {
		d, err := s.load(ctx, true, false, true)
		if err != nil {
			return report.KPIComparison{}, err
		}
		return report.CompareMonths(d.orders, report.NamesFromProducts(d.products), year, month), nil
	})
}

func (s *ReportService) Expenses(ctx context.Context, year int, month time.Month) (report.ExpenseSummary, error) {
	return cached(s, fmt.Sprintf("expenses:%d-%02d", year, month), func() (report.ExpenseSummary, error) {
		d, err := s.load(ctx, false, true, false)
		if err != nil {
			return report.ExpenseSummary{}, err
		}
		return report.SummarizeExpenses(d.expenses, year, month), nil
	})
}

// Board returns the delivery board for the filter.
func (s *ReportService) Board(ctx context.Context, f report.OrderFilter) (report.Board, error) {
	key := fmt.Sprintf("board:%d-%02d:w%d:%s", f.Year, f.Month, f.Week, f.Date)
	return cached(s, key, func() (report.Board, error) {
		d, err := s.load(ctx, true, false, true)
		if err != nil {
			return report.Board{}, err
		}
		return report.BuildBoard(d.orders, report.NamesFromProducts(d.products), f), nil
	})
}

func (s *ReportService) Weeks(year int, month time.Month) []report.Week {
	return report.WeeksInMonth(year, month)
}

func (s *ReportService) Transactions(ctx context.Context, year int, g report.Grouping) ([]report.TransactionCount, error) {
	return cached(s, fmt.Sprintf("transactions:%d:%s", year, g), func() ([]report.TransactionCount, error) {
		d, err := s.load(ctx, true, false, false)
		if err != nil {
			return nil, err
		}
		return report.TransactionCounts(d.orders, year, g), nil
	})
}

// Dispatch totals what to prepare for the confirmed orders of a day.
func (s *ReportService) Dispatch(ctx context.Context, day string) ([]report.DispatchLine, error) {
	var (
		orders   []core.Order
		products []core.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.repo.Queries().ListOrdersForDay(gctx, day, core.StatusConfirmed)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.repo.Queries().ListProducts(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dispatch data: %w", err)
	}
	return report.DispatchSummary(orders, report.NamesFromProducts(products)), nil
}

func (s *ReportService) Clients(ctx context.Context) ([]report.ClientSummary, error) {
	return cached(s, "clients", func() ([]report.ClientSummary, error) {
		d, err := s.load(ctx, true, false, false)
		if err != nil {
			return nil, err
		}
		revenue := make([]core.Order, 0, len(d.orders))
		for _, o := range d.orders {
			if o.Status.CountsAsRevenue() {
				revenue = append(revenue, o)
			}
		}
		return report.SummarizeClients(revenue, s.fees), nil
	})
}

// ProductSales values each product's sales over the revenue orders of a
// month ("YYYY-MM"), or of every month when month is empty.
func (s *ReportService) ProductSales(ctx context.Context, month string) ([]report.ProductSale, error) {
	return cached(s, "sales:"+month, func() ([]report.ProductSale, error) {
		d, err := s.load(ctx, true, false, true)
		if err != nil {
			return nil, err
		}
		var selected []core.Order
		for _, o := range d.orders {
			if o.Status.CountsAsRevenue() && (month == "" || o.CreatedAt.MonthKey() == month) {
				selected = append(selected, o)
			}
		}
		return report.SalesByProduct(selected, core.CatalogIndex(d.products)), nil
	})
}
