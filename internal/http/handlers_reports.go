package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"zeendr/internal/core"
	"zeendr/internal/report"
)

func (s *Server) reportRoutes(r chi.Router) {
	r.Route("/reportes", func(r chi.Router) {
		r.Get("/mensual", s.handleMonthlyReport)
		r.Get("/kpi", s.handleKPIReport)
		r.Get("/gastos", s.handleExpenseReport)
		r.Get("/pedidos", s.handleOrderBoard)
		r.Get("/semanas", s.handleWeeks)
		r.Get("/transacciones", s.handleTransactions)
		r.Get("/clientes", s.handleClientReport)
		r.Get("/productos", s.handleProductSales)
	})
	r.Get("/despachos/resumen", s.handleDispatch)
}

// handleMonthlyReport serves the financial series of ?year=, the current
// year by default; year=0 covers every year.
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r.URL.Query(), "year", s.now().Year())
	if err != nil {
		writeError(w, r, err)
		return
	}
	fin, err := s.svc.Reports.Monthly(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fin)
}

func (s *Server) handleKPIReport(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	kpi, err := s.svc.Reports.KPIs(r.Context(), p.Year, p.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kpi)
}

func (s *Server) handleExpenseReport(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.svc.Reports.Expenses(r.Context(), p.Year, p.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleOrderBoard filters the delivery board; absent parameters do not
// filter.
func (s *Server) handleOrderBoard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f report.OrderFilter
	var err error
	if f.Year, err = queryInt(q, "year", 0); err != nil {
		writeError(w, r, err)
		return
	}
	month, err := queryInt(q, "month", 0)
	if err != nil || month < 0 || month > 12 {
		writeError(w, r, fmt.Errorf("%w: month must be between 1 and 12", errBadRequest))
		return
	}
	f.Month = time.Month(month)
	if f.Week, err = queryInt(q, "week", 0); err != nil {
		writeError(w, r, err)
		return
	}
	if d := strings.TrimSpace(q.Get("date")); d != "" {
		date, err := core.ParseDate(d)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		f.Date = date.String()
	}

	board, err := s.svc.Reports.Board(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	board.Rows = listOf(board.Rows)
	board.Dates = listOf(board.Dates)
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleWeeks(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Reports.Weeks(p.Year, p.Month))
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r.URL.Query(), "year", s.now().Year())
	if err != nil {
		writeError(w, r, err)
		return
	}
	g := report.Grouping(r.URL.Query().Get("group"))
	switch g {
	case "":
		g = report.GroupByDay
	case report.GroupByDay, report.GroupByMonth:
	default:
		writeError(w, r, fmt.Errorf("%w: group must be day or month", errBadRequest))
		return
	}
	counts, err := s.svc.Reports.Transactions(r.Context(), year, g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(counts))
}

// handleDispatch totals what to prepare for the confirmed orders of
// ?date=, today by default.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	day := core.NewTimestamp(s.now()).DayKey()
	if d := strings.TrimSpace(r.URL.Query().Get("date")); d != "" {
		date, err := core.ParseDate(d)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		day = date.String()
	}
	lines, err := s.svc.Reports.Dispatch(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(lines))
}

func (s *Server) handleClientReport(w http.ResponseWriter, r *http.Request) {
	clients, err := s.svc.Reports.Clients(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(clients))
}

// handleProductSales serves sales per product for ?month=YYYY-MM, or for
// all months when absent.
func (s *Server) handleProductSales(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			writeError(w, r, fmt.Errorf("%w: month must be YYYY-MM", errBadRequest))
			return
		}
	}
	sales, err := s.svc.Reports.ProductSales(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(sales))
}
