package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zeendr/internal/bulk"
	"zeendr/internal/core"
)

func (s *Server) expenseRoutes(r chi.Router) {
	r.Get("/gastos", s.handleListExpenses)
	r.Post("/gastos", s.handleSaveExpense)
	r.Get("/gastos/tipos", s.handleExpenseTypes)
	r.Post("/gastos/carga-masiva", s.handleImportExpenses)
	r.Get("/gastos/plantilla", s.handleExpensesTemplate)
	r.Put("/gastos/{id}", s.handleSaveExpense)
	r.With(requireAdmin).Delete("/gastos/{id}", s.handleDeleteExpense)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.Expenses.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(expenses))
}

func (s *Server) handleExpenseTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.svc.Expenses.Types(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(types))
}

// handleSaveExpense creates on POST and updates on PUT /gastos/{id}. An
// expense without establishment gets the user's.
func (s *Server) handleSaveExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeJSON(w, r, &e); err != nil {
		writeError(w, r, err)
		return
	}
	if e.Establishment == "" {
		e.Establishment = sessionFrom(r.Context()).User.Establishment
	}

	if chi.URLParam(r, "id") == "" {
		e.ID = 0
		saved, err := s.svc.Expenses.Create(r.Context(), e)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e.ID = id
	saved, err := s.svc.Expenses.Update(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Expenses.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImportExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := uploadedFile(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.Close()

	expenses, err := bulk.ParseExpenses(f, sessionFrom(r.Context()).User.Establishment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ids, err := s.svc.Expenses.Import(r.Context(), expenses)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, importResponse{Created: len(ids), IDs: ids})
}

func (s *Server) handleExpensesTemplate(w http.ResponseWriter, r *http.Request) {
	xlsxHeaders(w, "plantilla_gastos.xlsx")
	if err := bulk.WriteExpensesTemplate(w, sessionFrom(r.Context()).User.Establishment); err != nil {
		writeError(w, r, err)
	}
}
