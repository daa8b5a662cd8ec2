package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zeendr/internal/bulk"
	"zeendr/internal/core"
	"zeendr/internal/services"
)

func (s *Server) inventoryRoutes(r chi.Router) {
	r.Get("/productos", s.handleListProducts)
	r.Post("/productos", s.handleSaveProduct)
	r.Get("/productos/exportar", s.handleExportProducts)
	r.Route("/productos/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetProduct)
		r.Put("/", s.handleSaveProduct)
		r.With(requireAdmin).Delete("/", s.handleDeleteProduct)
		r.Post("/stock", s.handleSetStock)
	})

	r.Post("/inventarios/movimiento", s.handleMovement)
	r.Get("/inventarios/movimientos", s.handleListMovements)

	r.Post("/costos/calcular", s.handleCost)
	r.Get("/costos/productos/{id}", s.handleProductCost)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.svc.Inventory.Products(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(products))
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.Inventory.Product(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleSaveProduct creates on POST /productos and updates on PUT
// /productos/{id}.
func (s *Server) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	var p core.Product
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	p.ID = 0
	if chi.URLParam(r, "id") != "" {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		p.ID = id
		status = http.StatusOK
	}
	saved, err := s.svc.Inventory.SaveProduct(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, saved)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Inventory.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Stock int64 `json:"stock"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.Inventory.SetStock(r.Context(), id, req.Stock)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleExportProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.svc.Inventory.Products(r.Context(), "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	xlsxHeaders(w, "productos.xlsx")
	if err := bulk.WriteProductList(w, products); err != nil {
		writeError(w, r, err)
	}
}

func (s *Server) handleMovement(w http.ResponseWriter, r *http.Request) {
	var m core.InventoryMovement
	if err := decodeJSON(w, r, &m); err != nil {
		writeError(w, r, err)
		return
	}
	m.ID = 0
	saved, err := s.svc.Inventory.Move(r.Context(), m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r.URL.Query(), "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	movements, err := s.svc.Inventory.Movements(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(movements))
}

func (s *Server) handleCost(w http.ResponseWriter, r *http.Request) {
	var req services.CostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	breakdown, err := s.svc.Inventory.Cost(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleProductCost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cost, err := s.svc.Inventory.ProductCost(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cost)
}
