package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zeendr/internal/bulk"
	"zeendr/internal/core"
	"zeendr/internal/services"
)

func (s *Server) orderRoutes(r chi.Router) {
	r.Get("/pedidos", s.handleListOrders)
	r.Post("/pedidos", s.handleCreateOrder)
	r.Post("/pedido_manual", s.handleCreateOrder)
	r.Post("/pedidos/carga-masiva", s.handleImportOrders)
	r.Get("/pedidos/plantilla", s.handleOrdersTemplate)

	r.Route("/pedido/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetOrder)
		r.Put("/", s.handleUpdateOrder)
		r.With(requireAdmin).Delete("/", s.handleDeleteOrder)
		r.Put("/estado", s.handleChangeStatus)
		r.Get("/historial", s.handleOrderHistory)
	})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.svc.Orders.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(orders))
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in services.OrderInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = 0
	o, err := s.svc.Orders.Create(r.Context(), in, username(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.svc.Orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.OrderInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.svc.Orders.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Orders.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status core.OrderStatus `json:"estado"`
	Notify bool             `json:"notificar_cliente"`
}

type statusResponse struct {
	Order  core.Order        `json:"pedido"`
	Change core.StatusChange `json:"cambio"`
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, change, err := s.svc.Orders.ChangeStatus(r.Context(), id, req.Status, req.Notify, username(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Order: o, Change: change})
}

func (s *Server) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	history, err := s.svc.Orders.History(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(history))
}

type importResponse struct {
	Created int     `json:"creados"`
	IDs     []int64 `json:"ids"`
}

// handleImportOrders stores every order of the uploaded workbook or none.
func (s *Server) handleImportOrders(w http.ResponseWriter, r *http.Request) {
	f, err := uploadedFile(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.Close()

	orders, err := bulk.ParseOrders(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	inputs := make([]services.OrderInput, len(orders))
	for i, o := range orders {
		fee := o.DeliveryFee
		inputs[i] = services.OrderInput{Order: o.Order, DeliveryFee: &fee, Row: o.Row}
	}
	ids, err := s.svc.Orders.Import(r.Context(), inputs, username(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, importResponse{Created: len(ids), IDs: ids})
}

func (s *Server) handleOrdersTemplate(w http.ResponseWriter, r *http.Request) {
	xlsxHeaders(w, "plantilla_pedidos.xlsx")
	if err := bulk.WriteOrdersTemplate(w); err != nil {
		writeError(w, r, err)
	}
}
