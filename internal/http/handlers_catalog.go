package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"zeendr/internal/core"
)

// crud wires the list/create/update/delete routes of one plain record type.
type crud[T any] struct {
	list   func(ctx context.Context, search string) ([]T, error)
	save   func(ctx context.Context, v T) (T, error)
	remove func(ctx context.Context, id int64) error
	// setID stamps the route id on the decoded record; 0 means create.
	setID func(v *T, id int64)
	// adminWrites also gates create and update behind the admin role.
	adminWrites bool
}

func mountCRUD[T any](r chi.Router, path string, c crud[T]) {
	writes := r
	if c.adminWrites {
		writes = r.With(requireAdmin)
	}

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		items, err := c.list(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listOf(items))
	})

	writes.Post(path, func(w http.ResponseWriter, r *http.Request) {
		var v T
		if err := decodeJSON(w, r, &v); err != nil {
			writeError(w, r, err)
			return
		}
		c.setID(&v, 0)
		saved, err := c.save(r.Context(), v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	})

	writes.Put(path+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var v T
		if err := decodeJSON(w, r, &v); err != nil {
			writeError(w, r, err)
			return
		}
		c.setID(&v, id)
		saved, err := c.save(r.Context(), v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	})

	r.With(requireAdmin).Delete(path+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := c.remove(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) catalogRoutes(r chi.Router) {
	cat := s.svc.Catalog

	mountCRUD(r, "/clientes", crud[core.Client]{
		list:   cat.Clients,
		save:   cat.SaveClient,
		remove: cat.DeleteClient,
		setID:  func(v *core.Client, id int64) { v.ID = id },
	})
	mountCRUD(r, "/proveedores", crud[core.Supplier]{
		list:   cat.Suppliers,
		save:   cat.SaveSupplier,
		remove: cat.DeleteSupplier,
		setID:  func(v *core.Supplier, id int64) { v.ID = id },
	})
	mountCRUD(r, "/productos_proveedor", crud[core.Supply]{
		list:   cat.Supplies,
		save:   cat.SaveSupply,
		remove: cat.DeleteSupply,
		setID:  func(v *core.Supply, id int64) { v.ID = id },
	})
	for path, kind := range map[string]core.CategoryKind{
		"/categorias":           core.CategoryMenu,
		"/categorias_proveedor": core.CategorySupplier,
		"/categorias_cupones":   core.CategoryCoupon,
	} {
		mountCRUD(r, path, s.categoryCRUD(kind))
	}
	mountCRUD(r, "/cupones", crud[core.Coupon]{
		list:        cat.Coupons,
		save:        cat.SaveCoupon,
		remove:      cat.DeleteCoupon,
		setID:       func(v *core.Coupon, id int64) { v.ID = id },
		adminWrites: true,
	})
	mountCRUD(r, "/metodos_pago", crud[core.PaymentMethod]{
		list:        cat.PaymentMethods,
		save:        cat.SavePaymentMethod,
		remove:      cat.DeletePaymentMethod,
		setID:       func(v *core.PaymentMethod, id int64) { v.ID = id },
		adminWrites: true,
	})

	r.Get("/horarios", s.handleListHours)
	r.Put("/horarios", s.handleSetHours)
	r.Get("/mensajes", s.handleListMessages)
	r.With(requireAdmin).Put("/mensajes", s.handleSetMessages)
	r.Get("/domicilio-price", s.handleDeliveryPrice)
	r.With(requireAdmin).Put("/domicilio-price", s.handleSetDeliveryPrice)
	r.Get("/barrios", s.handleNeighborhoods)
}

// categoryCRUD scopes the category routes to one kind; the kind never
// comes from the request body.
func (s *Server) categoryCRUD(kind core.CategoryKind) crud[core.Category] {
	cat := s.svc.Catalog
	return crud[core.Category]{
		list: func(ctx context.Context, q string) ([]core.Category, error) { return cat.Categories(ctx, kind, q) },
		save: cat.SaveCategory,
		remove: func(ctx context.Context, id int64) error {
			return cat.DeleteCategory(ctx, kind, id)
		},
		setID: func(v *core.Category, id int64) {
			v.ID = id
			v.Kind = kind
		},
		adminWrites: true,
	}
}

func (s *Server) handleListHours(w http.ResponseWriter, r *http.Request) {
	hours, err := s.svc.Catalog.Hours(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(hours))
}

func (s *Server) handleSetHours(w http.ResponseWriter, r *http.Request) {
	var hours []core.BusinessHours
	if err := decodeJSON(w, r, &hours); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Catalog.SetHours(r.Context(), hours)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(saved))
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	templates, err := s.svc.Catalog.Messages(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(templates))
}

func (s *Server) handleSetMessages(w http.ResponseWriter, r *http.Request) {
	var templates []core.MessageTemplate
	if err := decodeJSON(w, r, &templates); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Catalog.SetMessages(r.Context(), templates)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(saved))
}

type deliveryPrice struct {
	Price core.Money `json:"precio"`
}

func (s *Server) handleDeliveryPrice(w http.ResponseWriter, r *http.Request) {
	price, err := s.svc.Catalog.DeliveryPrice(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deliveryPrice{Price: price})
}

func (s *Server) handleSetDeliveryPrice(w http.ResponseWriter, r *http.Request) {
	var req deliveryPrice
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Catalog.SetDeliveryPrice(r.Context(), req.Price); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleNeighborhoods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listOf(s.svc.Catalog.Neighborhoods()))
}
