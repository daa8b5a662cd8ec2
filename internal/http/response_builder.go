package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"zeendr/internal/bulk"
	"zeendr/internal/core"
	applog "zeendr/internal/log"
	"zeendr/internal/services"
	"zeendr/internal/storage"
)

// errBadRequest marks requests that could not be decoded at all.
var errBadRequest = errors.New("malformed request")

// errorBody is the JSON error envelope. Rows lists the spreadsheet rows
// rejected by a bulk upload.
type errorBody struct {
	Error string          `json:"error"`
	Rows  []bulk.RowError `json:"filas,omitempty"`
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var rowErrs bulk.Errors
	switch {
	case errors.As(err, &rowErrs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidTransition),
		errors.Is(err, storage.ErrNoStock),
		errors.Is(err, storage.ErrConflict),
		errors.Is(err, storage.ErrReference):
		return http.StatusConflict
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, bulk.ErrEmptyWorkbook),
		errors.Is(err, bulk.ErrMissingColumn):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError logs err and writes the JSON error body. Internal errors are
// not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := applog.FromContext(r.Context())

	body := errorBody{Error: err.Error()}
	var rowErrs bulk.Errors
	if errors.As(err, &rowErrs) {
		body = errorBody{Error: "el archivo tiene filas con errores", Rows: rowErrs}
	}

	switch {
	case status == http.StatusInternalServerError:
		logger.ErrorContext(r.Context(), "Request failed", applog.FieldError, err, applog.FieldPath, r.URL.Path)
		body = errorBody{Error: "error interno del servidor"}
	case status == http.StatusUnauthorized && errors.Is(err, services.ErrInvalidCredentials):
		body.Error = services.ErrInvalidCredentials.Error()
	default:
		logger.DebugContext(r.Context(), "Request rejected", applog.FieldError, err, applog.FieldStatusCode, status)
	}
	writeJSON(w, status, body)
}

// rateLimited is the JSON rejection used by the rate limiter.
func rateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "demasiadas solicitudes, intente de nuevo en un minuto"})
}

// listOf keeps empty lists from encoding as null.
func listOf[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func xlsxHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}
