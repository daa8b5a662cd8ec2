package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"zeendr/internal/bulk"
	"zeendr/internal/cache"
	"zeendr/internal/core"
	"zeendr/internal/delivery"
	"zeendr/internal/services"
	"zeendr/internal/storage"
)

type testEnv struct {
	t    *testing.T
	srv  *Server
	repo *storage.SQLiteRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "zeendr.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	zones, err := delivery.Default()
	if err != nil {
		t.Fatalf("delivery.Default: %v", err)
	}
	reports := services.NewReportService(repo, zones, cache.NewLRUCache[any](64, time.Minute))
	auth := services.NewAuthService(repo, time.Hour)
	svc := Services{
		Auth:      auth,
		Orders:    services.NewOrderService(repo, zones, core.TransitionPolicy{}, nil, reports),
		Expenses:  services.NewExpenseService(repo, nil, reports),
		Inventory: services.NewInventoryService(repo, reports),
		Catalog:   services.NewCatalogService(repo, zones, reports),
		Reports:   reports,
	}

	ctx := context.Background()
	if _, err := auth.CreateUser(ctx, core.User{Username: "admin", Establishment: "Zeendr", Role: core.RoleAdmin}, "secreto123"); err != nil {
		t.Fatalf("CreateUser admin: %v", err)
	}
	if _, err := auth.CreateUser(ctx, core.User{Username: "caja", Establishment: "Zeendr", Role: core.RoleStaff}, "secreto123"); err != nil {
		t.Fatalf("CreateUser staff: %v", err)
	}

	srv := NewServer(":0", svc, Options{RateLimitPerMinute: 1000, Ready: repo.Ping})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{t: t, srv: srv, repo: repo}
}

func (e *testEnv) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(method, path, token string, v any) *httptest.ResponseRecorder {
	e.t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	return e.do(method, path, token, body, "application/json")
}

func (e *testEnv) login(user string) string {
	e.t.Helper()
	rec := e.doJSON(http.MethodPost, "/login", "", map[string]string{"usuario": user, "contrasena": "secreto123"})
	if rec.Code != http.StatusOK {
		e.t.Fatalf("login %s: status %d body %s", user, rec.Code, rec.Body)
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		e.t.Fatalf("decode login: %v", err)
	}
	if resp.Token == "" || resp.Username != user {
		e.t.Fatalf("login response = %+v", resp)
	}
	return resp.Token
}

func (e *testEnv) seedProduct(name string, price int64) core.ProductRef {
	e.t.Helper()
	id, err := e.repo.Queries().CreateProduct(context.Background(), core.Product{
		Name: name, Price: core.Pesos(price), Stock: 10, UnitsProduced: 1,
	})
	if err != nil {
		e.t.Fatalf("CreateProduct: %v", err)
	}
	return core.ProductRefOf(id)
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body, err)
	}
	return body
}

func TestHealthAndReadiness(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(http.MethodGet, "/healthz", "", nil, ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body)
	}
	if rec := env.do(http.MethodGet, "/readyz", "", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}
	rec := env.do(http.MethodGet, "/no-existe", "", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(http.MethodGet, "/pedidos", "", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token = %d, want 401", rec.Code)
	}
	rec := env.doJSON(http.MethodPost, "/login", "", map[string]string{"usuario": "admin", "contrasena": "mala-clave"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password = %d, want 401", rec.Code)
	}
	if msg := errorMessage(t, rec).Error; msg != services.ErrInvalidCredentials.Error() {
		t.Fatalf("bad password message = %q", msg)
	}

	token := env.login("admin")
	rec = env.do(http.MethodGet, "/pedidos", token, nil, "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("list orders = %d %q", rec.Code, rec.Body)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}

	if rec := env.do(http.MethodPost, "/logout", token, nil, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("logout = %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/pedidos", token, nil, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("after logout = %d, want 401", rec.Code)
	}
}

func TestOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.login("admin")
	granola := env.seedProduct("Granola", 20000)

	rec := env.doJSON(http.MethodPost, "/pedidos", token, map[string]any{
		"nombre_completo":  "Ana Pérez",
		"numero_telefono":  "3001234567",
		"direccion":        "Calle 1",
		"barrio":           "Chapinero",
		"productos":        []map[string]any{{"id": string(granola), "quantity": 2}},
		"total_final":      1,
		"total_productos":  1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body)
	}
	var created core.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if created.Status != core.StatusConfirmed {
		t.Errorf("status = %s, want Confirmed", created.Status)
	}
	if !created.ProductsTotal.Equal(core.Pesos(40000)) || !created.Total.Equal(core.Pesos(46000)) {
		t.Errorf("totals = %s / %s, want 40000 / 46000", created.ProductsTotal, created.Total)
	}
	if len(created.Lines) != 1 || created.Lines[0].ProductID != granola {
		t.Errorf("lines = %+v", created.Lines)
	}

	orderPath := fmt.Sprintf("/pedido/%d", created.ID)
	if rec := env.do(http.MethodGet, orderPath, token, nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}

	rec = env.doJSON(http.MethodPut, orderPath+"/estado", token, map[string]any{"estado": "Pedido Perdido"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown status = %d, want 422", rec.Code)
	}
	rec = env.doJSON(http.MethodPut, orderPath+"/estado", token, map[string]any{"estado": string(core.StatusReceived)})
	if rec.Code != http.StatusConflict {
		t.Fatalf("backwards transition = %d, want 409", rec.Code)
	}
	rec = env.doJSON(http.MethodPut, orderPath+"/estado", token, map[string]any{"estado": string(core.StatusSent), "notificar_cliente": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("send = %d %s", rec.Code, rec.Body)
	}
	var changed struct {
		Order  core.Order        `json:"pedido"`
		Change core.StatusChange `json:"cambio"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &changed); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if changed.Order.Status != core.StatusSent || changed.Change.From != core.StatusConfirmed {
		t.Errorf("status response = %+v", changed)
	}

	rec = env.do(http.MethodGet, orderPath+"/historial", token, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history = %d", rec.Code)
	}
	var history []core.StatusChange
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) == 0 || history[len(history)-1].To != core.StatusSent {
		t.Errorf("history = %+v", history)
	}

	staff := env.login("caja")
	if rec := env.do(http.MethodDelete, orderPath, staff, nil, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("staff delete = %d, want 403", rec.Code)
	}
	if rec := env.do(http.MethodDelete, orderPath, token, nil, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("admin delete = %d, want 204", rec.Code)
	}
	if rec := env.do(http.MethodGet, orderPath, token, nil, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted order = %d, want 404", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/pedido/abc", token, nil, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id = %d, want 400", rec.Code)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.login("caja")

	rec := env.doJSON(http.MethodPost, "/pedidos", token, map[string]any{"numero_telefono": "300"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing name = %d, want 422", rec.Code)
	}
	rec = env.do(http.MethodPost, "/pedidos", token, strings.NewReader("{no es json"), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body = %d, want 400", rec.Code)
	}
}

func upload(t *testing.T, rows [][]any) (*bytes.Buffer, string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		addr, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(sheet, addr, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "pedidos.xlsx")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if err := f.Write(part); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func TestImportOrders(t *testing.T) {
	env := newTestEnv(t)
	token := env.login("admin")
	granola := env.seedProduct("Granola", 20000)

	header := make([]any, len(bulk.OrderColumns))
	for i, c := range bulk.OrderColumns {
		header[i] = c
	}
	row := func(name string) []any {
		return []any{name, "3001234567", "Calle 1", "Chapinero", "Efectivo", "2024-10-18 10:00:00",
			string(granola), "1", "", "5000"}
	}

	body, ct := upload(t, [][]any{header, row("Ana"), row("")})
	rec := env.do(http.MethodPost, "/pedidos/carga-masiva", token, body, ct)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad rows = %d %s, want 422", rec.Code, rec.Body)
	}
	if rows := errorMessage(t, rec).Rows; len(rows) != 1 || rows[0].Row != 3 {
		t.Fatalf("rejected rows = %+v, want row 3", rows)
	}
	if rec := env.do(http.MethodGet, "/pedidos", token, nil, ""); strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("orders stored after rejected upload: %s", rec.Body)
	}

	unknown := row("Luis")
	unknown[6] = "999"
	body, ct = upload(t, [][]any{header, row("Ana"), {}, unknown})
	rec = env.do(http.MethodPost, "/pedidos/carga-masiva", token, body, ct)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown product = %d %s, want 422", rec.Code, rec.Body)
	}
	if rows := errorMessage(t, rec).Rows; len(rows) != 1 || rows[0].Row != 4 {
		t.Fatalf("rejected rows = %+v, want row 4", rows)
	}

	body, ct = upload(t, [][]any{header, row("Ana"), row("Luis")})
	rec = env.do(http.MethodPost, "/pedidos/carga-masiva", token, body, ct)
	if rec.Code != http.StatusCreated {
		t.Fatalf("import = %d %s", rec.Code, rec.Body)
	}
	var resp importResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode import: %v", err)
	}
	if resp.Created != 2 || len(resp.IDs) != 2 {
		t.Fatalf("import response = %+v", resp)
	}

	rec = env.do(http.MethodGet, "/pedidos/plantilla", token, nil, "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("template = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestReportEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.login("admin")

	for _, path := range []string{
		"/reportes/mensual?year=2024",
		"/reportes/kpi?year=2024&month=3",
		"/reportes/gastos",
		"/reportes/pedidos?month=3&week=2",
		"/reportes/semanas?year=2024&month=2",
		"/reportes/transacciones?group=month",
		"/reportes/clientes",
		"/reportes/productos?month=2024-03",
		"/despachos/resumen?date=2024-03-01",
	} {
		if rec := env.do(http.MethodGet, path, token, nil, ""); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d %s", path, rec.Code, rec.Body)
		}
	}

	for _, path := range []string{
		"/reportes/kpi?month=13",
		"/reportes/transacciones?group=week",
		"/reportes/productos?month=marzo",
		"/despachos/resumen?date=ayer",
	} {
		if rec := env.do(http.MethodGet, path, token, nil, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", path, rec.Code)
		}
	}
}

func TestCatalogPermissions(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login("admin")
	staff := env.login("caja")

	rec := env.doJSON(http.MethodPut, "/domicilio-price", staff, map[string]any{"precio": 7000})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("staff set price = %d, want 403", rec.Code)
	}
	rec = env.doJSON(http.MethodPut, "/domicilio-price", admin, map[string]any{"precio": 7000})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin set price = %d %s", rec.Code, rec.Body)
	}
	rec = env.do(http.MethodGet, "/barrios", staff, nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Chapinero") {
		t.Fatalf("barrios = %d %s", rec.Code, rec.Body)
	}

	rec = env.do(http.MethodGet, "/metodos_pago?q=neq", staff, nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Nequi") || strings.Contains(rec.Body.String(), "Efectivo") {
		t.Fatalf("payment method search = %d %s", rec.Code, rec.Body)
	}
	rec = env.do(http.MethodGet, "/cupones?q=ninguno", staff, nil, "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("coupon search = %d %s", rec.Code, rec.Body)
	}
}

func TestDashboardLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/dashboard", "", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `action="/login"`) {
		t.Fatalf("anonymous dashboard = %d, want login form", rec.Code)
	}

	form := url.Values{"usuario": {"admin"}, "contrasena": {"mala-clave"}}
	rec = env.do(http.MethodPost, "/login", "", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "incorrectos") {
		t.Fatalf("bad form login = %d", rec.Code)
	}

	form.Set("contrasena", "secreto123")
	rec = env.do(http.MethodPost, "/login", "", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("form login = %d, want 303", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Name != sessionCookie || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Despacho") {
		t.Fatalf("dashboard = %d %s", rec.Code, rec.Body)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{bulk.Errors{{Row: 2, Message: "x"}}, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: bad", errBadRequest), http.StatusBadRequest},
		{services.ErrUnauthorized, http.StatusUnauthorized},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("load: %w", storage.ErrNotFound), http.StatusNotFound},
		{core.ErrInvalidTransition, http.StatusConflict},
		{storage.ErrNoStock, http.StatusConflict},
		{fmt.Errorf("%w: name", services.ErrValidation), http.StatusUnprocessableEntity},
		{bulk.ErrMissingColumn, http.StatusUnprocessableEntity},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
