package log

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentOrders, Output: &buf})

	l.Info("Order saved", FieldOrderID, int64(7))
	out := buf.String()
	if !strings.Contains(out, "component=orders") || !strings.Contains(out, "order_id=7") {
		t.Fatalf("unexpected record: %q", out)
	}

	buf.Reset()
	l.WithComponent(ComponentLedger).Debug("Synced")
	if !strings.Contains(buf.String(), "component=ledger") {
		t.Fatalf("unexpected record: %q", buf.String())
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Component: ComponentApp, Output: &buf})
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info record written at warn level: %q", buf.String())
	}
}

func TestFields(t *testing.T) {
	f := NewFields().WithOperation(OpStatus).WithOrder(3, "Pedido Enviado").WithError(errors.New("boom"))
	if f[FieldOperation] != OpStatus || f[FieldOrderID] != int64(3) || f[FieldError] != "boom" {
		t.Fatalf("fields = %v", f)
	}
	if got := len(f.Args()); got != 8 {
		t.Fatalf("len(Args()) = %d, want 8", got)
	}
	if _, ok := NewFields().WithError(nil)[FieldError]; ok {
		t.Fatal("nil error should not be recorded")
	}
}

func TestRequestMiddlewareChain(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "Handled")
	})
	chain := Middleware(base)(ComponentMiddleware(ComponentHTTP)(
		RequestIDMiddleware(func(*http.Request) string { return "req_1" })(h)))

	chain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	out := buf.String()
	if !strings.Contains(out, "component=http") || !strings.Contains(out, "request_id=req_1") {
		t.Fatalf("unexpected record: %q", out)
	}
}
