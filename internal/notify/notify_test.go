package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"zeendr/internal/core"
)

func TestRender(t *testing.T) {
	o := core.Order{ID: 12, CustomerName: "Ana", Status: core.StatusSent, Total: core.Pesos(42900)}

	got := Render("Hola {nombre}, pedido #{pedido} ({estado}) por {total}", o)
	want := "Hola Ana, pedido #12 (Pedido Enviado) por $42.900"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}

	if got := Render("  ", o); got != "Hola Ana, tu pedido #12 va en camino." {
		t.Errorf("Render(empty) = %q", got)
	}

	o.Status = core.StatusReceived
	if got := Render("", o); !strings.Contains(got, "Pedido Recibido") {
		t.Errorf("Render(no default) = %q", got)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "300 123 4567", want: "573001234567"},
		{in: "+57 300-123-4567", want: "573001234567"},
		{in: "12345", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPhone) {
				t.Errorf("NormalizePhone(%q) err = %v, want ErrInvalidPhone", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestWhatsAppSend(t *testing.T) {
	var got textMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/123/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wa := NewWhatsApp(srv.URL+"/", "123", "secret")
	if err := wa.Send(context.Background(), "3001234567", "hola"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.To != "573001234567" || got.Text.Body != "hola" || got.MessagingProduct != "whatsapp" {
		t.Fatalf("message = %+v", got)
	}
}

func TestWhatsAppSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100}}`))
	}))
	defer srv.Close()

	err := NewWhatsApp(srv.URL, "123", "secret").Send(context.Background(), "3001234567", "hola")
	if err == nil || !strings.Contains(err.Error(), "Invalid parameter") {
		t.Fatalf("err = %v, want api message", err)
	}
}
