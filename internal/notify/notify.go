// Package notify sends order status messages to customers.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"zeendr/internal/core"
)

// Notifier delivers a text message to a phone number.
type Notifier interface {
	Send(ctx context.Context, phone, text string) error
}

// DefaultTexts are used when no template is stored for a status.
var DefaultTexts = map[core.OrderStatus]string{
	core.StatusConfirmed: "Hola {nombre}, confirmamos tu pedido #{pedido} por {total}.",
	core.StatusSent:      "Hola {nombre}, tu pedido #{pedido} va en camino.",
	core.StatusRejected:  "Hola {nombre}, no pudimos procesar tu pedido #{pedido}.",
}

const fallbackText = "Hola {nombre}, tu pedido #{pedido} ahora está en estado: {estado}."

// Render fills the {nombre}, {pedido}, {estado} and {total} placeholders.
// An empty template falls back to the default text for the status.
func Render(template string, o core.Order) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultTexts[o.Status]
	}
	if template == "" {
		template = fallbackText
	}
	return strings.NewReplacer(
		"{nombre}", o.CustomerName,
		"{pedido}", fmt.Sprintf("%d", o.ID),
		"{estado}", string(o.Status),
		"{total}", core.FormatCOP(o.Total),
	).Replace(template)
}

// LogNotifier records messages instead of sending them. It is used when no
// WhatsApp credentials are configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, phone, text string) error {
	n.logger.InfoContext(ctx, "Customer notification", "phone", phone, "text", text)
	return nil
}
