package log

// Field names shared by structured log records.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUser       = "user"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldOrderID    = "order_id"
	FieldExpenseID  = "expense_id"
	FieldProductID  = "product_id"
	FieldStatus     = "status"
	FieldAmount     = "amount"
	FieldLedgerRef  = "ledger_ref"
	FieldMessageID  = "message_id"
	FieldCount      = "count"
)

// Component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAuth      = "auth"
	ComponentOrders    = "orders"
	ComponentExpenses  = "expenses"
	ComponentInventory = "inventory"
	ComponentReports   = "reports"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentLedger    = "ledger"
	ComponentNotify    = "notify"
	ComponentBulk      = "bulk"
	ComponentCache     = "cache"
)

// Operation names.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpStatus  = "status_change"
	OpImport  = "import"
	OpSync    = "sync"
	OpNotify  = "notify"
	OpPublish = "publish"
)

// Fields collects key/value pairs for one record.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f Fields) WithOrder(id int64, status string) Fields {
	f[FieldOrderID] = id
	if status != "" {
		f[FieldStatus] = status
	}
	return f
}

func (f Fields) WithRequest(method, path, clientIP string) Fields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldClientIP] = clientIP
	return f
}

// Args flattens the fields for slog.
func (f Fields) Args() []any {
	args := make([]any, 0, len(f)*2)
	for k, v := range f {
		args = append(args, k, v)
	}
	return args
}
