package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldDebtID    = "debt_id"
	FieldDebtor    = "debtor"
	FieldAmount    = "amount"
	FieldDueDate   = "due_date"
	FieldCooldown  = "cooldown"
	FieldChecked   = "checked"
	FieldNotified  = "notified"
	FieldSkipped   = "skipped"
	FieldFailed    = "failed"
	FieldNotifier  = "notifier"
	FieldSchedule  = "schedule"
	FieldDuration  = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentStorage  = "storage"
	ComponentReminder = "reminder"
	ComponentAMQP     = "amqp"
	ComponentTelegram = "telegram"
	ComponentWorker   = "worker"
)

// Operations defines standard operation names
const (
	OpSweep    = "sweep"
	OpNotify   = "notify"
	OpStamp    = "stamp"
	OpDeliver  = "deliver"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithDebt adds debt-related fields
func (f LogFields) WithDebt(id int64, debtor string, amount int64) LogFields {
	f[FieldDebtID] = id
	f[FieldDebtor] = debtor
	f[FieldAmount] = amount
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
