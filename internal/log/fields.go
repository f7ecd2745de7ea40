package log

import "tally/internal/core"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldReferer     = "referer"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldRecordID    = "record_id"
	FieldCompany     = "company"
	FieldType        = "aggregate_type"
	FieldQuantity    = "aggregate_quantity"
	FieldAmount      = "amount"
	FieldPaymentType = "payment_type"
	FieldRows        = "rows"
	FieldPeriod      = "period"
	FieldRefDate     = "ref_date"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentDashboard = "dashboard"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSession   = "session"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
	ComponentExport    = "export"
	ComponentSeed      = "seed"
)

// Operations
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpReload   = "reload"
	OpSync     = "sync"
	OpValidate = "validate"
	OpRender   = "render"
	OpExport   = "export"
	OpSeed     = "seed"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Error type categories
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeStore      = "store_error"
	ErrorTypeNotFound   = "not_found_error"
	ErrorTypeAuth       = "auth_error"
	ErrorTypeInternal   = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error text; a nil error adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(kind string) LogFields {
	f[FieldErrorType] = kind
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRecord adds the identifying fields of a sales record.
func (f LogFields) WithRecord(r core.Record) LogFields {
	f[FieldRecordID] = r.ID
	f[FieldCompany] = r.CompanyName
	f[FieldType] = r.AggregateType
	f[FieldQuantity] = r.AggregateQuantity.String()
	f[FieldAmount] = r.Amount.StringFixed(2)
	f[FieldPaymentType] = string(r.PaymentType)
	return f
}

func (f LogFields) WithRecordID(id string) LogFields {
	f[FieldRecordID] = id
	return f
}

func (f LogFields) WithRows(n int) LogFields {
	f[FieldRows] = n
	return f
}

func (f LogFields) WithPeriod(kind core.Period, ref string) LogFields {
	f[FieldPeriod] = string(kind)
	f[FieldRefDate] = ref
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	f[FieldReferer] = referer
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to key/value pairs for slog.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
