package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// Event names sent in HX-Trigger. app.js and the summary section listen
// for these.
const (
	EventRecordsChanged = "records:changed"
	EventFormReset      = "form:reset"
	EventNotification   = "show-notification"
)

// NotificationType selects the toast style.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

type notification struct {
	Type     NotificationType `json:"type"`
	Message  string           `json:"message"`
	Duration int              `json:"duration"`
}

type recordsChanged struct {
	Op   string `json:"op"`
	Rows int    `json:"rows"`
}

// HTMXResponseBuilder assembles a fragment response with its HX-* headers.
type HTMXResponseBuilder struct {
	status   int
	triggers map[string]any
	headers  http.Header
	body     string
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status:   http.StatusOK,
		triggers: map[string]any{},
		headers:  http.Header{},
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers.Set(name, value)
	return b
}

// TriggerRecordsChanged makes the summary cards refetch; rows is how many
// records the mutation touched.
func (b *HTMXResponseBuilder) TriggerRecordsChanged(op string, rows int) *HTMXResponseBuilder {
	b.triggers[EventRecordsChanged] = recordsChanged{Op: op, Rows: rows}
	return b
}

// TriggerFormReset clears the delivery form after a successful create.
func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	b.triggers[EventFormReset] = struct{}{}
	return b
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	b.triggers[EventNotification] = notification{NotificationSuccess, message, 3000}
	return b
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	b.triggers[EventNotification] = notification{NotificationError, message, 5000}
	return b
}

// Redirect makes htmx navigate to url instead of swapping.
func (b *HTMXResponseBuilder) Redirect(url string) *HTMXResponseBuilder {
	return b.Header("HX-Redirect", url)
}

func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers.Set("Content-Type", "text/html; charset=utf-8")
	b.body = html
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, values := range b.headers {
		w.Header()[name] = values
	}
	if len(b.triggers) > 0 {
		if data, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(data))
		}
	}
	w.WriteHeader(b.status)
	if b.body != "" {
		_, _ = w.Write([]byte(b.body))
	}
}

// ErrorResponse is an alert fragment. message is escaped.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		BodyHTML(`<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`)
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnauthorizedError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}

func ForbiddenError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusForbidden, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}
