// Package http serves the expense tracker page and its HTMX fragments.
//
// This file holds the builder for HTMX responses: HX-Trigger events the page
// script reacts to, plus the HTML body.
package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"expenseweb/internal/notify"
	"expenseweb/internal/panel"
)

// Events understood by web/static/app.js.
const (
	EventNotification    = "show-notification"
	EventFormClear       = "form:clear"
	EventPanelTransition = "panel:transition"
	EventActivityRefresh = "activity:refresh"
)

// HTMXResponseBuilder accumulates triggers, headers and body for one response.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	notices    []notify.Notice
	statusCode int
	body       bytes.Buffer
	headers    map[string]string
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named event with data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerNotices queues notices to be alerted in order.
func (b *HTMXResponseBuilder) TriggerNotices(notices []notify.Notice) *HTMXResponseBuilder {
	b.notices = append(b.notices, notices...)
	return b
}

// TriggerNotification queues a single notice.
func (b *HTMXResponseBuilder) TriggerNotification(kind notify.Kind, message string) *HTMXResponseBuilder {
	return b.TriggerNotices([]notify.Notice{{Kind: kind, Message: message}})
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(notify.Error, message)
}

// TriggerFormClear asks the page to empty fields of the form of panel form.
func (b *HTMXResponseBuilder) TriggerFormClear(form panel.Name, fields []string) *HTMXResponseBuilder {
	if len(fields) == 0 {
		return b
	}
	return b.Trigger(EventFormClear, map[string]any{"form": form, "fields": fields})
}

// TriggerPanelTransition hands a panel transition to the page script.
// Transitions that change nothing are skipped.
func (b *HTMXResponseBuilder) TriggerPanelTransition(t panel.Transition) *HTMXResponseBuilder {
	if !t.Changed() {
		return b
	}
	return b.Trigger(EventPanelTransition, t)
}

// TriggerActivityRefresh makes the activity list reload itself.
func (b *HTMXResponseBuilder) TriggerActivityRefresh() *HTMXResponseBuilder {
	return b.Trigger(EventActivityRefresh, struct{}{})
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// HTML appends rendered markup to the body.
func (b *HTMXResponseBuilder) HTML(content []byte) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body.Write(content)
	return b
}

// TriggerHeader returns the HX-Trigger value, or "" when there is nothing
// to trigger.
func (b *HTMXResponseBuilder) TriggerHeader() (string, error) {
	triggers := b.triggers
	if len(b.notices) > 0 {
		triggers = make(map[string]any, len(b.triggers)+1)
		for k, v := range b.triggers {
			triggers[k] = v
		}
		triggers[EventNotification] = map[string]any{"notices": b.notices}
	}
	if len(triggers) == 0 {
		return "", nil
	}
	data, err := json.Marshal(triggers)
	if err != nil {
		return "", err
	}
	return asciiJSON(data), nil
}

// asciiJSON rewrites every non-ASCII rune of encoded JSON as a \u escape so
// the header survives clients that read header bytes as Latin-1.
func asciiJSON(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, r := range string(data) {
		if r < utf8.RuneSelf {
			sb.WriteRune(r)
			continue
		}
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			fmt.Fprintf(&sb, `\u%04x\u%04x`, r1, r2)
			continue
		}
		fmt.Fprintf(&sb, `\u%04x`, r)
	}
	return sb.String()
}

// Write sends the response.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if trig, err := b.TriggerHeader(); err == nil && trig != "" {
		w.Header().Set("HX-Trigger", trig)
	}
	w.WriteHeader(b.statusCode)
	if b.body.Len() > 0 {
		_, _ = w.Write(b.body.Bytes())
	}
}

// ErrorResponse is a status with an escaped HTML message and a matching alert.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		TriggerErrorNotification(message).
		HTML([]byte(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`))
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}
