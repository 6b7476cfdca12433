package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expenseweb/internal/core"
	"expenseweb/internal/forms"
)

// maxBodyBytes bounds form submissions.
const maxBodyBytes = 64 << 10

// RequestBodyParser reads a form-encoded or JSON body once and serves
// string values from it. URL query values are used as a fallback, which is
// where HTMX puts the parameters of a DELETE.
type RequestBodyParser struct {
	body     []byte
	query    url.Values
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{query: r.URL.Query()}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
	return p
}

// Parse decodes the body as JSON when it looks like a JSON object and as
// a form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}
	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Value returns the raw value of key with control characters removed.
// Surrounding whitespace is kept.
func (p *RequestBodyParser) Value(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		if vals, ok := p.formData[key]; ok && len(vals) > 0 {
			return sanitizeInput(vals[0])
		}
	}
	return sanitizeInput(p.query.Get(key))
}

// Get is Value with surrounding whitespace trimmed.
func (p *RequestBodyParser) Get(key string) string {
	return strings.TrimSpace(p.Value(key))
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseExpenseForm reads the add-expense fields.
func ParseExpenseForm(r *http.Request) (forms.ExpenseForm, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return forms.ExpenseForm{}, fmt.Errorf("parse expense form: %w", err)
	}
	return forms.ExpenseForm{
		Amount:   p.Get(forms.FieldAmount),
		Category: p.Value(forms.FieldCategory),
		Date:     p.Get(forms.FieldDate),
		Note:     p.Value(forms.FieldNote),
	}, nil
}

// ParseCategoryForm reads the add-category field.
func ParseCategoryForm(r *http.Request) (forms.CategoryForm, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return forms.CategoryForm{}, fmt.Errorf("parse category form: %w", err)
	}
	return forms.CategoryForm{Name: p.Value(forms.FieldCategoryName)}, nil
}

// ParseDeleteRequest reads the expense id from the path and whether the
// user confirmed, which the page sends as confirm=yes.
func ParseDeleteRequest(r *http.Request) (id int, confirmed bool, err error) {
	id, err = strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, false, core.ErrInvalidExpenseID
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return 0, false, fmt.Errorf("parse delete request: %w", err)
	}
	return id, strings.EqualFold(p.Get("confirm"), "yes"), nil
}
