// Package apitest provides an in-memory expense backend served over
// httptest, for exercising code that talks to the REST API.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"

	"expenseweb/internal/core"
)

type failure struct {
	status int
	body   string
}

// Backend is a fake expense backend. Exported fields may be seeded before
// the first request and read back after it; use the methods while requests
// are in flight.
type Backend struct {
	mu         sync.Mutex
	Categories []core.Category
	Expenses   []core.Expense
	Analytics  core.Analytics
	Monthly    []core.MonthlyPeriod
	Weekly     []core.WeeklyPeriod

	failures map[string]failure
	requests []string
	nextID   int

	Server *httptest.Server
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{failures: map[string]failure{}, nextID: 1}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/categories", b.listCategories)
	mux.HandleFunc("POST /api/categories", b.createCategory)
	mux.HandleFunc("GET /api/expenses", b.listExpenses)
	mux.HandleFunc("POST /api/expenses", b.createExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", b.deleteExpense)
	mux.HandleFunc("GET /api/summary", b.summary)
	mux.HandleFunc("GET /api/analytics", b.analytics)
	mux.HandleFunc("GET /api/analytics/monthly", b.monthly)
	mux.HandleFunc("GET /api/analytics/weekly", b.weekly)

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.requests = append(b.requests, key)
		f, failing := b.failures[key]
		if failing {
			delete(b.failures, key)
		}
		b.mu.Unlock()
		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the API root to hand to api.New.
func (b *Backend) URL() string {
	return b.Server.URL + "/api"
}

// Fail makes the next request to method+path answer with status and body.
func (b *Backend) Fail(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, body: body}
}

// Requests returns every "METHOD /path" received so far, in order.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.requests))
	copy(out, b.requests)
	return out
}

// Count returns how many times method+path was requested.
func (b *Backend) Count(method, path string) int {
	key := method + " " + path
	n := 0
	for _, r := range b.Requests() {
		if r == key {
			n++
		}
	}
	return n
}

// ResetRequests forgets the request log.
func (b *Backend) ResetRequests() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = nil
}

// SetAnalytics replaces the dashboard payload.
func (b *Backend) SetAnalytics(a core.Analytics) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Analytics = a
}

// ExpenseCount returns the number of stored expenses.
func (b *Backend) ExpenseCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Expenses)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *Backend) listCategories(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.Categories)
}

func (b *Backend) createCategory(w http.ResponseWriter, r *http.Request) {
	var in core.NewCategory
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Category name is required"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if core.HasCategory(b.Categories, in.Name) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Category already exists"})
		return
	}
	id := len(b.Categories) + 1
	b.Categories = append(b.Categories, core.Category{ID: id, Name: in.Name})
	writeJSON(w, http.StatusCreated, core.Ack{ID: int64(id), Message: "Category added successfully"})
}

func (b *Backend) listExpenses(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.Expenses)
}

func (b *Backend) createExpense(w http.ResponseWriter, r *http.Request) {
	var in core.NewExpense
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.Expenses {
		if e.ID >= b.nextID {
			b.nextID = e.ID + 1
		}
	}
	id := b.nextID
	b.nextID++
	b.Expenses = append(b.Expenses, core.Expense{
		ID: id, Amount: in.Amount, Category: in.Category, Date: in.Date, Note: in.Note,
	})
	writeJSON(w, http.StatusCreated, core.Ack{ID: int64(id), Message: "Expense added successfully"})
}

func (b *Backend) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid expense id"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.Expenses {
		if e.ID == id {
			b.Expenses = append(b.Expenses[:i], b.Expenses[i+1:]...)
			writeJSON(w, http.StatusOK, core.Ack{Message: "Expense deleted successfully"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Expense not found"})
}

func (b *Backend) summary(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	totals := map[string]float64{}
	for _, e := range b.Expenses {
		totals[e.Category] += e.Amount
	}
	rows := make([]core.SummaryRow, 0, len(totals))
	for cat, total := range totals {
		rows = append(rows, core.SummaryRow{Category: cat, Total: total})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Category < rows[j].Category })
	writeJSON(w, http.StatusOK, rows)
}

func (b *Backend) analytics(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.Analytics)
}

func (b *Backend) monthly(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.Monthly)
}

func (b *Backend) weekly(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.Weekly)
}
