package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"expenseweb/internal/api"
	"expenseweb/internal/api/apitest"
	"expenseweb/internal/core"
	"expenseweb/internal/forms"
	"expenseweb/internal/log"
	"expenseweb/internal/middleware/ratelimit"
	"expenseweb/internal/page"
	"expenseweb/internal/session"
)

type fakeActivity struct {
	acts []core.Activity
	err  error
}

func (f *fakeActivity) Recent(_ context.Context, limit int) ([]core.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.acts) > limit {
		return f.acts[:limit], nil
	}
	return f.acts, nil
}

type testApp struct {
	backend *apitest.Backend
	srv     *Server
	ts      *httptest.Server
	client  *http.Client
}

func newTestApp(t *testing.T, configure ...func(*Deps)) *testApp {
	t.Helper()
	b := apitest.NewBackend(t)
	b.Categories = []core.Category{{ID: 1, Name: "Food"}}
	b.Expenses = []core.Expense{{ID: 1, Amount: 12.5, Category: "Food", Date: "2024-03-01", Note: "Lunch"}}

	client := api.New(b.URL(), api.WithLogger(log.Discard()))
	loader := page.NewLoader(client, log.Discard())
	store := session.NewMemoryStore(100, time.Hour)
	deps := Deps{
		API:          client,
		Loader:       loader,
		Forms:        forms.NewController(client, loader, log.Discard()),
		Sessions:     session.NewManager(store, time.Hour, log.Discard()),
		SessionCount: store.Size,
		Logger:       log.Discard(),
	}
	for _, fn := range configure {
		fn(&deps)
	}

	srv, err := NewServer(Config{Addr: ":0", RateLimit: ratelimit.DefaultConfig()}, deps)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		srv.limiter.Stop()
	})

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &testApp{backend: b, srv: srv, ts: ts, client: &http.Client{Jar: jar}}
}

func (a *testApp) do(t *testing.T, method, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, a.ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := a.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(data)
}

func triggers(t *testing.T, resp *http.Response) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	h := resp.Header.Get("HX-Trigger")
	if h == "" {
		return out
	}
	if err := json.Unmarshal([]byte(h), &out); err != nil {
		t.Fatalf("HX-Trigger %q: %v", h, err)
	}
	return out
}

func noticeMessages(t *testing.T, resp *http.Response) []string {
	t.Helper()
	raw, ok := triggers(t, resp)[EventNotification]
	if !ok {
		return nil
	}
	var payload struct {
		Notices []struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"notices"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode notices: %v", err)
	}
	var msgs []string
	for _, n := range payload.Notices {
		msgs = append(msgs, n.Message)
	}
	return msgs
}

type transitionPayload struct {
	Panel   string `json:"panel"`
	Visible bool   `json:"visible"`
	Gen     uint64 `json:"gen"`
	Steps   []struct {
		Delay  int64  `json:"delay"`
		Action string `json:"action"`
	} `json:"steps"`
}

func transition(t *testing.T, resp *http.Response) (transitionPayload, bool) {
	t.Helper()
	raw, ok := triggers(t, resp)[EventPanelTransition]
	if !ok {
		return transitionPayload{}, false
	}
	var tp transitionPayload
	if err := json.Unmarshal(raw, &tp); err != nil {
		t.Fatalf("decode transition: %v", err)
	}
	return tp, true
}

func TestIndexRendersPage(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodGet, "/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{"Expense Tracker", `<option value="Food">Food</option>`, "$12.50", "Lunch", "Food <span class=\"sum\"> - $12.50 spent</span>"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if strings.Contains(body, "hx-swap-oob") {
		t.Error("full page must not contain out-of-band blocks")
	}
	if len(resp.Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
	if got := resp.Header.Get("X-Request-ID"); got == "" {
		t.Error("expected a request id header")
	}
}

func TestIndexPassesLoadFailuresToPage(t *testing.T) {
	app := newTestApp(t)
	app.backend.Fail(http.MethodGet, "/api/expenses", http.StatusInternalServerError, `{"error":"db down"}`)

	resp, body := app.do(t, http.MethodGet, "/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Error: db down") {
		t.Error("expected load failure in initial notices")
	}
	if !strings.Contains(body, `<option value="Food">Food</option>`) {
		t.Error("categories should load even when expenses fail")
	}
}

func TestTogglePanel(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.do(t, http.MethodPost, "/ui/panels/add-expense/toggle", nil)
	tp, ok := transition(t, resp)
	if !ok || tp.Panel != "add-expense" || !tp.Visible || tp.Gen != 1 {
		t.Fatalf("open transition = %+v (present %v)", tp, ok)
	}
	wantOpen := []struct {
		delay  int64
		action string
	}{{0, "display-block"}, {10, "add-show"}, {100, "scroll-focus"}}
	if len(tp.Steps) != len(wantOpen) {
		t.Fatalf("steps = %+v", tp.Steps)
	}
	for i, w := range wantOpen {
		if tp.Steps[i].Delay != w.delay || tp.Steps[i].Action != w.action {
			t.Errorf("step %d = %+v, want %+v", i, tp.Steps[i], w)
		}
	}

	resp, _ = app.do(t, http.MethodPost, "/ui/panels/add-expense/toggle", nil)
	tp, _ = transition(t, resp)
	if tp.Visible || tp.Gen != 2 || len(tp.Steps) != 2 || tp.Steps[1].Delay != 300 {
		t.Errorf("close transition = %+v", tp)
	}

	resp, _ = app.do(t, http.MethodPost, "/ui/panels/nope/toggle", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown panel status = %d", resp.StatusCode)
	}
}

func TestPanelStateSurvivesReload(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/ui/panels/add-category/toggle", nil)

	_, body := app.do(t, http.MethodGet, "/", nil)
	if !strings.Contains(body, `class="add-category show"`) {
		t.Error("category panel should render open for the same session")
	}
	if strings.Contains(body, `class="add-new-expense show"`) {
		t.Error("expense panel should stay closed")
	}
}

func TestCreateExpense(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodGet, "/", nil)
	app.do(t, http.MethodPost, "/ui/panels/add-expense/toggle", nil)

	resp, body := app.do(t, http.MethodPost, "/expenses", url.Values{
		"amount":   {"7.25"},
		"category": {"Food"},
		"date":     {"2024-03-02"},
		"note":     {"Dinner"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if msgs := noticeMessages(t, resp); len(msgs) != 1 || msgs[0] != forms.MsgExpenseAdded {
		t.Errorf("notices = %v", msgs)
	}
	trig := triggers(t, resp)
	if _, ok := trig[EventFormClear]; !ok {
		t.Error("expected form:clear")
	}
	if tp, ok := transition(t, resp); !ok || tp.Visible || tp.Panel != "add-expense" {
		t.Errorf("expected the expense panel to close, got %+v", tp)
	}
	for _, want := range []string{`id="expense-table" hx-swap-oob="true"`, "Dinner", "$7.25", `id="summary" hx-swap-oob="true"`, "$19.75"} {
		if !strings.Contains(body, want) {
			t.Errorf("response missing %q", want)
		}
	}
	if strings.Contains(body, `id="expense-category"`) {
		t.Error("categories were not reloaded and must not be sent")
	}
	if app.backend.ExpenseCount() != 2 {
		t.Errorf("backend has %d expenses", app.backend.ExpenseCount())
	}
}

func TestCreateExpenseRejected(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"empty", url.Values{}},
		{"zero amount", url.Values{"amount": {"0"}, "category": {"Food"}, "date": {"2024-03-02"}, "note": {"x"}}},
		{"no note", url.Values{"amount": {"5"}, "category": {"Food"}, "date": {"2024-03-02"}}},
		{"not a number", url.Values{"amount": {"abc"}, "category": {"Food"}, "date": {"2024-03-02"}, "note": {"x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			resp, body := app.do(t, http.MethodPost, "/expenses", tt.form)

			if msgs := noticeMessages(t, resp); len(msgs) != 1 || msgs[0] != forms.MsgMissingDetails {
				t.Errorf("notices = %v", msgs)
			}
			if _, ok := triggers(t, resp)[EventFormClear]; ok {
				t.Error("rejected form must not be cleared")
			}
			if body != "" {
				t.Errorf("unexpected body %q", body)
			}
			if n := app.backend.Count(http.MethodPost, "/api/expenses"); n != 0 {
				t.Errorf("backend received %d creates", n)
			}
		})
	}
}

func TestCreateCategory(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodPost, "/categories", url.Values{"name": {"Travel"}})
	if msgs := noticeMessages(t, resp); len(msgs) != 1 || msgs[0] != forms.MsgCategoryAdded {
		t.Errorf("notices = %v", msgs)
	}
	if !strings.Contains(body, `id="expense-category" name="category" hx-swap-oob="true"`) {
		t.Error("expected the category dropdown out of band")
	}
	if !strings.Contains(body, `<option value="Food">Food</option><option value="Travel">Travel</option>`) {
		t.Errorf("dropdown not rebuilt in backend order: %s", body)
	}
}

func TestCreateCategoryDuplicate(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodPost, "/categories", url.Values{"name": {"Food"}})
	msgs := noticeMessages(t, resp)
	if len(msgs) != 1 || msgs[0] != "Error: Category already exists" {
		t.Errorf("notices = %v", msgs)
	}
	if body != "" {
		t.Errorf("nothing should be swapped, got %q", body)
	}
	if n := app.backend.Count(http.MethodGet, "/api/categories"); n != 0 {
		t.Errorf("categories refetched %d times", n)
	}
}

func TestDeleteExpense(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		form       url.Values
		wantStatus int
		wantDelete int
		wantNotice string
	}{
		{"confirmed delete", http.MethodDelete, "/expenses/1?confirm=yes", nil, http.StatusOK, 1, forms.MsgExpenseDeleted},
		{"confirmed post", http.MethodPost, "/expenses/1", url.Values{"confirm": {"yes"}}, http.StatusOK, 1, forms.MsgExpenseDeleted},
		{"not confirmed", http.MethodDelete, "/expenses/1", nil, http.StatusOK, 0, ""},
		{"unknown id", http.MethodDelete, "/expenses/99?confirm=yes", nil, http.StatusOK, 1, "Error: Expense not found"},
		{"bad id", http.MethodDelete, "/expenses/abc?confirm=yes", nil, http.StatusBadRequest, 0, "Invalid expense id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			resp, _ := app.do(t, tt.method, tt.path, tt.form)

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			deletes := 0
			for _, r := range app.backend.Requests() {
				if strings.HasPrefix(r, "DELETE /api/expenses/") {
					deletes++
				}
			}
			if deletes != tt.wantDelete {
				t.Errorf("backend deletes = %d, want %d", deletes, tt.wantDelete)
			}
			msgs := noticeMessages(t, resp)
			if tt.wantNotice == "" {
				if len(msgs) != 0 {
					t.Errorf("notices = %v, want none", msgs)
				}
				return
			}
			if len(msgs) != 1 || msgs[0] != tt.wantNotice {
				t.Errorf("notices = %v, want %q", msgs, tt.wantNotice)
			}
		})
	}
}

func TestAnalyticsFragments(t *testing.T) {
	app := newTestApp(t)
	app.backend.Analytics = core.Analytics{
		TotalExpenses: 120,
		AverageDaily:  4,
		MonthlyData:   []core.MonthlyPeriod{{Month: "2024-03", MonthName: "March 2024", Total: 120, Count: 3}},
	}
	app.backend.Weekly = []core.WeeklyPeriod{{Week: "2024-W10", WeekRange: "Mar 4 - Mar 10", Total: 30, Count: 2}}

	_, body := app.do(t, http.MethodGet, "/ui/analytics", nil)
	for _, want := range []string{`id="analytics-content"`, "$120.00", "$4.00", "March 2024", "$40.00", "No weekly data available"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}

	_, body = app.do(t, http.MethodGet, "/ui/analytics/history", nil)
	for _, want := range []string{"Mar 4 - Mar 10", "$15.00", "No monthly data available"} {
		if !strings.Contains(body, want) {
			t.Errorf("history missing %q", want)
		}
	}
}

func TestIndexRefetchesOpenAnalytics(t *testing.T) {
	app := newTestApp(t)
	app.backend.SetAnalytics(core.Analytics{TotalExpenses: 10})

	app.do(t, http.MethodPost, "/ui/panels/analytics/toggle", nil)
	if _, body := app.do(t, http.MethodGet, "/ui/analytics", nil); !strings.Contains(body, "$10.00") {
		t.Fatalf("first dashboard missing $10.00: %s", body)
	}

	app.backend.SetAnalytics(core.Analytics{TotalExpenses: 99})
	app.backend.ResetRequests()

	_, body := app.do(t, http.MethodGet, "/", nil)
	if n := app.backend.Count(http.MethodGet, "/api/analytics"); n != 1 {
		t.Errorf("analytics fetched %d times on reload, want 1", n)
	}
	if !strings.Contains(body, "$99.00") || strings.Contains(body, "$10.00") {
		t.Error("reloaded page must show the current analytics")
	}
}

func TestIndexClosedAnalyticsIsNotFetched(t *testing.T) {
	app := newTestApp(t)

	_, body := app.do(t, http.MethodGet, "/", nil)
	if n := app.backend.Count(http.MethodGet, "/api/analytics"); n != 0 {
		t.Errorf("analytics fetched %d times with the panel closed", n)
	}
	if !strings.Contains(body, `hx-trigger="analytics:load from:body"`) {
		t.Error("closed dashboard should wait for the open event")
	}
}

func TestIndexOpenAnalyticsFailureRetriesOnLoad(t *testing.T) {
	app := newTestApp(t)
	app.backend.SetAnalytics(core.Analytics{TotalExpenses: 10})
	app.do(t, http.MethodPost, "/ui/panels/analytics/toggle", nil)
	app.do(t, http.MethodGet, "/ui/analytics", nil)

	app.backend.Fail(http.MethodGet, "/api/analytics", http.StatusInternalServerError, `{"error":"boom"}`)
	_, body := app.do(t, http.MethodGet, "/", nil)
	if strings.Contains(body, "$10.00") {
		t.Error("stale analytics rendered after a failed refetch")
	}
	if !strings.Contains(body, `hx-trigger="load, analytics:load from:body"`) {
		t.Error("open dashboard placeholder should fetch on load")
	}
}

func TestAnalyticsFailureShowsEmptyState(t *testing.T) {
	app := newTestApp(t)
	app.backend.Fail(http.MethodGet, "/api/analytics", http.StatusInternalServerError, `{"error":"boom"}`)

	resp, body := app.do(t, http.MethodGet, "/ui/analytics", nil)
	if msgs := noticeMessages(t, resp); len(msgs) != 1 || msgs[0] != "Error: boom" {
		t.Errorf("notices = %v", msgs)
	}
	if !strings.Contains(body, "$0.00") {
		t.Error("expected zeroed cards")
	}
}

func TestActivityFragment(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		app := newTestApp(t)
		_, body := app.do(t, http.MethodGet, "/ui/activity", nil)
		if !strings.Contains(body, "Activity journal is disabled.") {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("rows", func(t *testing.T) {
		reader := &fakeActivity{acts: []core.Activity{
			{Kind: core.ExpenseCreated, Outcome: core.Succeeded, Category: "Food", Amount: 3, At: time.Now()},
		}}
		app := newTestApp(t, func(d *Deps) { d.Activity = reader })
		_, body := app.do(t, http.MethodGet, "/ui/activity", nil)
		if !strings.Contains(body, "Add expense") || !strings.Contains(body, "Food $3.00") {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("form submissions refresh it", func(t *testing.T) {
		app := newTestApp(t, func(d *Deps) { d.Activity = &fakeActivity{} })
		resp, _ := app.do(t, http.MethodPost, "/categories", url.Values{})
		if _, ok := triggers(t, resp)[EventActivityRefresh]; !ok {
			t.Error("expected activity:refresh")
		}
	})

	t.Run("read failure", func(t *testing.T) {
		app := newTestApp(t, func(d *Deps) { d.Activity = &fakeActivity{err: errors.New("locked")} })
		resp, _ := app.do(t, http.MethodGet, "/ui/activity", nil)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})
}

func TestHealthAndReadiness(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.do(t, http.MethodGet, "/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
	resp, _ = app.do(t, http.MethodGet, "/readyz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("readyz status = %d", resp.StatusCode)
	}

	app.backend.Fail(http.MethodGet, "/api/categories", http.StatusBadGateway, "")
	resp, body := app.do(t, http.MethodGet, "/readyz", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing backend = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "not_ready") {
		t.Errorf("body = %s", body)
	}
}

func TestReadinessRunsExtraChecks(t *testing.T) {
	app := newTestApp(t, func(d *Deps) {
		d.Checks = []Check{{Name: "journal", Fn: func(context.Context) error { return errors.New("closed") }}}
	})
	resp, body := app.do(t, http.MethodGet, "/readyz", nil)
	if resp.StatusCode != http.StatusServiceUnavailable || !strings.Contains(body, "failed: closed") {
		t.Errorf("status = %d body = %s", resp.StatusCode, body)
	}
}

func TestMetrics(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/categories", url.Values{})
	app.do(t, http.MethodPost, "/ui/panels/analytics/toggle", nil)

	_, body := app.do(t, http.MethodGet, "/metrics", nil)
	for _, want := range []string{
		`form_submissions_total{outcome="rejected"} 1`,
		"panel_toggles_total 1",
		"active_sessions 1",
		"http_requests_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
