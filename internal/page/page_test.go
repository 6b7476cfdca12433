package page_test

import (
	"context"
	"net/http"
	"testing"

	"expenseweb/internal/api"
	"expenseweb/internal/api/apitest"
	"expenseweb/internal/core"
	"expenseweb/internal/log"
	"expenseweb/internal/notify"
	"expenseweb/internal/page"
)

func newLoader(b *apitest.Backend) *page.Loader {
	return page.NewLoader(api.New(b.URL(), api.WithLogger(log.Discard())), log.Discard())
}

func TestLoadInitialFillsSnapshot(t *testing.T) {
	b := apitest.NewBackend(t)
	b.Categories = []core.Category{{ID: 1, Name: "Food"}}
	b.Expenses = []core.Expense{
		{ID: 1, Amount: 10, Category: "Food", Date: "2024-01-01", Note: "a"},
		{ID: 2, Amount: 5, Category: "Food", Date: "2024-01-02", Note: "b"},
	}

	var snap page.Snapshot
	newLoader(b).LoadInitial(context.Background(), &snap)

	if len(snap.Categories) != 1 || len(snap.Expenses) != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Summary) != 1 || snap.Summary[0].Total != 15 {
		t.Fatalf("unexpected summary: %+v", snap.Summary)
	}
	if snap.Analytics != nil {
		t.Fatalf("analytics must not load on page load")
	}
}

func TestFailedLoadKeepsPreviousValue(t *testing.T) {
	b := apitest.NewBackend(t)
	b.Fail(http.MethodGet, "/api/expenses", http.StatusInternalServerError, `{"error":"boom"}`)

	snap := page.Snapshot{Expenses: []core.Expense{{ID: 9, Amount: 1, Category: "Old", Date: "2023-12-31", Note: "stale"}}}
	ctx, notices := notify.NewContext(context.Background())
	if newLoader(b).LoadExpenses(ctx, &snap) {
		t.Fatalf("expected load failure")
	}
	if len(snap.Expenses) != 1 || snap.Expenses[0].ID != 9 {
		t.Fatalf("stale data should be kept: %+v", snap.Expenses)
	}
	if notices.Len() != 1 {
		t.Fatalf("expected one notice, got %d", notices.Len())
	}
}

func TestLoadInitialFailuresAreIndependent(t *testing.T) {
	b := apitest.NewBackend(t)
	b.Categories = []core.Category{{ID: 1, Name: "Food"}}
	b.Fail(http.MethodGet, "/api/summary", http.StatusInternalServerError, `{}`)

	var snap page.Snapshot
	newLoader(b).LoadInitial(context.Background(), &snap)
	if len(snap.Categories) != 1 {
		t.Fatalf("categories should load despite summary failure")
	}
	if snap.Summary != nil {
		t.Fatalf("summary should stay unset, got %+v", snap.Summary)
	}
	if snap.Expenses == nil {
		t.Fatalf("expenses should be loaded as an empty list")
	}
}

func TestLoadAnalytics(t *testing.T) {
	b := apitest.NewBackend(t)
	b.Analytics = core.Analytics{TotalExpenses: 42}

	var snap page.Snapshot
	if !newLoader(b).LoadAnalytics(context.Background(), &snap) {
		t.Fatalf("LoadAnalytics failed")
	}
	if snap.Analytics == nil || snap.Analytics.TotalExpenses != 42 {
		t.Fatalf("unexpected analytics: %+v", snap.Analytics)
	}
}
