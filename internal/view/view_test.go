package view

import (
	"testing"

	"expenseweb/internal/core"
)

func TestExpenseRows(t *testing.T) {
	rows := ExpenseRows([]core.Expense{
		{ID: 2, Amount: 12.5, Category: "Food", Date: "2024-03-01", Note: "lunch"},
		{ID: 1, Amount: 3, Category: "Travel", Date: "2024-02-28", Note: "bus"},
	})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	want := ExpenseRow{ID: 2, Amount: "$12.50", Category: "Food", Date: "2024-03-01", Note: "lunch"}
	if rows[0] != want {
		t.Fatalf("row 0 = %+v, want %+v", rows[0], want)
	}
	if rows[1].Amount != "$3.00" || rows[1].ID != 1 {
		t.Fatalf("order or format broken: %+v", rows[1])
	}
}

func TestCategoryOptions(t *testing.T) {
	opts := CategoryOptions([]core.Category{{ID: 1, Name: "Food"}, {ID: 2, Name: "Rent & Bills"}})
	if len(opts) != 2 {
		t.Fatalf("expected 2 options")
	}
	for _, o := range opts {
		if o.Value != o.Label {
			t.Fatalf("value and label must match: %+v", o)
		}
	}
	if opts[1].Value != "Rent & Bills" {
		t.Fatalf("unexpected option: %+v", opts[1])
	}
}

func TestSummaryItems(t *testing.T) {
	items := SummaryItems([]core.SummaryRow{{Category: "Food", Total: 12.5}})
	if got := items[0].Text(); got != "Food - $12.50 spent" {
		t.Fatalf("summary text = %q", got)
	}
}

func TestAnalyticsCards(t *testing.T) {
	cards := AnalyticsCards(core.Analytics{TotalExpenses: 100, AverageDaily: 3.333, AverageWeekly: 25, AverageMonthly: 100})
	want := []string{"$100.00", "$3.33", "$25.00", "$100.00"}
	for i, c := range cards {
		if c.Value != want[i] {
			t.Fatalf("card %s = %s, want %s", c.ID, c.Value, want[i])
		}
	}
}

func TestPercentages(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"relative to max", []float64{10, 20, 5}, []float64{50, 100, 25}},
		{"all zero", []float64{0, 0}, []float64{0, 0}},
		{"negative max", []float64{-5, -10}, []float64{0, 0}},
		{"negative value clamps", []float64{-5, 10}, []float64{0, 100}},
		{"empty", nil, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentages(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestBarChartWidths(t *testing.T) {
	chart := NewBarChart([]string{"a", "b", "c"}, []float64{10, 20, 5}, NoMonthlyData)
	if chart.Empty() {
		t.Fatalf("chart should have bars")
	}
	want := []string{"50%", "100%", "25%"}
	for i, b := range chart.Bars {
		if b.Width() != want[i] {
			t.Fatalf("bar %d width = %s, want %s", i, b.Width(), want[i])
		}
	}
	if chart.Bars[1].Value != "$20.00" {
		t.Fatalf("unexpected value label %q", chart.Bars[1].Value)
	}
	if string(chart.Bars[0].Style()) != "--percentage: 50%; width: 50%" {
		t.Fatalf("unexpected style %q", chart.Bars[0].Style())
	}
}

func TestBarWidthKeepsFullPrecision(t *testing.T) {
	chart := NewBarChart([]string{"a", "b"}, []float64{1, 3}, "")
	if got := chart.Bars[0].Width(); got != "33.33333333333333%" {
		t.Fatalf("width = %s", got)
	}
}

func TestEmptyChartsShowPlaceholder(t *testing.T) {
	d := NewDashboard(core.Analytics{})
	charts := map[string]BarChart{
		NoMonthlyData:  d.MonthlyChart,
		NoWeeklyData:   d.WeeklyChart,
		NoCategoryData: d.CategoryChart,
	}
	for placeholder, c := range charts {
		if !c.Empty() || len(c.Bars) != 0 {
			t.Fatalf("expected no bars for %q", placeholder)
		}
		if c.Placeholder != placeholder {
			t.Fatalf("placeholder = %q, want %q", c.Placeholder, placeholder)
		}
	}
	if !d.MonthlyTable.Empty() || d.MonthlyTable.Placeholder != NoMonthlyData {
		t.Fatalf("monthly table should show placeholder")
	}
}

func TestPeriodTablesRecomputeAverage(t *testing.T) {
	table := MonthlyTable([]core.MonthlyPeriod{
		{Month: "2024-01", MonthName: "January 2024", Total: 100, Count: 4},
		{Month: "2024-02", MonthName: "February 2024", Total: 50, Count: 0},
	})
	if table.Rows[0].Average != "$25.00" {
		t.Fatalf("average = %s, want $25.00", table.Rows[0].Average)
	}
	if table.Rows[1].Average != "$0.00" {
		t.Fatalf("zero-count average = %s, want $0.00", table.Rows[1].Average)
	}
	weekly := WeeklyTable([]core.WeeklyPeriod{{Week: "2024-W01", WeekRange: "Jan 01 - Jan 07", Total: 30, Count: 3}})
	if weekly.Rows[0].Label != "Jan 01 - Jan 07" || weekly.Rows[0].Average != "$10.00" {
		t.Fatalf("unexpected weekly row: %+v", weekly.Rows[0])
	}
}

func TestDashboardUsesTopCategories(t *testing.T) {
	d := NewDashboard(core.Analytics{
		CategoryBreakdown: []core.CategoryTotal{{Category: "ignored", Total: 1}},
		TopCategories:     []core.CategoryTotal{{Category: "Food", Total: 40}, {Category: "Rent", Total: 80}},
	})
	if len(d.CategoryChart.Bars) != 2 || d.CategoryChart.Bars[0].Width() != "50%" {
		t.Fatalf("unexpected category chart: %+v", d.CategoryChart)
	}
}

func TestActivityRows(t *testing.T) {
	rows := ActivityRows([]core.Activity{
		{Kind: core.ExpenseCreated, Outcome: core.Succeeded, Category: "Food", Amount: 12.5},
		{Kind: core.ExpenseDeleted, Outcome: core.Succeeded, ExpenseID: 4},
		{Kind: core.CategoryCreated, Outcome: core.Failed, Category: "Food", Message: "Duplicate name"},
		{Kind: core.ExpenseCreated, Outcome: core.Rejected, Message: "Please enter all details!"},
	})

	want := []struct{ action, outcome, details string }{
		{"Add expense", "succeeded", "Food $12.50"},
		{"Delete expense", "succeeded", "#4"},
		{"Add category", "failed", "Food: Duplicate name"},
		{"Add expense", "rejected", "$0.00: Please enter all details!"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, w := range want {
		r := rows[i]
		if r.Action != w.action || r.Outcome != w.outcome || r.Details != w.details {
			t.Errorf("row %d = %+v, want %+v", i, r, w)
		}
	}
}
