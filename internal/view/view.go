// Package view turns backend data into the models the HTML templates render.
//
// Nothing here talks to the network. Every function is a pure mapping, so a
// given snapshot always renders the same fragments.
package view

import (
	"html/template"
	"math"
	"strconv"
	"strings"

	"expenseweb/internal/core"
)

// Placeholders shown when an analytics series is empty.
const (
	NoMonthlyData  = "No monthly data available"
	NoWeeklyData   = "No weekly data available"
	NoCategoryData = "No category data available"
)

// ExpenseRow is one line of the expense table.
type ExpenseRow struct {
	ID       int
	Amount   string
	Category string
	Date     string
	Note     string
}

// ExpenseRows maps expenses to table rows, keeping backend order.
func ExpenseRows(expenses []core.Expense) []ExpenseRow {
	rows := make([]ExpenseRow, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, ExpenseRow{
			ID:       e.ID,
			Amount:   core.FormatCurrency(e.Amount),
			Category: e.Category,
			Date:     e.Date,
			Note:     e.Note,
		})
	}
	return rows
}

// Option is one entry of the category dropdown.
type Option struct {
	Value string
	Label string
}

// CategoryOptions rebuilds the dropdown from scratch. Value and label are
// both the category name.
func CategoryOptions(categories []core.Category) []Option {
	names := core.CategoryNames(categories)
	opts := make([]Option, 0, len(names))
	for _, name := range names {
		opts = append(opts, Option{Value: name, Label: name})
	}
	return opts
}

// SummaryItem is one entry of the summary strip.
type SummaryItem struct {
	Category string
	Spent    string // " - $12.50 spent"
}

// Text returns the full line, e.g. "Food - $12.50 spent".
func (s SummaryItem) Text() string {
	return s.Category + s.Spent
}

func SummaryItems(rows []core.SummaryRow) []SummaryItem {
	items := make([]SummaryItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, SummaryItem{
			Category: r.Category,
			Spent:    " - " + core.FormatCurrency(r.Total) + " spent",
		})
	}
	return items
}

// Card is one headline number of the analytics dashboard.
type Card struct {
	ID    string
	Label string
	Value string
}

// AnalyticsCards formats the four backend-computed headline values.
func AnalyticsCards(a core.Analytics) []Card {
	return []Card{
		{ID: "total-expenses", Label: "Total Expenses", Value: core.FormatCurrency(a.TotalExpenses)},
		{ID: "daily-average", Label: "Daily Average", Value: core.FormatCurrency(a.AverageDaily)},
		{ID: "weekly-average", Label: "Weekly Average", Value: core.FormatCurrency(a.AverageWeekly)},
		{ID: "monthly-average", Label: "Monthly Average", Value: core.FormatCurrency(a.AverageMonthly)},
	}
}

// Bar is one bar of a chart. Percent is relative to the largest value.
type Bar struct {
	Label   string
	Value   string
	Percent float64
}

// Width renders Percent with the shortest exact decimal, e.g. "50%" or
// "33.333333333333336%".
func (b Bar) Width() string {
	return strconv.FormatFloat(b.Percent, 'f', -1, 64) + "%"
}

// Style is the inline style of the bar element.
func (b Bar) Style() template.CSS {
	w := b.Width()
	return template.CSS("--percentage: " + w + "; width: " + w)
}

// BarChart is a list of bars, or a placeholder when there is no data.
type BarChart struct {
	Bars        []Bar
	Placeholder string
}

// Empty reports whether the placeholder should be shown instead of bars.
func (c BarChart) Empty() bool {
	return len(c.Bars) == 0
}

// Percentages scales values against their maximum: value/max*100.
// A non-positive maximum yields 0 for every value, and negative results are
// clamped to 0.
func Percentages(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	max := math.Inf(-1)
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	if !(max > 0) {
		return out
	}
	for i, v := range values {
		p := v / max * 100
		if p < 0 || math.IsNaN(p) {
			p = 0
		}
		out[i] = p
	}
	return out
}

// NewBarChart builds a chart from parallel labels and values.
func NewBarChart(labels []string, values []float64, placeholder string) BarChart {
	chart := BarChart{Placeholder: placeholder}
	if len(values) == 0 {
		return chart
	}
	pcts := Percentages(values)
	chart.Bars = make([]Bar, 0, len(values))
	for i, v := range values {
		chart.Bars = append(chart.Bars, Bar{
			Label:   labels[i],
			Value:   core.FormatCurrency(v),
			Percent: pcts[i],
		})
	}
	return chart
}

func MonthlyChart(periods []core.MonthlyPeriod) BarChart {
	labels := make([]string, len(periods))
	values := make([]float64, len(periods))
	for i, p := range periods {
		labels[i], values[i] = p.MonthName, p.Total
	}
	return NewBarChart(labels, values, NoMonthlyData)
}

func WeeklyChart(periods []core.WeeklyPeriod) BarChart {
	labels := make([]string, len(periods))
	values := make([]float64, len(periods))
	for i, p := range periods {
		labels[i], values[i] = p.WeekRange, p.Total
	}
	return NewBarChart(labels, values, NoWeeklyData)
}

func CategoryChart(totals []core.CategoryTotal) BarChart {
	labels := make([]string, len(totals))
	values := make([]float64, len(totals))
	for i, t := range totals {
		labels[i], values[i] = t.Category, t.Total
	}
	return NewBarChart(labels, values, NoCategoryData)
}

// PeriodRow is one line of an analytics detail table. Average is recomputed
// here as total/count rather than taken from the backend.
type PeriodRow struct {
	Label   string
	Total   string
	Count   int
	Average string
}

type PeriodTable struct {
	Rows        []PeriodRow
	Placeholder string
}

func (t PeriodTable) Empty() bool {
	return len(t.Rows) == 0
}

func periodRow(label string, total float64, count int) PeriodRow {
	return PeriodRow{
		Label:   label,
		Total:   core.FormatCurrency(total),
		Count:   count,
		Average: core.FormatCurrency(core.Average(total, count)),
	}
}

func MonthlyTable(periods []core.MonthlyPeriod) PeriodTable {
	t := PeriodTable{Placeholder: NoMonthlyData}
	for _, p := range periods {
		t.Rows = append(t.Rows, periodRow(p.MonthName, p.Total, p.Count))
	}
	return t
}

func WeeklyTable(periods []core.WeeklyPeriod) PeriodTable {
	t := PeriodTable{Placeholder: NoWeeklyData}
	for _, p := range periods {
		t.Rows = append(t.Rows, periodRow(p.WeekRange, p.Total, p.Count))
	}
	return t
}

// Dashboard is everything the analytics panel shows.
type Dashboard struct {
	Cards         []Card
	MonthlyChart  BarChart
	WeeklyChart   BarChart
	CategoryChart BarChart
	MonthlyTable  PeriodTable
	WeeklyTable   PeriodTable
}

func NewDashboard(a core.Analytics) Dashboard {
	return Dashboard{
		Cards:         AnalyticsCards(a),
		MonthlyChart:  MonthlyChart(a.MonthlyData),
		WeeklyChart:   WeeklyChart(a.WeeklyData),
		CategoryChart: CategoryChart(a.TopCategories),
		MonthlyTable:  MonthlyTable(a.MonthlyData),
		WeeklyTable:   WeeklyTable(a.WeeklyData),
	}
}

// History is the longer monthly and weekly record shown under the dashboard.
type History struct {
	Monthly PeriodTable
	Weekly  PeriodTable
}

func NewHistory(monthly []core.MonthlyPeriod, weekly []core.WeeklyPeriod) History {
	return History{Monthly: MonthlyTable(monthly), Weekly: WeeklyTable(weekly)}
}

// ActivityRow is one line of the recent activity table.
type ActivityRow struct {
	At      string
	Action  string
	Outcome string
	Details string
}

var activityActions = map[core.ActivityKind]string{
	core.ExpenseCreated:  "Add expense",
	core.ExpenseDeleted:  "Delete expense",
	core.CategoryCreated: "Add category",
}

// ActivityRows maps journal entries to table rows, keeping their order.
// Failed and rejected entries show their message.
func ActivityRows(acts []core.Activity) []ActivityRow {
	rows := make([]ActivityRow, 0, len(acts))
	for _, a := range acts {
		action, ok := activityActions[a.Kind]
		if !ok {
			action = string(a.Kind)
		}
		var details string
		switch a.Kind {
		case core.ExpenseCreated:
			details = strings.TrimSpace(a.Category + " " + core.FormatCurrency(a.Amount))
		case core.ExpenseDeleted:
			details = "#" + strconv.Itoa(a.ExpenseID)
		default:
			details = a.Category
		}
		if a.Outcome != core.Succeeded && a.Message != "" {
			details += ": " + a.Message
		}
		rows = append(rows, ActivityRow{
			At:      a.At.Local().Format("2006-01-02 15:04:05"),
			Action:  action,
			Outcome: string(a.Outcome),
			Details: details,
		})
	}
	return rows
}

// Activity is the recent activity fragment. Enabled is false when no
// journal is configured.
type Activity struct {
	Enabled bool
	Rows    []ActivityRow
}
