// Package page holds the per-session copy of backend data and the loaders
// that refresh it.
package page

import (
	"context"

	"golang.org/x/sync/errgroup"

	"expenseweb/internal/core"
	"expenseweb/internal/log"
)

// Snapshot is the last successfully loaded backend state. Each field is
// replaced as a whole by its loader and never edited in place.
type Snapshot struct {
	Categories []core.Category   `json:"categories"`
	Expenses   []core.Expense    `json:"expenses"`
	Summary    []core.SummaryRow `json:"summary"`
	Analytics  *core.Analytics   `json:"analytics,omitempty"`
}

// Reader is the read side of the expense backend.
type Reader interface {
	Categories(ctx context.Context) ([]core.Category, error)
	Expenses(ctx context.Context) ([]core.Expense, error)
	Summary(ctx context.Context) ([]core.SummaryRow, error)
	Analytics(ctx context.Context) (core.Analytics, error)
}

type Loader struct {
	api    Reader
	logger *log.Logger
}

func NewLoader(api Reader, logger *log.Logger) *Loader {
	return &Loader{api: api, logger: logger.WithComponent(log.ComponentPage)}
}

// LoadCategories refreshes snap.Categories. On failure the previous value
// is kept and false is returned; the error has already been reported.
func (l *Loader) LoadCategories(ctx context.Context, snap *Snapshot) bool {
	cats, err := l.api.Categories(ctx)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to load categories", log.FieldError, err)
		return false
	}
	snap.Categories = cats
	return true
}

func (l *Loader) LoadExpenses(ctx context.Context, snap *Snapshot) bool {
	exps, err := l.api.Expenses(ctx)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to load expenses", log.FieldError, err)
		return false
	}
	snap.Expenses = exps
	return true
}

func (l *Loader) LoadSummary(ctx context.Context, snap *Snapshot) bool {
	rows, err := l.api.Summary(ctx)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to load summary", log.FieldError, err)
		return false
	}
	snap.Summary = rows
	return true
}

func (l *Loader) LoadAnalytics(ctx context.Context, snap *Snapshot) bool {
	a, err := l.api.Analytics(ctx)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to load analytics", log.FieldError, err)
		return false
	}
	snap.Analytics = &a
	return true
}

// LoadInitial fetches categories, expenses and summary concurrently, as a
// fresh page does. Each load succeeds or fails on its own; the results are
// applied to snap once all three have finished.
func (l *Loader) LoadInitial(ctx context.Context, snap *Snapshot) {
	var cats, exps, sum Snapshot
	var g errgroup.Group
	g.Go(func() error { l.LoadCategories(ctx, &cats); return nil })
	g.Go(func() error { l.LoadExpenses(ctx, &exps); return nil })
	g.Go(func() error { l.LoadSummary(ctx, &sum); return nil })
	_ = g.Wait()

	if cats.Categories != nil {
		snap.Categories = cats.Categories
	}
	if exps.Expenses != nil {
		snap.Expenses = exps.Expenses
	}
	if sum.Summary != nil {
		snap.Summary = sum.Summary
	}
	l.logger.DebugContext(ctx, "Initial load finished",
		"categories", len(snap.Categories),
		"expenses", len(snap.Expenses),
		"summary_rows", len(snap.Summary))
}
