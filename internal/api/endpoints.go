package api

import (
	"context"
	"fmt"
	"net/http"

	"expenseweb/internal/core"
)

// Categories fetches GET /categories.
func (c *Client) Categories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	if err := c.Call(ctx, http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Category{}
	}
	return out, nil
}

// Expenses fetches GET /expenses in backend order.
func (c *Client) Expenses(ctx context.Context) ([]core.Expense, error) {
	var out []core.Expense
	if err := c.Call(ctx, http.MethodGet, "/expenses", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Expense{}
	}
	return out, nil
}

// Summary fetches the per-category totals of GET /summary.
func (c *Client) Summary(ctx context.Context) ([]core.SummaryRow, error) {
	var out []core.SummaryRow
	if err := c.Call(ctx, http.MethodGet, "/summary", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.SummaryRow{}
	}
	return out, nil
}

// Analytics fetches the dashboard payload of GET /analytics.
func (c *Client) Analytics(ctx context.Context) (core.Analytics, error) {
	var out core.Analytics
	if err := c.Call(ctx, http.MethodGet, "/analytics", nil, &out); err != nil {
		return core.Analytics{}, err
	}
	return out, nil
}

// MonthlyHistory fetches GET /analytics/monthly.
func (c *Client) MonthlyHistory(ctx context.Context) ([]core.MonthlyPeriod, error) {
	var out []core.MonthlyPeriod
	if err := c.Call(ctx, http.MethodGet, "/analytics/monthly", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.MonthlyPeriod{}
	}
	return out, nil
}

// WeeklyHistory fetches GET /analytics/weekly.
func (c *Client) WeeklyHistory(ctx context.Context) ([]core.WeeklyPeriod, error) {
	var out []core.WeeklyPeriod
	if err := c.Call(ctx, http.MethodGet, "/analytics/weekly", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.WeeklyPeriod{}
	}
	return out, nil
}

// CreateCategory posts {name} to /categories.
func (c *Client) CreateCategory(ctx context.Context, in core.NewCategory) (core.Ack, error) {
	var ack core.Ack
	err := c.Call(ctx, http.MethodPost, "/categories", in, &ack)
	return ack, err
}

// CreateExpense posts {amount, category, date, note} to /expenses.
func (c *Client) CreateExpense(ctx context.Context, in core.NewExpense) (core.Ack, error) {
	var ack core.Ack
	err := c.Call(ctx, http.MethodPost, "/expenses", in, &ack)
	return ack, err
}

// DeleteExpense sends DELETE /expenses/{id}.
func (c *Client) DeleteExpense(ctx context.Context, id int) (core.Ack, error) {
	var ack core.Ack
	err := c.Call(ctx, http.MethodDelete, fmt.Sprintf("/expenses/%d", id), nil, &ack)
	return ack, err
}
