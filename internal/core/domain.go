package core

import "errors"

type (
	// Category is a named bucket of expenses. Names are unique on the backend.
	Category struct {
		ID   int    `json:"id,omitempty"`
		Name string `json:"name"`
	}

	// Expense is a single recorded expense as returned by the backend.
	Expense struct {
		ID       int     `json:"id"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
		Date     string  `json:"date"` // YYYY-MM-DD
		Note     string  `json:"note"`
		Created  string  `json:"created,omitempty"`
	}

	// SummaryRow is the backend-computed total for one category.
	SummaryRow struct {
		Category string  `json:"category"`
		Total    float64 `json:"total"`
	}

	// NewExpense is the payload of POST /expenses.
	// The validate tags reject the zero value of every field, so an amount of 0
	// counts as missing just like an empty note.
	NewExpense struct {
		Amount   float64 `json:"amount" validate:"required"`
		Category string  `json:"category" validate:"required"`
		Date     string  `json:"date" validate:"required"`
		Note     string  `json:"note" validate:"required"`
	}

	// NewCategory is the payload of POST /categories.
	NewCategory struct {
		Name string `json:"name" validate:"required"`
	}

	// Ack is the backend reply to a successful create or delete.
	Ack struct {
		ID      int64  `json:"id,omitempty"`
		Message string `json:"message,omitempty"`
	}
)

var (
	ErrMissingDetails      = errors.New("missing expense details")
	ErrMissingCategoryName = errors.New("missing category name")
	ErrInvalidExpenseID    = errors.New("invalid expense id")
)

// CategoryNames returns the names in backend order.
func CategoryNames(cats []Category) []string {
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return names
}

// HasCategory reports whether a category with the given name is present.
func HasCategory(cats []Category, name string) bool {
	for _, c := range cats {
		if c.Name == name {
			return true
		}
	}
	return false
}
