package core

import "time"

// ActivityKind names a user action on the page.
type ActivityKind string

const (
	ExpenseCreated  ActivityKind = "expense.created"
	ExpenseDeleted  ActivityKind = "expense.deleted"
	CategoryCreated ActivityKind = "category.created"
)

// Outcome is how a submission ended.
type Outcome string

const (
	Succeeded Outcome = "succeeded"
	Rejected  Outcome = "rejected" // stopped before reaching the backend
	Failed    Outcome = "failed"   // the backend call failed
)

// Activity records one form submission.
type Activity struct {
	ID        int64        `json:"id,omitempty"`
	Kind      ActivityKind `json:"kind"`
	Outcome   Outcome      `json:"outcome"`
	ExpenseID int          `json:"expense_id,omitempty"`
	Category  string       `json:"category,omitempty"`
	Amount    float64      `json:"amount,omitempty"`
	Message   string       `json:"message,omitempty"`
	At        time.Time    `json:"at"`
}
