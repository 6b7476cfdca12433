// Package forms handles the three user submissions of the page: adding an
// expense, adding a category and deleting an expense.
//
// A submission is validated locally first; an invalid one never reaches the
// backend. A valid one is sent, and only when the backend accepts it are the
// affected sections reloaded (one after the other) and the form panel
// hidden. When the backend rejects it the API client has already told the
// user, so the controller only logs and leaves the page as it was.
package forms

import (
	"context"
	"net/http"
	"time"

	"expenseweb/internal/api"
	"expenseweb/internal/core"
	"expenseweb/internal/log"
	"expenseweb/internal/notify"
	"expenseweb/internal/page"
	"expenseweb/internal/panel"
	"expenseweb/internal/session"
)

// User-facing messages.
const (
	MsgMissingDetails  = "Please enter all details!"
	MsgMissingCategory = "Please enter a category name!"
	MsgExpenseAdded    = "Successfully added expense!"
	MsgCategoryAdded   = "Successfully added category!"
	MsgExpenseDeleted  = "Expense deleted successfully!"
	MsgNotConfirmed    = "deletion not confirmed"
)

// Form field names.
const (
	FieldAmount       = "amount"
	FieldCategory     = "category"
	FieldDate         = "date"
	FieldNote         = "note"
	FieldCategoryName = "name"
)

// Section is a part of the page backed by one loader.
type Section string

const (
	SectionExpenses   Section = "expenses"
	SectionCategories Section = "categories"
	SectionSummary    Section = "summary"
)

// Writer is the write side of the expense backend.
type Writer interface {
	CreateExpense(ctx context.Context, in core.NewExpense) (core.Ack, error)
	CreateCategory(ctx context.Context, in core.NewCategory) (core.Ack, error)
	DeleteExpense(ctx context.Context, id int) (core.Ack, error)
}

// ExpenseForm is the raw add-expense submission.
type ExpenseForm struct {
	Amount   string
	Category string
	Date     string
	Note     string
}

// CategoryForm is the raw add-category submission.
type CategoryForm struct {
	Name string
}

// Outcome tells the caller what a submission changed.
type Outcome struct {
	// Submitted is true once the request was sent to the backend.
	Submitted bool
	Succeeded bool
	// Form is the panel holding the submitted form, empty for deletes.
	Form panel.Name
	// ClearFields are the form fields to reset.
	ClearFields []string
	// HidePanel is set when the form panel should close.
	HidePanel *panel.Transition
	// Reloaded lists the sections reloaded successfully, in reload order.
	Reloaded []Section
}

// HasReloaded reports whether s was refreshed.
func (o Outcome) HasReloaded(s Section) bool {
	for _, r := range o.Reloaded {
		if r == s {
			return true
		}
	}
	return false
}

type Controller struct {
	writer    Writer
	loader    *page.Loader
	validator *Validator
	recorder  Recorder
	logger    *log.Logger
	events    *log.StructuredLogger
	now       func() time.Time
}

type Option func(*Controller)

// WithRecorder sets where submission outcomes are recorded.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

func NewController(writer Writer, loader *page.Loader, logger *log.Logger, opts ...Option) *Controller {
	c := &Controller{
		writer:    writer,
		loader:    loader,
		validator: NewValidator(),
		recorder:  nopRecorder{},
		logger:    logger.WithComponent(log.ComponentForms),
		now:       time.Now,
	}
	c.events = log.NewStructuredLogger(c.logger)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddExpense submits a new expense. The amount is read like a browser's
// parseFloat, so an amount that does not start with a number, or is 0,
// counts as missing.
func (c *Controller) AddExpense(ctx context.Context, sess *session.Session, form ExpenseForm) Outcome {
	in := core.NewExpense{
		Amount:   core.ParseAmount(form.Amount),
		Category: form.Category,
		Date:     form.Date,
		Note:     form.Note,
	}
	act := core.Activity{Kind: core.ExpenseCreated, Category: in.Category, Amount: in.Amount}
	out := Outcome{Form: panel.AddExpense}

	if err := c.validator.Validate(in); err != nil {
		c.logger.DebugContext(ctx, "Expense rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err)
		notify.FromContext(ctx).Error(MsgMissingDetails)
		c.record(ctx, act, core.Rejected, MsgMissingDetails)
		return out
	}

	out.Submitted = true
	ack, err := c.writer.CreateExpense(ctx, in)
	if err != nil {
		c.events.LogError(ctx, "Failed to add expense", err, log.ComponentForms, log.OpCreate,
			log.NewFields().WithExpense(0, in.Amount, in.Category))
		c.record(ctx, act, core.Failed, err.Error())
		return out
	}

	c.events.LogExpenseCreated(ctx, ack.ID, in.Amount, in.Category)
	notify.FromContext(ctx).Success(MsgExpenseAdded)

	out.Succeeded = true
	out.ClearFields = []string{FieldAmount, FieldDate, FieldNote}
	out.Reloaded = c.reload(ctx, &sess.Snapshot, SectionExpenses, SectionSummary)
	hide := sess.Panels.Get(panel.AddExpense).Hide()
	out.HidePanel = &hide

	act.ExpenseID = int(ack.ID)
	c.record(ctx, act, core.Succeeded, MsgExpenseAdded)
	return out
}

// AddCategory submits a new category.
func (c *Controller) AddCategory(ctx context.Context, sess *session.Session, form CategoryForm) Outcome {
	in := core.NewCategory{Name: form.Name}
	act := core.Activity{Kind: core.CategoryCreated, Category: in.Name}
	out := Outcome{Form: panel.AddCategory}

	if err := c.validator.Validate(in); err != nil {
		notify.FromContext(ctx).Error(MsgMissingCategory)
		c.record(ctx, act, core.Rejected, MsgMissingCategory)
		return out
	}

	out.Submitted = true
	if _, err := c.writer.CreateCategory(ctx, in); err != nil {
		c.logger.ErrorContext(ctx, "Failed to add category",
			log.FieldOperation, log.OpCreate,
			log.FieldCategory, in.Name,
			log.FieldError, err)
		c.record(ctx, act, core.Failed, err.Error())
		return out
	}

	c.logger.InfoContext(ctx, "Category created", log.FieldCategory, in.Name)
	notify.FromContext(ctx).Success(MsgCategoryAdded)

	out.Succeeded = true
	out.ClearFields = []string{FieldCategoryName}
	out.Reloaded = c.reload(ctx, &sess.Snapshot, SectionCategories, SectionSummary)
	hide := sess.Panels.Get(panel.AddCategory).Hide()
	out.HidePanel = &hide

	c.record(ctx, act, core.Succeeded, MsgCategoryAdded)
	return out
}

// DeleteExpense deletes expense id. Nothing is sent unless the user
// confirmed.
func (c *Controller) DeleteExpense(ctx context.Context, sess *session.Session, id int, confirmed bool) Outcome {
	act := core.Activity{Kind: core.ExpenseDeleted, ExpenseID: id}
	var out Outcome

	if !confirmed {
		c.logger.DebugContext(ctx, "Delete not confirmed", log.FieldExpenseID, id)
		c.record(ctx, act, core.Rejected, MsgNotConfirmed)
		return out
	}

	out.Submitted = true
	if _, err := c.writer.DeleteExpense(ctx, id); err != nil {
		if api.IsStatus(err, http.StatusNotFound) {
			c.logger.WarnContext(ctx, "Expense already gone",
				log.FieldOperation, log.OpDelete,
				log.FieldExpenseID, id)
		} else {
			c.logger.ErrorContext(ctx, "Failed to delete expense",
				log.FieldOperation, log.OpDelete,
				log.FieldExpenseID, id,
				log.FieldError, err)
		}
		c.record(ctx, act, core.Failed, err.Error())
		return out
	}

	c.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id)
	notify.FromContext(ctx).Success(MsgExpenseDeleted)

	out.Succeeded = true
	out.Reloaded = c.reload(ctx, &sess.Snapshot, SectionExpenses, SectionSummary)
	c.record(ctx, act, core.Succeeded, MsgExpenseDeleted)
	return out
}

// reload runs the loaders in order. A failed load does not stop the next
// one; its section simply keeps the previous data.
func (c *Controller) reload(ctx context.Context, snap *page.Snapshot, sections ...Section) []Section {
	done := make([]Section, 0, len(sections))
	for _, s := range sections {
		var ok bool
		switch s {
		case SectionExpenses:
			ok = c.loader.LoadExpenses(ctx, snap)
		case SectionCategories:
			ok = c.loader.LoadCategories(ctx, snap)
		case SectionSummary:
			ok = c.loader.LoadSummary(ctx, snap)
		}
		if ok {
			done = append(done, s)
		}
	}
	return done
}

func (c *Controller) record(ctx context.Context, a core.Activity, outcome core.Outcome, message string) {
	a.Outcome = outcome
	a.Message = message
	a.At = c.now().UTC()
	if err := c.recorder.Record(ctx, a); err != nil {
		c.logger.WarnContext(ctx, "Failed to record activity",
			"kind", a.Kind,
			"outcome", a.Outcome,
			log.FieldError, err)
	}
}
