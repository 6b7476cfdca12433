package http

import (
	"bytes"
	"context"
	"net/http"
	"sync/atomic"

	"expenseweb/internal/log"
	"expenseweb/internal/notify"
	"expenseweb/internal/panel"
	"expenseweb/internal/session"
	"expenseweb/internal/view"
)

// fragment wraps template data for blocks that are either swapped in place
// or sent out of band alongside another response.
type fragment struct {
	OOB  bool
	Data any
}

type periodTableData struct {
	ID      string
	Heading string
	Table   view.PeriodTable
}

type indexData struct {
	NoticesJSON string
	AddExpense  *panel.Panel
	AddCategory *panel.Panel
	Analytics   *panel.Panel
	Categories  fragment
	Summary     fragment
	Expenses    fragment
	Dashboard   *view.Dashboard
}

// requestState is what every page handler starts from: a context carrying
// the notice collector, the collector itself and the caller's session.
type requestState struct {
	ctx     context.Context
	notices *notify.Collector
	sess    *session.Session
}

func (s *Server) begin(w http.ResponseWriter, r *http.Request) requestState {
	ctx, col := notify.NewContext(r.Context())
	return requestState{ctx: ctx, notices: col, sess: s.sessions.Load(w, r)}
}

// save persists the session. A failure is logged by the manager and the
// response still goes out.
func (s *Server) save(st requestState) {
	_ = s.sessions.Save(st.ctx, st.sess)
}

// render executes the named template into a buffer so a failure never
// leaves a half-written response.
func (s *Server) render(ctx context.Context, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		atomic.AddInt64(&s.metrics.renderErrs, 1)
		s.logger.ErrorContext(ctx, "Template render failed",
			log.FieldComponent, log.ComponentTemplate,
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err)
		return nil, err
	}
	return buf.Bytes(), nil
}

func expensesFragment(st requestState, oob bool) fragment {
	return fragment{OOB: oob, Data: view.ExpenseRows(st.sess.Snapshot.Expenses)}
}

func categoriesFragment(st requestState, oob bool) fragment {
	return fragment{OOB: oob, Data: view.CategoryOptions(st.sess.Snapshot.Categories)}
}

func summaryFragment(st requestState, oob bool) fragment {
	return fragment{OOB: oob, Data: view.SummaryItems(st.sess.Snapshot.Summary)}
}
