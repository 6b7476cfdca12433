package http

import (
	"errors"
	"net/http"

	"expenseweb/internal/core"
	"expenseweb/internal/forms"
	"expenseweb/internal/log"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	form, err := ParseExpenseForm(r)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Bad expense form", log.FieldError, err)
		BadRequestError("Invalid form data").Write(w)
		return
	}
	st := s.begin(w, r)
	out := s.forms.AddExpense(st.ctx, st.sess, form)
	s.respondForm(w, st, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	form, err := ParseCategoryForm(r)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Bad category form", log.FieldError, err)
		BadRequestError("Invalid form data").Write(w)
		return
	}
	st := s.begin(w, r)
	out := s.forms.AddCategory(st.ctx, st.sess, form)
	s.respondForm(w, st, out)
}

// handleDeleteExpense deletes after the user confirmed in the browser. An
// unconfirmed request changes nothing.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, confirmed, err := ParseDeleteRequest(r)
	if err != nil {
		if errors.Is(err, core.ErrInvalidExpenseID) {
			BadRequestError("Invalid expense id").Write(w)
			return
		}
		BadRequestError("Invalid form data").Write(w)
		return
	}
	st := s.begin(w, r)
	out := s.forms.DeleteExpense(st.ctx, st.sess, id, confirmed)
	s.respondForm(w, st, out)
}

// respondForm saves the session and turns an outcome into triggers plus
// out-of-band fragments for every section that was reloaded. The response
// is 200 whatever the outcome; the notices tell the user what happened.
func (s *Server) respondForm(w http.ResponseWriter, st requestState, out forms.Outcome) {
	s.countOutcome(out)
	s.save(st)

	resp := NewHTMXResponse().TriggerNotices(st.notices.Notices())
	if out.Succeeded {
		resp.TriggerFormClear(out.Form, out.ClearFields)
		if out.HidePanel != nil {
			resp.TriggerPanelTransition(*out.HidePanel)
		}
	}
	if s.activity != nil {
		resp.TriggerActivityRefresh()
	}

	sections := []struct {
		section forms.Section
		name    string
		frag    func(requestState, bool) fragment
	}{
		{forms.SectionExpenses, "expense-table", expensesFragment},
		{forms.SectionCategories, "category-select", categoriesFragment},
		{forms.SectionSummary, "summary", summaryFragment},
	}
	for _, sec := range sections {
		if !out.HasReloaded(sec.section) {
			continue
		}
		body, err := s.render(st.ctx, sec.name, sec.frag(st, true))
		if err != nil {
			continue
		}
		resp.HTML(body)
	}
	resp.Write(w)
}
