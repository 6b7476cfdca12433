package http

import (
	"net/http"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"expenseweb/internal/core"
	"expenseweb/internal/log"
	"expenseweb/internal/panel"
	"expenseweb/internal/view"
)

// handleIndex renders the full page after the initial concurrent load.
// Panels keep the state stored in the session; an open dashboard is
// refetched so a reload never shows analytics from an earlier visit.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := s.begin(w, r)
	s.loader.LoadInitial(st.ctx, &st.sess.Snapshot)
	if st.sess.Panels.Visible(panel.Analytics) {
		st.sess.Snapshot.Analytics = nil
		s.loader.LoadAnalytics(st.ctx, &st.sess.Snapshot)
	}
	s.save(st)

	data := indexData{
		AddExpense:  st.sess.Panels.Get(panel.AddExpense),
		AddCategory: st.sess.Panels.Get(panel.AddCategory),
		Analytics:   st.sess.Panels.Get(panel.Analytics),
		Categories:  categoriesFragment(st, false),
		Summary:     summaryFragment(st, false),
		Expenses:    expensesFragment(st, false),
	}
	if data.Analytics.Visible() && st.sess.Snapshot.Analytics != nil {
		d := view.NewDashboard(*st.sess.Snapshot.Analytics)
		data.Dashboard = &d
	}
	data.NoticesJSON = noticesJSON(st.notices.Notices())

	body, err := s.render(st.ctx, "index", data)
	if err != nil {
		InternalServerError("Failed to render page").Write(w)
		return
	}
	NewHTMXResponse().HTML(body).Write(w)
}

// fragmentHandler reloads one section and returns it for an in-place swap.
// A failed load renders the previous data and alerts.
func (s *Server) fragmentHandler(w http.ResponseWriter, r *http.Request, name string, load func(requestState) bool, frag func(requestState, bool) fragment) {
	st := s.begin(w, r)
	if load(st) {
		s.save(st)
	}
	body, err := s.render(st.ctx, name, frag(st, false))
	if err != nil {
		InternalServerError("Failed to render "+name).Write(w)
		return
	}
	NewHTMXResponse().TriggerNotices(st.notices.Notices()).HTML(body).Write(w)
}

func (s *Server) handleExpensesFragment(w http.ResponseWriter, r *http.Request) {
	s.fragmentHandler(w, r, "expense-table", func(st requestState) bool {
		return s.loader.LoadExpenses(st.ctx, &st.sess.Snapshot)
	}, expensesFragment)
}

func (s *Server) handleCategoriesFragment(w http.ResponseWriter, r *http.Request) {
	s.fragmentHandler(w, r, "category-select", func(st requestState) bool {
		return s.loader.LoadCategories(st.ctx, &st.sess.Snapshot)
	}, categoriesFragment)
}

func (s *Server) handleSummaryFragment(w http.ResponseWriter, r *http.Request) {
	s.fragmentHandler(w, r, "summary", func(st requestState) bool {
		return s.loader.LoadSummary(st.ctx, &st.sess.Snapshot)
	}, summaryFragment)
}

// handleAnalytics fetches the dashboard. When the fetch fails the last
// loaded analytics are shown, or the empty-state placeholders.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	st := s.begin(w, r)
	if s.loader.LoadAnalytics(st.ctx, &st.sess.Snapshot) {
		s.save(st)
	}
	var a core.Analytics
	if st.sess.Snapshot.Analytics != nil {
		a = *st.sess.Snapshot.Analytics
	}
	body, err := s.render(st.ctx, "analytics-dashboard", view.NewDashboard(a))
	if err != nil {
		InternalServerError("Failed to render analytics").Write(w)
		return
	}
	NewHTMXResponse().TriggerNotices(st.notices.Notices()).HTML(body).Write(w)
}

// handleAnalyticsHistory loads the monthly and weekly history in parallel.
// Either half may fail on its own and then shows its placeholder.
func (s *Server) handleAnalyticsHistory(w http.ResponseWriter, r *http.Request) {
	st := s.begin(w, r)

	var monthly []core.MonthlyPeriod
	var weekly []core.WeeklyPeriod
	var g errgroup.Group
	g.Go(func() error {
		var err error
		monthly, err = s.api.MonthlyHistory(st.ctx)
		return err
	})
	g.Go(func() error {
		var err error
		weekly, err = s.api.WeeklyHistory(st.ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(st.ctx, "Analytics history incomplete", log.FieldError, err)
	}

	body, err := s.render(st.ctx, "analytics-history", view.NewHistory(monthly, weekly))
	if err != nil {
		InternalServerError("Failed to render history").Write(w)
		return
	}
	NewHTMXResponse().TriggerNotices(st.notices.Notices()).HTML(body).Write(w)
}

// handleActivity lists the most recent journaled submissions.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := view.Activity{Enabled: s.activity != nil}
	if s.activity != nil {
		acts, err := s.activity.Recent(ctx, ActivityLimit)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to read activity",
				log.FieldOperation, log.OpList,
				log.FieldError, err)
			InternalServerError("Failed to load activity").Write(w)
			return
		}
		data.Rows = view.ActivityRows(acts)
	}
	body, err := s.render(ctx, "activity", data)
	if err != nil {
		InternalServerError("Failed to render activity").Write(w)
		return
	}
	NewHTMXResponse().HTML(body).Write(w)
}

// handleTogglePanel flips a panel and hands the animation plan to the page.
func (s *Server) handleTogglePanel(w http.ResponseWriter, r *http.Request) {
	name, err := panel.Parse(r.PathValue("name"))
	if err != nil {
		NotFoundError("Unknown panel").Write(w)
		return
	}
	st := s.begin(w, r)
	t := st.sess.Panels.Get(name).Toggle()
	atomic.AddInt64(&s.metrics.toggles, 1)
	s.save(st)

	s.logger.DebugContext(st.ctx, "Panel toggled",
		log.FieldPanel, name,
		log.FieldOperation, log.OpToggle,
		"visible", t.Visible,
		"gen", t.Generation)

	NewHTMXResponse().TriggerPanelTransition(t).Write(w)
}
