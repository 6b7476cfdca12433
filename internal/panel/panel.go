// Package panel models the collapsible sections of the page.
//
// A panel is either hidden or visible, and that state is stored explicitly
// rather than read back from the rendered element. Every change of state
// yields a Transition: the ordered, delayed DOM steps the page script plays
// to animate it. Each transition carries a generation number, and the
// script drops any pending step whose generation is older than the panel's
// current one, so toggling twice in quick succession cannot leave a panel
// displayed but faded out.
package panel

import (
	"fmt"
	"time"
)

type Name string

const (
	AddExpense  Name = "add-expense"
	AddCategory Name = "add-category"
	Analytics   Name = "analytics"
)

// Names lists every known panel in page order.
var Names = []Name{AddExpense, AddCategory, Analytics}

// Parse validates a panel name from a URL.
func Parse(s string) (Name, error) {
	for _, n := range Names {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown panel %q", s)
}

type State int

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

type Action string

const (
	DisplayBlock  Action = "display-block"
	DisplayNone   Action = "display-none"
	AddShow       Action = "add-show"
	RemoveShow    Action = "remove-show"
	ScrollFocus   Action = "scroll-focus"
	LoadAnalytics Action = "load-analytics"
)

// Animation timings of the form panels.
const (
	ShowClassDelay   = 10 * time.Millisecond
	ScrollDelay      = 100 * time.Millisecond
	HideDisplayDelay = 300 * time.Millisecond
)

// Step is one DOM change, applied DelayMS after the transition starts.
type Step struct {
	DelayMS int64  `json:"delay"`
	Action  Action `json:"action"`
}

func step(d time.Duration, a Action) Step {
	return Step{DelayMS: d.Milliseconds(), Action: a}
}

// Delay returns the step offset as a duration.
func (s Step) Delay() time.Duration {
	return time.Duration(s.DelayMS) * time.Millisecond
}

// Transition is the plan for moving a panel between states. A transition
// with no steps means the panel was already in the requested state.
type Transition struct {
	Panel      Name   `json:"panel"`
	From       State  `json:"-"`
	To         State  `json:"-"`
	Visible    bool   `json:"visible"`
	Generation uint64 `json:"gen"`
	Steps      []Step `json:"steps"`
}

// Changed reports whether the transition does anything.
func (t Transition) Changed() bool {
	return t.From != t.To
}

type Panel struct {
	Name       Name   `json:"name"`
	State      State  `json:"state"`
	Generation uint64 `json:"gen"`
}

func New(name Name) *Panel {
	return &Panel{Name: name, State: Hidden}
}

func (p *Panel) Visible() bool {
	return p.State == Visible
}

// animated panels fade in and out; the analytics dashboard just appears.
func (p *Panel) animated() bool {
	return p.Name != Analytics
}

// Toggle flips the panel.
func (p *Panel) Toggle() Transition {
	if p.State == Visible {
		return p.Hide()
	}
	return p.Show()
}

// Show makes the panel visible. Opening the analytics dashboard also asks
// for the analytics to be loaded.
func (p *Panel) Show() Transition {
	if p.State == Visible {
		return p.noop()
	}
	var steps []Step
	if p.animated() {
		steps = []Step{
			step(0, DisplayBlock),
			step(ShowClassDelay, AddShow),
			step(ScrollDelay, ScrollFocus),
		}
	} else {
		steps = []Step{step(0, DisplayBlock), step(0, LoadAnalytics)}
	}
	return p.move(Visible, steps)
}

// Hide makes the panel hidden. Hiding a hidden panel does nothing.
func (p *Panel) Hide() Transition {
	if p.State == Hidden {
		return p.noop()
	}
	var steps []Step
	if p.animated() {
		steps = []Step{step(0, RemoveShow), step(HideDisplayDelay, DisplayNone)}
	} else {
		steps = []Step{step(0, DisplayNone)}
	}
	return p.move(Hidden, steps)
}

func (p *Panel) move(to State, steps []Step) Transition {
	from := p.State
	p.State = to
	p.Generation++
	return Transition{
		Panel:      p.Name,
		From:       from,
		To:         to,
		Visible:    to == Visible,
		Generation: p.Generation,
		Steps:      steps,
	}
}

func (p *Panel) noop() Transition {
	return Transition{
		Panel:      p.Name,
		From:       p.State,
		To:         p.State,
		Visible:    p.State == Visible,
		Generation: p.Generation,
		Steps:      []Step{},
	}
}

// Set is the panels of one page.
type Set struct {
	Panels map[Name]*Panel `json:"panels"`
}

// NewSet returns every panel, hidden.
func NewSet() *Set {
	s := &Set{Panels: make(map[Name]*Panel, len(Names))}
	for _, n := range Names {
		s.Panels[n] = New(n)
	}
	return s
}

// Get returns the named panel, creating it hidden if the set predates it.
func (s *Set) Get(name Name) *Panel {
	if s.Panels == nil {
		s.Panels = make(map[Name]*Panel, len(Names))
	}
	p, ok := s.Panels[name]
	if !ok {
		p = New(name)
		s.Panels[name] = p
	}
	return p
}

// Visible reports whether the named panel is shown.
func (s *Set) Visible(name Name) bool {
	return s.Get(name).Visible()
}
