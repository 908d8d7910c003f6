// Package wizard drives the four-step contract wizard: which step is shown,
// the per-step forms and the strategy that persists their drafts.
package wizard

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"

	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/pkg/logger"
)

// ErrNoLocation is returned by a navigator that has no URL to write to.
var ErrNoLocation = errors.New("no location to update")

// Navigator writes the current step into the shareable location. It replaces
// the step parameter without pushing a new history entry.
type Navigator interface {
	ReplaceStep(step model.Step) error
}

// URLNavigator keeps the step query parameter of a URL in sync.
type URLNavigator struct {
	mu sync.Mutex
	u  *url.URL
}

func NewURLNavigator(u *url.URL) *URLNavigator {
	return &URLNavigator{u: u}
}

func (n *URLNavigator) ReplaceStep(step model.Step) error {
	if n == nil {
		return ErrNoLocation
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.u == nil {
		return ErrNoLocation
	}
	q := n.u.Query()
	q.Set("step", strconv.Itoa(int(step)))
	n.u.RawQuery = q.Encode()
	return nil
}

// Location returns the current URL.
func (n *URLNavigator) Location() (string, error) {
	if n == nil {
		return "", ErrNoLocation
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.u == nil {
		return "", ErrNoLocation
	}
	return n.u.String(), nil
}

// View is what the wizard page renders for the current step.
type View struct {
	Step  model.Step `json:"step"`
	Title string     `json:"title"`
	// ComingSoon is set for steps past the last form. BackStep is where the
	// placeholder's button leads.
	ComingSoon bool       `json:"coming_soon,omitempty"`
	BackStep   model.Step `json:"back_step,omitempty"`
}

// Controller owns the current step of one wizard session.
type Controller struct {
	mu      sync.RWMutex
	session model.WizardSession
	nav     Navigator
}

func NewController(entityID string, nav Navigator) *Controller {
	return &Controller{
		session: model.WizardSession{CurrentStep: model.StepGeneralInfo, EntityID: entityID},
		nav:     nav,
	}
}

// Sync adopts the step from a URL query string. Invalid values resolve to
// the first step.
func (c *Controller) Sync(rawQuery string) model.Step {
	values, _ := url.ParseQuery(rawQuery)
	step := model.ParseStep(values.Get("step"))

	c.mu.Lock()
	c.session.CurrentStep = step
	c.mu.Unlock()
	return step
}

// GoToStep moves to step and rewrites the location. A location that cannot
// be written is logged and the move still happens.
func (c *Controller) GoToStep(ctx context.Context, step model.Step) {
	c.mu.Lock()
	c.session.CurrentStep = step
	nav := c.nav
	c.mu.Unlock()

	if nav == nil {
		logger.Warn(ctx, "step location not updated", "step", int(step), "error", ErrNoLocation)
		return
	}
	if err := nav.ReplaceStep(step); err != nil {
		logger.Warn(ctx, "step location not updated", "step", int(step), "error", err)
	}
}

func (c *Controller) Current() model.Step {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.CurrentStep
}

func (c *Controller) Session() model.WizardSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Location returns the shareable URL when the navigator has one.
func (c *Controller) Location() string {
	type locator interface {
		Location() (string, error)
	}
	l, ok := c.nav.(locator)
	if !ok {
		return ""
	}
	loc, err := l.Location()
	if err != nil {
		return ""
	}
	return loc
}

func (c *Controller) Active() View {
	step := c.Current()
	if step.Valid() {
		return View{Step: step, Title: step.Title()}
	}
	return View{Step: step, Title: step.Title(), ComingSoon: true, BackStep: model.StepGeneralInfo}
}
