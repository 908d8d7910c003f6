package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/pkg/logger"
	"github.com/hUstbit37/ipms-search-sub001/pkg/metrics"
)

// Action is what the user clicked on a step form.
type Action string

const (
	ActionSaveDraft Action = "save_draft"
	ActionNext      Action = "next"
)

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionSaveDraft, ActionNext:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// ErrNoForm is returned for steps that have no form.
var ErrNoForm = errors.New("step has no form")

// Creator is a strategy that can finish the wizard by itself.
type Creator interface {
	Create(ctx context.Context) (*model.TransferContract, error)
}

// Refresher is a strategy whose stored entity can be re-fetched.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Result is the outcome of a step submission.
type Result struct {
	Step          model.Step     `json:"step"`
	Advanced      bool           `json:"advanced"`
	Notifications []Notification `json:"notifications"`
}

// Wizard binds the controller, the four forms and one persistence strategy.
type Wizard struct {
	name       string
	controller *Controller
	strategy   Strategy
	forms      map[model.Step]*Form
}

// New builds a wizard. name labels logs and metrics (license, transfer).
func New(name string, controller *Controller, strategy Strategy) *Wizard {
	forms := make(map[model.Step]*Form, model.StepCount)
	for _, step := range model.Steps() {
		f, _ := NewForm(step)
		forms[step] = f
	}
	return &Wizard{name: name, controller: controller, strategy: strategy, forms: forms}
}

func (w *Wizard) Controller() *Controller { return w.controller }

func (w *Wizard) Strategy() Strategy { return w.strategy }

// Form returns the form of a step, or nil for steps without one.
func (w *Wizard) Form(step model.Step) *Form {
	return w.forms[step]
}

func (w *Wizard) logContext(ctx context.Context, step model.Step) context.Context {
	ctx = logger.With(ctx, logger.WizardKey, w.name)
	if id := w.controller.Session().EntityID; id != "" {
		ctx = logger.With(ctx, logger.EntityIDKey, id)
	}
	return logger.With(ctx, logger.StepKey, int(step))
}

// Hydrate loads the stored draft of step into its form and returns the form
// values. A step with nothing stored keeps its defaults.
func (w *Wizard) Hydrate(ctx context.Context, step model.Step) (model.Draft, error) {
	form := w.forms[step]
	if form == nil {
		return nil, ErrNoForm
	}
	ctx = w.logContext(ctx, step)

	d, err := model.NewDraft(step)
	if err != nil {
		return nil, err
	}
	ok, err := w.strategy.Load(ctx, d)
	if err != nil {
		return form.Values(), err
	}
	if ok {
		form.SetValues(d)
	}
	return form.Values(), nil
}

// Submit validates values for step and persists them. Save-draft stays on
// the step; next advances once the draft is stored.
//
// Server-backed strategies are all-or-nothing: a failed write returns a
// *PersistenceError and the step does not change. A local store that cannot
// be written is reported in the notifications and navigation goes on.
func (w *Wizard) Submit(ctx context.Context, step model.Step, action Action, values model.Draft) (*Result, error) {
	form := w.forms[step]
	if form == nil {
		return nil, ErrNoForm
	}
	ctx = w.logContext(ctx, step)

	var notes Notifications
	result := &Result{Step: w.controller.Current()}

	err := form.Submit(ctx, values, w.strategy.Save)
	outcome := w.outcome(action, err)
	metrics.StepSubmissionsTotal.WithLabelValues(w.name, step.String(), string(action), outcome).Inc()

	var perr *PersistenceError
	switch {
	case err == nil:
		if action == ActionSaveDraft || w.strategy.Kind() == KindLocal {
			notes.Notify(success(MsgDraftSaved))
		}
	case errors.As(err, &perr) && w.strategy.Kind() == KindLocal:
		notes.Notify(failure(perr.Message))
	case errors.As(err, &perr):
		notes.Notify(failure(perr.Message))
		result.Notifications = notes
		return result, err
	default:
		return result, err
	}

	if action == ActionNext {
		if err == nil {
			notes.Notify(success(stepSavedMessage(step)))
		}
		w.controller.GoToStep(ctx, step+1)
		result.Advanced = true
	}
	logger.Info(ctx, "step submitted", "action", action, "outcome", outcome)

	result.Step = w.controller.Current()
	result.Notifications = notes
	return result, nil
}

func (w *Wizard) outcome(action Action, err error) string {
	var verr *ValidationError
	switch {
	case err == nil && action == ActionNext:
		return "advanced"
	case err == nil:
		return "saved"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, ErrBusy):
		return "busy"
	default:
		return "failed"
	}
}

// Refresh re-fetches the stored entity. The first step's form is
// repopulated only while it is the current step; other steps keep whatever
// the user is editing. It reports whether the first step was repopulated.
func (w *Wizard) Refresh(ctx context.Context) (bool, error) {
	r, ok := w.strategy.(Refresher)
	if !ok {
		return false, nil
	}
	if err := r.Refresh(w.logContext(ctx, w.controller.Current())); err != nil {
		return false, err
	}
	if w.controller.Current() != model.StepGeneralInfo {
		return false, nil
	}
	if _, err := w.Hydrate(ctx, model.StepGeneralInfo); err != nil {
		return false, err
	}
	return true, nil
}

// Create finishes a wizard whose strategy supports it.
func (w *Wizard) Create(ctx context.Context) (*model.TransferContract, []Notification, error) {
	c, ok := w.strategy.(Creator)
	if !ok {
		return nil, nil, fmt.Errorf("%s wizard cannot create contracts", w.name)
	}
	ctx = w.logContext(ctx, w.controller.Current())

	contract, err := c.Create(ctx)
	if err != nil {
		metrics.StepSubmissionsTotal.WithLabelValues(w.name, "create", "create", "failed").Inc()
		return nil, nil, err
	}
	metrics.StepSubmissionsTotal.WithLabelValues(w.name, "create", "create", "created").Inc()
	logger.Info(ctx, "contract created from drafts")
	return contract, []Notification{success(MsgContractCreated)}, nil
}
