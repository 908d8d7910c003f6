package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hUstbit37/ipms-search-sub001/model"
)

var (
	// ErrBusy is returned when a submission is attempted while another one
	// on the same form is still in flight.
	ErrBusy              = errors.New("a submission is already in progress")
	ErrIllegalTransition = errors.New("illegal form state transition")
)

// FormState is the lifecycle state of one step form.
type FormState int

const (
	FormIdle FormState = iota
	FormValidating
	FormSubmitting
)

func (s FormState) String() string {
	switch s {
	case FormIdle:
		return "idle"
	case FormValidating:
		return "validating"
	case FormSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("FormState(%d)", int(s))
	}
}

var legalTransitions = map[FormState][]FormState{
	FormIdle:       {FormValidating},
	FormValidating: {FormIdle, FormSubmitting},
	FormSubmitting: {FormIdle},
}

// PersistFunc writes a validated draft.
type PersistFunc func(ctx context.Context, d model.Draft) error

// Form holds the values, errors and state of one step.
type Form struct {
	step   model.Step
	mu     sync.Mutex
	state  FormState
	values model.Draft
	errors map[string]string
}

func NewForm(step model.Step) (*Form, error) {
	values, err := model.NewDraft(step)
	if err != nil {
		return nil, err
	}
	return &Form{step: step, values: values}, nil
}

func (f *Form) Step() model.Step {
	return f.step
}

func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Busy reports whether the submit controls should be disabled.
func (f *Form) Busy() bool {
	return f.State() != FormIdle
}

// Values returns the current form values.
func (f *Form) Values() model.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Errors returns the field errors of the last submission.
func (f *Form) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// SetValues replaces the form values, as when hydrating from a stored draft.
// It is ignored while a submission is in flight.
func (f *Form) SetValues(d model.Draft) bool {
	if d == nil || d.Step() != f.step {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FormIdle {
		return false
	}
	f.values = d
	f.errors = nil
	return true
}

func (f *Form) transition(to FormState) error {
	for _, next := range legalTransitions[f.state] {
		if next == to {
			f.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, f.state, to)
}

func (f *Form) moveTo(to FormState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transition(to)
}

// Submit normalises and validates values, then hands them to persist. No
// I/O happens when validation fails. The entered values are kept in the form
// whatever the outcome.
func (f *Form) Submit(ctx context.Context, values model.Draft, persist PersistFunc) (err error) {
	if values == nil || values.Step() != f.step {
		return fmt.Errorf("form for step %d got values for another step", f.step)
	}

	f.mu.Lock()
	if f.state != FormIdle {
		f.mu.Unlock()
		return ErrBusy
	}
	if err := f.transition(FormValidating); err != nil {
		f.mu.Unlock()
		return err
	}
	f.values = values
	f.mu.Unlock()

	values.Normalize()
	if err := Validate(values); err != nil {
		f.mu.Lock()
		var verr *ValidationError
		if errors.As(err, &verr) {
			f.errors = verr.Fields
		}
		f.transition(FormIdle)
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	f.errors = nil
	if err := f.transition(FormSubmitting); err != nil {
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	defer func() {
		if terr := f.moveTo(FormIdle); terr != nil && err == nil {
			err = terr
		}
	}()
	return persist(ctx, values)
}
