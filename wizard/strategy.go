package wizard

import (
	"context"
	"fmt"

	"github.com/hUstbit37/ipms-search-sub001/model"
)

const (
	KindServer = "server"
	KindLocal  = "local"
)

// Strategy persists step drafts. The forms do not know which one is active.
type Strategy interface {
	// Kind is KindServer or KindLocal.
	Kind() string
	// Load fills dst with the stored draft for dst's step. It reports false
	// when there is none and dst keeps its defaults.
	Load(ctx context.Context, dst model.Draft) (bool, error)
	// Save persists a validated draft.
	Save(ctx context.Context, d model.Draft) error
}

// PersistenceError is a failed draft write or read. Message is what the user
// is shown.
type PersistenceError struct {
	Step    model.Step
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("step %d draft storage: %s: %v", e.Step, e.Message, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
