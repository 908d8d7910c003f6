package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/pkg/logger"
	"github.com/hUstbit37/ipms-search-sub001/service"
)

// ErrIncompleteDraft is returned by Create when a required step was never
// saved.
var ErrIncompleteDraft = errors.New("draft is incomplete")

// DraftKey is the fixed storage key of a step draft.
func DraftKey(step model.Step) string {
	return "transfer_" + step.Section() + "_draft"
}

// LocalBacked keeps step drafts in a DraftStore and sends nothing to the
// backend. Keys are fixed per step, so two drafts edited under the same scope
// overwrite each other.
type LocalBacked struct {
	store service.DraftStore
	scope string
}

// NewLocalBacked returns a strategy whose keys are prefixed with scope.
func NewLocalBacked(store service.DraftStore, scope string) *LocalBacked {
	return &LocalBacked{store: store, scope: scope}
}

func (l *LocalBacked) Kind() string { return KindLocal }

func (l *LocalBacked) key(step model.Step) string {
	return l.scope + DraftKey(step)
}

// Load reads as no draft when nothing or something malformed is stored. A
// store that cannot be read returns a *PersistenceError and dst keeps its
// defaults.
func (l *LocalBacked) Load(ctx context.Context, dst model.Draft) (bool, error) {
	raw, ok, err := l.Raw(ctx, dst.Step())
	if err != nil || !ok {
		return false, err
	}

	probe, err := model.NewDraft(dst.Step())
	if err != nil {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), probe); err != nil {
		logger.Warn(ctx, "ignoring malformed draft", "key", l.key(dst.Step()), "error", err)
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, nil
	}
	return true, nil
}

// Raw returns the stored snapshot of a step.
func (l *LocalBacked) Raw(ctx context.Context, step model.Step) (string, bool, error) {
	raw, ok, err := l.store.Get(ctx, l.key(step))
	if err != nil {
		logger.Error(ctx, "failed to read draft", "key", l.key(step), "error", err)
		return "", false, &PersistenceError{Step: step, Message: MsgDraftLoadFailed, Err: err}
	}
	return raw, ok, nil
}

// Save overwrites the step's snapshot.
func (l *LocalBacked) Save(ctx context.Context, d model.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return &PersistenceError{Step: d.Step(), Message: MsgDraftSaveFailed, Err: err}
	}
	if err := l.store.Set(ctx, l.key(d.Step()), string(data)); err != nil {
		logger.Error(ctx, "failed to store draft", "key", l.key(d.Step()), "error", err)
		return &PersistenceError{Step: d.Step(), Message: MsgDraftSaveFailed, Err: err}
	}
	return nil
}

// Clear removes every step draft.
func (l *LocalBacked) Clear(ctx context.Context) error {
	var errs []error
	for _, step := range model.Steps() {
		if err := l.store.Delete(ctx, l.key(step)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Create assembles the saved drafts into a contract and clears them.
// General information and terms must have been saved; the other steps are
// left out when they were not.
func (l *LocalBacked) Create(ctx context.Context) (*model.TransferContract, error) {
	contract := &model.TransferContract{}
	var missing []string
	for _, step := range model.Steps() {
		d, _ := model.NewDraft(step)
		ok, err := l.Load(ctx, d)
		if err != nil {
			return nil, err
		}
		if !ok {
			if step == model.StepGeneralInfo || step == model.StepTerms {
				missing = append(missing, step.Section())
			}
			continue
		}
		d.Normalize()
		if err := Validate(d); err != nil {
			return nil, err
		}
		switch v := d.(type) {
		case *model.GeneralInfo:
			contract.GeneralInfo = v
		case *model.Partners:
			contract.Partners = v
		case *model.Terms:
			contract.Terms = v.Payload().(*model.Terms)
		case *model.Attachments:
			contract.Attachments = v
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteDraft, strings.Join(missing, ", "))
	}

	if err := l.Clear(ctx); err != nil {
		logger.Warn(ctx, "failed to clear drafts after create", "error", err)
	}
	return contract, nil
}
