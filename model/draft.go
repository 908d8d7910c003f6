package model

import (
	"encoding/json"
	"fmt"
)

// Draft is the value of one wizard step form.
type Draft interface {
	Step() Step
	// Normalize trims input and applies field defaults before validation.
	Normalize()
	// Payload is the value submitted to the backend for this step. Fields
	// that are not relevant to the current state of the form are left out.
	Payload() any
}

// NewDraft returns an empty draft for the step with form defaults applied.
func NewDraft(step Step) (Draft, error) {
	switch step {
	case StepGeneralInfo:
		return &GeneralInfo{}, nil
	case StepPartners:
		return &Partners{IPType: IPTypeTrademark, IPAssets: []IPItem{}}, nil
	case StepTerms:
		return &Terms{FeeType: FeeTypeNone}, nil
	case StepAttachments:
		return &Attachments{Files: []FileHandle{}}, nil
	default:
		return nil, fmt.Errorf("step %d has no form", step)
	}
}

// PayloadFields flattens the draft's payload into the update body the backend
// expects: the step fields plus the "step" discriminator.
func PayloadFields(d Draft) (map[string]any, error) {
	data, err := json.Marshal(d.Payload())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal step %d payload: %w", d.Step(), err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to flatten step %d payload: %w", d.Step(), err)
	}
	fields["step"] = int(d.Step())
	return fields, nil
}
