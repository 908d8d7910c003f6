package model

import (
	"strconv"
	"strings"
)

// Step is a wizard step number. Steps above StepCount have no form.
type Step int

const (
	StepGeneralInfo Step = iota + 1
	StepPartners
	StepTerms
	StepAttachments
)

// StepCount is the number of steps that render a form.
const StepCount = 4

// ParseStep reads a step query value. Anything that is not an integer in
// [1, StepCount] resolves to StepGeneralInfo.
func ParseStep(raw string) Step {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > StepCount {
		return StepGeneralInfo
	}
	return Step(n)
}

// Valid reports whether s renders one of the step forms.
func (s Step) Valid() bool {
	return s >= StepGeneralInfo && s <= StepAttachments
}

// Section is the key the step's fields live under in the persisted entity.
func (s Step) Section() string {
	switch s {
	case StepGeneralInfo:
		return "general_info"
	case StepPartners:
		return "partners"
	case StepTerms:
		return "terms"
	case StepAttachments:
		return "attachments"
	default:
		return ""
	}
}

func (s Step) Title() string {
	switch s {
	case StepGeneralInfo:
		return "General information"
	case StepPartners:
		return "Partners"
	case StepTerms:
		return "Terms"
	case StepAttachments:
		return "Attachments"
	default:
		return "Step " + strconv.Itoa(int(s))
	}
}

func (s Step) String() string {
	return strconv.Itoa(int(s))
}

// Steps lists the form steps in order.
func Steps() []Step {
	return []Step{StepGeneralInfo, StepPartners, StepTerms, StepAttachments}
}
