package model

import "testing"

func TestParseStep(t *testing.T) {
	tests := []struct {
		raw  string
		want Step
	}{
		{"1", StepGeneralInfo},
		{"2", StepPartners},
		{"3", StepTerms},
		{"4", StepAttachments},
		{" 3 ", StepTerms},
		{"", StepGeneralInfo},
		{"abc", StepGeneralInfo},
		{"2.5", StepGeneralInfo},
		{"0", StepGeneralInfo},
		{"-2", StepGeneralInfo},
		{"5", StepGeneralInfo},
		{"999999999999999999999", StepGeneralInfo},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseStep(tt.raw); got != tt.want {
				t.Errorf("ParseStep(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestStepSection(t *testing.T) {
	expected := []string{"general_info", "partners", "terms", "attachments"}
	for i, step := range Steps() {
		if step.Section() != expected[i] {
			t.Errorf("Expected section %s for step %d, got %s", expected[i], step, step.Section())
		}
		if !step.Valid() {
			t.Errorf("Expected step %d to be valid", step)
		}
	}
	if Step(5).Valid() || Step(5).Section() != "" {
		t.Error("Expected step 5 to have no form")
	}
}

func TestWizardSessionHasEntity(t *testing.T) {
	if (WizardSession{CurrentStep: 1}).HasEntity() {
		t.Error("Expected no entity")
	}
	if !(WizardSession{CurrentStep: 1, EntityID: "42"}).HasEntity() {
		t.Error("Expected entity")
	}
}
