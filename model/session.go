package model

// WizardSession is the ephemeral state of one open wizard page. It lives as
// long as the page and holds nothing durable; drafts live in the backend
// entity or in the draft store.
type WizardSession struct {
	CurrentStep Step   `json:"current_step"`
	EntityID    string `json:"entity_id,omitempty"`
}

// HasEntity reports whether the session edits an existing backend entity.
func (s WizardSession) HasEntity() bool {
	return s.EntityID != ""
}
