package wizard

import "fmt"

// Level is the severity of a user notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

const (
	MsgDraftSaved      = "Draft saved"
	MsgDraftSaveFailed = "Failed to save draft"
	MsgDraftLoadFailed = "Failed to load draft"
	MsgContractCreated = "Contract created"
)

// Notification is a transient toast shown to the user.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifications collects toasts in order.
type Notifications []Notification

func (n *Notifications) Notify(x Notification) {
	*n = append(*n, x)
}

func success(msg string) Notification {
	return Notification{Level: LevelSuccess, Message: msg}
}

func failure(msg string) Notification {
	return Notification{Level: LevelError, Message: msg}
}

func stepSavedMessage(step fmt.Stringer) string {
	return "Step " + step.String() + " saved"
}
