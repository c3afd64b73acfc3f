// Package mail defines the mail-provider contract the engine consumes.
// Concrete drivers (provider sync, delivery) live outside this repository.
package mail

import "context"

// Label is one provider label as returned by Driver.GetLabels.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ThreadModification describes a label change applied to a thread.
type ThreadModification struct {
	AddLabels    []string `json:"addLabels,omitempty"`
	RemoveLabels []string `json:"removeLabels,omitempty"`
}

// Driver is the mail-provider surface consumed by action execution.
// Implementations must be safe for concurrent use.
type Driver interface {
	ModifyThread(ctx context.Context, threadID string, mod ThreadModification) error
	GetLabels(ctx context.Context) ([]Label, error)
}

// Well-known provider labels toggled by the built-in actions.
const (
	LabelUnread = "UNREAD"
	LabelInbox  = "INBOX"
)
