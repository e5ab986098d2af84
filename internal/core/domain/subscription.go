package domain

import (
	"fmt"
	"strings"
	"time"
)

// InboxLabel is the only mailbox label an inbox watch covers.
const InboxLabel = "INBOX"

// TopicTarget is the fully-qualified Pub/Sub topic notifications go to.
type TopicTarget struct {
	Project string
	Topic   string
}

// String returns the resource name "projects/<project>/topics/<topic>".
func (t TopicTarget) String() string {
	return fmt.Sprintf("projects/%s/topics/%s", t.Project, t.Topic)
}

// Validate returns ErrInvalidInput if either part is missing or malformed.
func (t TopicTarget) Validate() error {
	if strings.TrimSpace(t.Project) == "" || strings.TrimSpace(t.Topic) == "" {
		return fmt.Errorf("%w: topic target requires project and topic", ErrInvalidInput)
	}
	if strings.Contains(t.Project, "/") || strings.Contains(t.Topic, "/") {
		return fmt.Errorf("%w: topic target %q", ErrInvalidInput, t.String())
	}
	return nil
}

// WatchRequest is a single "watch inbox, notify topic" call.
type WatchRequest struct {
	Identity string
	LabelIDs []string
	Topic    TopicTarget
}

// Subscription describes the inbox watch after Establish.
// It is provider-side state and is never persisted locally.
type Subscription struct {
	Identity string
	Topic    TopicTarget
	LabelIDs []string
	// HistoryID is the mailbox history ID at watch time.
	// Zero when AlreadyActive is true.
	HistoryID uint64
	// Expiration is when the provider will drop the watch unless renewed.
	// Zero when AlreadyActive is true.
	Expiration time.Time
	// AlreadyActive is true when the provider reported an existing watch
	// for the principal.
	AlreadyActive bool
}
