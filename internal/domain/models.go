package domain

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
)

// ImageResource is a downloaded image held in a temporary file for the
// lifetime of one request.
type ImageResource struct {
	Path string
	once sync.Once
}

// NewImageResource wraps an existing temporary file.
func NewImageResource(path string) *ImageResource {
	return &ImageResource{Path: path}
}

// Release deletes the temporary file. It is safe to call more than once and
// on a nil resource.
func (r *ImageResource) Release() error {
	if r == nil {
		return nil
	}
	var err error
	r.once.Do(func() {
		if rmErr := os.Remove(r.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = rmErr
		}
	})
	return err
}

// RunHandle identifies one assistant run inside its conversation thread.
type RunHandle struct {
	ThreadID string
	RunID    string
}

// RunStatus is the lifecycle state of an assistant run.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusIncomplete     RunStatus = "incomplete"
	RunStatusExpired        RunStatus = "expired"
)

// IsTerminal reports whether the run will not change state again without
// caller intervention.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled,
		RunStatusExpired, RunStatusIncomplete, RunStatusRequiresAction:
		return true
	default:
		return false
	}
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ThreadMessage is one message in an assistant conversation thread.
type ThreadMessage struct {
	ID      string           `json:"id"`
	Role    string           `json:"role"`
	Content []MessageContent `json:"content"`
}

// MessageContent is one content item of a thread message.
type MessageContent struct {
	Type string       `json:"type"`
	Text *TextContent `json:"text,omitempty"`
}

// TextContent holds the text value of a "text" content item.
type TextContent struct {
	Value string `json:"value"`
}

// AssistantReply is the decoded JSON result produced by the assistant.
type AssistantReply = json.RawMessage
