package port

import (
	"context"

	"ocrbridge/internal/domain"
)

// AssistantClient abstracts a remote conversational assistant that works on
// threads and runs.
type AssistantClient interface {
	// Submit opens a new thread, posts text as a single user message and
	// starts one run against the configured assistant.
	Submit(ctx context.Context, text string) (domain.RunHandle, error)
	RunStatus(ctx context.Context, handle domain.RunHandle) (domain.RunStatus, error)
	ListMessages(ctx context.Context, threadID string) ([]domain.ThreadMessage, error)
}
