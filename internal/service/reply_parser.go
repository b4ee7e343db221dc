package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"ocrbridge/internal/domain"
)

// ParseReply extracts the JSON result from the first assistant message in
// messages. Later assistant messages are ignored.
func ParseReply(messages []domain.ThreadMessage) (domain.AssistantReply, error) {
	if len(messages) == 0 {
		return nil, domain.ErrNoReply
	}

	for i := range messages {
		if messages[i].Role != domain.RoleAssistant {
			continue
		}
		text, err := replyText(&messages[i])
		if err != nil {
			return nil, err
		}
		return DecodeReply(CleanReplyText(text))
	}

	return nil, fmt.Errorf("%w: thread has no assistant message", domain.ErrNoReply)
}

func replyText(msg *domain.ThreadMessage) (string, error) {
	if len(msg.Content) == 0 {
		return "", fmt.Errorf("%w: message %s has no content", domain.ErrMalformedReply, msg.ID)
	}
	first := msg.Content[0]
	if first.Type != "text" || first.Text == nil {
		return "", fmt.Errorf("%w: first content item is %q, not text", domain.ErrMalformedReply, first.Type)
	}
	return first.Text.Value, nil
}

// CleanReplyText strips Markdown code-fence markers and surrounding whitespace.
func CleanReplyText(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// DecodeReply decodes cleaned reply text. A JSON array yields its first element.
func DecodeReply(cleaned string) (domain.AssistantReply, error) {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &domain.JSONDecodeError{Err: err, Cleaned: cleaned}
	}

	if !bytes.HasPrefix(raw, []byte("[")) {
		return raw, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &domain.JSONDecodeError{Err: err, Cleaned: cleaned}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: reply is an empty array", domain.ErrMalformedReply)
	}
	return items[0], nil
}
