package service_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocrbridge/internal/domain"
	"ocrbridge/internal/service"
)

func assistantText(value string) domain.ThreadMessage {
	return domain.ThreadMessage{
		ID:   "msg_a",
		Role: domain.RoleAssistant,
		Content: []domain.MessageContent{
			{Type: "text", Text: &domain.TextContent{Value: value}},
		},
	}
}

func userText(value string) domain.ThreadMessage {
	return domain.ThreadMessage{
		ID:      "msg_u",
		Role:    domain.RoleUser,
		Content: []domain.MessageContent{{Type: "text", Text: &domain.TextContent{Value: value}}},
	}
}

func TestParseReply_FencedJSON(t *testing.T) {
	reply, err := service.ParseReply([]domain.ThreadMessage{assistantText("```json\n{\"a\":1}\n```")})

	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(reply))
}

func TestParseReply_ArrayYieldsFirstElement(t *testing.T) {
	reply, err := service.ParseReply([]domain.ThreadMessage{assistantText(`[{"a":1},{"b":2}]`)})

	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(reply))
}

func TestParseReply_PlainObject(t *testing.T) {
	reply, err := service.ParseReply([]domain.ThreadMessage{assistantText(`  {"invoice_id":"123"}  `)})

	require.NoError(t, err)
	assert.JSONEq(t, `{"invoice_id":"123"}`, string(reply))
}

func TestParseReply_SkipsUserMessages(t *testing.T) {
	msgs := []domain.ThreadMessage{
		userText("ACME Store"),
		assistantText(`{"first":true}`),
		assistantText(`{"second":true}`),
	}

	reply, err := service.ParseReply(msgs)

	require.NoError(t, err)
	assert.JSONEq(t, `{"first":true}`, string(reply))
}

func TestParseReply_OnlyFirstAssistantMessageExamined(t *testing.T) {
	msgs := []domain.ThreadMessage{
		assistantText("not json"),
		assistantText(`{"ok":true}`),
	}

	_, err := service.ParseReply(msgs)

	var decodeErr *domain.JSONDecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestParseReply_Empty(t *testing.T) {
	_, err := service.ParseReply(nil)
	assert.ErrorIs(t, err, domain.ErrNoReply)
}

func TestParseReply_NoAssistantMessage(t *testing.T) {
	_, err := service.ParseReply([]domain.ThreadMessage{userText("hello")})
	assert.ErrorIs(t, err, domain.ErrNoReply)
}

func TestParseReply_EmptyContent(t *testing.T) {
	_, err := service.ParseReply([]domain.ThreadMessage{{ID: "msg_a", Role: domain.RoleAssistant}})
	assert.ErrorIs(t, err, domain.ErrMalformedReply)
}

func TestParseReply_NonTextContent(t *testing.T) {
	msg := domain.ThreadMessage{
		ID:      "msg_a",
		Role:    domain.RoleAssistant,
		Content: []domain.MessageContent{{Type: "image_file"}},
	}

	_, err := service.ParseReply([]domain.ThreadMessage{msg})
	assert.ErrorIs(t, err, domain.ErrMalformedReply)
}

func TestParseReply_InvalidJSON(t *testing.T) {
	_, err := service.ParseReply([]domain.ThreadMessage{assistantText("```json\n{\"a\": }\n```")})

	var decodeErr *domain.JSONDecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, `{"a": }`, decodeErr.Cleaned)
	assert.Contains(t, err.Error(), "JSON decode error")
	assert.Contains(t, err.Error(), "invalid character")
}

func TestParseReply_EmptyArray(t *testing.T) {
	_, err := service.ParseReply([]domain.ThreadMessage{assistantText("[]")})
	assert.ErrorIs(t, err, domain.ErrMalformedReply)
}

func TestParseReply_ScalarReturnedAsIs(t *testing.T) {
	reply, err := service.ParseReply([]domain.ThreadMessage{assistantText(`"just text"`)})

	require.NoError(t, err)
	assert.Equal(t, `"just text"`, string(reply))
}

func TestCleanReplyText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"fence mid text", "Here:\n```json{\"a\":1}```", "Here:\n{\"a\":1}"},
		{"whitespace only", "  \n\t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.CleanReplyText(tt.in))
		})
	}
}
