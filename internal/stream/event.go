// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/agentui/internal/uistate"
)

// DoneSentinel is the payload that ends a stream.
const DoneSentinel = "[DONE]"

// Non-UI event types.
const (
	TypeTextDelta        = "text-delta"
	TypeResponseMessages = "response-messages"
	TypeError            = "error"
)

// ErrMalformedFrame is returned by DecodeEvent for payloads that are not
// JSON or carry an unknown type.
var ErrMalformedFrame = errors.New("malformed frame")

// =============================================================================
// EVENT TYPES
// =============================================================================

// Event is one decoded frame.
type Event interface {
	eventKind() string
}

// DoneEvent marks the end of the stream.
type DoneEvent struct{}

// UIEvent carries a message for the UI state manager.
type UIEvent struct {
	Message uistate.Message
}

// TextDeltaEvent is an increment of the assistant reply.
type TextDeltaEvent struct {
	Content string
}

// ResponseMessagesEvent carries the authoritative final reply. HasText is
// false when no text could be extracted.
type ResponseMessagesEvent struct {
	Text    string
	HasText bool
}

// ErrorEvent is a terminal failure reported by the agent.
type ErrorEvent struct {
	Content string
}

func (DoneEvent) eventKind() string             { return DoneSentinel }
func (e UIEvent) eventKind() string             { return string(e.Message.MessageType()) }
func (TextDeltaEvent) eventKind() string        { return TypeTextDelta }
func (ResponseMessagesEvent) eventKind() string { return TypeResponseMessages }
func (ErrorEvent) eventKind() string            { return TypeError }

// =============================================================================
// DECODING
// =============================================================================

type rawEvent struct {
	Type     string `json:"type"`
	Content  any    `json:"content"`
	Error    string `json:"error"`
	Messages []struct {
		Content any `json:"content"`
	} `json:"messages"`
}

// DecodeEvent decodes one frame payload.
func DecodeEvent(payload []byte) (Event, error) {
	payload = bytes.TrimSpace(payload)
	if string(payload) == DoneSentinel {
		return DoneEvent{}, nil
	}

	var raw rawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	if uistate.IsUIMessageType(raw.Type) {
		msg, err := uistate.DecodeMessage(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		return UIEvent{Message: msg}, nil
	}

	switch raw.Type {
	case TypeTextDelta:
		s, ok := raw.Content.(string)
		if !ok && raw.Content != nil {
			return nil, fmt.Errorf("%w: text-delta content is %T", ErrMalformedFrame, raw.Content)
		}
		return TextDeltaEvent{Content: s}, nil
	case TypeResponseMessages:
		if len(raw.Messages) == 0 {
			return ResponseMessagesEvent{}, nil
		}
		text, ok := extractText(raw.Messages[0].Content)
		return ResponseMessagesEvent{Text: text, HasText: ok}, nil
	case TypeError:
		msg, _ := extractText(raw.Content)
		if msg == "" {
			msg = raw.Error
		}
		return ErrorEvent{Content: msg}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedFrame, raw.Type)
}

// extractText pulls the text out of a message content value: a string, an
// object with text or content (nested to any depth), or an array of parts
// whose texts are concatenated.
func extractText(v any) (string, bool) {
	switch c := v.(type) {
	case string:
		return c, true
	case map[string]any:
		if t, ok := c["text"]; ok {
			return extractText(t)
		}
		if inner, ok := c["content"]; ok {
			return extractText(inner)
		}
	case []any:
		var sb strings.Builder
		found := false
		for _, part := range c {
			if obj, ok := part.(map[string]any); ok {
				if typ, _ := obj["type"].(string); typ != "" && typ != "text" {
					continue
				}
			}
			if s, ok := extractText(part); ok {
				sb.WriteString(s)
				found = true
			}
		}
		return sb.String(), found
	}
	return "", false
}
