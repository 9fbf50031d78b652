// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnRequest is the body of POST /chat.
type TurnRequest struct {
	SessionID string    `json:"sessionId"`
	TurnID    string    `json:"turnId"`
	Messages  []Message `json:"messages"`
}

// StreamTurn starts a turn and returns the event stream body. The caller
// must close it. Retries only happen before the stream starts; once a 200
// arrives the body is handed over as is.
func (c *Client) StreamTurn(ctx context.Context, turn TurnRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(turn)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, c.streamClient, func() (*http.Request, error) {
		req, err := c.newRequest(ctx, http.MethodPost, "/chat", bytes.NewReader(payload), "application/json")
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Cache-Control", "no-cache")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
