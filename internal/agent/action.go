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

// ActionRequest is the body of POST /action: one user interaction with an
// agent-controlled widget.
type ActionRequest struct {
	SessionID string         `json:"sessionId"`
	Token     string         `json:"actionToken"`
	Data      map[string]any `json:"data,omitempty"`
}

// SendAction reports an interaction to the agent. Any 2xx response is
// success; the body is ignored.
func (c *Client) SendAction(ctx context.Context, action ActionRequest) error {
	if action.Token == "" {
		return fmt.Errorf("action token is required")
	}
	payload, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal action: %w", err)
	}

	resp, err := c.doWithRetry(ctx, c.httpClient, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, "/action", bytes.NewReader(payload), "application/json")
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
	return nil
}
