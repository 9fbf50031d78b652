// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agent is the HTTP transport to the agent backend.
//
// The agent exposes four endpoints under one base URL:
//
//	POST /chat     start a turn, answered with an event stream
//	POST /upload   multipart file upload
//	POST /action   a user interaction with the agent's UI
//	GET  /health   liveness
//
// Requests carry the API key as a bearer token. Connection errors and 5xx
// responses are retried with exponential backoff (500ms doubling, capped at
// 10s) before a stream starts. Client errors are returned at once as
// *APIError, which unwraps to ErrUnauthorized, ErrRateLimited, ErrNotFound or
// ErrFileTooLarge where the status maps to one. Outgoing requests are paced
// by a token bucket sized from requests_per_minute.
//
// # Usage
//
//	client := agent.NewClient(cfg.Agent, logger)
//	body, err := client.StreamTurn(ctx, agent.TurnRequest{
//	    SessionID: sid,
//	    TurnID:    tid,
//	    Messages:  []agent.Message{{Role: agent.RoleUser, Content: "hi"}},
//	})
//	if err != nil {
//	    return err
//	}
//	defer body.Close()
package agent
