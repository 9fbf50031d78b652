// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream demultiplexes an agent's event stream.
//
// The agent answers a turn with Server-Sent-Events style frames: blank-line
// separated, each carrying a `data:` JSON payload, terminated by [DONE]. One
// stream interleaves reply text and UI messages. The Demux sends UI messages
// to a Processor (normally a *uistate.Manager) in arrival order and feeds
// reply text to a TextSink.
//
// # Key Types
//
//   - FrameDecoder: incremental frame splitting across arbitrary chunks
//   - Event: DoneEvent, UIEvent, TextDeltaEvent, ResponseMessagesEvent, ErrorEvent
//   - Demux: routes events for one turn (Run for live streams, ProcessBody
//     for complete bodies)
//   - TurnError: terminal failure carrying the partial reply
//
// # Usage
//
//	d := stream.New(manager, &stream.TextBuffer{}, logger)
//	res, err := d.Run(ctx, resp.Body)
//	var te *stream.TurnError
//	if errors.As(err, &te) {
//	    fmt.Println("partial:", te.Partial)
//	}
//
// Malformed frames are dropped and counted in Result.Dropped. They never end
// the turn.
package stream
