// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bytes"
)

// =============================================================================
// FRAMING CONSTANTS
// =============================================================================

// MaxFrameSize is the largest frame the decoder will buffer (1MB). Larger
// frames are discarded whole.
const MaxFrameSize = 1 << 20

var (
	frameDelimiter = []byte("\n\n")
	dataField      = []byte("data:")
)

// =============================================================================
// FRAME DECODER
// =============================================================================

// FrameDecoder splits an event stream into frame payloads. Chunks may split
// frames (and line endings) anywhere; incomplete frames are carried forward
// to the next Feed.
type FrameDecoder struct {
	buf       []byte
	skipping  bool
	discarded int
}

// NewFrameDecoder creates an empty decoder.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{}
}

// Feed appends chunk and returns the payloads of every frame it completed.
func (d *FrameDecoder) Feed(chunk []byte) [][]byte {
	// CR never appears inside a valid JSON payload, so dropping it turns
	// CRLF framing into LF framing regardless of where chunks split.
	d.buf = append(d.buf, bytes.ReplaceAll(chunk, []byte("\r"), nil)...)

	var payloads [][]byte
	off := 0
	for {
		idx := bytes.Index(d.buf[off:], frameDelimiter)
		if idx < 0 {
			break
		}
		frame := d.buf[off : off+idx]
		off += idx + len(frameDelimiter)

		if d.skipping {
			d.skipping = false
			continue
		}
		if p, ok := d.payload(frame); ok {
			payloads = append(payloads, p)
		}
	}

	rest := d.buf[off:]
	if !d.skipping && len(rest) > MaxFrameSize {
		d.discarded++
		d.skipping = true
	}
	if d.skipping {
		// keep a trailing newline: it may be half of the delimiter
		if n := len(rest); n > 0 && rest[n-1] == '\n' {
			rest = rest[n-1:]
		} else {
			rest = nil
		}
	}
	d.buf = append([]byte(nil), rest...)
	return payloads
}

// Flush returns the payload of a trailing frame that never saw its
// delimiter, if it has one, and clears the decoder.
func (d *FrameDecoder) Flush() [][]byte {
	rest, skipping := d.buf, d.skipping
	d.buf, d.skipping = nil, false
	if skipping || len(bytes.TrimSpace(rest)) == 0 {
		return nil
	}
	if p, ok := d.payload(rest); ok {
		return [][]byte{p}
	}
	return nil
}

// Discarded returns how many oversized frames were dropped.
func (d *FrameDecoder) Discarded() int {
	return d.discarded
}

func (d *FrameDecoder) payload(frame []byte) ([]byte, bool) {
	if len(frame) > MaxFrameSize {
		d.discarded++
		return nil, false
	}
	return parseFrame(frame)
}

// SplitFrames returns the frame payloads of a complete body. It gives the
// same result as feeding the body in any number of chunks and flushing.
func SplitFrames(body string) [][]byte {
	d := NewFrameDecoder()
	payloads := d.Feed([]byte(body))
	return append(payloads, d.Flush()...)
}

// parseFrame joins the frame's data lines. Frames without data (keep-alive
// comments, bare event names) report false.
func parseFrame(frame []byte) ([]byte, bool) {
	var lines [][]byte
	for _, line := range bytes.Split(frame, []byte("\n")) {
		if !bytes.HasPrefix(line, dataField) {
			// event:, id:, retry: and ":" comments carry nothing we use
			continue
		}
		value := line[len(dataField):]
		if len(value) > 0 && value[0] == ' ' {
			value = value[1:]
		}
		lines = append(lines, value)
	}
	if len(lines) == 0 {
		return nil, false
	}
	return bytes.Join(lines, []byte("\n")), true
}
