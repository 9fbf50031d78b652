// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func payloadStrings(frames [][]byte) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = string(f)
	}
	return out
}

// =============================================================================
// WHOLE-BODY FRAMING TESTS
// =============================================================================

func TestSplitFrames(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "two frames",
			body: "data: {\"a\":1}\n\ndata: [DONE]\n\n",
			want: []string{`{"a":1}`, "[DONE]"},
		},
		{
			name: "crlf delimiters",
			body: "data: one\r\n\r\ndata: two\r\n\r\n",
			want: []string{"one", "two"},
		},
		{
			name: "no space after marker",
			body: "data:tight\n\n",
			want: []string{"tight"},
		},
		{
			name: "only one space is stripped",
			body: "data:   padded\n\n",
			want: []string{"  padded"},
		},
		{
			name: "multi-line data",
			body: "data: line1\ndata: line2\n\n",
			want: []string{"line1\nline2"},
		},
		{
			name: "other fields ignored",
			body: ": keep-alive\n\nevent: message\nid: 7\nretry: 100\ndata: x\n\n",
			want: []string{"x"},
		},
		{
			name: "trailing frame without delimiter",
			body: "data: a\n\ndata: b",
			want: []string{"a", "b"},
		},
		{
			name: "leading blank lines",
			body: "\n\n\n\ndata: a\n\n",
			want: []string{"a"},
		},
		{
			name: "empty body",
			body: "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := payloadStrings(SplitFrames(tt.body))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitFrames(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

// =============================================================================
// INCREMENTAL FRAMING TESTS
// =============================================================================

func TestFrameDecoder_ByteAtATime(t *testing.T) {
	body := "data: {\"type\":\"text-delta\",\"content\":\"Hi\"}\r\n\r\n: ping\n\ndata: a\ndata: b\n\ndata: [DONE]\n\n"

	d := NewFrameDecoder()
	var got []string
	for i := 0; i < len(body); i++ {
		got = append(got, payloadStrings(d.Feed([]byte{body[i]}))...)
	}
	got = append(got, payloadStrings(d.Flush())...)

	want := payloadStrings(SplitFrames(body))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("byte-at-a-time = %q, want %q", got, want)
	}
	if len(want) != 3 {
		t.Errorf("expected 3 frames, got %d", len(want))
	}
}

func TestFrameDecoder_PartialFrameCarriedForward(t *testing.T) {
	d := NewFrameDecoder()

	if got := d.Feed([]byte("data: hel")); len(got) != 0 {
		t.Fatalf("incomplete frame emitted: %q", got)
	}
	got := payloadStrings(d.Feed([]byte("lo\n\ndata: next")))
	if !reflect.DeepEqual(got, []string{"hello"}) {
		t.Errorf("got %q, want [hello]", got)
	}
	got = payloadStrings(d.Flush())
	if !reflect.DeepEqual(got, []string{"next"}) {
		t.Errorf("flush got %q, want [next]", got)
	}
	if got := d.Flush(); len(got) != 0 {
		t.Errorf("second flush returned %q", got)
	}
}

func TestFrameDecoder_DiscardsOversizedFrame(t *testing.T) {
	body := "data: " + strings.Repeat("a", MaxFrameSize+10) + "\n\ndata: ok\n\n"

	whole := NewFrameDecoder()
	got := payloadStrings(append(whole.Feed([]byte(body)), whole.Flush()...))
	if !reflect.DeepEqual(got, []string{"ok"}) {
		t.Errorf("whole body got %d frames, want only ok", len(got))
	}
	if whole.Discarded() != 1 {
		t.Errorf("whole body discarded = %d, want 1", whole.Discarded())
	}

	chunked := NewFrameDecoder()
	got = nil
	const chunk = 64 * 1024
	for i := 0; i < len(body); i += chunk {
		end := i + chunk
		if end > len(body) {
			end = len(body)
		}
		got = append(got, payloadStrings(chunked.Feed([]byte(body[i:end])))...)
	}
	got = append(got, payloadStrings(chunked.Flush())...)
	if !reflect.DeepEqual(got, []string{"ok"}) {
		t.Errorf("chunked got %q, want [ok]", got)
	}
	if chunked.Discarded() != 1 {
		t.Errorf("chunked discarded = %d, want 1", chunked.Discarded())
	}
}

func TestProperty_ChunkingMatchesWholeBody(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("any chunking yields the whole-body frames", prop.ForAll(
		func(payloads []string, cuts []int, crlf bool) bool {
			nl := "\n"
			if crlf {
				nl = "\r\n"
			}
			var sb strings.Builder
			for _, p := range payloads {
				sb.WriteString("data: " + p + nl + nl)
			}
			body := sb.String()

			d := NewFrameDecoder()
			got := []string{}
			pos := 0
			for _, c := range cuts {
				if pos >= len(body) {
					break
				}
				end := pos + c
				if end > len(body) {
					end = len(body)
				}
				got = append(got, payloadStrings(d.Feed([]byte(body[pos:end])))...)
				pos = end
			}
			if pos < len(body) {
				got = append(got, payloadStrings(d.Feed([]byte(body[pos:])))...)
			}
			got = append(got, payloadStrings(d.Flush())...)

			want := payloadStrings(SplitFrames(body))
			if len(want) != len(payloads) {
				return false
			}
			return reflect.DeepEqual(got, want)
		},
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.IntRange(1, 7)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
