// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package uistate

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// directiveFor maps a generated (code, text) pair onto a directive. Button
// ids are drawn from a tiny pool so hides and updates hit existing buttons.
func directiveFor(code int, text string) Directive {
	id := fmt.Sprintf("b%d", len(text)%3)
	switch code % 9 {
	case 0:
		return ShowContent{Text: Ptr(text)}
	case 1:
		return UpdateContent{Visible: Ptr(len(text)%2 == 0)}
	case 2:
		return HideContent{}
	case 3:
		d := ShowUpload{Multiple: Ptr(code%2 == 0)}
		if text != "" {
			d.Accept = []string{text + "/*"}
		}
		return d
	case 4:
		return CancelUpload{}
	case 5:
		return ShowButton{ButtonID: id, Label: text, Action: "act-" + text}
	case 6:
		return HideButton{ButtonID: id}
	case 7:
		return UpdateButton{ButtonID: id, Enabled: Ptr(false)}
	default:
		return UnknownDirective{Name: "x-" + text}
	}
}

func directivesFor(codes []int, texts []string) []Directive {
	out := make([]Directive, 0, len(codes))
	for i, code := range codes {
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		out = append(out, directiveFor(code, text))
	}
	return out
}

func newPropertyManager() *Manager {
	return NewManager(DefaultConfig())
}

func newProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	return gopter.NewProperties(parameters)
}

func TestProperty_DispatchMatchesDirectApply(t *testing.T) {
	properties := newProperties()

	properties.Property("ProcessMessage and ApplyDirective agree", prop.ForAll(
		func(codes []int, texts []string) bool {
			viaMessage := newPropertyManager()
			direct := newPropertyManager()
			for _, d := range directivesFor(codes, texts) {
				viaMessage.ProcessMessage(NewDirective(d))
				direct.ApplyDirective(d)
			}
			return viaMessage.State().Equal(direct.State())
		},
		gen.SliceOf(gen.IntRange(0, 8)),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

func TestProperty_WireRoundTripApplies(t *testing.T) {
	properties := newProperties()

	properties.Property("encoded directives apply like the originals", prop.ForAll(
		func(codes []int, texts []string) bool {
			viaWire := newPropertyManager()
			direct := newPropertyManager()
			for _, d := range directivesFor(codes, texts) {
				data, err := EncodeMessage(NewDirective(d))
				if err != nil {
					return false
				}
				msg, err := DecodeMessage(data)
				if err != nil {
					return false
				}
				viaWire.ProcessMessage(msg)
				direct.ApplyDirective(d)
			}
			return viaWire.State().Equal(direct.State())
		},
		gen.SliceOf(gen.IntRange(0, 8)),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

func TestProperty_ResetRestoresInitial(t *testing.T) {
	properties := newProperties()

	properties.Property("reset after any sequence yields the initial state", prop.ForAll(
		func(codes []int, texts []string) bool {
			m := newPropertyManager()
			for _, d := range directivesFor(codes, texts) {
				m.ApplyDirective(d)
			}
			m.Reset()
			return m.State().Equal(Initial())
		},
		gen.SliceOf(gen.IntRange(0, 8)),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

func TestProperty_SnapshotShapesAgree(t *testing.T) {
	properties := newProperties()

	properties.Property("flat and ui-nested snapshots restore the same state", prop.ForAll(
		func(codes []int, texts []string) bool {
			src := newPropertyManager()
			for _, d := range directivesFor(codes, texts) {
				src.ApplyDirective(d)
			}
			want := src.State()
			raw, err := json.Marshal(want)
			if err != nil {
				return false
			}

			flat := newPropertyManager()
			flat.ApplySnapshot(SnapshotMessage{State: raw})
			nested := newPropertyManager()
			nested.ApplySnapshot(SnapshotMessage{State: []byte(`{"ui":` + string(raw) + `}`)})

			return flat.State().Equal(want) && nested.State().Equal(want)
		},
		gen.SliceOf(gen.IntRange(0, 8)),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

func TestProperty_UIPrefixIsTransparent(t *testing.T) {
	properties := newProperties()
	paths := []string{"/content/text", "/content/visible", "/mediaUpload/visible", "/mediaUpload/label", "/buttons/x"}

	properties.Property("paths with and without the ui prefix apply identically", prop.ForAll(
		func(pathIdx int, text string, flag bool) bool {
			path := paths[pathIdx]
			var value any = text
			switch path {
			case "/content/visible", "/mediaUpload/visible":
				value = flag
			case "/buttons/x":
				value = map[string]any{"visible": flag, "label": text}
			}

			plain := newPropertyManager()
			plain.ApplyDelta(DeltaMessage{Patch: []PatchOp{{Op: OpReplace, Path: path, Value: value}}})
			prefixed := newPropertyManager()
			prefixed.ApplyDelta(DeltaMessage{Patch: []PatchOp{{Op: OpReplace, Path: "/ui" + path, Value: value}}})

			return plain.State().Equal(prefixed.State())
		},
		gen.IntRange(0, len(paths)-1),
		gen.AlphaString(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
