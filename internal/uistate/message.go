// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package uistate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// MessageType is the `type` tag of a protocol message.
type MessageType string

const (
	TypeDirective MessageType = "ui-directive"
	TypeSnapshot  MessageType = "state-snapshot"
	TypeDelta     MessageType = "state-delta"
)

// PatchOpKind is a JSON-Patch style operation name.
type PatchOpKind string

const (
	OpAdd     PatchOpKind = "add"
	OpRemove  PatchOpKind = "remove"
	OpReplace PatchOpKind = "replace"
	OpMove    PatchOpKind = "move"
	OpCopy    PatchOpKind = "copy"
	OpTest    PatchOpKind = "test"
)

// ErrUnknownMessageType is returned by DecodeMessage for a type tag that is
// not one of the three UI message types.
var ErrUnknownMessageType = errors.New("unknown ui message type")

// Message is one of DirectiveMessage, SnapshotMessage or DeltaMessage.
type Message interface {
	MessageType() MessageType
}

// DirectiveMessage carries one imperative directive.
type DirectiveMessage struct {
	Component string
	Directive Directive
}

// SnapshotMessage replaces the whole state. State is either the UIState
// object itself or an object nesting it under a "ui" key.
type SnapshotMessage struct {
	State json.RawMessage
}

// DeltaMessage is an ordered batch of patch operations.
type DeltaMessage struct {
	Patch []PatchOp
}

// PatchOp is one path-addressed operation. From is decoded for move/copy
// but the manager does not read it.
type PatchOp struct {
	Op    PatchOpKind `json:"op"`
	Path  string      `json:"path"`
	From  string      `json:"from,omitempty"`
	Value any         `json:"value,omitempty"`
}

func (DirectiveMessage) MessageType() MessageType { return TypeDirective }
func (SnapshotMessage) MessageType() MessageType  { return TypeSnapshot }
func (DeltaMessage) MessageType() MessageType     { return TypeDelta }

// NewDirective wraps a directive as a message.
func NewDirective(d Directive) DirectiveMessage {
	return DirectiveMessage{Directive: d}
}

// NewSnapshot builds a snapshot message from a typed state.
func NewSnapshot(s UIState) SnapshotMessage {
	data, _ := json.Marshal(s)
	return SnapshotMessage{State: data}
}

// =============================================================================
// WIRE CODEC
// =============================================================================

// envelope is the union of every field the three message shapes use.
type envelope struct {
	Type      MessageType     `json:"type"`
	Action    string          `json:"action,omitempty"`
	Component string          `json:"component,omitempty"`
	Props     *wireProps      `json:"props,omitempty"`
	State     json.RawMessage `json:"state,omitempty"`
	Patch     []PatchOp       `json:"patch,omitempty"`
}

// IsUIMessageType reports whether t names a message the manager consumes.
func IsUIMessageType(t string) bool {
	switch MessageType(t) {
	case TypeDirective, TypeSnapshot, TypeDelta:
		return true
	}
	return false
}

// DecodeMessage decodes one JSON payload into a typed message.
func DecodeMessage(data []byte) (Message, error) {
	// Props are read separately so one malformed key cannot fail the
	// whole message.
	var env struct {
		envelope
		Props json.RawMessage `json:"props"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode ui message: %w", err)
	}

	switch env.Type {
	case TypeDirective:
		return DirectiveMessage{
			Component: env.Component,
			Directive: directiveFromProps(env.Action, decodeProps(env.Props)),
		}, nil
	case TypeSnapshot:
		return SnapshotMessage{State: env.State}, nil
	case TypeDelta:
		return DeltaMessage{Patch: env.Patch}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
}

// EncodeMessage produces the wire form of msg.
func EncodeMessage(msg Message) ([]byte, error) {
	env := envelope{}
	switch m := msg.(type) {
	case DirectiveMessage:
		if m.Directive == nil {
			return nil, errors.New("encode ui message: directive is nil")
		}
		env.Type = TypeDirective
		env.Action = m.Directive.ActionName()
		env.Component = m.Component
		if props, ok := propsFromDirective(m.Directive); ok {
			env.Props = &props
		}
	case SnapshotMessage:
		env.Type = TypeSnapshot
		env.State = m.State
	case DeltaMessage:
		env.Type = TypeDelta
		env.Patch = m.Patch
		if env.Patch == nil {
			env.Patch = []PatchOp{}
		}
	default:
		return nil, fmt.Errorf("encode ui message: unsupported %T", msg)
	}
	return json.Marshal(env)
}

// acceptList is `accept` on the wire: a single type is sent as a bare
// string, several as an array.
type acceptList []string

func (a acceptList) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

// decodeProps reads the props bag leniently. Values are weakly coerced
// ("false" becomes false, a bare string becomes a one-element accept list)
// and a key whose value still does not fit is skipped.
func decodeProps(raw json.RawMessage) wireProps {
	var p wireProps
	var bag map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &bag) != nil {
		return p
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return p
	}
	for key, value := range bag {
		// Decoding key by key keeps a bad value from discarding the rest.
		_ = dec.Decode(map[string]any{key: value})
	}

	accept := p.Accept[:0]
	for _, t := range p.Accept {
		if t != "" {
			accept = append(accept, t)
		}
	}
	if len(accept) == 0 {
		accept = nil
	}
	p.Accept = accept
	return p
}
