// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package uistate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gowebpki/jcs"
	"github.com/mitchellh/mapstructure"
)

// namespaceSegment is the optional leading path segment (and snapshot key)
// used by agents that nest the UI state under a namespace.
const namespaceSegment = "ui"

// Diagnostic reports a non-fatal problem found while applying a delta.
type Diagnostic struct {
	Op       PatchOpKind
	Path     string
	Message  string
	Expected any
	Actual   any
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Op, d.Path, d.Message)
}

// =============================================================================
// PATHS
// =============================================================================

// normalizePath splits a slash path into segments, drops empty ones and
// strips a leading "ui" namespace. "~1" and "~0" escapes are decoded.
func normalizePath(path string) []string {
	raw := strings.Split(path, "/")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		if s == "" {
			continue
		}
		s = strings.ReplaceAll(s, "~1", "/")
		s = strings.ReplaceAll(s, "~0", "~")
		segs = append(segs, s)
	}
	if len(segs) > 0 && segs[0] == namespaceSegment {
		segs = segs[1:]
	}
	return segs
}

// =============================================================================
// TREE CONVERSION
// =============================================================================

// toTree converts a typed state into a generic JSON tree. The tree shares
// nothing with s, so it is also the deep copy deltas are applied to.
func toTree(s UIState) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// fromTree decodes a generic tree into a fresh UIState.
func fromTree(tree map[string]any) (UIState, error) {
	var out UIState
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return UIState{}, err
	}
	if err := dec.Decode(tree); err != nil {
		return UIState{}, fmt.Errorf("decode ui state: %w", err)
	}
	if out.Buttons == nil {
		out.Buttons = map[string]ButtonState{}
	}
	return out, nil
}

// =============================================================================
// OPERATIONS
// =============================================================================

// applyPatch applies ops in order to tree and returns the resulting tree and
// any diagnostics. It never aborts early.
func applyPatch(tree map[string]any, ops []PatchOp) (map[string]any, []Diagnostic) {
	var diags []Diagnostic
	var root any = tree
	for _, op := range ops {
		segs := normalizePath(op.Path)
		if len(segs) == 0 {
			diags = append(diags, Diagnostic{Op: op.Op, Path: op.Path, Message: "empty path ignored"})
			continue
		}
		var diag *Diagnostic
		root = applyAt(root, segs, op, &diag)
		if diag != nil {
			diags = append(diags, *diag)
		}
	}
	out, _ := root.(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out, diags
}

// applyAt descends node along segs and applies op at the last segment,
// returning the (possibly replaced) node. Missing or non-container
// intermediates are replaced by empty objects.
func applyAt(node any, segs []string, op PatchOp, diag **Diagnostic) any {
	key := segs[0]
	if len(segs) == 1 {
		return applyLeaf(node, key, op, diag)
	}

	switch n := node.(type) {
	case map[string]any:
		child, ok := n[key]
		if !ok && op.Op == OpTest {
			testValue(nil, false, op, diag)
			return n
		}
		n[key] = applyAt(child, segs[1:], op, diag)
		return n
	case []any:
		idx, ok := sliceIndex(key, len(n), false)
		if !ok {
			*diag = &Diagnostic{Op: op.Op, Path: op.Path, Message: "array index out of range"}
			return n
		}
		n[idx] = applyAt(n[idx], segs[1:], op, diag)
		return n
	default:
		// test never creates containers
		if op.Op == OpTest {
			testValue(nil, false, op, diag)
			return node
		}
		m := map[string]any{}
		m[key] = applyAt(nil, segs[1:], op, diag)
		return m
	}
}

func applyLeaf(node any, key string, op PatchOp, diag **Diagnostic) any {
	switch n := node.(type) {
	case map[string]any:
		switch op.Op {
		case OpAdd, OpReplace, OpMove, OpCopy:
			// move and copy do not read op.From: the value travels in the
			// message, so both are a plain replace. This is looser than
			// RFC 6902.
			n[key] = op.Value
		case OpRemove:
			delete(n, key)
		case OpTest:
			current, ok := n[key]
			testValue(current, ok, op, diag)
		default:
			*diag = &Diagnostic{Op: op.Op, Path: op.Path, Message: "unsupported op ignored"}
		}
		return n
	case []any:
		return applySliceLeaf(n, key, op, diag)
	default:
		if op.Op == OpTest {
			testValue(nil, false, op, diag)
			return node
		}
		return applyLeaf(map[string]any{}, key, op, diag)
	}
}

func applySliceLeaf(n []any, key string, op PatchOp, diag **Diagnostic) any {
	switch op.Op {
	case OpAdd:
		idx, ok := sliceIndex(key, len(n), true)
		if !ok {
			*diag = &Diagnostic{Op: op.Op, Path: op.Path, Message: "array index out of range"}
			return n
		}
		n = append(n, nil)
		copy(n[idx+1:], n[idx:])
		n[idx] = op.Value
		return n
	case OpReplace, OpMove, OpCopy:
		idx, ok := sliceIndex(key, len(n), true)
		if !ok {
			*diag = &Diagnostic{Op: op.Op, Path: op.Path, Message: "array index out of range"}
			return n
		}
		if idx == len(n) {
			return append(n, op.Value)
		}
		n[idx] = op.Value
		return n
	case OpRemove:
		idx, ok := sliceIndex(key, len(n), false)
		if !ok {
			*diag = &Diagnostic{Op: op.Op, Path: op.Path, Message: "array index out of range"}
			return n
		}
		return append(n[:idx], n[idx+1:]...)
	case OpTest:
		idx, ok := sliceIndex(key, len(n), false)
		var current any
		if ok {
			current = n[idx]
		}
		testValue(current, ok, op, diag)
		return n
	}
	*diag = &Diagnostic{Op: op.Op, Path: op.Path, Message: "unsupported op ignored"}
	return n
}

// sliceIndex parses an array segment. "-" addresses one past the end and is
// only valid when allowEnd is set.
func sliceIndex(seg string, length int, allowEnd bool) (int, bool) {
	if seg == "-" {
		return length, allowEnd
	}
	idx, err := strconv.Atoi(seg)
	if err != nil || idx < 0 {
		return 0, false
	}
	if idx < length || (allowEnd && idx == length) {
		return idx, true
	}
	return 0, false
}

// testValue records a diagnostic when current differs from op.Value.
// A failed test does not stop the batch, which is looser than RFC 6902.
func testValue(current any, present bool, op PatchOp, diag **Diagnostic) {
	if present && jsonEqual(current, op.Value) {
		return
	}
	msg := "test failed: value mismatch"
	if !present {
		msg = "test failed: path not found"
	}
	*diag = &Diagnostic{Op: op.Op, Path: op.Path, Message: msg, Expected: op.Value, Actual: current}
}

// jsonEqual compares two values by their RFC 8785 canonical encoding, so key
// order and number formatting do not matter.
func jsonEqual(a, b any) bool {
	ca, err := canonical(a)
	if err != nil {
		return false
	}
	cb, err := canonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

func canonical(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(data)
}
