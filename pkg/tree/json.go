package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MaxDepth limits the nesting depth accepted by DecodeJSON.
const MaxDepth = 256

// Decoding errors.
var (
	ErrInvalidTree      = errors.New("tree: value is neither a string, an object nor null")
	ErrNullEntry        = errors.New("tree: entry value must not be null")
	ErrMaxDepthExceeded = errors.New("tree: maximum nesting depth exceeded")
)

type wireNode struct {
	Hash        Hash                `json:"hash"`
	Tag         string              `json:"tag,omitempty"`
	AttrsHash   Hash                `json:"attrsHash"`
	Attrs       map[string]wireAttr `json:"attrs"`
	EntriesHash Hash                `json:"entriesHash"`
	Entries     []wireEntry         `json:"entries"`
}

// wireAttr accepts two attribute layouts. The current one carries the
// payload under "value" and a boolean "event" flag. The older one marks
// handlers with "handler": true and carries the payload under "event".
type wireAttr struct {
	Hash            Hash            `json:"hash"`
	Event           json.RawMessage `json:"event,omitempty"`
	Handler         bool            `json:"handler,omitempty"`
	Value           json.RawMessage `json:"value,omitempty"`
	PreventDefault  bool            `json:"preventDefault,omitempty"`
	StopPropagation bool            `json:"stopPropagation,omitempty"`
}

type wireEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// DecodeJSON decodes producer markup. JSON null decodes to a nil Tree, the
// "not yet" sentinel.
func DecodeJSON(data []byte) (Tree, error) {
	return decodeJSON(data, 0)
}

func decodeJSON(data []byte, depth int) (Tree, error) {
	if depth > MaxDepth {
		return nil, ErrMaxDepthExceeded
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrInvalidTree
	}

	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return nil, ErrInvalidTree
		}
		return nil, nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("tree: decode leaf: %w", err)
		}
		return Leaf(s), nil
	case '{':
		var w wireNode
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("tree: decode node: %w", err)
		}
		return w.toNode(depth)
	default:
		return nil, ErrInvalidTree
	}
}

func (w *wireNode) toNode(depth int) (*Node, error) {
	n := &Node{
		Hash:        w.Hash,
		Tag:         w.Tag,
		AttrsHash:   w.AttrsHash,
		EntriesHash: w.EntriesHash,
	}

	if len(w.Attrs) > 0 {
		n.Attrs = make(map[string]Attribute, len(w.Attrs))
		for name, wa := range w.Attrs {
			a, err := wa.toAttribute()
			if err != nil {
				return nil, fmt.Errorf("tree: attribute %q: %w", name, err)
			}
			n.Attrs[name] = a
		}
	}

	if len(w.Entries) > 0 {
		n.Entries = make([]Entry, len(w.Entries))
		for i, we := range w.Entries {
			child, err := decodeJSON(we.Value, depth+1)
			if err != nil {
				return nil, err
			}
			if child == nil {
				return nil, fmt.Errorf("%w (key %q)", ErrNullEntry, we.Key)
			}
			n.Entries[i] = Entry{Key: we.Key, Value: child}
		}
	}

	return n, nil
}

func (w *wireAttr) toAttribute() (Attribute, error) {
	a := Attribute{
		Hash:            w.Hash,
		PreventDefault:  w.PreventDefault,
		StopPropagation: w.StopPropagation,
	}

	switch {
	case w.Handler:
		a.Event = true
		return a, unmarshalOpaque(w.Event, &a.Value)
	case w.Value != nil || isBool(w.Event):
		// A missing value is an undefined payload, not the legacy layout.
		if len(w.Event) > 0 {
			if err := json.Unmarshal(w.Event, &a.Event); err != nil {
				return a, err
			}
		}
		return a, unmarshalOpaque(w.Value, &a.Value)
	default:
		return a, unmarshalOpaque(w.Event, &a.Value)
	}
}

func isBool(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return bytes.Equal(b, []byte("true")) || bytes.Equal(b, []byte("false"))
}

func unmarshalOpaque(raw json.RawMessage, v *any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// EncodeJSON encodes t in the current markup layout. A nil Tree encodes as
// null.
func EncodeJSON(t Tree) ([]byte, error) {
	w, err := toWire(t)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func toWire(t Tree) (any, error) {
	switch v := t.(type) {
	case nil:
		return nil, nil
	case Leaf:
		return string(v), nil
	case *Node:
		w := wireNode{
			Hash:        v.Hash,
			Tag:         v.Tag,
			AttrsHash:   v.AttrsHash,
			EntriesHash: v.EntriesHash,
			Attrs:       make(map[string]wireAttr, len(v.Attrs)),
			Entries:     make([]wireEntry, 0, len(v.Entries)),
		}
		for name, a := range v.Attrs {
			value, err := json.Marshal(a.Value)
			if err != nil {
				return nil, fmt.Errorf("tree: encode attribute %q: %w", name, err)
			}
			event, _ := json.Marshal(a.Event)
			w.Attrs[name] = wireAttr{
				Hash:            a.Hash,
				Event:           event,
				Value:           value,
				PreventDefault:  a.PreventDefault,
				StopPropagation: a.StopPropagation,
			}
		}
		for _, e := range v.Entries {
			if e.Value == nil {
				return nil, fmt.Errorf("%w (key %q)", ErrNullEntry, e.Key)
			}
			child, err := toWire(e.Value)
			if err != nil {
				return nil, err
			}
			raw, err := json.Marshal(child)
			if err != nil {
				return nil, err
			}
			w.Entries = append(w.Entries, wireEntry{Key: e.Key, Value: raw})
		}
		return w, nil
	default:
		return nil, fmt.Errorf("tree: unsupported tree type %T", t)
	}
}
