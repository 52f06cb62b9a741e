package protocol

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vango-dev/treebridge/pkg/tree"
)

// Tree kinds.
const (
	kindLeaf byte = 0x00
	kindNode byte = 0x01
)

// Attribute flag bits.
const (
	attrEvent           byte = 0x01
	attrPreventDefault  byte = 0x02
	attrStopPropagation byte = 0x04
)

var (
	ErrInvalidTreeKind = errors.New("protocol: invalid tree kind")
	ErrNilTree         = errors.New("protocol: nil tree")
)

// EncodeTree encodes a tree. A nil tree is an error; the "not yet" sentinel
// travels as a FrameNotYet instead.
func EncodeTree(t tree.Tree) ([]byte, error) {
	e := NewEncoder()
	if err := EncodeTreeTo(e, t); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// EncodeTreeTo encodes a tree using the provided encoder.
func EncodeTreeTo(e *Encoder, t tree.Tree) error {
	switch v := t.(type) {
	case tree.Leaf:
		e.WriteByte(kindLeaf)
		e.WriteString(string(v))
		return nil
	case *tree.Node:
		if v == nil {
			return ErrNilTree
		}
		return encodeNode(e, v)
	case nil:
		return ErrNilTree
	default:
		return fmt.Errorf("protocol: unsupported tree type %T", t)
	}
}

func encodeNode(e *Encoder, n *tree.Node) error {
	e.WriteByte(kindNode)
	e.WriteSvarint(int64(n.Hash))
	e.WriteString(n.Tag)

	names := make([]string, 0, len(n.Attrs))
	for name := range n.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	e.WriteSvarint(int64(n.AttrsHash))
	e.WriteUvarint(uint64(len(names)))
	for _, name := range names {
		a := n.Attrs[name]
		e.WriteString(name)
		e.WriteSvarint(int64(a.Hash))
		e.WriteByte(attrFlags(a))
		if err := EncodeValue(e, a.Value); err != nil {
			return fmt.Errorf("protocol: attribute %q: %w", name, err)
		}
	}

	e.WriteSvarint(int64(n.EntriesHash))
	e.WriteUvarint(uint64(len(n.Entries)))
	for _, entry := range n.Entries {
		e.WriteString(entry.Key)
		if err := EncodeTreeTo(e, entry.Value); err != nil {
			return fmt.Errorf("protocol: entry %q: %w", entry.Key, err)
		}
	}
	return nil
}

func attrFlags(a tree.Attribute) byte {
	var f byte
	if a.Event {
		f |= attrEvent
	}
	if a.PreventDefault {
		f |= attrPreventDefault
	}
	if a.StopPropagation {
		f |= attrStopPropagation
	}
	return f
}

// DecodeTree decodes a tree with the default limits. The whole buffer must
// be consumed.
func DecodeTree(data []byte) (tree.Tree, error) {
	return DecodeTreeWithLimits(data, DefaultLimits())
}

// DecodeTreeWithLimits decodes a tree with custom depth limits.
func DecodeTreeWithLimits(data []byte, limits Limits) (tree.Tree, error) {
	d := NewDecoder(data)
	t, err := DecodeTreeFrom(d, limits)
	if err != nil {
		return nil, err
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return t, nil
}

// DecodeTreeFrom decodes a tree from a decoder.
func DecodeTreeFrom(d *Decoder, limits Limits) (tree.Tree, error) {
	return decodeTree(d, 0, limits.withDefaults())
}

func decodeTree(d *Decoder, depth int, limits Limits) (tree.Tree, error) {
	if depth > limits.TreeDepth {
		return nil, ErrMaxDepthExceeded
	}

	kind, err := d.ReadByte()
	if err != nil {
		return nil, err
	}

	switch kind {
	case kindLeaf:
		s, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return tree.Leaf(s), nil
	case kindNode:
		return decodeNode(d, depth, limits)
	default:
		return nil, ErrInvalidTreeKind
	}
}

func decodeNode(d *Decoder, depth int, limits Limits) (*tree.Node, error) {
	n := &tree.Node{}

	hash, err := d.ReadSvarint()
	if err != nil {
		return nil, err
	}
	n.Hash = tree.Hash(hash)

	if n.Tag, err = d.ReadString(); err != nil {
		return nil, err
	}

	attrsHash, err := d.ReadSvarint()
	if err != nil {
		return nil, err
	}
	n.AttrsHash = tree.Hash(attrsHash)

	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		n.Attrs = make(map[string]tree.Attribute, count)
	}
	for i := 0; i < count; i++ {
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		h, err := d.ReadSvarint()
		if err != nil {
			return nil, err
		}
		flags, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		value, err := decodeValue(d, 0, limits.ValueDepth)
		if err != nil {
			return nil, err
		}
		n.Attrs[name] = tree.Attribute{
			Hash:            tree.Hash(h),
			Event:           flags&attrEvent != 0,
			Value:           value,
			PreventDefault:  flags&attrPreventDefault != 0,
			StopPropagation: flags&attrStopPropagation != 0,
		}
	}

	entriesHash, err := d.ReadSvarint()
	if err != nil {
		return nil, err
	}
	n.EntriesHash = tree.Hash(entriesHash)

	count, err = d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		n.Entries = make([]tree.Entry, count)
	}
	for i := 0; i < count; i++ {
		key, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		child, err := decodeTree(d, depth+1, limits)
		if err != nil {
			return nil, err
		}
		n.Entries[i] = tree.Entry{Key: key, Value: child}
	}

	return n, nil
}

// TreeFrame wraps t in a frame. A nil tree yields a FrameNotYet.
func TreeFrame(t tree.Tree) (*Frame, error) {
	if t == nil {
		return NewFrame(FrameNotYet, nil), nil
	}
	payload, err := EncodeTree(t)
	if err != nil {
		return nil, err
	}
	return NewFrame(FrameTree, payload), nil
}

// Tree decodes the tree carried by f. A FrameNotYet yields a nil tree.
func (f *Frame) Tree() (tree.Tree, error) {
	switch f.Type {
	case FrameNotYet:
		return nil, nil
	case FrameTree:
		return DecodeTree(f.Payload)
	default:
		return nil, fmt.Errorf("%w: %s is not a tree frame", ErrInvalidFrameType, f.Type)
	}
}
