// Package treebuild constructs producer trees with structural hashes.
//
// Reconcilers trust producer hashes; treebuild computes them with xxhash so
// that structurally equal subtrees always share a hash:
//
//	tree := treebuild.El("button",
//	    treebuild.Prop("class", "primary"),
//	    treebuild.On("onClick", 42, treebuild.PreventDefault),
//	    treebuild.Text("Save"),
//	)
//
// Children passed as plain trees are keyed by their position. Use Key to give
// a child a stable identity across reorders.
package treebuild

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/vango-dev/treebridge/pkg/tree"
)

// Flag modifies an event attribute.
type Flag uint8

const (
	PreventDefault Flag = 1 << iota
	StopPropagation
)

// Attr is a named attribute produced by Prop or On.
type Attr struct {
	Name string
	tree.Attribute
}

// Prop returns a literal attribute.
func Prop(name string, value any) Attr {
	a := Attr{Name: name, Attribute: tree.Attribute{Value: value}}
	a.Hash = hashAttr(name, a.Attribute)
	return a
}

// On returns an event attribute whose handler is bound to context.
func On(name string, context any, flags ...Flag) Attr {
	a := Attr{Name: name, Attribute: tree.Attribute{Event: true, Value: context}}
	for _, f := range flags {
		a.PreventDefault = a.PreventDefault || f&PreventDefault != 0
		a.StopPropagation = a.StopPropagation || f&StopPropagation != 0
	}
	a.Hash = hashAttr(name, a.Attribute)
	return a
}

// Text returns a leaf.
func Text(s string) tree.Leaf {
	return tree.Leaf(s)
}

// Key returns a keyed entry.
func Key(key string, t tree.Tree) tree.Entry {
	return tree.Entry{Key: key, Value: t}
}

// El builds a node. Arguments may be Attr, tree.Entry, []tree.Entry, a
// tree.Tree (keyed by position), a string (a positional leaf) or nil
// (ignored). Any other type panics.
func El(tag string, args ...any) *tree.Node {
	n := &tree.Node{Tag: tag}
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
		case Attr:
			if n.Attrs == nil {
				n.Attrs = make(map[string]tree.Attribute)
			}
			n.Attrs[v.Name] = v.Attribute
		case tree.Entry:
			n.Entries = append(n.Entries, v)
		case []tree.Entry:
			n.Entries = append(n.Entries, v...)
		case string:
			n.Entries = append(n.Entries, positional(len(n.Entries), tree.Leaf(v)))
		case tree.Leaf:
			n.Entries = append(n.Entries, positional(len(n.Entries), v))
		case *tree.Node:
			if v != nil {
				n.Entries = append(n.Entries, positional(len(n.Entries), v))
			}
		default:
			panic(fmt.Sprintf("treebuild: unsupported argument %T", arg))
		}
	}
	hashNode(n)
	return n
}

func positional(i int, t tree.Tree) tree.Entry {
	return tree.Entry{Key: fmt.Sprintf("%d", i), Value: t}
}

// Rehash recomputes every hash in t bottom-up. Use it after editing a tree
// by hand.
func Rehash(t tree.Tree) {
	n := tree.AsNode(t)
	if n == nil {
		return
	}
	for name, a := range n.Attrs {
		a.Hash = hashAttr(name, a)
		n.Attrs[name] = a
	}
	for _, e := range n.Entries {
		Rehash(e.Value)
	}
	hashNode(n)
}

// Hash returns the hash of t as seen by a parent's EntriesHash. Leaves hash
// their text.
func Hash(t tree.Tree) tree.Hash {
	switch v := t.(type) {
	case tree.Leaf:
		d := xxhash.New()
		_, _ = d.WriteString("leaf\x00")
		_, _ = d.WriteString(string(v))
		return tree.Hash(d.Sum64())
	case *tree.Node:
		return v.Hash
	default:
		return 0
	}
}

func hashNode(n *tree.Node) {
	names := make([]string, 0, len(n.Attrs))
	for name := range n.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	d := xxhash.New()
	for _, name := range names {
		_, _ = d.WriteString(name)
		_, _ = d.Write([]byte{0})
		writeHash(d, n.Attrs[name].Hash)
	}
	n.AttrsHash = tree.Hash(d.Sum64())

	d.Reset()
	for _, e := range n.Entries {
		_, _ = d.WriteString(e.Key)
		_, _ = d.Write([]byte{0})
		writeHash(d, Hash(e.Value))
	}
	n.EntriesHash = tree.Hash(d.Sum64())

	d.Reset()
	_, _ = d.WriteString("node\x00")
	_, _ = d.WriteString(n.Tag)
	_, _ = d.Write([]byte{0})
	writeHash(d, n.AttrsHash)
	writeHash(d, n.EntriesHash)
	n.Hash = tree.Hash(d.Sum64())
}

func hashAttr(name string, a tree.Attribute) tree.Hash {
	var flags byte
	if a.Event {
		flags |= 1
	}
	if a.PreventDefault {
		flags |= 2
	}
	if a.StopPropagation {
		flags |= 4
	}

	d := xxhash.New()
	_, _ = d.WriteString(name)
	_, _ = d.Write([]byte{0, flags})
	if raw, err := json.Marshal(a.Value); err == nil {
		_, _ = d.Write(raw)
	} else {
		_, _ = fmt.Fprintf(d, "%#v", a.Value)
	}
	return tree.Hash(d.Sum64())
}

func writeHash(d *xxhash.Digest, h tree.Hash) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(h))
	_, _ = d.Write(buf[:])
}
