package tree

// Hash is a producer-supplied structural hash.
type Hash int64

// Tree is a Leaf or a *Node.
type Tree interface {
	isTree()
}

// Leaf is a text value. Leaves carry no hash.
type Leaf string

func (Leaf) isTree() {}

// Node is a tagged element with attributes and keyed entries.
type Node struct {
	Hash        Hash
	Tag         string // empty selects the host's default grouping element
	AttrsHash   Hash
	Attrs       map[string]Attribute
	EntriesHash Hash
	Entries     []Entry
}

func (*Node) isTree() {}

// Attribute is a single node attribute.
type Attribute struct {
	Hash Hash

	// Event marks Value as the context payload of an event handler rather
	// than a literal prop value.
	Event bool
	Value any

	PreventDefault  bool
	StopPropagation bool
}

// Entry is a keyed child. Key is unique within its sibling group.
type Entry struct {
	Key   string
	Value Tree
}

// IsLeaf reports whether t is a Leaf.
func IsLeaf(t Tree) bool {
	_, ok := t.(Leaf)
	return ok
}

// AsNode returns t as a *Node, or nil if t is a Leaf or nil.
func AsNode(t Tree) *Node {
	n, _ := t.(*Node)
	return n
}
