package reconcile

import (
	"errors"

	"github.com/vango-dev/treebridge/pkg/tree"
)

// Reconciler errors.
var (
	ErrNilNode   = errors.New("reconcile: nil node")
	ErrNilHost   = errors.New("reconcile: nil host")
	ErrUnmounted = errors.New("reconcile: reconciler is unmounted")
)

// State is a Reconciler lifecycle state.
type State uint8

const (
	StateUninitialized State = iota
	StateMounted
	StateUpdated
	StateUnmounted
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateMounted:
		return "mounted"
	case StateUpdated:
		return "updated"
	case StateUnmounted:
		return "unmounted"
	default:
		return "unknown"
	}
}

// Reconciler retains one node and the render description derived from it.
type Reconciler struct {
	env   *Env
	key   *string
	state State

	node     *tree.Node
	props    Props
	children *childSet

	emitted     Renderable
	emittedHash tree.Hash
	hasEmitted  bool
}

// New constructs a root Reconciler for n. Root reconcilers carry no key.
func New(n *tree.Node, env Env) (*Reconciler, error) {
	if n == nil {
		return nil, ErrNilNode
	}
	if env.Host == nil {
		return nil, ErrNilHost
	}
	return newReconciler(n, nil, &env), nil
}

// NewKeyed constructs a Reconciler whose props carry key under KeyProp.
func NewKeyed(key string, n *tree.Node, env Env) (*Reconciler, error) {
	if n == nil {
		return nil, ErrNilNode
	}
	if env.Host == nil {
		return nil, ErrNilHost
	}
	return newReconciler(n, keyOf(key), &env), nil
}

func newReconciler(n *tree.Node, key *string, env *Env) *Reconciler {
	r := &Reconciler{env: env, key: key}
	r.node = n
	r.props = deriveProps(n.Attrs, nil, nil, key, env.Send)
	r.children = deriveChildren(n.Entries, nil, env)
	r.state = StateMounted
	env.observe(OpConstruct)
	return r
}

// Update reconciles n against the retained node. An equal hash is a no-op.
// Otherwise props and children are each recomputed only when their own hash
// changed, and the retained node, props and children are replaced together.
func (r *Reconciler) Update(n *tree.Node) error {
	if r.state == StateUnmounted {
		return ErrUnmounted
	}
	if n == nil {
		return ErrNilNode
	}

	p := r.node
	if n.Hash == p.Hash {
		r.env.observe(OpSkip)
		return nil
	}

	props := r.props
	if n.AttrsHash != p.AttrsHash {
		props = deriveProps(n.Attrs, p.Attrs, r.props, r.key, r.env.Send)
		r.env.observe(OpPropsDiff)
	} else {
		r.env.observe(OpPropsReuse)
	}

	children := r.children
	if n.EntriesHash != p.EntriesHash {
		children = deriveChildren(n.Entries, r.children, r.env)
		r.env.observe(OpChildrenDiff)
	} else {
		r.env.observe(OpChildrenReuse)
	}

	r.node, r.props, r.children = n, props, children
	r.state = StateUpdated
	r.env.observe(OpUpdate)
	return nil
}

// Render returns the host output for the retained node. The Host is called
// only when the node hash differs from the last emission; otherwise the
// previous output is returned as is. Render returns nil once unmounted.
func (r *Reconciler) Render() Renderable {
	if r.state == StateUnmounted || r.state == StateUninitialized {
		return nil
	}
	if r.hasEmitted && r.emittedHash == r.node.Hash {
		r.env.observe(OpRenderCached)
		return r.emitted
	}

	kids := make([]Renderable, len(r.children.list))
	for i, c := range r.children.list {
		if c.Node == nil {
			kids[i] = c.Text
			continue
		}
		kids[i] = c.Node.Render()
	}

	r.emitted = r.env.Host.Render(r.env.tag(r.node.Tag), r.props, kids)
	r.emittedHash = r.node.Hash
	r.hasEmitted = true
	r.env.observe(OpRender)
	return r.emitted
}

// Destroy releases the retained state and destroys every owned child.
// Destroy is idempotent.
func (r *Reconciler) Destroy() {
	if r.state == StateUnmounted {
		return
	}

	r.children.destroy()
	if rel, ok := r.env.Host.(Releaser); ok && r.hasEmitted {
		rel.Release(r.emitted)
	}

	r.node = nil
	r.props = nil
	r.children = nil
	r.emitted = nil
	r.hasEmitted = false
	r.state = StateUnmounted
	r.env.observe(OpDestroy)
}

// State returns the lifecycle state.
func (r *Reconciler) State() State {
	return r.state
}

// Node returns the retained node, or nil once unmounted.
func (r *Reconciler) Node() *tree.Node {
	return r.node
}

// Key returns the key the Reconciler was built with.
func (r *Reconciler) Key() (string, bool) {
	if r.key == nil {
		return "", false
	}
	return *r.key, true
}

// Props returns the derived props. The map is shared with the Host and must
// not be modified.
func (r *Reconciler) Props() Props {
	return r.props
}

// Children returns the derived children in entry order. The slice must not
// be modified.
func (r *Reconciler) Children() []Child {
	if r.children == nil {
		return nil
	}
	return r.children.list
}

// Child returns the cached Reconciler for key, or nil.
func (r *Reconciler) Child(key string) *Reconciler {
	if r.children == nil {
		return nil
	}
	return r.children.cache[key].child
}
