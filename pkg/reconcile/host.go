package reconcile

// DefaultTag is used for nodes that carry no tag.
const DefaultTag = "g"

// KeyProp is the reserved prop that carries a child's key.
const KeyProp = "key"

// Props maps prop names to derived values. Event props hold *Handler.
type Props map[string]any

// Renderable is whatever the Host returns for a rendered node. Leaf children
// are passed to the Host as plain strings.
type Renderable any

// Host materializes render descriptions. It must not mutate props or
// children: both are retained and reused across renders.
type Host interface {
	Render(tag string, props Props, children []Renderable) Renderable
}

// HostFunc adapts a function to Host.
type HostFunc func(tag string, props Props, children []Renderable) Renderable

// Render implements Host.
func (f HostFunc) Render(tag string, props Props, children []Renderable) Renderable {
	return f(tag, props, children)
}

// Releaser is implemented by hosts that hold resources per rendered node.
// Release is called once for the last emission of a destroyed Reconciler.
type Releaser interface {
	Release(r Renderable)
}

// Op identifies a reconciler operation reported to an Observer.
type Op uint8

const (
	OpConstruct      Op = iota // fresh Reconciler built
	OpUpdate                   // Update with a changed hash
	OpSkip                     // Update with an equal hash
	OpPropsReuse               // props reused wholesale
	OpPropsDiff                // attribute differ ran
	OpChildrenReuse            // children reused wholesale
	OpChildrenDiff             // keyed children differ ran
	OpChildReuse               // one keyed child reused by (key, hash)
	OpRender                   // Host.Render called
	OpRenderCached             // render gate returned the previous emission
	OpDestroy                  // Reconciler destroyed
)

// String returns the string representation of the Op.
func (o Op) String() string {
	switch o {
	case OpConstruct:
		return "construct"
	case OpUpdate:
		return "update"
	case OpSkip:
		return "skip"
	case OpPropsReuse:
		return "props_reuse"
	case OpPropsDiff:
		return "props_diff"
	case OpChildrenReuse:
		return "children_reuse"
	case OpChildrenDiff:
		return "children_diff"
	case OpChildReuse:
		return "child_reuse"
	case OpRender:
		return "render"
	case OpRenderCached:
		return "render_cached"
	case OpDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// Observer receives reconciler operations, e.g. for metrics.
type Observer interface {
	Observe(op Op)
}

// Env is shared, read-only configuration for a tree of Reconcilers.
type Env struct {
	Host Host
	Send Send

	// DefaultTag replaces an absent node tag. Defaults to DefaultTag.
	DefaultTag string

	// Observer is optional.
	Observer Observer
}

func (e *Env) observe(op Op) {
	if e.Observer != nil {
		e.Observer.Observe(op)
	}
}

func (e *Env) tag(t string) string {
	if t != "" {
		return t
	}
	if e.DefaultTag != "" {
		return e.DefaultTag
	}
	return DefaultTag
}
