package vdom

import "github.com/vango-dev/treebridge/pkg/reconcile"

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement VKind = iota // <div>, <button>, etc.
	KindText                 // Plain text node
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// Props holds attributes and event handlers. Event props hold
// *reconcile.Handler.
type Props map[string]any

// VNode is a materialized node. VNodes are shared between renders and must
// be treated as read-only.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Props    Props    // Attributes and event handlers
	Children []*VNode // Child nodes
	Key      string   // Reconciliation key, "" for roots
	Text     string   // For KindText
	HID      string   // Hydration ID, set for interactive elements
}

// Text creates a text node.
func Text(s string) *VNode {
	return &VNode{Kind: KindText, Text: s}
}

// IsInteractive returns true if this node has event handlers and needs a HID.
func (v *VNode) IsInteractive() bool {
	if v == nil || v.Kind != KindElement {
		return false
	}
	for _, value := range v.Props {
		if _, ok := value.(*reconcile.Handler); ok {
			return true
		}
	}
	return false
}

// Handler returns the handler bound to the named event prop.
func (v *VNode) Handler(prop string) (*reconcile.Handler, bool) {
	if v == nil {
		return nil, false
	}
	h, ok := v.Props[prop].(*reconcile.Handler)
	return h, ok
}

// TextContent concatenates the text of v and its descendants.
func (v *VNode) TextContent() string {
	if v == nil {
		return ""
	}
	if v.Kind == KindText {
		return v.Text
	}
	var s string
	for _, c := range v.Children {
		s += c.TextContent()
	}
	return s
}
