package vdom

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vango-dev/treebridge/pkg/reconcile"
)

// Fire errors.
var (
	ErrUnknownHID = errors.New("vdom: unknown hydration id")
	ErrNoHandler  = errors.New("vdom: no handler for event")
)

// Host materializes render descriptions as VNodes. Render and Release are
// called from the bridge goroutine; Commit, Root and Fire may be called
// from any goroutine.
type Host struct {
	gen *HIDGenerator

	mu       sync.RWMutex
	root     reconcile.Renderable
	index    map[string]*VNode
	renders  int
	releases int
}

// NewHost creates a Host.
func NewHost() *Host {
	return &Host{
		gen:   NewHIDGenerator(),
		index: make(map[string]*VNode),
	}
}

// Render implements reconcile.Host. String children become text nodes.
func (h *Host) Render(tag string, props reconcile.Props, children []reconcile.Renderable) reconcile.Renderable {
	node := &VNode{
		Kind:     KindElement,
		Tag:      tag,
		Props:    Props(props),
		Children: make([]*VNode, 0, len(children)),
	}
	if key, ok := props[reconcile.KeyProp].(string); ok {
		node.Key = key
	}

	for _, c := range children {
		switch c := c.(type) {
		case string:
			node.Children = append(node.Children, Text(c))
		case *VNode:
			node.Children = append(node.Children, c)
		}
	}

	if node.IsInteractive() {
		node.HID = h.gen.Next()
	}

	h.mu.Lock()
	h.renders++
	h.mu.Unlock()
	return node
}

// Release implements reconcile.Releaser. The node stops accepting events.
func (h *Host) Release(r reconcile.Renderable) {
	node, ok := r.(*VNode)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.releases++
	if node.HID != "" && h.index[node.HID] == node {
		delete(h.index, node.HID)
	}
}

// Commit records root as the displayed tree and re-indexes its HIDs. It has
// the signature of bridge.DisplayFunc.
func (h *Host) Commit(root reconcile.Renderable) {
	var index map[string]*VNode
	if node, ok := root.(*VNode); ok {
		index = CollectHIDs(node)
	} else {
		index = make(map[string]*VNode)
	}

	h.mu.Lock()
	h.root = root
	h.index = index
	h.mu.Unlock()
}

// Root returns the last committed root: a *VNode or a string.
func (h *Host) Root() reconcile.Renderable {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.root
}

// Lookup returns the displayed node with the given HID.
func (h *Host) Lookup(hid string) (*VNode, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	node, ok := h.index[hid]
	return node, ok
}

// Fire dispatches value to the handler bound under prop on the node with
// the given HID.
func (h *Host) Fire(hid, prop string, value any) error {
	node, ok := h.Lookup(hid)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHID, hid)
	}
	handler, ok := node.Handler(prop)
	if !ok {
		return fmt.Errorf("%w: %s on %s", ErrNoHandler, prop, hid)
	}
	handler.Invoke(value)
	return nil
}

// Stats returns how many nodes were rendered and released.
func (h *Host) Stats() (renders, releases int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.renders, h.releases
}
