package reconcile

import (
	"reflect"
	"testing"

	"github.com/vango-dev/treebridge/pkg/tree"
)

type rendered struct {
	Tag      string
	Props    Props
	Children []Renderable
}

type recordingHost struct {
	calls    int
	released []Renderable
}

func (h *recordingHost) Render(tag string, props Props, children []Renderable) Renderable {
	h.calls++
	return &rendered{Tag: tag, Props: props, Children: children}
}

func (h *recordingHost) Release(r Renderable) {
	h.released = append(h.released, r)
}

type countingObserver map[Op]int

func (c countingObserver) Observe(op Op) { c[op]++ }

type sendRecorder struct {
	events []Event
}

func (s *sendRecorder) send(ev Event) {
	s.events = append(s.events, ev)
}

func newEnv(t *testing.T) (Env, *recordingHost, countingObserver, *sendRecorder) {
	t.Helper()
	host := &recordingHost{}
	obs := countingObserver{}
	rec := &sendRecorder{}
	return Env{Host: host, Send: rec.send, Observer: obs}, host, obs, rec
}

func mustNew(t *testing.T, n *tree.Node, env Env) *Reconciler {
	t.Helper()
	r, err := New(n, env)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return r
}

// el builds a node with explicit hashes.
func el(hash, attrsHash tree.Hash, attrs map[string]tree.Attribute, entriesHash tree.Hash, entries ...tree.Entry) *tree.Node {
	return &tree.Node{
		Hash:        hash,
		AttrsHash:   attrsHash,
		Attrs:       attrs,
		EntriesHash: entriesHash,
		Entries:     entries,
	}
}

func leafNode(hash tree.Hash) *tree.Node {
	return el(hash, 0, nil, 0)
}

func entry(key string, v tree.Tree) tree.Entry {
	return tree.Entry{Key: key, Value: v}
}

func samePointer(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != vb.Kind() {
		return false
	}
	return va.Pointer() == vb.Pointer()
}
