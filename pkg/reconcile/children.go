package reconcile

import "github.com/vango-dev/treebridge/pkg/tree"

// Child is one derived child: a text leaf, or a Reconciler owned by the
// parent.
type Child struct {
	Text string
	Node *Reconciler
}

// IsLeaf reports whether c is a text leaf.
func (c Child) IsLeaf() bool {
	return c.Node == nil
}

type cacheEntry struct {
	hash  tree.Hash
	child *Reconciler
}

// childSet is the derived children of one node plus the per-key cache that
// produced them.
type childSet struct {
	list  []Child
	cache map[string]cacheEntry

	// extras holds instances built for duplicate keys. They are never reused
	// and are destroyed on the next recomputation.
	extras []*Reconciler
}

// deriveChildren reconciles entries against prev, which is nil on
// construction. Output order follows entries. Instances whose key is gone,
// or whose slot was rebuilt, are destroyed.
func deriveChildren(entries []tree.Entry, prev *childSet, env *Env) *childSet {
	next := &childSet{
		list:  make([]Child, 0, len(entries)),
		cache: make(map[string]cacheEntry, len(entries)),
	}

	for _, e := range entries {
		switch v := e.Value.(type) {
		case tree.Leaf:
			next.list = append(next.list, Child{Text: string(v)})

		case *tree.Node:
			if v == nil {
				continue
			}
			if _, dup := next.cache[e.Key]; dup {
				r := newReconciler(v, keyOf(e.Key), env)
				next.extras = append(next.extras, r)
				next.list = append(next.list, Child{Node: r})
				continue
			}

			var (
				old   cacheEntry
				found bool
			)
			if prev != nil {
				old, found = prev.cache[e.Key]
			}

			var r *Reconciler
			switch {
			case found && old.hash == v.Hash:
				r = old.child
				env.observe(OpChildReuse)
			case found && old.child.Update(v) == nil:
				r = old.child
			default:
				r = newReconciler(v, keyOf(e.Key), env)
			}

			next.cache[e.Key] = cacheEntry{hash: v.Hash, child: r}
			next.list = append(next.list, Child{Node: r})
		}
	}

	if prev != nil {
		for key, old := range prev.cache {
			if cur, ok := next.cache[key]; !ok || cur.child != old.child {
				old.child.Destroy()
			}
		}
		for _, r := range prev.extras {
			r.Destroy()
		}
	}

	return next
}

func (s *childSet) destroy() {
	if s == nil {
		return
	}
	for _, e := range s.cache {
		e.child.Destroy()
	}
	for _, r := range s.extras {
		r.Destroy()
	}
}

func keyOf(k string) *string {
	return &k
}
