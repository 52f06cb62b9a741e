package reconcile

import "github.com/vango-dev/treebridge/pkg/tree"

// deriveProps computes props for attrs. An attribute whose hash equals the
// previous attribute of the same name keeps its previous derived value, so
// handlers and literal values stay reference-identical. Names missing from
// attrs are not carried over. With no previous attrs every prop is fresh.
func deriveProps(attrs, prevAttrs map[string]tree.Attribute, prevProps Props, key *string, send Send) Props {
	size := len(attrs)
	if key != nil {
		size++
	}
	props := make(Props, size)

	for name, attr := range attrs {
		if prev, ok := prevAttrs[name]; ok && prev.Hash == attr.Hash {
			if v, ok := prevProps[name]; ok {
				props[name] = v
				continue
			}
		}
		props[name] = deriveProp(attr, send)
	}

	// The key is injected last so it wins over an attribute of the same name.
	if key != nil {
		props[KeyProp] = *key
	}
	return props
}

func deriveProp(attr tree.Attribute, send Send) any {
	if attr.Event {
		return NewHandler(attr.Value, attr.PreventDefault, attr.StopPropagation, send)
	}
	return attr.Value
}
