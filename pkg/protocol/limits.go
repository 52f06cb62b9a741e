package protocol

import (
	"errors"

	"github.com/vango-dev/treebridge/pkg/tree"
)

// Depth limits.
const (
	// MaxTreeDepth limits the nesting depth of decoded trees. It matches the
	// JSON decoder so both encodings accept the same trees.
	MaxTreeDepth = tree.MaxDepth

	// MaxValueDepth limits the nesting depth of tagged values.
	MaxValueDepth = 64
)

// ErrMaxDepthExceeded is returned when a payload nests deeper than allowed.
var ErrMaxDepthExceeded = errors.New("protocol: maximum nesting depth exceeded")

// Limits configures decoding depth limits. Zero fields use the defaults.
type Limits struct {
	TreeDepth  int
	ValueDepth int
}

// DefaultLimits returns the default depth limits.
func DefaultLimits() Limits {
	return Limits{
		TreeDepth:  MaxTreeDepth,
		ValueDepth: MaxValueDepth,
	}
}

func (l Limits) withDefaults() Limits {
	if l.TreeDepth <= 0 {
		l.TreeDepth = MaxTreeDepth
	}
	if l.ValueDepth <= 0 {
		l.ValueDepth = MaxValueDepth
	}
	return l
}
