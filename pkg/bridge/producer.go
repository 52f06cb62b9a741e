package bridge

import (
	"time"

	"github.com/vango-dev/treebridge/internal/errors"
	"github.com/vango-dev/treebridge/pkg/reconcile"
	"github.com/vango-dev/treebridge/pkg/tree"
)

// Producer is the foreign tree source.
type Producer interface {
	// Subscribe registers fn for every delivered tree and returns a function
	// that removes the registration. A nil tree is the "not yet" sentinel.
	// fn may be called from any goroutine, including from inside Send or
	// RequestFrame.
	Subscribe(fn func(tree.Tree)) (unsubscribe func())

	// Send forwards one event to the producer.
	Send(ev reconcile.Event)
}

// FrameProducer is a Producer that can be asked for the next frame.
type FrameProducer interface {
	Producer

	// RequestFrame signals that the display is ready for a new tree. The
	// producer answers through the subscription with a tree or nil.
	RequestFrame()
}

// Finite is implemented by producers whose stream can end. Run returns once
// Done is closed, with the result of Err.
type Finite interface {
	Done() <-chan struct{}
	Err() error
}

// Mode selects how the bridge pulls trees.
type Mode uint8

const (
	// ModePush applies trees as the producer pushes them.
	ModePush Mode = iota

	// ModeFrameSync additionally requests one frame per tick.
	ModeFrameSync
)

// String returns the string representation of the Mode.
func (m Mode) String() string {
	switch m {
	case ModePush:
		return "push"
	case ModeFrameSync:
		return "frame-sync"
	default:
		return "unknown"
	}
}

// ParseMode parses "push" or "frame-sync".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "push", "":
		return ModePush, nil
	case "frame-sync":
		return ModeFrameSync, nil
	default:
		return 0, errors.New(errors.CodeUnknownMode).WithDetailf("Mode %q is not push or frame-sync.", s)
	}
}

// FrameScheduler registers one-shot frame callbacks.
type FrameScheduler interface {
	// ScheduleFrame arranges for fn to run once at the next display refresh
	// and returns a function that cancels the registration.
	ScheduleFrame(fn func()) (cancel func())
}

// TickerScheduler schedules frames at a fixed interval.
type TickerScheduler struct {
	Interval time.Duration
}

// DefaultFrameInterval approximates a 60Hz display.
const DefaultFrameInterval = 16 * time.Millisecond

// ScheduleFrame implements FrameScheduler.
func (s TickerScheduler) ScheduleFrame(fn func()) func() {
	d := s.Interval
	if d <= 0 {
		d = DefaultFrameInterval
	}
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
