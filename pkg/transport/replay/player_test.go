package replay

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/vango-dev/treebridge/pkg/bridge"
	"github.com/vango-dev/treebridge/pkg/reconcile"
	"github.com/vango-dev/treebridge/pkg/tree"
	tb "github.com/vango-dev/treebridge/pkg/treebuild"
)

func recording() []tree.Tree {
	return []tree.Tree{
		tb.El("p", "one"),
		nil,
		tb.El("p", "two"),
		tree.Leaf("end"),
	}
}

func waitDone(t *testing.T, p *Player) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not finish")
	}
}

func TestPushPlayback(t *testing.T) {
	p := NewPlayer(recording())
	got := make(chan tree.Tree, 8)
	p.Subscribe(func(t tree.Tree) { got <- t })
	waitDone(t, p)

	assert.Equal(t, len(got), 4)
	assert.Equal(t, tree.AsNode(<-got).Hash, tb.El("p", "one").Hash)
	assert.Equal(t, <-got, nil)
	<-got
	assert.Equal(t, <-got, tree.Leaf("end"))
	assert.Equal(t, p.Remaining(), 0)
	assert.Equal(t, p.Err(), nil)
}

func TestPushPlaybackClose(t *testing.T) {
	p := NewPlayer(recording(), WithInterval(time.Hour))
	p.Subscribe(func(tree.Tree) { t.Error("tree delivered after Close") })
	assert.Equal(t, p.Close(), nil)
	waitDone(t, p)
}

func TestFramePlayback(t *testing.T) {
	p := NewPlayer(recording(), WithPlayback(PlaybackFrame))
	var got []tree.Tree
	p.Subscribe(func(t tree.Tree) { got = append(got, t) })

	p.RequestFrame()
	assert.Equal(t, len(got), 1)
	assert.Equal(t, p.Remaining(), 3)

	p.RequestFrame()
	p.RequestFrame()
	select {
	case <-p.Done():
		t.Fatal("done before the last tree")
	default:
	}

	p.RequestFrame()
	assert.Equal(t, len(got), 4)
	waitDone(t, p)

	p.RequestFrame()
	assert.Equal(t, len(got), 4)
}

func TestFramePlaybackEmpty(t *testing.T) {
	p := NewPlayer(nil, WithPlayback(PlaybackFrame))
	p.Subscribe(func(tree.Tree) { t.Error("tree delivered from an empty recording") })
	p.RequestFrame()
	waitDone(t, p)
}

func TestSendRecordsEvents(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlayer(nil, WithRecorder(NewRecorder(&buf)))
	p.Send(reconcile.Event{Context: "a", Value: 1})
	p.Send(reconcile.Event{Context: map[string]any{"id": "b"}, Value: "x"})

	events, err := ReadEvents(&buf)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(events), 2)
	assert.Equal(t, events[0].Context, "a")
	assert.Equal(t, events[0].Value, float64(1))
	assert.Equal(t, events[1].Context, map[string]any{"id": "b"})
	if events[0].ID.Compare(events[1].ID) >= 0 {
		t.Errorf("event IDs out of order: %s, %s", events[0].ID, events[1].ID)
	}
}

func TestSendWithoutRecorder(t *testing.T) {
	NewPlayer(nil).Send(reconcile.Event{Context: "ignored"})
}

func TestPlayerDrivesBridge(t *testing.T) {
	for _, mode := range []bridge.Mode{bridge.ModePush, bridge.ModeFrameSync} {
		t.Run(mode.String(), func(t *testing.T) {
			playback := PlaybackPush
			if mode == bridge.ModeFrameSync {
				playback = PlaybackFrame
			}
			p := NewPlayer(recording(), WithPlayback(playback))

			var shown []reconcile.Renderable
			host := reconcile.HostFunc(func(tag string, _ reconcile.Props, children []reconcile.Renderable) reconcile.Renderable {
				return tag + ":" + children[0].(string)
			})
			b, err := bridge.New(p, host,
				bridge.WithMode(mode),
				bridge.WithScheduler(bridge.TickerScheduler{Interval: time.Millisecond}),
				bridge.WithDisplay(func(r reconcile.Renderable) { shown = append(shown, r) }),
			)
			assert.Equal(t, err, nil)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			assert.Equal(t, b.Run(ctx), nil)
			assert.Equal(t, ctx.Err(), nil)

			assert.Equal(t, shown, []reconcile.Renderable{"p:one", "p:two", "end"})
		})
	}
}
