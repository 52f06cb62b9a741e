package replay

import (
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/treebridge/pkg/reconcile"
	"github.com/vango-dev/treebridge/pkg/tree"
)

// Playback selects how a Player delivers its recording.
type Playback uint8

const (
	// PlaybackPush delivers every tree once the first subscriber arrives.
	PlaybackPush Playback = iota

	// PlaybackFrame delivers one tree per RequestFrame.
	PlaybackFrame
)

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithPlayback sets the playback. Defaults to PlaybackPush.
func WithPlayback(p Playback) PlayerOption {
	return func(pl *Player) {
		pl.playback = p
	}
}

// WithInterval paces push playback. Zero delivers back to back.
func WithInterval(d time.Duration) PlayerOption {
	return func(pl *Player) {
		pl.interval = d
	}
}

// WithRecorder records every event sent to the Player.
func WithRecorder(r *Recorder) PlayerOption {
	return func(pl *Player) {
		pl.recorder = r
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) PlayerOption {
	return func(pl *Player) {
		pl.logger = l
	}
}

// Player is a producer backed by a recording. It implements
// bridge.FrameProducer and bridge.Finite; Done is closed after the last
// tree has been delivered.
type Player struct {
	trees    []tree.Tree
	playback Playback
	interval time.Duration
	recorder *Recorder
	logger   *slog.Logger

	mu      sync.Mutex
	subs    map[uint64]func(tree.Tree)
	nextID  uint64
	pos     int
	started bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once
}

// NewPlayer creates a Player for trees.
func NewPlayer(trees []tree.Tree, opts ...PlayerOption) *Player {
	p := &Player{
		trees: trees,
		subs:  make(map[uint64]func(tree.Tree)),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Subscribe implements bridge.Producer. With PlaybackPush the first
// subscription starts playback.
func (p *Player) Subscribe(fn func(tree.Tree)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	start := p.playback == PlaybackPush && !p.started
	p.started = true
	p.mu.Unlock()

	if start {
		go p.play()
	}

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Send implements bridge.Producer.
func (p *Player) Send(ev reconcile.Event) {
	if p.recorder == nil {
		return
	}
	if _, err := p.recorder.Record(ev); err != nil {
		p.logger.Error("event record failed", "error", err)
	}
}

// RequestFrame implements bridge.FrameProducer. It delivers the next tree
// synchronously. With PlaybackPush it does nothing.
func (p *Player) RequestFrame() {
	if p.playback != PlaybackFrame {
		return
	}

	p.mu.Lock()
	if p.pos >= len(p.trees) {
		p.mu.Unlock()
		p.finish()
		return
	}
	t := p.trees[p.pos]
	p.pos++
	last := p.pos == len(p.trees)
	p.mu.Unlock()

	p.publish(t)
	if last {
		p.finish()
	}
}

// Done implements bridge.Finite.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Err implements bridge.Finite. Playback never fails once loaded.
func (p *Player) Err() error {
	return nil
}

// Close stops playback.
func (p *Player) Close() error {
	p.stopOnce.Do(func() { close(p.stop) })
	p.finish()
	return nil
}

// Remaining returns the number of trees not yet delivered.
func (p *Player) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.trees) - p.pos
}

func (p *Player) play() {
	defer p.finish()

	for {
		p.mu.Lock()
		if p.pos >= len(p.trees) {
			p.mu.Unlock()
			return
		}
		t := p.trees[p.pos]
		p.pos++
		p.mu.Unlock()

		if p.interval > 0 {
			timer := time.NewTimer(p.interval)
			select {
			case <-p.stop:
				timer.Stop()
				return
			case <-timer.C:
			}
		} else {
			select {
			case <-p.stop:
				return
			default:
			}
		}
		p.publish(t)
	}
}

func (p *Player) publish(t tree.Tree) {
	p.mu.Lock()
	fns := make([]func(tree.Tree), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(t)
	}
}

func (p *Player) finish() {
	p.doneOnce.Do(func() {
		p.logger.Debug("playback finished", "trees", len(p.trees))
		close(p.done)
	})
}
