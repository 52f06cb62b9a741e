package bridge

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/treebridge/internal/errors"
	"github.com/vango-dev/treebridge/pkg/reconcile"
	"github.com/vango-dev/treebridge/pkg/tree"
)

// DefaultTracerName is the tracer used when none is configured.
const DefaultTracerName = "github.com/vango-dev/treebridge/pkg/bridge"

// DisplayFunc receives each committed root rendering: the Host output for a
// node root, or the text for a leaf root.
type DisplayFunc func(root reconcile.Renderable)

// Option configures a Bridge.
type Option func(*Bridge)

// WithMode sets the pull mode. Defaults to ModePush.
func WithMode(m Mode) Option {
	return func(b *Bridge) {
		b.mode = m
	}
}

// WithScheduler sets the frame scheduler used by ModeFrameSync. Defaults to
// a TickerScheduler at DefaultFrameInterval.
func WithScheduler(s FrameScheduler) Option {
	return func(b *Bridge) {
		b.scheduler = s
	}
}

// WithDisplay sets the function that receives committed roots.
func WithDisplay(fn DisplayFunc) Option {
	return func(b *Bridge) {
		b.display = fn
	}
}

// WithDefaultTag replaces reconcile.DefaultTag for untagged nodes.
func WithDefaultTag(tag string) Option {
	return func(b *Bridge) {
		b.defaultTag = tag
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// WithMetrics records bridge and reconciler metrics.
func WithMetrics(m *Metrics) Option {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// WithTracer sets the tracer. Defaults to the global provider's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(b *Bridge) {
		b.tracer = t
	}
}

// Bridge connects a Producer to a reconcile.Host. It gates root updates by
// hash, owns the single send function shared by every handler in the tree
// and, in ModeFrameSync, drives the frame request loop.
//
// All reconciliation happens on the goroutine that calls Run.
type Bridge struct {
	id         string
	producer   Producer
	frames     FrameProducer
	host       reconcile.Host
	display    DisplayFunc
	mode       Mode
	scheduler  FrameScheduler
	defaultTag string
	logger     *slog.Logger
	metrics    *Metrics
	tracer     trace.Tracer

	running atomic.Bool

	mu    sync.Mutex
	inbox []item
	wake  chan struct{}

	// Owned by the Run goroutine.
	current    tree.Tree
	root       *reconcile.Reconciler
	cancelTick func()
	tickSeq    uint64
}

type item struct {
	tick bool
	seq  uint64
	tree tree.Tree
}

// New creates a Bridge. ModeFrameSync requires p to implement FrameProducer.
func New(p Producer, host reconcile.Host, opts ...Option) (*Bridge, error) {
	if host == nil {
		return nil, errors.New(errors.CodeNoHost)
	}

	b := &Bridge{
		id:       uuid.NewString(),
		producer: p,
		host:     host,
		mode:     ModePush,
		wake:     make(chan struct{}, 1),
		current:  tree.Leaf(""),
	}
	for _, opt := range opts {
		opt(b)
	}

	switch b.mode {
	case ModePush:
	case ModeFrameSync:
		fp, ok := p.(FrameProducer)
		if !ok {
			return nil, errors.New(errors.CodeFrameSyncUnsupported).
				WithSuggestion("Run the bridge in push mode or use a producer that implements RequestFrame")
		}
		b.frames = fp
		if b.scheduler == nil {
			b.scheduler = TickerScheduler{Interval: DefaultFrameInterval}
		}
	default:
		return nil, errors.New(errors.CodeUnknownMode)
	}

	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With("bridge_id", b.id)
	if b.tracer == nil {
		b.tracer = otel.Tracer(DefaultTracerName)
	}
	if b.display == nil {
		b.display = func(reconcile.Renderable) {}
	}

	return b, nil
}

// ID returns the bridge instance ID used in logs.
func (b *Bridge) ID() string {
	return b.id
}

// Mode returns the pull mode.
func (b *Bridge) Mode() Mode {
	return b.mode
}

// ShouldUpdate is the root gate. A leaf on either side always updates;
// otherwise only a changed node hash does.
func ShouldUpdate(prev, next tree.Tree) bool {
	p, n := tree.AsNode(prev), tree.AsNode(next)
	if p == nil || n == nil {
		return true
	}
	return p.Hash != n.Hash
}

// Send forwards ev to the producer. It is the send function bound into every
// handler of the tree.
func (b *Bridge) Send(ev reconcile.Event) {
	b.metrics.eventSent()
	b.producer.Send(ev)
}

// Run subscribes to the producer and reconciles delivered trees until ctx is
// done or a Finite producer ends. Before returning it unsubscribes, cancels
// any pending frame tick and destroys the root reconciler.
func (b *Bridge) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return errors.New(errors.CodeAlreadyRunning)
	}
	defer b.running.Store(false)

	var (
		done   <-chan struct{}
		finite Finite
	)
	if f, ok := b.producer.(Finite); ok {
		finite, done = f, f.Done()
	}

	unsubscribe := b.producer.Subscribe(b.deliver)
	defer b.teardown(unsubscribe)

	b.logger.Info("bridge started", "mode", b.mode.String())
	if b.mode == ModeFrameSync {
		b.scheduleTick()
	}

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bridge stopped", "reason", ctx.Err())
			return nil
		case <-b.wake:
			b.drain(ctx)
		case <-done:
			b.drain(ctx)
			err := finite.Err()
			if err != nil {
				b.logger.Error("producer stream ended", "error", err)
			} else {
				b.logger.Info("producer stream ended")
			}
			return err
		}
	}
}

// deliver is the producer subscription callback. It never blocks.
func (b *Bridge) deliver(t tree.Tree) {
	b.push(item{tree: t})
}

func (b *Bridge) push(it item) {
	b.mu.Lock()
	b.inbox = append(b.inbox, it)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// drain processes queued items until the inbox is empty. Items delivered
// while processing (e.g. a synchronous reply to RequestFrame) are picked up
// in the same pass.
func (b *Bridge) drain(ctx context.Context) {
	for {
		b.mu.Lock()
		batch := b.inbox
		b.inbox = nil
		b.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, it := range batch {
			if ctx.Err() != nil {
				return
			}
			if it.tick {
				b.tick(it.seq)
				continue
			}
			b.receive(ctx, it.tree)
		}
	}
}

func (b *Bridge) scheduleTick() {
	b.tickSeq++
	seq := b.tickSeq
	b.cancelTick = b.scheduler.ScheduleFrame(func() {
		b.push(item{tick: true, seq: seq})
	})
}

// tick ignores callbacks that are no longer the pending registration, such
// as one that fired while a previous Run was tearing down.
func (b *Bridge) tick(seq uint64) {
	if b.cancelTick == nil || seq != b.tickSeq {
		return
	}
	b.cancelTick = nil
	b.metrics.frameRequested()
	b.frames.RequestFrame()
}

// receive handles one producer delivery. In ModeFrameSync every delivery,
// including "not yet", schedules the next tick unless one is pending.
func (b *Bridge) receive(ctx context.Context, next tree.Tree) {
	if next == nil {
		b.metrics.update(resultNotYet)
	} else {
		b.apply(ctx, next)
	}
	if b.mode == ModeFrameSync && b.cancelTick == nil {
		b.scheduleTick()
	}
}

func (b *Bridge) apply(ctx context.Context, next tree.Tree) {
	if !ShouldUpdate(b.current, next) {
		b.metrics.update(resultSkipped)
		return
	}

	_, span := b.tracer.Start(ctx, "bridge.apply",
		trace.WithAttributes(
			attribute.String("bridge.id", b.id),
			attribute.Bool("bridge.leaf", tree.IsLeaf(next)),
		))
	defer span.End()
	start := time.Now()

	var out reconcile.Renderable
	switch n := next.(type) {
	case tree.Leaf:
		b.destroyRoot()
		out = string(n)

	case *tree.Node:
		if b.root == nil {
			root, err := reconcile.New(n, b.env())
			if err != nil {
				span.RecordError(err)
				b.logger.Error("root construction failed", "error", err)
				return
			}
			b.root = root
		} else if err := b.root.Update(n); err != nil {
			span.RecordError(err)
			b.logger.Error("root update failed", "error", err)
			return
		}
		span.SetAttributes(attribute.Int64("tree.hash", int64(n.Hash)))
		out = b.root.Render()
	}

	b.current = next
	b.metrics.update(resultApplied)
	b.metrics.reconciled(time.Since(start))
	b.display(out)
}

func (b *Bridge) env() reconcile.Env {
	env := reconcile.Env{
		Host:       b.host,
		Send:       b.Send,
		DefaultTag: b.defaultTag,
	}
	if b.metrics != nil {
		env.Observer = b.metrics
	}
	return env
}

func (b *Bridge) destroyRoot() {
	if b.root != nil {
		b.root.Destroy()
		b.root = nil
	}
}

func (b *Bridge) teardown(unsubscribe func()) {
	if unsubscribe != nil {
		unsubscribe()
	}
	if b.cancelTick != nil {
		b.cancelTick()
		b.cancelTick = nil
	}
	b.destroyRoot()
	b.current = tree.Leaf("")

	b.mu.Lock()
	b.inbox = nil
	b.mu.Unlock()
	select {
	case <-b.wake:
	default:
	}
}
