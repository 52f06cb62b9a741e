package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/vango-dev/treebridge/pkg/bridge"
	"github.com/vango-dev/treebridge/pkg/reconcile"
	"github.com/vango-dev/treebridge/pkg/render"
	"github.com/vango-dev/treebridge/pkg/vdom"
)

// viewer is the display end of the bridge: it commits roots into a vdom.Host
// and prints them as HTML.
type viewer struct {
	host     *vdom.Host
	renderer *render.Renderer
	out      io.Writer
	all      bool
	logger   *slog.Logger

	mu     sync.Mutex
	frames int
}

func newViewer(out io.Writer, pretty, all bool, logger *slog.Logger) *viewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &viewer{
		host:     vdom.NewHost(),
		renderer: render.NewRenderer(render.RendererConfig{Pretty: pretty}),
		out:      out,
		all:      all,
		logger:   logger,
	}
}

// display implements bridge.DisplayFunc.
func (v *viewer) display(root reconcile.Renderable) {
	v.host.Commit(root)

	v.mu.Lock()
	v.frames++
	v.mu.Unlock()

	if node, ok := root.(*vdom.VNode); ok {
		v.logger.Debug("root committed", "interactive", vdom.CountInteractive(node))
	}

	if v.all {
		if err := v.print(root); err != nil {
			v.logger.Error("print failed", "error", err)
		}
	}
}

func (v *viewer) print(root reconcile.Renderable) error {
	html, err := v.renderer.RenderToString(root)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(v.out, strings.TrimRight(html, "\n"))
	return err
}

// html renders the last committed root.
func (v *viewer) html() (string, error) {
	return v.renderer.RenderToString(v.host.Root())
}

func (v *viewer) frameCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frames
}

// newBridge builds a bridge from the loaded config.
func newBridge(g *globals, p bridge.Producer, v *viewer, mode bridge.Mode, m *bridge.Metrics) (*bridge.Bridge, error) {
	opts := []bridge.Option{
		bridge.WithMode(mode),
		bridge.WithDisplay(v.display),
		bridge.WithLogger(g.logger),
		bridge.WithTracer(otel.Tracer(g.cfg.Tracing.TracerName)),
		bridge.WithScheduler(bridge.TickerScheduler{Interval: g.cfg.FrameInterval()}),
	}
	if g.cfg.Bridge.DefaultTag != "" {
		opts = append(opts, bridge.WithDefaultTag(g.cfg.Bridge.DefaultTag))
	}
	if m != nil {
		opts = append(opts, bridge.WithMetrics(m))
	}
	return bridge.New(p, v.host, opts...)
}

// modeFlag resolves the --mode flag against the config.
func modeFlag(g *globals, flag string) (bridge.Mode, error) {
	if flag == "" {
		flag = g.cfg.Bridge.Mode
	}
	return bridge.ParseMode(flag)
}
