package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/treebridge/internal/config"
	"github.com/vango-dev/treebridge/internal/errors"
	"github.com/vango-dev/treebridge/pkg/bridge"
	"github.com/vango-dev/treebridge/pkg/reconcile"
	"github.com/vango-dev/treebridge/pkg/transport/replay"
	"github.com/vango-dev/treebridge/pkg/tree"
	tb "github.com/vango-dev/treebridge/pkg/treebuild"
)

func writeRecording(t *testing.T, trees ...tree.Tree) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stream.jsonl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create recording: %v", err)
	}
	defer f.Close()
	if err := replay.Encode(f, trees); err != nil {
		t.Fatalf("encode recording: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&globals{}, &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version --short = %q, want %q", out, version)
	}
}

func TestReplayPrintsFinalView(t *testing.T) {
	path := writeRecording(t,
		tb.El("ul", tb.Key("a", tb.El("li", "A"))),
		nil,
		tb.El("ul", tb.Key("a", tb.El("li", "A")), tb.Key("b", tb.El("li", "B"))),
	)

	for _, mode := range []string{"push", "frame-sync"} {
		t.Run(mode, func(t *testing.T) {
			out, err := execute(t, "replay", "--mode", mode, "--log-level", "error", path)
			if err != nil {
				t.Fatalf("replay error: %v", err)
			}
			if got := strings.TrimSpace(out); got != "<ul><li>A</li><li>B</li></ul>" {
				t.Errorf("output = %q", got)
			}
		})
	}
}

func TestReplayAllAndEvents(t *testing.T) {
	path := writeRecording(t, tree.Leaf("loading"), tb.El("p", "ready"))
	events := filepath.Join(t.TempDir(), "events.jsonl")

	out, err := execute(t, "replay", "--all", "--events", events, "--log-level", "error", path)
	if err != nil {
		t.Fatalf("replay error: %v", err)
	}
	if got := strings.TrimSpace(out); got != "loading\n<p>ready</p>" {
		t.Errorf("output = %q", got)
	}
	if _, err := os.Stat(events); err != nil {
		t.Errorf("events file not created: %v", err)
	}
}

func TestReplayErrors(t *testing.T) {
	_, err := execute(t, "replay", "--log-level", "error", filepath.Join(t.TempDir(), "missing.jsonl"))
	if !errors.HasCode(err, errors.CodeRecordingOpen) {
		t.Errorf("missing file error = %v", err)
	}

	path := writeRecording(t, tree.Leaf("x"))
	_, err = execute(t, "replay", "--mode", "pull", path)
	if !errors.HasCode(err, errors.CodeUnknownMode) {
		t.Errorf("bad mode error = %v", err)
	}

	_, err = execute(t, "replay", "--log-level", "loud", path)
	if !errors.HasCode(err, errors.CodeConfigInvalid) {
		t.Errorf("bad log level error = %v", err)
	}
}

func TestPrintErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	g := &globals{cfg: config.New()}
	g.cfg.Log.Format = "json"
	g.printError(&buf, errors.New(errors.CodeDial))
	if !strings.HasPrefix(buf.String(), `{"code":"E020"`) {
		t.Errorf("printError = %q", buf.String())
	}

	buf.Reset()
	g.cfg.Log.Format = "text"
	errors.DisableColors()
	defer errors.EnableColors()
	g.printError(&buf, errors.New(errors.CodeDial))
	if !strings.Contains(buf.String(), "ERROR E020") {
		t.Errorf("printError = %q", buf.String())
	}
}

func TestConnectNeedsURL(t *testing.T) {
	_, err := execute(t, "connect", "--log-level", "error")
	if !errors.HasCode(err, errors.CodeInvalidArgument) {
		t.Errorf("connect without URL error = %v", err)
	}
}

type fakeConn struct {
	done chan struct{}
}

func (c *fakeConn) Done() <-chan struct{} { return c.done }

func TestServer(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []reconcile.Event
	)
	v := newViewer(io.Discard, false, false, nil)
	r, err := reconcile.New(
		tb.El("div", tb.Key("b", tb.El("button", tb.On("onclick", "inc"), "+"))),
		reconcile.Env{Host: v.host, Send: func(ev reconcile.Event) {
			mu.Lock()
			sent = append(sent, ev)
			mu.Unlock()
		}},
	)
	if err != nil {
		t.Fatalf("reconcile.New error: %v", err)
	}
	v.display(r.Render())

	reg := prometheus.NewRegistry()
	bridge.NewMetrics(reg, "test").Observe(reconcile.OpRender)
	conn := &fakeConn{done: make(chan struct{})}
	srv := httptest.NewServer(newServer(reg, v, conn))
	defer srv.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}
	post := func(path, body string) int {
		resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	code, body := get("/view")
	if code != http.StatusOK || !strings.Contains(body, `data-on-click="true"`) {
		t.Fatalf("/view = %d %q", code, body)
	}
	if code := post("/fire/h1/onclick", `{"n":1}`); code != http.StatusNoContent {
		t.Errorf("fire = %d, want 204", code)
	}
	mu.Lock()
	if len(sent) != 1 || sent[0].Context != "inc" {
		t.Errorf("sent = %+v", sent)
	}
	mu.Unlock()
	if code := post("/fire/h9/onclick", ""); code != http.StatusNotFound {
		t.Errorf("fire unknown hid = %d, want 404", code)
	}
	if code := post("/fire/h1/onclick", "{"); code != http.StatusBadRequest {
		t.Errorf("fire bad body = %d, want 400", code)
	}

	if code, body := get("/metrics"); code != http.StatusOK || !strings.Contains(body, "test_reconcile_ops_total") {
		t.Errorf("/metrics = %d, missing reconcile ops", code)
	}

	if code, _ := get("/healthz"); code != http.StatusOK {
		t.Errorf("/healthz = %d, want 200", code)
	}
	close(conn.done)
	if code, _ := get("/healthz"); code != http.StatusServiceUnavailable {
		t.Errorf("/healthz after disconnect = %d, want 503", code)
	}
}
