package ws

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/treebridge/internal/errors"
	"github.com/vango-dev/treebridge/pkg/protocol"
	"github.com/vango-dev/treebridge/pkg/reconcile"
	"github.com/vango-dev/treebridge/pkg/tree"
)

// ErrClosed is returned by writes on a closed Conn.
var ErrClosed = stderrors.New("ws: connection closed")

// outbound is a JSON-encoded message to the producer.
type outbound struct {
	Type    string `json:"type"`
	Context any    `json:"context"`
	Value   any    `json:"value"`
}

const (
	msgEvent = "event"
	msgFrame = "frame"
)

// Conn is a producer connection.
type Conn struct {
	ws   *websocket.Conn
	opts options

	// writeMu serializes writes; gorilla/websocket allows one writer.
	writeMu sync.Mutex

	mu     sync.Mutex
	subs   map[uint64]func(tree.Tree)
	nextID uint64
	err    error
	closed bool

	readOnce  sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the producer at url.
func Dial(ctx context.Context, url string, opts ...Option) (*Conn, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dialer := &websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: o.handshakeTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, url, o.header)
	if err != nil {
		return nil, errors.New(errors.CodeDial).
			WithDetailf("Could not connect to %s.", url).
			Wrap(err)
	}
	return newConn(ws, o), nil
}

// NewConn wraps an established websocket connection.
func NewConn(ws *websocket.Conn, opts ...Option) *Conn {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newConn(ws, o)
}

func newConn(ws *websocket.Conn, o options) *Conn {
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("producer", ws.RemoteAddr().String(), "encoding", string(o.encoding))
	return &Conn{
		ws:   ws,
		opts: o,
		subs: make(map[uint64]func(tree.Tree)),
		done: make(chan struct{}),
	}
}

// Subscribe registers fn for every received tree. Reading starts with the
// first Subscribe, so trees sent right after the handshake are not lost.
func (c *Conn) Subscribe(fn func(tree.Tree)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	c.readOnce.Do(func() {
		go c.readLoop()
	})

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Send writes ev to the producer. Failures are logged; a failed write
// closes the connection.
func (c *Conn) Send(ev reconcile.Event) {
	if err := c.SendEvent(ev); err != nil {
		c.opts.logger.Error("event send failed", "error", err)
	}
}

// SendEvent writes ev to the producer.
func (c *Conn) SendEvent(ev reconcile.Event) error {
	if c.opts.encoding == EncodingBinary {
		f, err := protocol.EventFrame(ev)
		if err != nil {
			return errors.New(errors.CodeEventEncode).Wrap(err)
		}
		return c.write(websocket.BinaryMessage, f.Encode())
	}

	data, err := json.Marshal(outbound{Type: msgEvent, Context: ev.Context, Value: ev.Value})
	if err != nil {
		return errors.New(errors.CodeEventEncode).Wrap(err)
	}
	return c.write(websocket.TextMessage, data)
}

// RequestFrame asks the producer for the next tree.
func (c *Conn) RequestFrame() {
	var err error
	if c.opts.encoding == EncodingBinary {
		err = c.write(websocket.BinaryMessage, protocol.RequestFrame().Encode())
	} else {
		err = c.write(websocket.TextMessage, []byte(`{"type":"`+msgFrame+`"}`))
	}
	if err != nil {
		c.opts.logger.Error("frame request failed", "error", err)
	}
}

// Done is closed when the connection ends.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns why the connection ended: nil after Close or a normal close
// from the producer.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close sends a normal close message and closes the connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.writeMu.Lock()
	deadline := time.Now().Add(c.opts.writeTimeout)
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	c.writeMu.Unlock()

	err := c.ws.Close()
	c.finish()
	return err
}

func (c *Conn) write(messageType int, data []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.opts.writeTimeout > 0 {
		c.ws.SetWriteDeadline(time.Now().Add(c.opts.writeTimeout))
	}
	if err := c.ws.WriteMessage(messageType, data); err != nil {
		c.fail(errors.New(errors.CodeConnectionLost).Wrap(err))
		return err
	}
	return nil
}

// readLoop reads until the connection ends and publishes decoded trees.
func (c *Conn) readLoop() {
	for {
		if c.opts.readTimeout > 0 {
			c.ws.SetReadDeadline(time.Now().Add(c.opts.readTimeout))
		}

		messageType, msg, err := c.ws.ReadMessage()
		if err != nil {
			c.readFailed(err)
			return
		}

		t, ok, err := c.decode(messageType, msg)
		if err != nil {
			c.fail(err)
			return
		}
		if ok {
			c.publish(t)
		}
	}
}

func (c *Conn) readFailed(err error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	switch {
	case closed:
		c.finish()
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		c.opts.logger.Info("producer closed the connection")
		c.finish()
	default:
		c.opts.logger.Error("read error", "error", err)
		c.fail(errors.New(errors.CodeConnectionLost).Wrap(err))
	}
}

// decode turns one message into a tree. ok is false for messages that carry
// no tree; a non-nil error ends the connection.
func (c *Conn) decode(messageType int, msg []byte) (tree.Tree, bool, error) {
	if c.opts.encoding == EncodingJSON {
		if messageType != websocket.TextMessage {
			c.opts.logger.Warn("ignoring binary message in json mode", "bytes", len(msg))
			return nil, false, nil
		}
		t, err := tree.DecodeJSON(msg)
		if err != nil {
			c.opts.logger.Error("tree decode error", "error", err)
			return nil, false, nil
		}
		return t, true, nil
	}

	if messageType != websocket.BinaryMessage {
		c.opts.logger.Warn("ignoring text message in binary mode", "bytes", len(msg))
		return nil, false, nil
	}

	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		c.opts.logger.Error("frame decode error", "error", err)
		c.reply(protocol.NewError(protocol.ErrInvalidFrame, "Invalid frame"))
		return nil, false, nil
	}

	switch frame.Type {
	case protocol.FrameNotYet:
		return nil, true, nil

	case protocol.FrameTree:
		t, err := protocol.DecodeTreeWithLimits(frame.Payload, c.opts.limits)
		if err != nil {
			c.opts.logger.Error("tree decode error", "error", err)
			c.reply(protocol.NewError(protocol.ErrInvalidTree, "Invalid tree"))
			return nil, false, nil
		}
		return t, true, nil

	case protocol.FrameError:
		em, err := protocol.DecodeErrorMessage(frame.Payload)
		if err != nil {
			c.opts.logger.Error("error frame decode error", "error", err)
			return nil, false, nil
		}
		if em.IsFatal() {
			return nil, false, errors.New(errors.CodeConnectionLost).Wrap(em)
		}
		c.opts.logger.Warn("producer error", "code", em.Code.String(), "message", em.Message)
		return nil, false, nil

	default:
		c.opts.logger.Warn("unexpected frame type", "type", frame.Type.String())
		c.reply(protocol.NewError(protocol.ErrUnsupported, "Unsupported frame type "+frame.Type.String()))
		return nil, false, nil
	}
}

func (c *Conn) reply(em *protocol.ErrorMessage) {
	if err := c.write(websocket.BinaryMessage, protocol.ErrorFrame(em).Encode()); err != nil {
		c.opts.logger.Error("error reply failed", "error", err)
	}
}

func (c *Conn) publish(t tree.Tree) {
	c.mu.Lock()
	fns := make([]func(tree.Tree), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(t)
	}
}

// fail ends the connection with err.
func (c *Conn) fail(err error) {
	c.mu.Lock()
	if c.err == nil && !c.closed {
		c.err = err
	}
	c.closed = true
	c.mu.Unlock()

	c.ws.Close()
	c.finish()
}

func (c *Conn) finish() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
}
