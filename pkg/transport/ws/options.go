package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vango-dev/treebridge/internal/errors"
	"github.com/vango-dev/treebridge/pkg/protocol"
)

// Encoding selects the message format.
type Encoding string

const (
	EncodingJSON   Encoding = "json"
	EncodingBinary Encoding = "binary"
)

// ParseEncoding parses "json" or "binary". Empty selects EncodingJSON.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case "", EncodingJSON:
		return EncodingJSON, nil
	case EncodingBinary:
		return EncodingBinary, nil
	default:
		return "", errors.New(errors.CodeInvalidArgument).
			WithDetailf("Encoding %q is not json or binary.", s)
	}
}

// Defaults.
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
)

type options struct {
	encoding         Encoding
	logger           *slog.Logger
	limits           protocol.Limits
	header           http.Header
	handshakeTimeout time.Duration
	readTimeout      time.Duration
	writeTimeout     time.Duration
}

func defaultOptions() options {
	return options{
		encoding:         EncodingJSON,
		handshakeTimeout: DefaultHandshakeTimeout,
		writeTimeout:     DefaultWriteTimeout,
	}
}

// Option configures Dial and NewConn.
type Option func(*options)

// WithEncoding sets the message encoding.
func WithEncoding(e Encoding) Option {
	return func(o *options) {
		o.encoding = e
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithLimits sets the decode limits for binary trees.
func WithLimits(l protocol.Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}

// WithHeader sets extra handshake request headers.
func WithHeader(h http.Header) Option {
	return func(o *options) {
		o.header = h
	}
}

// WithHandshakeTimeout bounds the websocket handshake in Dial.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) {
		o.handshakeTimeout = d
	}
}

// WithReadTimeout closes the connection when the producer is silent for d.
// Zero disables the deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readTimeout = d
	}
}

// WithWriteTimeout bounds each write.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = d
	}
}
