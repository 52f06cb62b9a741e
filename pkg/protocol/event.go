package protocol

import (
	"fmt"

	"github.com/vango-dev/treebridge/pkg/reconcile"
)

// EncodeEvent encodes an event: the handler context followed by the runtime
// value, both as tagged values.
func EncodeEvent(ev reconcile.Event) ([]byte, error) {
	e := NewEncoder()
	if err := EncodeValue(e, ev.Context); err != nil {
		return nil, fmt.Errorf("protocol: event context: %w", err)
	}
	if err := EncodeValue(e, ev.Value); err != nil {
		return nil, fmt.Errorf("protocol: event value: %w", err)
	}
	return e.Bytes(), nil
}

// DecodeEvent decodes an event payload.
func DecodeEvent(data []byte) (reconcile.Event, error) {
	var ev reconcile.Event
	d := NewDecoder(data)

	var err error
	if ev.Context, err = DecodeValue(d); err != nil {
		return reconcile.Event{}, err
	}
	if ev.Value, err = DecodeValue(d); err != nil {
		return reconcile.Event{}, err
	}
	if err := d.finish(); err != nil {
		return reconcile.Event{}, err
	}
	return ev, nil
}

// EventFrame wraps ev in a FrameEvent.
func EventFrame(ev reconcile.Event) (*Frame, error) {
	payload, err := EncodeEvent(ev)
	if err != nil {
		return nil, err
	}
	return NewFrame(FrameEvent, payload), nil
}

// RequestFrame returns a frame request.
func RequestFrame() *Frame {
	return NewFrame(FrameRequest, nil)
}
