package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameEncodeDecode(t *testing.T) {
	f := NewFrame(FrameEvent, []byte{0x01, 0x02, 0x03})
	data := f.Encode()

	want := []byte{byte(FrameEvent), 0, 0, 0, 3, 0x01, 0x02, 0x03}
	if !bytes.Equal(data, want) {
		t.Fatalf("Encode() = %v, want %v", data, want)
	}

	got, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame error: %v", err)
	}
	if got.Type != FrameEvent || !bytes.Equal(got.Payload, f.Payload) {
		t.Errorf("DecodeFrame = %+v", got)
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short header", []byte{0x01, 0x00}, io.ErrUnexpectedEOF},
		{"short payload", []byte{0x01, 0, 0, 0, 4, 0xAA}, io.ErrUnexpectedEOF},
		{"trailing", []byte{0x04, 0, 0, 0, 0, 0xAA}, ErrTrailingBytes},
		{"unknown type", []byte{0x7F, 0, 0, 0, 0}, ErrInvalidFrameType},
		{"too large", []byte{0x01, 0x7F, 0xFF, 0xFF, 0xFF}, ErrFrameTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeFrame(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	frames := []*Frame{
		RequestFrame(),
		NewFrame(FrameNotYet, nil),
		NewFrame(FrameTree, []byte{0x00, 0x01, 'x'}),
	}
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame error: %v", err)
		}
	}

	for i, want := range frames {
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame[%d] error: %v", i, err)
		}
		if got.Type != want.Type || !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("frame[%d] = %+v, want %+v", i, got, want)
		}
	}
	if _, err := ReadFrame(&buf); !errors.Is(err, io.EOF) {
		t.Errorf("ReadFrame at end err = %v, want io.EOF", err)
	}
}

func TestFrameTypeString(t *testing.T) {
	tests := map[FrameType]string{
		FrameTree:       "Tree",
		FrameNotYet:     "NotYet",
		FrameEvent:      "Event",
		FrameRequest:    "Request",
		FrameError:      "Error",
		FrameType(0x99): "Unknown",
	}
	for ft, want := range tests {
		if got := ft.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", ft, got, want)
		}
	}
}

func TestErrorMessageRoundTrip(t *testing.T) {
	in := NewFatalError(ErrUnsupported, "frame requests not supported")
	f := ErrorFrame(in)
	if f.Type != FrameError {
		t.Fatalf("Type = %v, want Error", f.Type)
	}
	out, err := DecodeErrorMessage(f.Payload)
	if err != nil {
		t.Fatalf("DecodeErrorMessage error: %v", err)
	}
	if *out != *in {
		t.Errorf("out = %+v, want %+v", out, in)
	}
	if out.Error() != "fatal: Unsupported: frame requests not supported" {
		t.Errorf("Error() = %q", out.Error())
	}
	if NewError(ErrInvalidTree, "x").IsFatal() {
		t.Error("NewError is fatal")
	}
}
