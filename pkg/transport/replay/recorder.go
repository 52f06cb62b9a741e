package replay

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vango-dev/treebridge/internal/errors"
	"github.com/vango-dev/treebridge/pkg/reconcile"
)

// RecordedEvent is one line written by a Recorder.
type RecordedEvent struct {
	ID      ulid.ULID `json:"id"`
	Time    time.Time `json:"time"`
	Context any       `json:"context"`
	Value   any       `json:"value"`
}

// Recorder appends events to w as JSON lines. It is safe for concurrent use.
type Recorder struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{enc: json.NewEncoder(w), now: time.Now}
}

// Record writes ev and returns its ID. IDs sort in recording order.
func (r *Recorder) Record(ev reconcile.Event) (ulid.ULID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := RecordedEvent{
		ID:      ulid.Make(),
		Time:    r.now().UTC(),
		Context: ev.Context,
		Value:   ev.Value,
	}
	if err := r.enc.Encode(rec); err != nil {
		return ulid.ULID{}, errors.New(errors.CodeEventEncode).Wrap(err)
	}
	return rec.ID, nil
}

// ReadEvents reads a stream written by a Recorder.
func ReadEvents(r io.Reader) ([]RecordedEvent, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	var events []RecordedEvent
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var ev RecordedEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			return nil, errors.New(errors.CodeRecordingFormat).
				WithDetailf("Line %d does not hold an event.", line).
				Wrap(err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.New(errors.CodeRecordingOpen).Wrap(err)
	}
	return events, nil
}
