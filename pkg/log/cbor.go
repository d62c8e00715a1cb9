package log

import (
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// logEncMode is the CBOR encoder mode for log events: canonical encoding
// so replay logs are byte-stable across runs.
var logEncMode cbor.EncMode

// logDecMode is the CBOR decoder mode for log events.
var logDecMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:        cbor.TimeRFC3339Nano,
	}
	logEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create log CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	logDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create log CBOR decoder mode: %v", err))
	}
}

// EncodeEvent encodes an Event to CBOR bytes.
func EncodeEvent(event Event) ([]byte, error) {
	return logEncMode.Marshal(event)
}

// DecodeEvent decodes CBOR bytes into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := logDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder creates a CBOR encoder for log events that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return logEncMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder for log events that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return logDecMode.NewDecoder(r)
}

// CBORLogger appends every logged event to an underlying CBOR stream.
// Useful for capturing a replayable diagnostic trace from a running
// application.
type CBORLogger struct {
	mu  sync.Mutex
	enc *cbor.Encoder
}

// NewCBORLogger creates a Logger that writes events to w as a CBOR stream.
func NewCBORLogger(w io.Writer) *CBORLogger {
	return &CBORLogger{enc: NewEncoder(w)}
}

// Log encodes and writes the event. Encoding errors are swallowed: a
// logging failure must never interrupt the operation being logged.
func (l *CBORLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(event)
}

var _ Logger = (*CBORLogger)(nil)
