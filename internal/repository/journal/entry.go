package journal

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/oshokin/rtc-alarm/internal/diag"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
)

// Entry is one journal record.
type Entry struct {
	// Timestamp is when the event was reported.
	Timestamp time.Time `cbor:"1,keyasint"`
	// RunID identifies the simulator run that wrote the entry.
	RunID string `cbor:"2,keyasint"`
	// Kind classifies the event.
	Kind diag.Kind `cbor:"3,keyasint"`
	// Handle is the alarm involved, or alarm.InvalidHandle.
	Handle alarm.Handle `cbor:"4,keyasint"`
	// Epoch is the alarm or matched epoch.
	Epoch int64 `cbor:"5,keyasint"`
	// Label is the alarm label known to the simulator.
	Label string `cbor:"6,keyasint,omitempty"`
	// Detail is a free-form explanation.
	Detail string `cbor:"7,keyasint,omitempty"`
}

// FromEvent builds an entry from a diagnostic event.
func FromEvent(runID, label string, event diag.Event) Entry {
	return Entry{
		Timestamp: event.Timestamp,
		RunID:     runID,
		Kind:      event.Kind,
		Handle:    event.Handle,
		Epoch:     event.Epoch,
		Label:     label,
		Detail:    event.Detail,
	}
}

var (
	// encMode writes canonical CBOR with nanosecond timestamps.
	encMode cbor.EncMode
	// decMode reads entries written by encMode.
	decMode cbor.DecMode
)

func init() { //nolint:gochecknoinits // CBOR modes are built once and shared.
	var err error

	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("journal: create CBOR encoder mode: %v", err))
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("journal: create CBOR decoder mode: %v", err))
	}
}

// newEncoder returns an entry encoder writing to w.
func newEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// newDecoder returns an entry decoder reading from r.
func newDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
