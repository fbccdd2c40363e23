// Package eventlog records dispatch and delivery events: it owns the
// log-writer loop, the output file formats and the event journal.
package eventlog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/skycoin/skycoin/src/util/logging"

	"github.com/skycoin/skylink/pkg/cluster"
	"github.com/skycoin/skylink/pkg/wire"
)

var log = logging.MustGetLogger("eventlog")

// Type is the event type.
type Type byte

// Event types.
const (
	Dispatch = Type(0x1)
	Delivery = Type(0x2)
)

func (t Type) String() string {
	switch t {
	case Dispatch:
		return "dispatch"
	case Delivery:
		return "delivery"
	default:
		return fmt.Sprintf("UNKNOWN:%d", t)
	}
}

// MarshalJSON implements json.Marshaler.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Type) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "dispatch":
		*t = Dispatch
	case "delivery":
		*t = Delivery
	default:
		return fmt.Errorf("invalid event type '%s'", s)
	}
	return nil
}

// Event is a dispatch or delivery record.
type Event struct {
	Type      Type          `json:"type"`
	Kind      wire.Kind     `json:"kind"`
	OwnerID   uint32        `json:"owner_id"`
	Recipient *cluster.Node `json:"recipient,omitempty"` // nil for broadcasts
	Contents  string        `json:"contents"`
	Time      time.Time     `json:"time"`
}

// DispatchEvent records that this process sent an application message.
// The recipient is nil for broadcasts.
func DispatchEvent(kind wire.Kind, owner uint32, recipient *cluster.Node, contents string) Event {
	return Event{
		Type:      Dispatch,
		Kind:      kind,
		OwnerID:   owner,
		Recipient: recipient,
		Contents:  contents,
		Time:      time.Now(),
	}
}

// DeliveryEvent records that an application message authored by owner was delivered.
func DeliveryEvent(kind wire.Kind, owner uint32, contents string) Event {
	return Event{
		Type:     Delivery,
		Kind:     kind,
		OwnerID:  owner,
		Contents: contents,
		Time:     time.Now(),
	}
}

// Sink accepts events. Emit must not block.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(e Event)

// Emit implements Sink.
func (f SinkFunc) Emit(e Event) { f(e) }
