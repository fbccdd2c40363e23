package link

import (
	"time"

	"github.com/skycoin/skylink/internal/queue"
	"github.com/skycoin/skylink/pkg/cluster"
	"github.com/skycoin/skylink/pkg/wire"
)

// Queue carries messages between pipeline stages.
type Queue = queue.Queue[*Message]

// NewQueue returns an empty message queue.
func NewQueue() *Queue { return queue.New[*Message]() }

// Message is a payload addressed to one destination.
type Message struct {
	Payload     wire.Payload
	Destination cluster.Node
	SendingTime time.Time // zero until first sent
}

// NewMessage addresses p to dst.
func NewMessage(p wire.Payload, dst cluster.Node) *Message {
	return &Message{Payload: p, Destination: dst}
}

// ReadyForRetransmission reports whether at least offset elapsed since the
// message was last sent.
func (m *Message) ReadyForRetransmission(offset time.Duration) bool {
	return time.Since(m.SendingTime) >= offset
}

// NeedsAck reports whether the message stays in the retransmission
// cycle until the destination acknowledges it.
func (m *Message) NeedsAck() bool { return !m.Payload.IsAck() }
