// Package broadcast implements best-effort, reliable, uniform reliable and
// FIFO broadcast on top of the perfect links and the delivery ledger.
package broadcast

import (
	"errors"

	"github.com/skycoin/skycoin/src/util/logging"

	"github.com/skycoin/skylink/pkg/cluster"
	"github.com/skycoin/skylink/pkg/ledger"
	"github.com/skycoin/skylink/pkg/link"
	"github.com/skycoin/skylink/pkg/wire"
)

var log = logging.MustGetLogger("broadcast")

// ErrNotBroadcast is returned by Broadcast for payload kinds that are not
// broadcast primitives.
var ErrNotBroadcast = errors.New("payload kind is not a broadcast")

// Broadcaster fans payloads out to every other node of the cluster.
type Broadcaster struct {
	self   uint32
	nodes  cluster.Nodes
	queue  *link.Queue
	ledger *ledger.Ledger
}

// New creates the broadcaster of process self. Messages are pushed to q.
func New(self uint32, nodes cluster.Nodes, q *link.Queue, l *ledger.Ledger) *Broadcaster {
	return &Broadcaster{self: self, nodes: nodes, queue: q, ledger: l}
}

// BestEffort sends p to every other node once, then marks it as seen
// locally.
func (b *Broadcaster) BestEffort(p wire.Payload) error {
	if err := b.fanOut(p); err != nil {
		return err
	}
	b.ledger.MarkSeen(p)
	return nil
}

// Reliable best-effort broadcasts p unless it was already seen locally.
func (b *Broadcaster) Reliable(p wire.Payload) error {
	if !b.ledger.MarkSeen(p) {
		return nil
	}
	return b.fanOut(p)
}

// UniformReliable broadcasts p like Reliable. Delivery waits for a
// majority of acknowledgments in the ledger.
func (b *Broadcaster) UniformReliable(p wire.Payload) error {
	return b.Reliable(p)
}

// FIFO broadcasts p like UniformReliable. The ledger delivers the
// payloads of each owner in uid order.
func (b *Broadcaster) FIFO(p wire.Payload) error {
	return b.UniformReliable(p)
}

// Broadcast dispatches p on its kind.
func (b *Broadcaster) Broadcast(p wire.Payload) error {
	switch p.Kind {
	case wire.BestEffort:
		return b.BestEffort(p)
	case wire.Reliable:
		return b.Reliable(p)
	case wire.UniformReliable:
		return b.UniformReliable(p)
	case wire.FIFO:
		return b.FIFO(p)
	default:
		return ErrNotBroadcast
	}
}

// Relay re-broadcasts a received payload of a relaying kind. Each process
// relays a payload at most once.
func (b *Broadcaster) Relay(p wire.Payload) {
	switch p.Kind {
	case wire.Reliable, wire.UniformReliable, wire.FIFO:
	default:
		return
	}
	if err := b.Reliable(p); err != nil {
		log.WithError(err).Warnf("Failed to relay %s", p)
	}
}

func (b *Broadcaster) fanOut(p wire.Payload) error {
	for _, dst := range b.nodes.Others(b.self) {
		if err := b.queue.Push(link.NewMessage(p, dst)); err != nil {
			return err
		}
	}
	return nil
}
