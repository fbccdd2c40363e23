package link

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/skycoin/skylink/internal/queue"
	"github.com/skycoin/skylink/pkg/cluster"
	"github.com/skycoin/skylink/pkg/metrics"
	"github.com/skycoin/skylink/pkg/wire"
)

// Acknowledgments answers whether a destination acknowledged a payload.
type Acknowledgments interface {
	Contains(sender, owner, uid uint32) bool
}

// Inserter records received payloads and acknowledgments.
type Inserter interface {
	Insert(sender uint32, p wire.Payload)
}

// Relayer re-broadcasts received payloads.
type Relayer interface {
	Relay(p wire.Payload)
}

// stopped converts the error of a blocking pop into the loop result:
// cancellation ends the loop cleanly, anything else is fatal.
func stopped(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Sender drains the send queue onto the link.
type Sender struct {
	Self    uint32
	Link    *Link
	Queue   *Queue
	Retrans *Queue // receives non-ack messages after they are sent
}

// Serve runs the send loop until ctx is cancelled or a fatal error occurs.
func (s *Sender) Serve(ctx context.Context) error {
	for {
		msg, err := s.Queue.Pop(ctx)
		if err != nil {
			return stopped(ctx, err)
		}

		msg.Payload.SenderID = s.Self
		if err := s.Link.Send(msg.Destination, msg.Payload); err != nil {
			if errors.Is(err, wire.ErrPayloadTooLarge) {
				log.WithError(err).Warnf("Dropped message to %s", msg.Destination)
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		msg.SendingTime = time.Now()

		if msg.NeedsAck() {
			if err := s.Retrans.Push(msg); err != nil {
				return stopped(ctx, err)
			}
		}
	}
}

// Receiver reads payloads from the link, acknowledges them and records
// them in the ledger.
type Receiver struct {
	Link    *Link
	Nodes   cluster.Nodes
	Queue   *Queue // acks are pushed here
	Ledger  Inserter
	Relay   Relayer // optional
	Metrics metrics.Recorder
}

// Serve runs the receive loop until the link is closed or fails.
// Closing the link after cancelling ctx ends the loop cleanly.
func (r *Receiver) Serve(ctx context.Context) error {
	m := r.Metrics
	if m == nil {
		m = metrics.NewDummy()
	}

	for {
		p, err := r.Link.Receive()
		if err != nil {
			if errors.Is(err, wire.ErrMalformedPayload) {
				m.Malformed()
				log.WithError(err).Debug("Dropped malformed payload")
				continue
			}
			return stopped(ctx, err)
		}

		src, ok := r.Nodes.Get(p.SenderID)
		if !ok {
			log.Warnf("Dropped payload from unknown sender %d", p.SenderID)
			continue
		}
		m.Received(p.Kind)

		if !p.IsAck() {
			if err := r.Queue.Push(NewMessage(p.Ack(), src)); err != nil {
				return stopped(ctx, err)
			}
		}

		r.Ledger.Insert(p.SenderID, p)

		if !p.IsAck() && r.Relay != nil {
			r.Relay.Relay(p)
		}
	}
}

// Retransmitter re-enqueues sent messages that were not acknowledged
// within Offset.
type Retransmitter struct {
	Queue   *Queue // popped
	Send    *Queue // retransmissions are pushed here
	Acks    Acknowledgments
	Offset  time.Duration
	Metrics metrics.Recorder

	wg sync.WaitGroup
}

// Serve runs the retransmission loop until ctx is cancelled. Pending waits
// are stopped before it returns.
func (r *Retransmitter) Serve(ctx context.Context) error {
	defer r.wg.Wait()

	if r.Metrics == nil {
		r.Metrics = metrics.NewDummy()
	}

	for {
		msg, err := r.Queue.Pop(ctx)
		if err != nil {
			return stopped(ctx, err)
		}
		if r.acked(msg) {
			continue
		}

		r.wg.Add(1)
		go r.wait(ctx, msg)
	}
}

func (r *Retransmitter) wait(ctx context.Context, msg *Message) {
	defer r.wg.Done()

	period := r.Offset / 10
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for !msg.ReadyForRetransmission(r.Offset) {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.acked(msg) {
				return
			}
		}
	}
	if r.acked(msg) {
		return
	}

	log.Debugf("Retransmitting %s to %s", msg.Payload, msg.Destination)
	r.Metrics.Retransmitted()
	if err := r.Send.Push(msg); err != nil && err != queue.ErrClosed {
		log.WithError(err).Warn("Failed to enqueue retransmission")
	}
}

func (r *Retransmitter) acked(msg *Message) bool {
	return r.Acks.Contains(msg.Destination.ID, msg.Payload.OwnerID, msg.Payload.PacketUID)
}
