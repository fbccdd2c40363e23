package node

import (
	"context"
	"fmt"
	"strconv"

	"github.com/skycoin/skylink/pkg/broadcast"
	"github.com/skycoin/skylink/pkg/cluster"
	"github.com/skycoin/skylink/pkg/eventlog"
	"github.com/skycoin/skylink/pkg/link"
	"github.com/skycoin/skylink/pkg/wire"
)

// Workload produces the application messages of one process.
type Workload struct {
	Self       uint32
	Nodes      cluster.Nodes
	Mode       wire.Kind
	Messages   int
	ReceiverID uint32 // perfect links only

	Send        *link.Queue
	Broadcaster *broadcast.Broadcaster
	Sink        eventlog.Sink
}

// Payload builds the application payload with sequence number uid.
func (w *Workload) Payload(uid uint32) wire.Payload {
	return wire.Payload{
		OwnerID:     w.Self,
		SenderID:    w.Self,
		PacketUID:   uid,
		Kind:        w.Mode,
		VectorClock: make([]uint32, len(w.Nodes)),
		Buffer:      []byte(strconv.FormatUint(uint64(uid), 10)),
	}
}

// Run dispatches messages 1..Messages and returns.
func (w *Workload) Run(ctx context.Context) error {
	if w.Mode == wire.PointToPoint {
		return w.runPointToPoint(ctx)
	}

	for uid := uint32(1); uid <= uint32(w.Messages); uid++ {
		if ctx.Err() != nil {
			return nil
		}
		p := w.Payload(uid)
		w.Sink.Emit(eventlog.DispatchEvent(p.Kind, w.Self, nil, string(p.Buffer)))
		if err := w.Broadcaster.Broadcast(p); err != nil {
			return stopped(ctx, err)
		}
	}
	log.Infof("Dispatched %d %s messages", w.Messages, w.Mode)
	return nil
}

func (w *Workload) runPointToPoint(ctx context.Context) error {
	if w.ReceiverID == w.Self {
		log.Info("Waiting for deliveries")
		return nil
	}
	dst, ok := w.Nodes.Get(w.ReceiverID)
	if !ok {
		return fmt.Errorf("unknown receiver %d", w.ReceiverID)
	}

	for uid := uint32(1); uid <= uint32(w.Messages); uid++ {
		if ctx.Err() != nil {
			return nil
		}
		p := w.Payload(uid)
		w.Sink.Emit(eventlog.DispatchEvent(p.Kind, w.Self, &dst, string(p.Buffer)))
		if err := w.Send.Push(link.NewMessage(p, dst)); err != nil {
			return stopped(ctx, err)
		}
	}
	log.Infof("Dispatched %d messages to node %d", w.Messages, dst.ID)
	return nil
}

func stopped(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
