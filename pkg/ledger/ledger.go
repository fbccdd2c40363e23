// Package ledger implements the delivery ledger shared by the receive
// loop, the retransmission loop and the broadcast call sites. It
// deduplicates acknowledgments, counts distinct acknowledging senders and
// decides when a payload is delivered.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/btree"
	"github.com/skycoin/skycoin/src/util/logging"

	"github.com/skycoin/skylink/pkg/cluster"
	"github.com/skycoin/skylink/pkg/eventlog"
	"github.com/skycoin/skylink/pkg/wire"
)

var log = logging.MustGetLogger("ledger")

// ErrInvariantViolation is the value panicked with when the ledger finds
// itself in an impossible state.
var ErrInvariantViolation = errors.New("ledger invariant violation")

type uidSet map[uint32]struct{}

func (s uidSet) has(uid uint32) bool {
	_, ok := s[uid]
	return ok
}

// parked is an undelivered payload ordered by its packet uid.
type parked struct {
	uid     uint32
	payload wire.Payload
}

func (a parked) Less(b btree.Item) bool {
	return a.uid < b.(parked).uid
}

// Ledger is the per-process delivery ledger. Every exported method is
// atomic with respect to the others.
type Ledger struct {
	self     uint32
	majority int
	sink     eventlog.Sink

	mx           sync.Mutex
	acked        map[uint32]map[uint32]uidSet // sender -> owner -> uids
	ackedCounter map[uint32]map[uint32]int    // owner -> uid -> distinct senders
	receivedUpTo map[uint32]uint32            // owner -> next FIFO uid
	undelivered  map[uint32]*btree.BTree      // owner -> parked payloads
	delivered    map[uint32]uidSet            // owner -> uids
}

// New creates the ledger of process self in a cluster of total nodes.
// Delivery events are emitted to sink.
func New(self uint32, total int, sink eventlog.Sink) *Ledger {
	if sink == nil {
		sink = eventlog.SinkFunc(func(eventlog.Event) {})
	}
	return &Ledger{
		self:         self,
		majority:     cluster.Majority(total),
		sink:         sink,
		acked:        make(map[uint32]map[uint32]uidSet),
		ackedCounter: make(map[uint32]map[uint32]int),
		receivedUpTo: make(map[uint32]uint32),
		undelivered:  make(map[uint32]*btree.BTree),
		delivered:    make(map[uint32]uidSet),
	}
}

// Majority returns the number of distinct acknowledgments a uniform
// payload needs before it is delivered.
func (l *Ledger) Majority() int { return l.majority }

// Insert records that sender acknowledged (or sent) p and delivers
// whatever became deliverable as a result.
func (l *Ledger) Insert(sender uint32, p wire.Payload) {
	l.mx.Lock()
	defer l.mx.Unlock()
	l.insert(sender, p)
}

// MarkSeen records p as acknowledged by this process. It returns true
// when p had not been seen locally before.
func (l *Ledger) MarkSeen(p wire.Payload) bool {
	l.mx.Lock()
	defer l.mx.Unlock()

	if l.contains(l.self, p.OwnerID, p.PacketUID) {
		return false
	}
	l.insert(l.self, p)
	return true
}

// WasSeen reports whether p was marked as seen by this process.
func (l *Ledger) WasSeen(p wire.Payload) bool {
	return l.Contains(l.self, p.OwnerID, p.PacketUID)
}

// Contains reports whether sender acknowledged (owner, uid).
func (l *Ledger) Contains(sender, owner, uid uint32) bool {
	l.mx.Lock()
	defer l.mx.Unlock()
	return l.contains(sender, owner, uid)
}

// IsDelivered reports whether (owner, uid) was delivered.
func (l *Ledger) IsDelivered(owner, uid uint32) bool {
	l.mx.Lock()
	defer l.mx.Unlock()
	return l.delivered[owner].has(uid)
}

// AckCount returns the number of distinct senders that acknowledged (owner, uid).
func (l *Ledger) AckCount(owner, uid uint32) int {
	l.mx.Lock()
	defer l.mx.Unlock()
	return l.ackedCounter[owner][uid]
}

// IsParked reports whether (owner, uid) is held back waiting for its
// delivery precondition.
func (l *Ledger) IsParked(owner, uid uint32) bool {
	l.mx.Lock()
	defer l.mx.Unlock()
	t, ok := l.undelivered[owner]
	return ok && t.Has(parked{uid: uid})
}

func (l *Ledger) contains(sender, owner, uid uint32) bool {
	return l.acked[sender][owner].has(uid)
}

// insert must be called with mx held.
func (l *Ledger) insert(sender uint32, p wire.Payload) {
	owner, uid := p.OwnerID, p.PacketUID

	byOwner, ok := l.acked[sender]
	if !ok {
		byOwner = make(map[uint32]uidSet)
		l.acked[sender] = byOwner
	}
	acked, ok := byOwner[owner]
	if !ok {
		acked = make(uidSet)
		byOwner[owner] = acked
	}

	alreadyAcked := acked.has(uid)
	acked[uid] = struct{}{}

	if !alreadyAcked {
		counter, ok := l.ackedCounter[owner]
		if !ok {
			counter = make(map[uint32]int)
			l.ackedCounter[owner] = counter
		}
		counter[uid]++
	}

	if l.delivered[owner].has(uid) {
		return
	}

	if p.IsAck() {
		// Acks only count; they can complete the quorum of a payload
		// that is already parked here.
		if t, ok := l.undelivered[owner]; !ok || !t.Has(parked{uid: uid}) {
			return
		}
	} else {
		l.park(p)
	}
	l.tryDeliver(owner, uid)
}

func (l *Ledger) park(p wire.Payload) {
	t, ok := l.undelivered[p.OwnerID]
	if !ok {
		t = btree.New(2)
		l.undelivered[p.OwnerID] = t
	}
	t.ReplaceOrInsert(parked{uid: p.PacketUID, payload: p})
}

// tryDeliver delivers the parked payload (owner, uid) if its precondition
// holds and, for FIFO payloads, keeps draining the successors that became
// deliverable.
func (l *Ledger) tryDeliver(owner, uid uint32) {
	for {
		t, ok := l.undelivered[owner]
		if !ok {
			return
		}
		item := t.Get(parked{uid: uid})
		if item == nil {
			return
		}
		p := item.(parked).payload

		if !l.canDeliver(p.Kind, owner, uid) {
			return
		}
		l.deliver(p)

		if p.Kind != wire.FIFO {
			return
		}
		l.receivedUpTo[owner] = uid + 1
		uid++
	}
}

func (l *Ledger) deliver(p wire.Payload) {
	owner, uid := p.OwnerID, p.PacketUID

	t, ok := l.undelivered[owner]
	if !ok || t.Delete(parked{uid: uid}) == nil {
		panic(fmt.Errorf("%w: no undelivered entry for owner %d uid %d", ErrInvariantViolation, owner, uid))
	}
	if t.Len() == 0 {
		delete(l.undelivered, owner)
	}

	set, ok := l.delivered[owner]
	if !ok {
		set = make(uidSet)
		l.delivered[owner] = set
	}
	set[uid] = struct{}{}

	log.Debugf("delivered %s", p)
	l.sink.Emit(eventlog.DeliveryEvent(p.Kind, owner, string(p.Buffer)))
}

// OwnerStats summarises the ledger state of one owner.
type OwnerStats struct {
	OwnerID      uint32 `json:"owner_id"`
	Delivered    int    `json:"delivered"`
	Parked       int    `json:"parked"`
	NextExpected uint32 `json:"next_expected"`
}

// Stats is a point-in-time summary of the ledger.
type Stats struct {
	Majority  int          `json:"majority"`
	Delivered int          `json:"delivered"`
	Parked    int          `json:"parked"`
	Owners    []OwnerStats `json:"owners"`
}

// Stats returns a summary of the ledger.
func (l *Ledger) Stats() Stats {
	l.mx.Lock()
	defer l.mx.Unlock()

	owners := make(map[uint32]*OwnerStats)
	get := func(owner uint32) *OwnerStats {
		s, ok := owners[owner]
		if !ok {
			s = &OwnerStats{OwnerID: owner, NextExpected: l.nextExpected(owner)}
			owners[owner] = s
		}
		return s
	}

	stats := Stats{Majority: l.majority}
	for owner, set := range l.delivered {
		get(owner).Delivered = len(set)
		stats.Delivered += len(set)
	}
	for owner, t := range l.undelivered {
		get(owner).Parked = t.Len()
		stats.Parked += t.Len()
	}

	stats.Owners = make([]OwnerStats, 0, len(owners))
	for _, s := range owners {
		stats.Owners = append(stats.Owners, *s)
	}
	sort.Slice(stats.Owners, func(i, j int) bool { return stats.Owners[i].OwnerID < stats.Owners[j].OwnerID })
	return stats
}
