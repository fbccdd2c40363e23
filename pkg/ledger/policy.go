package ledger

import "github.com/skycoin/skylink/pkg/wire"

// canDeliver is the delivery precondition of each payload kind.
// Must be called with mx held.
func (l *Ledger) canDeliver(kind wire.Kind, owner, uid uint32) bool {
	switch kind {
	case wire.PointToPoint, wire.BestEffort, wire.Reliable:
		return true
	case wire.UniformReliable:
		return l.hasQuorum(owner, uid)
	case wire.FIFO:
		return l.hasQuorum(owner, uid) && uid == l.nextExpected(owner)
	default:
		return false
	}
}

func (l *Ledger) hasQuorum(owner, uid uint32) bool {
	return l.ackedCounter[owner][uid] >= l.majority
}

// nextExpected returns the FIFO cursor of owner. Sequences start at 1.
func (l *Ledger) nextExpected(owner uint32) uint32 {
	if next, ok := l.receivedUpTo[owner]; ok {
		return next
	}
	return 1
}
