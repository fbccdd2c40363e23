// Package link implements perfect point-to-point links over UDP: the
// datagram transport and the send, receive and retransmission loops
// that turn it into an acknowledged, retransmitting channel.
package link

import (
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/skycoin/skycoin/src/util/logging"

	"github.com/skycoin/skylink/internal/netutil"
	"github.com/skycoin/skylink/pkg/cluster"
	"github.com/skycoin/skylink/pkg/metrics"
	"github.com/skycoin/skylink/pkg/wire"
)

var log = logging.MustGetLogger("link")

const (
	bindBackoff   = 100 * time.Millisecond
	bindThreshold = 5 * time.Second
)

// TransportError is a socket failure. It is fatal for the process.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return "transport " + e.Op + ": " + e.Err.Error() }

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }

// Link sends and receives payloads on one datagram socket.
type Link struct {
	conn net.PacketConn
	m    metrics.Recorder

	addrs  map[uint32]net.Addr
	addrMx sync.Mutex

	buf []byte // receive buffer, owned by the receive loop
}

// BindRetrier retries binding while the address is still held by a
// previous process (EADDRINUSE). Any other error fails immediately.
func BindRetrier() *netutil.Retrier {
	return netutil.NewRetrier(bindBackoff, bindThreshold, 2).WithErrFilter(func(err error) bool {
		return !errors.Is(err, syscall.EADDRINUSE)
	})
}

// Bind binds a UDP socket at addr, retrying failed attempts with r.
// A nil r uses BindRetrier.
func Bind(addr string, r *netutil.Retrier, m metrics.Recorder) (*Link, error) {
	if r == nil {
		r = BindRetrier()
	}

	var conn net.PacketConn
	err := r.Do(func() error {
		c, err := net.ListenPacket("udp", addr)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, &TransportError{Op: "bind", Err: err}
	}

	log.Infof("bound socket at %s", conn.LocalAddr())
	return NewLink(conn, m), nil
}

// NewLink wraps an already bound socket.
func NewLink(conn net.PacketConn, m metrics.Recorder) *Link {
	if m == nil {
		m = metrics.NewDummy()
	}
	return &Link{
		conn:  conn,
		m:     m,
		addrs: make(map[uint32]net.Addr),
		buf:   make([]byte, wire.MaxDatagramSize),
	}
}

// LocalAddr returns the bound address.
func (l *Link) LocalAddr() net.Addr { return l.conn.LocalAddr() }

// Close closes the socket, unblocking Receive.
func (l *Link) Close() error { return l.conn.Close() }

// Send encodes p and writes it to dst as one datagram.
func (l *Link) Send(dst cluster.Node, p wire.Payload) error {
	b, err := wire.Encode(p)
	if err != nil {
		return err
	}

	addr, err := l.resolve(dst)
	if err != nil {
		return &TransportError{Op: "resolve", Err: err}
	}
	if _, err := l.conn.WriteTo(b, addr); err != nil {
		return &TransportError{Op: "send", Err: err}
	}

	l.m.Sent(p.Kind)
	return nil
}

// Receive blocks until one datagram arrives and decodes it. Undecodable
// datagrams yield an error wrapping wire.ErrMalformedPayload.
// Receive must not be called concurrently.
func (l *Link) Receive() (wire.Payload, error) {
	n, from, err := l.conn.ReadFrom(l.buf)
	if err != nil {
		return wire.Payload{}, &TransportError{Op: "receive", Err: err}
	}

	p, err := wire.Decode(l.buf[:n])
	if err != nil {
		return p, errors.Wrapf(err, "datagram from %s", from)
	}
	return p, nil
}

func (l *Link) resolve(dst cluster.Node) (net.Addr, error) {
	l.addrMx.Lock()
	defer l.addrMx.Unlock()

	if addr, ok := l.addrs[dst.ID]; ok {
		return addr, nil
	}
	addr, err := net.ResolveUDPAddr("udp", dst.Addr())
	if err != nil {
		return nil, err
	}
	l.addrs[dst.ID] = addr
	return addr, nil
}
