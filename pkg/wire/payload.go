// Package wire implements the datagram encoding of link payloads.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// MaxDatagramSize is the largest encoded payload that may be sent.
const MaxDatagramSize = math.MaxUint16

// headerLen is owner(4) sender(4) uid(4) kind(1).
const headerLen = 13

var (
	// ErrMalformedPayload is returned when a datagram cannot be decoded.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrPayloadTooLarge is returned when an encoded payload would exceed MaxDatagramSize.
	ErrPayloadTooLarge = errors.New("payload exceeds max datagram size")
)

// Kind selects the delivery policy applied to a payload.
type Kind byte

// Payload kinds.
const (
	Ack             = Kind(0x0)
	PointToPoint    = Kind(0x1)
	BestEffort      = Kind(0x2)
	Reliable        = Kind(0x3)
	UniformReliable = Kind(0x4)
	FIFO            = Kind(0x5)
)

var kindNames = []string{
	Ack:             "Ack",
	PointToPoint:    "Tcp",
	BestEffort:      "Beb",
	Reliable:        "Rb",
	UniformReliable: "Urb",
	FIFO:            "Fifo",
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("UNKNOWN:%d", k)
	}
	return kindNames[k]
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return int(k) < len(kindNames) }

// IsBroadcast reports whether payloads of this kind are sent to every node.
func (k Kind) IsBroadcast() bool {
	switch k {
	case BestEffort, Reliable, UniformReliable, FIFO:
		return true
	default:
		return false
	}
}

// ParseKind parses a kind name, case-insensitively. Besides the names
// returned by Kind.String, a few long aliases are accepted ("perfect",
// "beb", "urb", ...).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "tcp", "perfect", "perfect-links", "p2p":
		return PointToPoint, nil
	case "beb", "best-effort":
		return BestEffort, nil
	case "rb", "reliable":
		return Reliable, nil
	case "urb", "uniform-reliable":
		return UniformReliable, nil
	case "fifo", "fifob":
		return FIFO, nil
	case "ack":
		return Ack, nil
	}
	return 0, fmt.Errorf("unknown payload kind '%s'", s)
}

// Payload is the unit exchanged between two processes.
type Payload struct {
	OwnerID     uint32
	SenderID    uint32
	PacketUID   uint32
	Kind        Kind
	VectorClock []uint32
	Buffer      []byte
}

// IsAck reports whether the payload is an acknowledgment.
func (p Payload) IsAck() bool { return p.Kind == Ack }

// Ack synthesizes the acknowledgment for p.
func (p Payload) Ack() Payload {
	return Payload{
		OwnerID:     p.OwnerID,
		SenderID:    p.SenderID,
		PacketUID:   p.PacketUID,
		Kind:        Ack,
		VectorClock: p.VectorClock,
	}
}

// Size returns the encoded size of p.
func (p Payload) Size() int {
	return headerLen + 2 + 4*len(p.VectorClock) + 2 + len(p.Buffer)
}

func (p Payload) String() string {
	return fmt.Sprintf("<kind:%s><owner:%d><sender:%d><uid:%d><size:%d>",
		p.Kind, p.OwnerID, p.SenderID, p.PacketUID, len(p.Buffer))
}

// Encode encodes p into a datagram.
func Encode(p Payload) ([]byte, error) {
	if len(p.VectorClock) > math.MaxUint16 || len(p.Buffer) > math.MaxUint16 || p.Size() > MaxDatagramSize {
		return nil, ErrPayloadTooLarge
	}

	b := make([]byte, p.Size())
	binary.BigEndian.PutUint32(b[0:4], p.OwnerID)
	binary.BigEndian.PutUint32(b[4:8], p.SenderID)
	binary.BigEndian.PutUint32(b[8:12], p.PacketUID)
	b[12] = byte(p.Kind)

	off := headerLen
	binary.BigEndian.PutUint16(b[off:], uint16(len(p.VectorClock)))
	off += 2
	for _, c := range p.VectorClock {
		binary.BigEndian.PutUint32(b[off:], c)
		off += 4
	}
	binary.BigEndian.PutUint16(b[off:], uint16(len(p.Buffer)))
	off += 2
	copy(b[off:], p.Buffer)
	return b, nil
}

// Decode decodes a datagram produced by Encode.
func Decode(b []byte) (Payload, error) {
	var p Payload
	if len(b) < headerLen+2 {
		return p, malformed("short header (%d bytes)", len(b))
	}

	p.OwnerID = binary.BigEndian.Uint32(b[0:4])
	p.SenderID = binary.BigEndian.Uint32(b[4:8])
	p.PacketUID = binary.BigEndian.Uint32(b[8:12])
	p.Kind = Kind(b[12])
	if !p.Kind.Valid() {
		return p, malformed("unknown kind %d", b[12])
	}

	off := headerLen
	vcLen := int(binary.BigEndian.Uint16(b[off:]))
	off += 2
	if len(b) < off+4*vcLen+2 {
		return p, malformed("vector clock of %d entries truncated", vcLen)
	}
	if vcLen > 0 {
		p.VectorClock = make([]uint32, vcLen)
		for i := range p.VectorClock {
			p.VectorClock[i] = binary.BigEndian.Uint32(b[off:])
			off += 4
		}
	}

	bufLen := int(binary.BigEndian.Uint16(b[off:]))
	off += 2
	switch {
	case len(b) < off+bufLen:
		return p, malformed("buffer of %d bytes truncated", bufLen)
	case len(b) > off+bufLen:
		return p, malformed("%d trailing bytes", len(b)-off-bufLen)
	}
	if bufLen > 0 {
		p.Buffer = make([]byte, bufLen)
		copy(p.Buffer, b[off:])
	}
	return p, nil
}

func malformed(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, fmt.Sprintf(format, v...))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown payload kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
