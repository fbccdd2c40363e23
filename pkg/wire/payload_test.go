package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	p := Payload{
		OwnerID:     1,
		SenderID:    2,
		PacketUID:   3,
		Kind:        UniformReliable,
		VectorClock: []uint32{7},
		Buffer:      []byte("foo"),
	}

	b, err := Encode(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x0, 0x0, 0x0, 0x1, // owner
		0x0, 0x0, 0x0, 0x2, // sender
		0x0, 0x0, 0x0, 0x3, // uid
		0x4,      // kind
		0x0, 0x1, // vc len
		0x0, 0x0, 0x0, 0x7,
		0x0, 0x3, // buf len
		0x66, 0x6f, 0x6f,
	}, b)
	assert.Equal(t, p.Size(), len(b))

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestEncode_Empty(t *testing.T) {
	p := Payload{OwnerID: 4, PacketUID: 9, Kind: Ack}
	b, err := Encode(p)
	require.NoError(t, err)
	assert.Len(t, b, headerLen+4)

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Nil(t, got.VectorClock)
	assert.Nil(t, got.Buffer)
}

func TestEncode_TooLarge(t *testing.T) {
	p := Payload{Kind: BestEffort, Buffer: make([]byte, MaxDatagramSize-headerLen-4)}
	_, err := Encode(p)
	require.NoError(t, err)

	p.Buffer = append(p.Buffer, 0)
	_, err = Encode(p)
	assert.Equal(t, ErrPayloadTooLarge, err)

	p = Payload{Kind: BestEffort, VectorClock: make([]uint32, MaxDatagramSize/4)}
	_, err = Encode(p)
	assert.Equal(t, ErrPayloadTooLarge, err)
}

func TestDecode_Malformed(t *testing.T) {
	valid, err := Encode(Payload{
		OwnerID:     1,
		SenderID:    1,
		PacketUID:   1,
		Kind:        FIFO,
		VectorClock: []uint32{0, 0},
		Buffer:      []byte("12"),
	})
	require.NoError(t, err)

	unknownKind := append([]byte{}, valid...)
	unknownKind[12] = 0x9

	cases := []struct {
		name string
		b    []byte
	}{
		{name: "nil", b: nil},
		{name: "short header", b: valid[:headerLen]},
		{name: "truncated vector clock", b: valid[:headerLen+2+5]},
		{name: "missing buffer length", b: valid[:headerLen+2+8]},
		{name: "truncated buffer", b: valid[:len(valid)-1]},
		{name: "trailing bytes", b: append(append([]byte{}, valid...), 0x0)},
		{name: "unknown kind", b: unknownKind},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.b)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedPayload), err.Error())
		})
	}
}

func TestPayload_Ack(t *testing.T) {
	p := Payload{OwnerID: 3, SenderID: 2, PacketUID: 8, Kind: FIFO, VectorClock: []uint32{1, 2}, Buffer: []byte("8")}
	ack := p.Ack()

	assert.True(t, ack.IsAck())
	assert.False(t, p.IsAck())
	assert.Equal(t, p.OwnerID, ack.OwnerID)
	assert.Equal(t, p.PacketUID, ack.PacketUID)
	assert.Equal(t, p.VectorClock, ack.VectorClock)
	assert.Empty(t, ack.Buffer)
}

func TestKind(t *testing.T) {
	cases := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "perfect", want: PointToPoint},
		{in: "Tcp", want: PointToPoint},
		{in: "beb", want: BestEffort},
		{in: "RB", want: Reliable},
		{in: "uniform-reliable", want: UniformReliable},
		{in: "fifo", want: FIFO},
		{in: "causal", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseKind(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	assert.Equal(t, "Urb", UniformReliable.String())
	assert.Equal(t, "UNKNOWN:42", Kind(42).String())
	assert.True(t, FIFO.IsBroadcast())
	assert.False(t, PointToPoint.IsBroadcast())
	assert.False(t, Ack.IsBroadcast())
}
