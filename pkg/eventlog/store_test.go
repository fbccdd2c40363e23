package eventlog

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycoin/skylink/pkg/cluster"
	"github.com/skycoin/skylink/pkg/wire"
)

func testStore(t *testing.T, s Store) {
	t.Helper()

	to := &cluster.Node{ID: 2, Address: "localhost", Port: 11002}
	require.NoError(t, s.Record(DispatchEvent(wire.PointToPoint, 1, to, "1")))
	require.NoError(t, s.Record(DeliveryEvent(wire.UniformReliable, 3, "5")))

	events, err := s.Events()
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, Dispatch, events[0].Type)
	assert.Equal(t, wire.PointToPoint, events[0].Kind)
	require.NotNil(t, events[0].Recipient)
	assert.Equal(t, uint32(2), events[0].Recipient.ID)

	assert.Equal(t, Delivery, events[1].Type)
	assert.Equal(t, wire.UniformReliable, events[1].Kind)
	assert.Equal(t, uint32(3), events[1].OwnerID)
	assert.Equal(t, "5", events[1].Contents)
}

func TestInMemoryStore(t *testing.T) {
	testStore(t, InMemoryStore())
}

func TestBoltStore(t *testing.T) {
	dbfile, err := ioutil.TempFile("", "journal.db")
	require.NoError(t, err)
	require.NoError(t, dbfile.Close())
	defer func() {
		require.NoError(t, os.Remove(dbfile.Name()))
	}()

	run1 := uuid.New()
	s, err := BoltStore(dbfile.Name(), run1)
	require.NoError(t, err)
	testStore(t, s)
	require.NoError(t, s.Close())

	run2 := uuid.New()
	s, err = BoltStore(dbfile.Name(), run2)
	require.NoError(t, err)
	events, err := s.Events()
	require.NoError(t, err)
	assert.Empty(t, events)
	require.NoError(t, s.Close())

	runs, err := Runs(dbfile.Name())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{run1, run2}, runs)
}

func TestNewStore(t *testing.T) {
	s, err := NewStore("", "", uuid.New())
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = NewStore("memory", "", uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = NewStore("redis", "", uuid.New())
	assert.Error(t, err)
}

func TestEvent_JSON(t *testing.T) {
	e := DeliveryEvent(wire.FIFO, 4, "2")
	raw, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"delivery"`)
	assert.Contains(t, string(raw), `"kind":"Fifo"`)
	assert.NotContains(t, string(raw), "recipient")
}
