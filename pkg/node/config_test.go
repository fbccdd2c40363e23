package node

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycoin/skylink/internal/testhelpers"
	"github.com/skycoin/skylink/pkg/eventlog"
	"github.com/skycoin/skylink/pkg/wire"
)

func TestParseConfig_JSON(t *testing.T) {
	raw := `{
		"mode": "urb",
		"messages": 25,
		"retransmission_offset": "250ms",
		"log_level": "debug",
		"output": {"format": "verbose"},
		"journal": {"type": "memory"},
		"interfaces": {"http": "localhost:0"}
	}`

	c, err := ParseConfig(strings.NewReader(raw), wire.PointToPoint)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, wire.UniformReliable, c.Mode)
	assert.Equal(t, 25, c.Messages)
	assert.Equal(t, Duration(250*time.Millisecond), c.RetransmissionOffset)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, eventlog.FormatVerbose, c.OutputFormat())
	assert.Equal(t, "memory", c.Journal.Type)
	assert.Equal(t, "localhost:0", c.Interfaces.HTTPAddress)
}

func TestParseConfig_JSONDefaults(t *testing.T) {
	c, err := ParseConfig(strings.NewReader(`{"messages": 3, "retransmission_offset": 1000000}`), wire.FIFO)
	require.NoError(t, err)

	assert.Equal(t, wire.FIFO, c.Mode)
	assert.Equal(t, Duration(time.Millisecond), c.RetransmissionOffset)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, eventlog.FormatCompat, c.OutputFormat())
}

func TestParseConfig_Legacy(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		mode     wire.Kind
		messages int
		receiver uint32
		wantErr  bool
	}{
		{name: "perfect links", in: "10 2\n", mode: wire.PointToPoint, messages: 10, receiver: 2},
		{name: "broadcast", in: "\n  7\n", mode: wire.FIFO, messages: 7},
		{name: "empty", in: "\n", mode: wire.FIFO, wantErr: true},
		{name: "garbage count", in: "x 1", mode: wire.FIFO, wantErr: true},
		{name: "garbage receiver", in: "1 x", mode: wire.FIFO, wantErr: true},
		{name: "too many fields", in: "1 2 3", mode: wire.FIFO, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := ParseConfig(strings.NewReader(tc.in), tc.mode)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.mode, c.Mode)
			assert.Equal(t, tc.messages, c.Messages)
			assert.Equal(t, tc.receiver, c.ReceiverID)
			assert.Equal(t, Duration(DefaultRetransmissionOffset), c.RetransmissionOffset)
		})
	}
}

func TestParseConfig_UnknownField(t *testing.T) {
	_, err := ParseConfig(strings.NewReader(`{"mesages": 3}`), wire.FIFO)
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	c := DefaultConfig()
	c.Messages = 1
	assert.Error(t, c.Validate(), "perfect links without a receiver")

	c.ReceiverID = 1
	assert.NoError(t, c.Validate())

	c.Mode = wire.Ack
	assert.Error(t, c.Validate())

	c.Mode = wire.BestEffort
	c.Output.Format = "xml"
	assert.Error(t, c.Validate())
}

func TestReadConfig(t *testing.T) {
	dir, cleanup := testhelpers.TempDir(t, "skylink-config")
	defer cleanup()

	path := filepath.Join(dir, "config")
	require.NoError(t, ioutil.WriteFile(path, []byte("4\n"), 0600))

	c, err := ReadConfig(path, wire.Reliable)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Messages)
	assert.Equal(t, wire.Reliable, c.Mode)

	_, err = ReadConfig(filepath.Join(dir, "missing"), wire.Reliable)
	assert.Error(t, err)
}

func TestConfig_EventStore(t *testing.T) {
	dir, cleanup := testhelpers.TempDir(t, "skylink-journal")
	defer cleanup()

	c := DefaultConfig()
	s, err := c.EventStore(uuid.New())
	require.NoError(t, err)
	assert.Nil(t, s)

	c.Journal.Type = "memory"
	s, err = c.EventStore(uuid.New())
	require.NoError(t, err)
	require.NotNil(t, s)
	require.NoError(t, s.Close())

	c.Journal = JournalFields{Type: "bbolt", Location: filepath.Join(dir, "nested", "journal.db")}
	s, err = c.EventStore(uuid.New())
	require.NoError(t, err)
	require.NoError(t, s.Record(eventlog.DeliveryEvent(wire.FIFO, 1, "1")))
	require.NoError(t, s.Close())

	_, err = os.Stat(c.Journal.Location)
	assert.NoError(t, err)

	c.Journal.Type = "sql"
	_, err = c.EventStore(uuid.New())
	assert.Error(t, err)
}

func TestDuration_JSON(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	raw, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(raw))

	var got Duration
	require.NoError(t, got.UnmarshalJSON(raw))
	assert.Equal(t, d, got)
	assert.Error(t, got.UnmarshalJSON([]byte(`true`)))
}
