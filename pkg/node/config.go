package node

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skycoin/skylink/pkg/eventlog"
	"github.com/skycoin/skylink/pkg/util/env"
	"github.com/skycoin/skylink/pkg/util/pathutil"
	"github.com/skycoin/skylink/pkg/wire"
)

// DefaultRetransmissionOffset is the time a message waits for its
// acknowledgment before it is sent again.
const DefaultRetransmissionOffset = 100 * time.Millisecond

// OffsetEnv overrides DefaultRetransmissionOffset when set.
const OffsetEnv = "SKYLINK_RETRANSMISSION_OFFSET"

// OutputFields configures the output file.
type OutputFields struct {
	Format string `json:"format"` // compat or verbose
}

// JournalFields configures the event journal.
type JournalFields struct {
	Type     string `json:"type"` // memory, bbolt or empty to disable
	Location string `json:"location"`
}

// InterfaceConfig defines listening interfaces of the process.
type InterfaceConfig struct {
	HTTPAddress string `json:"http"` // status API address (leave blank to disable).
}

// Config defines configuration parameters for Node.
type Config struct {
	Mode                 wire.Kind `json:"mode"`
	Messages             int       `json:"messages"`
	ReceiverID           uint32    `json:"receiver_id"`
	RetransmissionOffset Duration  `json:"retransmission_offset"`

	LogLevel string `json:"log_level"`

	Output     OutputFields    `json:"output"`
	Journal    JournalFields   `json:"journal"`
	Interfaces InterfaceConfig `json:"interfaces"`
}

// DefaultConfig returns a config with every default applied.
func DefaultConfig() *Config {
	c := &Config{Mode: wire.PointToPoint}
	c.Defaults()
	return c
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.RetransmissionOffset <= 0 {
		c.RetransmissionOffset = Duration(env.Duration(OffsetEnv, DefaultRetransmissionOffset))
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Output.Format == "" {
		c.Output.Format = string(eventlog.FormatCompat)
	}
}

// Validate checks the config against the cluster size.
func (c *Config) Validate() error {
	if !c.Mode.Valid() || c.Mode == wire.Ack {
		return fmt.Errorf("invalid mode %s", c.Mode)
	}
	if c.Messages < 0 {
		return fmt.Errorf("invalid message count %d", c.Messages)
	}
	if c.Mode == wire.PointToPoint && c.ReceiverID == 0 && c.Messages > 0 {
		return errors.New("perfect links mode needs a receiver id")
	}
	if _, err := eventlog.ParseFormat(c.Output.Format); err != nil {
		return err
	}
	return nil
}

// OutputFormat returns the parsed output format.
func (c *Config) OutputFormat() eventlog.Format {
	f, err := eventlog.ParseFormat(c.Output.Format)
	if err != nil {
		return eventlog.FormatCompat
	}
	return f
}

// EventStore opens the configured journal for the run runID. It returns
// a nil Store when the journal is disabled.
func (c *Config) EventStore(runID uuid.UUID) (eventlog.Store, error) {
	location := c.Journal.Location
	if c.Journal.Type == "bbolt" || c.Journal.Type == "boltdb" {
		if location == "" {
			location = filepath.Join(pathutil.HomeDir(), ".skylink", "journal.db")
		}
		var err error
		if location, err = pathutil.EnsureParent(location); err != nil {
			return nil, err
		}
	}
	return eventlog.NewStore(c.Journal.Type, location, runID)
}

// ReadConfig reads a config file. Both the JSON format and the plain
// "m [i]" format are accepted; the latter keeps mode as given.
func ReadConfig(path string, mode wire.Kind) (*Config, error) {
	raw, err := ioutil.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %s", err)
	}
	return ParseConfig(bytes.NewReader(raw), mode)
}

// ParseConfig parses a config. mode is the mode used when the config does
// not set one.
func ParseConfig(r io.Reader, mode wire.Kind) (*Config, error) {
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	c := &Config{Mode: mode}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(c); err != nil {
			return nil, fmt.Errorf("failed to decode config: %s", err)
		}
	} else if err := parseLegacy(raw, c); err != nil {
		return nil, err
	}

	c.Defaults()
	return c, nil
}

func parseLegacy(raw []byte, c *Config) error {
	s := bufio.NewScanner(bytes.NewReader(raw))
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) > 2 {
			return fmt.Errorf("invalid config line %q", s.Text())
		}

		m, err := strconv.ParseUint(fields[0], 10, 31)
		if err != nil {
			return fmt.Errorf("invalid message count %q", fields[0])
		}
		c.Messages = int(m)

		if len(fields) == 2 {
			id, err := strconv.ParseUint(fields[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid receiver id %q", fields[1])
			}
			c.ReceiverID = uint32(id)
		}
		return nil
	}
	if err := s.Err(); err != nil {
		return err
	}
	return errors.New("empty config")
}

// Duration wraps around time.Duration to allow parsing from and to JSON
type Duration time.Duration

// MarshalJSON implements json marshaling
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements unmarshal from json
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return errors.New("invalid duration")
	}
}
