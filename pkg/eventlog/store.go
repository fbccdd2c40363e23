package eventlog

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// Store journals events.
type Store interface {
	Record(e Event) error
	Events() ([]Event, error)
	Close() error
}

// NewStore returns a Store of the given type. The empty type disables
// the journal and returns a nil Store.
func NewStore(kind, location string, runID uuid.UUID) (Store, error) {
	switch kind {
	case "":
		return nil, nil
	case "memory":
		return InMemoryStore(), nil
	case "bbolt", "boltdb":
		return BoltStore(location, runID)
	default:
		return nil, fmt.Errorf("no event store of type %s", kind)
	}
}

type inMemoryStore struct {
	events []Event
	mu     sync.Mutex
}

// InMemoryStore implements an in-memory Store.
func InMemoryStore() Store {
	return &inMemoryStore{}
}

func (s *inMemoryStore) Record(e Event) error {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	return nil
}

func (s *inMemoryStore) Events() ([]Event, error) {
	s.mu.Lock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	s.mu.Unlock()
	return out, nil
}

func (s *inMemoryStore) Close() error { return nil }

// boltStore keeps each run's events in its own bucket, keyed by the
// bucket sequence.
type boltStore struct {
	db     *bbolt.DB
	bucket []byte
}

// BoltStore opens (or creates) a BoltDB journal at path and records
// events in the bucket of runID.
func BoltStore(path string, runID uuid.UUID) (Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	b := []byte(runID.String())
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(b); err != nil {
			return fmt.Errorf("failed to create bucket: %s", err)
		}
		return nil
	})
	if err != nil {
		if cErr := db.Close(); cErr != nil {
			log.WithError(cErr).Warn("Failed to close journal")
		}
		return nil, err
	}

	return &boltStore{db: db, bucket: b}, nil
}

func (s *boltStore) Record(e Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(binarySeq(seq), raw)
	})
}

func (s *boltStore) Events() ([]Event, error) {
	events := make([]Event, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(_, v []byte) error {
			var e Event
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			events = append(events, e)
			return nil
		})
	})
	return events, err
}

func (s *boltStore) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Runs lists the run ids journaled in the BoltDB file at path.
func Runs(path string) ([]uuid.UUID, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("Failed to close journal")
		}
	}()

	var runs []uuid.UUID
	err = db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			id, err := uuid.ParseBytes(name)
			if err != nil {
				return nil
			}
			runs = append(runs, id)
			return nil
		})
	})
	return runs, err
}

func binarySeq(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
