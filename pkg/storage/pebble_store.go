package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

var (
	resourcePrefix = []byte("resource/")
	namePrefix     = []byte("name/")
)

// PebbleStore keeps dataset resources in a pebble database. Opened read-only
// it can be shared by several processes.
type PebbleStore struct {
	db       *pebble.DB
	readOnly bool
}

func OpenPebbleStore(dir string, readOnly bool) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("open pebble store %s: %w", dir, err)
	}
	return &PebbleStore{db: db, readOnly: readOnly}, nil
}

func resourceKey(name ResourceName) []byte {
	key := make([]byte, 0, len(resourcePrefix)+len(name))
	key = append(key, resourcePrefix...)
	return append(key, name...)
}

func nameKey(id uint32) []byte {
	key := make([]byte, len(namePrefix)+4)
	copy(key, namePrefix)
	binary.BigEndian.PutUint32(key[len(namePrefix):], id)
	return key
}

func (s *PebbleStore) get(key []byte) ([]byte, bool, error) {
	val, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	out := make([]byte, len(val))
	copy(out, val)
	return out, true, nil
}

func (s *PebbleStore) ReadResource(name ResourceName) ([]byte, error) {
	raw, ok, err := s.get(resourceKey(name))
	if err != nil {
		return nil, fmt.Errorf("read resource %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
	}
	return raw, nil
}

func (s *PebbleStore) WriteResource(name ResourceName, raw []byte) error {
	if err := s.db.Set(resourceKey(name), raw, pebble.Sync); err != nil {
		return fmt.Errorf("write resource %s: %w", name, err)
	}
	return nil
}

// WriteNames stores every name under its own key so readers can resolve
// single names without loading the whole table.
func (s *PebbleStore) WriteNames(names []string) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for i, name := range names {
		if err := batch.Set(nameKey(uint32(i)), []byte(name), nil); err != nil {
			return fmt.Errorf("write name %d: %w", i, err)
		}
	}
	return batch.Commit(pebble.Sync)
}

func (s *PebbleStore) ReadName(id uint32) (string, bool, error) {
	raw, ok, err := s.get(nameKey(id))
	if err != nil {
		return "", false, fmt.Errorf("read name %d: %w", id, err)
	}
	return string(raw), ok, nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}
