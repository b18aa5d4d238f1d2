package credentials

import (
	"sync"

	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the record for the life of the process only
type MemoryStore struct {
	mu     sync.RWMutex
	record *Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return Record{}, fterrors.ErrNotFound
	}
	return *s.record, nil
}

func (s *MemoryStore) Save(record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = &record
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = nil
	return nil
}
