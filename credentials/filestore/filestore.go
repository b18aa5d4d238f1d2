// Package filestore persists the credential record as a JSON file readable only by its owner.
package filestore

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-fittrack-client/credentials"
	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var _ credentials.Store = (*Store)(nil)

// Store keeps the four credential entries in one file.
// Files are written with 0600 permissions inside a 0700 directory, and every write goes
// through a temp file and rename so a reader never sees half a record.
type Store struct {
	mu     sync.Mutex
	path   string
	logger zerolog.Logger
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a file store at path, creating the parent directory if needed
func New(path string, options ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("[filestore.New] path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "[filestore.New] creating credential directory")
	}
	s := &Store{path: path, logger: log.Logger}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func (s *Store) Load() (credentials.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// #nosec G304 -- path comes from configuration, not request input
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return credentials.Record{}, fterrors.ErrNotFound
	}
	if err != nil {
		return credentials.Record{}, errors.Wrap(err, "[filestore.Load] reading credential file")
	}
	return credentials.Unmarshal(data)
}

func (s *Store) Save(record credentials.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := credentials.Marshal(record)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return errors.Wrap(err, "[filestore.Save] creating temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore.Save] chmod")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore.Save] write")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[filestore.Save] close")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, "[filestore.Save] rename")
	}

	s.logger.Debug().Str("event", "credentials_stored").Str("path", s.path).Msg("credential record written")
	return nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[filestore.Clear] removing credential file")
	}
	s.logger.Debug().Str("event", "credentials_cleared").Str("path", s.path).Msg("credential record removed")
	return nil
}
