// Package keyringstore keeps the credential record in the operating system keyring.
package keyringstore

import (
	stderrors "errors"

	"github.com/jrsteele09/go-fittrack-client/credentials"
	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
	"github.com/pkg/errors"
	"github.com/zalando/go-keyring"
)

const recordKey = "session"

var _ credentials.Store = (*Store)(nil)

// Store writes all four entries as one keyring secret so they are replaced and removed together.
type Store struct {
	service string
}

func New(service string) *Store {
	if service == "" {
		service = "fittrack"
	}
	return &Store{service: service}
}

func (s *Store) Load() (credentials.Record, error) {
	secret, err := keyring.Get(s.service, recordKey)
	if stderrors.Is(err, keyring.ErrNotFound) {
		return credentials.Record{}, fterrors.ErrNotFound
	}
	if err != nil {
		return credentials.Record{}, errors.Wrap(err, "[keyringstore.Load] keyring.Get")
	}
	return credentials.Unmarshal([]byte(secret))
}

func (s *Store) Save(record credentials.Record) error {
	data, err := credentials.Marshal(record)
	if err != nil {
		return err
	}
	if err := keyring.Set(s.service, recordKey, string(data)); err != nil {
		return errors.Wrap(err, "[keyringstore.Save] keyring.Set")
	}
	return nil
}

func (s *Store) Clear() error {
	err := keyring.Delete(s.service, recordKey)
	if err != nil && !stderrors.Is(err, keyring.ErrNotFound) {
		return errors.Wrap(err, "[keyringstore.Clear] keyring.Delete")
	}
	return nil
}
