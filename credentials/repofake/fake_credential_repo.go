package repofake

import (
	"errors"
	"sync"

	"github.com/jrsteele09/go-fittrack-client/credentials"
	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
)

var _ credentials.Store = (*FakeCredentialRepo)(nil)

// FakeCredentialRepo is an in-memory credential store. It counts writes and can be told to
// fail so callers can check how they react to storage errors.
type FakeCredentialRepo struct {
	lock   sync.RWMutex
	record *credentials.Record
	saves  int
	clears int
	FailOn map[string]error // "load", "save" or "clear"
}

func NewFakeCredentialRepo() *FakeCredentialRepo {
	return &FakeCredentialRepo{FailOn: map[string]error{}}
}

// NewFakeCredentialRepoWith starts the repo with a stored record
func NewFakeCredentialRepoWith(record credentials.Record) *FakeCredentialRepo {
	r := NewFakeCredentialRepo()
	r.record = &record
	return r
}

func (r *FakeCredentialRepo) Load() (credentials.Record, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if err := r.FailOn["load"]; err != nil {
		return credentials.Record{}, err
	}
	if r.record == nil {
		return credentials.Record{}, fterrors.ErrNotFound
	}
	return *r.record, nil
}

func (r *FakeCredentialRepo) Save(record credentials.Record) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.FailOn["save"]; err != nil {
		return err
	}
	r.saves++
	r.record = &record
	return nil
}

func (r *FakeCredentialRepo) Clear() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.FailOn["clear"]; err != nil {
		return err
	}
	r.clears++
	r.record = nil
	return nil
}

// Stored returns the current record and whether one exists
func (r *FakeCredentialRepo) Stored() (credentials.Record, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.record == nil {
		return credentials.Record{}, false
	}
	return *r.record, true
}

func (r *FakeCredentialRepo) Saves() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.saves
}

func (r *FakeCredentialRepo) Clears() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.clears
}

// ErrInjected is a convenience error for FailOn
var ErrInjected = errors.New("injected storage failure")
