// Package session owns the single source of truth for who is logged in. Every change to the
// in-memory session and the persisted credential record goes through Machine.
package session

import (
	"context"
	"encoding/json"
	"maps"
	"sync"
	"time"

	"github.com/jrsteele09/go-fittrack-client/credentials"
	"github.com/jrsteele09/go-fittrack-client/identity"
	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
	"github.com/jrsteele09/go-fittrack-client/registration"
	"github.com/jrsteele09/go-fittrack-client/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	msgStoreUnreadable = "Stored credentials could not be read. Please log in again."
	msgStoreUnwritable = "Login succeeded but credentials could not be saved."
	msgSuperseded      = "Login was cancelled by logout."
)

// Authenticator exchanges a username and password for tokens and a profile
type Authenticator interface {
	ExchangePassword(ctx context.Context, username, password string) (*identity.Grant, error)
}

// Registrar creates accounts
type Registrar interface {
	Register(ctx context.Context, req registration.Request) (*registration.Profile, error)
}

// Invalidation describes a session ended by the transport layer. Err is set when the
// stored record could not be cleared, so the revoked token would be restored on next start.
type Invalidation struct {
	SubjectID string
	At        time.Time
	Err       error
}

var (
	_ transport.CredentialSource = (*Machine)(nil)
	_ transport.Invalidator      = (*Machine)(nil)
)

// Machine is the session state machine. Create one per process with New.
//
// mu guards the session, the mirrored record and the store writes together, so a reader
// never sees the two disagree. No lock is held across network calls.
type Machine struct {
	mu         sync.RWMutex
	session    Session
	record     credentials.Record
	persisted  bool   // store may hold a record
	generation uint64 // bumped whenever a session is torn down

	loginMu sync.Mutex // one login in flight at a time

	handlersMu sync.Mutex
	handlers   []func(Invalidation)

	store  credentials.Store
	authn  Authenticator
	reg    Registrar
	logger zerolog.Logger
	now    func() time.Time
}

type Option func(*Machine)

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithNowTime sets the clock used to stamp invalidations (primarily for testing)
func WithNowTime(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// New builds the machine and hydrates it from the store. A stored access token is trusted
// without contacting the authority; a revoked token is discovered on its first 401.
func New(store credentials.Store, authn Authenticator, reg Registrar, options ...Option) *Machine {
	m := &Machine{
		store:   store,
		authn:   authn,
		reg:     reg,
		logger:  log.Logger,
		now:     time.Now,
		session: Session{Status: StatusAuthenticating},
	}
	for _, opt := range options {
		opt(m)
	}
	m.hydrate()
	return m
}

func (m *Machine) hydrate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, err := m.store.Load()
	switch {
	case errors.Is(err, fterrors.ErrNotFound):
		m.session = Session{Status: StatusAnonymous}
		return
	case errors.Is(err, credentials.ErrCorrupt):
		m.logger.Warn().Err(err).Msg("discarding corrupt credential record")
		m.persisted = true
		_ = m.discardStored()
		m.session = Session{Status: StatusAnonymous}
		return
	case err != nil:
		m.logger.Error().Err(err).Msg("unable to read credential record")
		m.persisted = true
		m.session = Session{Status: StatusFailed, LastError: msgStoreUnreadable}
		return
	}

	m.persisted = true
	if !record.HasToken() {
		_ = m.discardStored()
		m.session = Session{Status: StatusAnonymous}
		return
	}

	var user *identity.Profile
	if record.User != "" {
		user = &identity.Profile{}
		if err := json.Unmarshal([]byte(record.User), user); err != nil {
			m.logger.Warn().Err(err).Msg("discarding credential record with unreadable profile")
			_ = m.discardStored()
			m.session = Session{Status: StatusAnonymous}
			return
		}
	}

	m.record = record
	m.session = Session{
		User:         user,
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
		SubjectID:    record.SubjectID,
		Status:       StatusAuthenticated,
	}
	m.logger.Debug().Str("subject", record.SubjectID).Msg("session restored from store")
}

// discardStored clears the store. A failure is logged and returned, and persisted stays set
// so a later Logout retries. Callers hold mu.
func (m *Machine) discardStored() error {
	if !m.persisted {
		return nil
	}
	if err := m.store.Clear(); err != nil {
		m.logger.Error().Err(err).Msg("unable to clear credential record")
		return errors.Wrap(err, "[session.Machine] clearing credential record")
	}
	m.persisted = false
	return nil
}

// Login authenticates and, on success, persists and publishes the new session. Any existing
// session is ended first. A Logout or ForceInvalidate that lands while the exchange is in
// flight wins, and Login then returns ErrLoginSuperseded.
func (m *Machine) Login(ctx context.Context, username, password string) error {
	m.loginMu.Lock()
	defer m.loginMu.Unlock()

	gen, err := m.beginLogin()
	if err != nil {
		return err
	}

	grant, err := m.authn.ExchangePassword(ctx, username, password)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen {
		m.logger.Info().Str("username", username).Msg("discarding login result after logout")
		return errors.Wrap(fterrors.WithCause(fterrors.ErrLoginSuperseded, err, msgSuperseded), "[session.Machine.Login]")
	}
	if err != nil {
		m.session = Session{Status: StatusAnonymous, LastError: fterrors.Message(err)}
		return errors.Wrap(err, "[session.Machine.Login]")
	}

	record, err := recordFromGrant(grant)
	if err != nil {
		m.session = Session{Status: StatusAnonymous, LastError: msgStoreUnwritable}
		return errors.Wrap(err, "[session.Machine.Login]")
	}
	if err := m.store.Save(record); err != nil {
		m.persisted = true
		_ = m.discardStored()
		m.session = Session{Status: StatusAnonymous, LastError: msgStoreUnwritable}
		return errors.Wrap(err, "[session.Machine.Login] saving credential record")
	}

	user := grant.Profile
	m.persisted = true
	m.record = record
	m.session = Session{
		User:         &user,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		SubjectID:    grant.SubjectID,
		Status:       StatusAuthenticated,
	}
	m.logger.Info().Str("username", username).Str("subject", grant.SubjectID).Msg("logged in")
	return nil
}

func (m *Machine) beginLogin() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.persisted {
		if err := m.store.Clear(); err != nil {
			return 0, errors.Wrap(err, "[session.Machine.Login] clearing previous session")
		}
		m.persisted = false
	}
	m.record = credentials.Record{}
	m.session = Session{Status: StatusAuthenticating}
	return m.generation, nil
}

func recordFromGrant(grant *identity.Grant) (credentials.Record, error) {
	user, err := json.Marshal(grant.Profile)
	if err != nil {
		return credentials.Record{}, errors.Wrap(err, "encoding profile")
	}
	return credentials.Record{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		User:         string(user),
		SubjectID:    grant.SubjectID,
	}, nil
}

// Register creates an account without establishing a session; the user logs in afterwards.
func (m *Machine) Register(ctx context.Context, req registration.Request) (*registration.Profile, error) {
	profile, err := m.reg.Register(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.session.LastError = fterrors.Message(err)
		return nil, errors.Wrap(err, "[session.Machine.Register]")
	}
	m.session.LastError = ""
	return profile, nil
}

// Logout ends the session. It is idempotent: with no session and nothing stored it does
// nothing. In-memory state is always cleared; a store failure is returned.
func (m *Machine) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.Status == StatusAnonymous && !m.persisted {
		return nil
	}
	m.generation++
	m.record = credentials.Record{}
	m.session = Session{Status: StatusAnonymous}

	if m.persisted {
		if err := m.store.Clear(); err != nil {
			return errors.Wrap(err, "[session.Machine.Logout] clearing credential record")
		}
		m.persisted = false
	}
	m.logger.Info().Msg("logged out")
	return nil
}

// ForceInvalidate ends the session that owns accessToken, or the current session when
// accessToken is empty, and notifies the invalidation handlers. It reports whether it acted,
// so a burst of 401s for one session invalidates it exactly once and a late 401 for an older
// token leaves a newer session alone.
func (m *Machine) ForceInvalidate(accessToken string) bool {
	m.mu.Lock()
	current := m.session.AccessToken
	if current == "" || (accessToken != "" && accessToken != current) {
		m.mu.Unlock()
		return false
	}

	inv := Invalidation{SubjectID: m.session.SubjectID, At: m.now()}
	m.generation++
	m.record = credentials.Record{}
	m.session = Session{Status: StatusAnonymous}
	inv.Err = m.discardStored()
	m.mu.Unlock()

	m.logger.Warn().Str("subject", inv.SubjectID).Bool("stored", inv.Err != nil).Msg("session invalidated by authorization failure")

	m.handlersMu.Lock()
	handlers := append([]func(Invalidation){}, m.handlers...)
	m.handlersMu.Unlock()
	for _, h := range handlers {
		h(inv)
	}
	return true
}

// OnInvalidate registers a handler run after every forced invalidation. Handlers run on the
// goroutine whose request drew the 401.
func (m *Machine) OnInvalidate(h func(Invalidation)) {
	m.handlersMu.Lock()
	defer m.handlersMu.Unlock()
	m.handlers = append(m.handlers, h)
}

// Credentials returns the record the transport should attach, if a session exists
func (m *Machine) Credentials() (credentials.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.record, m.record.HasToken()
}

// ClearError drops the last displayed error
func (m *Machine) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.LastError = ""
}

// Snapshot returns a copy of the current session
func (m *Machine) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.session
	if s.User != nil {
		u := *s.User
		u.Claims = maps.Clone(u.Claims)
		s.User = &u
	}
	return s
}

func (m *Machine) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Status
}
