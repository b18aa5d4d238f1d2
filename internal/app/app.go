// Package app wires configuration, logging, storage, the session machine and the API clients
// into one process-wide application.
package app

import (
	"context"
	"io"
	"net/http"

	"github.com/jrsteele09/go-fittrack-client/backend"
	"github.com/jrsteele09/go-fittrack-client/credentials"
	"github.com/jrsteele09/go-fittrack-client/credentials/filestore"
	"github.com/jrsteele09/go-fittrack-client/credentials/keyringstore"
	"github.com/jrsteele09/go-fittrack-client/fetcher"
	"github.com/jrsteele09/go-fittrack-client/identity"
	"github.com/jrsteele09/go-fittrack-client/internal/config"
	"github.com/jrsteele09/go-fittrack-client/internal/logging"
	"github.com/jrsteele09/go-fittrack-client/registration"
	"github.com/jrsteele09/go-fittrack-client/session"
	"github.com/jrsteele09/go-fittrack-client/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// App holds the single session machine and everything that talks through it
type App struct {
	Config          config.Config
	Logger          zerolog.Logger
	Session         *session.Machine
	Identity        *identity.Client
	Registration    *registration.Orchestrator
	Backend         *backend.Client
	Recommendations *fetcher.Fetcher[*backend.Recommendation]

	logCloser io.Closer
}

type options struct {
	store      credentials.Store
	base       http.RoundTripper
	clock      fetcher.Clock
	logger     *zerolog.Logger
	onSignOuts []func(session.Invalidation)
}

type Option func(*options)

// WithStore overrides the configured credential store
func WithStore(store credentials.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithBaseTransport replaces the network transport under every client
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.base = rt
	}
}

// WithClock sets the scheduler used between recommendation polls
func WithClock(c fetcher.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger uses logger instead of building one from config
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// OnInvalidate registers a handler for forced sign-outs before any request can be made
func OnInvalidate(h func(session.Invalidation)) Option {
	return func(o *options) {
		o.onSignOuts = append(o.onSignOuts, h)
	}
}

// New builds the application. It does not contact the identity provider unless endpoint
// discovery is enabled.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg}
	if o.logger != nil {
		a.Logger = *o.logger
	} else {
		a.Logger, a.logCloser = logging.New(cfg)
	}

	store := o.store
	if store == nil {
		var err error
		if store, err = NewStore(cfg, a.Logger); err != nil {
			return nil, errors.Wrap(err, "[app.New]")
		}
	}

	transportOpts := []transport.ClientOption{transport.WithLogger(a.Logger)}
	if o.base != nil {
		transportOpts = append(transportOpts, transport.WithBaseTransport(o.base))
	}
	anonymous := transport.NewAnonymousClient(cfg.GetRequestTimeout(), transportOpts...)

	idClient, err := identity.New(ctx, identity.Config{
		IssuerURL: cfg.GetIssuerURL(),
		ClientID:  cfg.GetClientID(),
		Scopes:    cfg.GetScopes(),
		Discover:  cfg.GetDiscoverEndpoints(),
	}, identity.WithHTTPClient(anonymous), identity.WithLogger(a.Logger))
	if err != nil {
		return nil, errors.Wrap(err, "[app.New]")
	}
	a.Identity = idClient

	a.Registration = registration.New(cfg.GetAPIBaseURL(), anonymous, registration.WithLogger(a.Logger))
	a.Session = session.New(store, a.Identity, a.Registration, session.WithLogger(a.Logger))
	for _, h := range o.onSignOuts {
		a.Session.OnInvalidate(h)
	}

	pipeline := transport.NewClient(cfg.GetRequestTimeout(), a.Session, a.Session, transportOpts...)
	a.Backend = backend.New(cfg.GetAPIBaseURL(), pipeline, backend.WithLogger(a.Logger))

	fetchOpts := []fetcher.Option{
		fetcher.WithMaxAttempts(cfg.GetPollMaxAttempts()),
		fetcher.WithBaseDelay(cfg.GetPollBaseDelay()),
		fetcher.WithLogger(a.Logger),
	}
	if o.clock != nil {
		fetchOpts = append(fetchOpts, fetcher.WithClock(o.clock))
	}
	a.Recommendations = fetcher.New(a.Backend.GetRecommendation, fetchOpts...)

	a.Logger.Debug().
		Str("issuer", cfg.GetIssuerURL()).
		Str("api", cfg.GetAPIBaseURL()).
		Str("store", string(cfg.GetStoreType())).
		Str("status", a.Session.Status().String()).
		Msg("application ready")
	return a, nil
}

// Close flushes the log file, if any
func (a *App) Close() error {
	if a.logCloser == nil {
		return nil
	}
	return a.logCloser.Close()
}

// NewStore opens the credential store selected by config
func NewStore(cfg config.StoreConfig, logger zerolog.Logger) (credentials.Store, error) {
	switch cfg.GetStoreType() {
	case config.StoreTypeKeyring:
		return keyringstore.New(cfg.GetKeyringService()), nil
	case config.StoreTypeMemory:
		return credentials.NewMemoryStore(), nil
	default:
		store, err := filestore.New(cfg.GetStorePath(), filestore.WithLogger(logger))
		if err != nil {
			return nil, errors.Wrap(err, "[app.NewStore]")
		}
		return store, nil
	}
}
