// Package fetcher polls an eventually-consistent resource with bounded linear backoff,
// telling "not ready yet" apart from real failures.
package fetcher

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/go-fittrack-client/backend"
	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxAttempts = 10
	DefaultBaseDelay   = 1500 * time.Millisecond

	MsgStillProcessing = "Activity details are still processing. Please check back shortly."
	MsgFailed          = "Failed to load activity details."
)

// State of a fetch
type State int

const (
	StateFetching State = iota
	StateReady
	StateExhausted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is a settled fetch outcome
type Result[T any] struct {
	State    State
	Payload  T
	Message  string
	Attempts int
	Err      error
}

// Clock schedules the delay between attempts
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Classifier reports whether err means the resource does not exist yet
type Classifier func(err error) bool

// NotReady treats 404 and 500 answers as "not ready yet". A 500 may be a genuine server
// fault, but the backend also answers 500 while the recommendation is being produced.
func NotReady(err error) bool {
	if errors.Is(err, fterrors.ErrResourceNotReady) {
		return true
	}
	switch backend.StatusCode(err) {
	case http.StatusNotFound, http.StatusInternalServerError:
		return true
	}
	return false
}

// Fetcher retries fetch while the resource is not ready, waiting attempt×baseDelay after
// each failed attempt, up to maxAttempts requests.
type Fetcher[T any] struct {
	fetch       func(ctx context.Context, id string) (T, error)
	maxAttempts int
	baseDelay   time.Duration
	clock       Clock
	notReady    Classifier
	logger      zerolog.Logger
}

type Option func(*options)

type options struct {
	maxAttempts int
	baseDelay   time.Duration
	clock       Clock
	notReady    Classifier
	logger      zerolog.Logger
}

func WithMaxAttempts(n int) Option {
	return func(o *options) {
		o.maxAttempts = n
	}
}

func WithBaseDelay(d time.Duration) Option {
	return func(o *options) {
		o.baseDelay = d
	}
}

// WithClock replaces the wall clock (primarily for testing)
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func WithClassifier(c Classifier) Option {
	return func(o *options) {
		o.notReady = c
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func New[T any](fetch func(ctx context.Context, id string) (T, error), opts ...Option) *Fetcher[T] {
	o := options{
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		clock:       realClock{},
		notReady:    NotReady,
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxAttempts < 1 {
		o.maxAttempts = 1
	}
	if o.baseDelay < 0 {
		o.baseDelay = 0
	}
	return &Fetcher[T]{
		fetch:       fetch,
		maxAttempts: o.maxAttempts,
		baseDelay:   o.baseDelay,
		clock:       o.clock,
		notReady:    o.notReady,
		logger:      o.logger,
	}
}

// Fetch polls until the resource is ready, attempts run out, or a real failure occurs.
// When ctx is cancelled no further request is issued and ok is false. A request already in
// flight is not aborted; its answer is dropped.
func (f *Fetcher[T]) Fetch(ctx context.Context, id string) (result Result[T], ok bool) {
	logger := f.logger.With().Str("resource", id).Logger()

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return Result[T]{}, false
		}

		payload, err := f.fetch(context.WithoutCancel(ctx), id)
		if ctx.Err() != nil {
			logger.Debug().Int("attempt", attempt).Msg("dropping result of cancelled fetch")
			return Result[T]{}, false
		}

		switch {
		case err == nil:
			return Result[T]{State: StateReady, Payload: payload, Attempts: attempt}, true

		case !f.notReady(err):
			logger.Info().Int("attempt", attempt).Err(err).Msg("fetch failed")
			return Result[T]{
				State:    StateFailed,
				Message:  MsgFailed,
				Attempts: attempt,
				Err:      fterrors.WithCause(fterrors.ErrResourceFetchFailed, err, MsgFailed),
			}, true

		case attempt >= f.maxAttempts:
			logger.Info().Int("attempts", attempt).Msg("resource still not ready, giving up")
			return Result[T]{
				State:    StateExhausted,
				Message:  MsgStillProcessing,
				Attempts: attempt,
				Err:      fterrors.WithCause(fterrors.ErrResourceNotReady, err, MsgStillProcessing),
			}, true
		}

		delay := time.Duration(attempt) * f.baseDelay
		logger.Debug().Int("attempt", attempt).Dur("retryIn", delay).Msg("resource not ready")
		select {
		case <-ctx.Done():
			return Result[T]{}, false
		case <-f.clock.After(delay):
		}
	}
}

// Start runs Fetch in the background and hands a settled result to deliver. Nothing is
// delivered once ctx is cancelled. The returned channel closes when the fetch has stopped.
func (f *Fetcher[T]) Start(ctx context.Context, id string, deliver func(Result[T])) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if result, ok := f.Fetch(ctx, id); ok && ctx.Err() == nil {
			deliver(result)
		}
	}()
	return done
}
