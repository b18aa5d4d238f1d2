package transport

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds every outbound call
const DefaultTimeout = 10 * time.Second

type clientOptions struct {
	base   http.RoundTripper
	logger zerolog.Logger
}

type ClientOption func(*clientOptions)

// WithBaseTransport replaces http.DefaultTransport at the bottom of the chain
func WithBaseTransport(rt http.RoundTripper) ClientOption {
	return func(o *clientOptions) {
		o.base = rt
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// NewClient returns the session-aware client: request id, logging, credential attachment and
// 401 policing, in that order, with a fixed upper bound on every call.
func NewClient(timeout time.Duration, src CredentialSource, inv Invalidator, options ...ClientOption) *http.Client {
	o := applyOptions(options)
	return &http.Client{
		Timeout: normaliseTimeout(timeout),
		Transport: Chain(o.base,
			RequestID(),
			Logging(o.logger),
			Authenticate(src),
			PoliceUnauthorized(inv),
		),
	}
}

// NewAnonymousClient returns a client for calls made outside a session, such as the password
// grant and registration. It shares the timeout and logging but never carries credentials.
func NewAnonymousClient(timeout time.Duration, options ...ClientOption) *http.Client {
	o := applyOptions(options)
	return &http.Client{
		Timeout:   normaliseTimeout(timeout),
		Transport: Chain(o.base, RequestID(), Logging(o.logger)),
	}
}

func applyOptions(options []ClientOption) clientOptions {
	o := clientOptions{base: http.DefaultTransport, logger: log.Logger}
	for _, opt := range options {
		opt(&o)
	}
	return o
}

func normaliseTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}
