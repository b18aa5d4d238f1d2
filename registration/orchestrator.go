// Package registration creates an account in two phases: first with the identity provider,
// then in the application backend.
package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-fittrack-client/backend"
	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
	"github.com/jrsteele09/go-fittrack-client/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	identityRegisterPath = "/keycloak/register"
	backendRegisterPath  = "/users/register"

	// SuccessMessage is shown once both phases have completed
	SuccessMessage = "Registration successful! Please login with your credentials."

	maxBody = 64 << 10
)

// Request holds the sign-up form. It is never persisted.
type Request struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

// Profile is the backend user record created by the second phase
type Profile = backend.User

// SplitStateError reports that the identity account exists but the backend record does not.
// Nothing is rolled back, so the user can log in but has no application profile.
type SplitStateError struct {
	Username string
	Err      error
}

func (e *SplitStateError) Error() string {
	return fmt.Sprintf("account %q was created with the identity provider but not in the application: %v", e.Username, e.Err)
}

func (e *SplitStateError) DisplayMessage() string {
	return fterrors.Message(e.Err)
}

func (e *SplitStateError) Unwrap() error {
	return e.Err
}

// Orchestrator runs the two registration phases strictly in order
type Orchestrator struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

type Option func(*Orchestrator)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an orchestrator for the API at baseURL. The client should be anonymous since
// the caller has no session yet.
func New(baseURL string, httpClient *http.Client, options ...Option) *Orchestrator {
	o := &Orchestrator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     log.Logger,
	}
	if o.httpClient == nil {
		o.httpClient = transport.NewAnonymousClient(transport.DefaultTimeout)
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Register creates the identity account, then the backend record. The backend phase is only
// attempted once the identity phase has succeeded. A backend failure returns a
// *SplitStateError wrapping ErrBackendRegistrationFailed. Any 2xx from the backend is success;
// an undecodable body yields a profile holding only the submitted fields.
func (o *Orchestrator) Register(ctx context.Context, req Request) (*Profile, error) {
	if _, err := o.post(ctx, identityRegisterPath, req); err != nil {
		o.logger.Info().Str("username", req.Username).Err(err).Msg("identity registration failed")
		return nil, errors.Wrap(
			phaseError(fterrors.ErrIdentityRegistrationFailed, "Keycloak registration failed: ", err),
			"[registration.Orchestrator.Register] identity phase")
	}

	body, err := o.post(ctx, backendRegisterPath, req)
	if err != nil {
		o.logger.Warn().Str("username", req.Username).Err(err).Msg("backend registration failed after identity account was created")
		return nil, errors.Wrap(&SplitStateError{
			Username: req.Username,
			Err:      phaseError(fterrors.ErrBackendRegistrationFailed, "Backend registration failed: ", err),
		}, "[registration.Orchestrator.Register] backend phase")
	}

	// a 2xx means the backend record exists even when its body is unusable
	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		o.logger.Warn().Str("username", req.Username).Err(err).Msg("backend accepted registration but its response could not be decoded")
		return &Profile{Email: req.Email, FirstName: req.FirstName, LastName: req.LastName}, nil
	}

	o.logger.Info().Str("username", req.Username).Str("userId", profile.ID).Msg("registration complete")
	return &profile, nil
}

// rejection is a non-2xx answer during a phase
type rejection struct {
	status int
	body   string
}

func (r *rejection) Error() string {
	if r.body == "" {
		return http.StatusText(r.status)
	}
	return r.body
}

func (o *Orchestrator) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encoding request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &rejection{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func phaseError(kind error, prefix string, err error) error {
	var r *rejection
	if errors.As(err, &r) {
		return fterrors.WithCause(kind, err, "%s%s", prefix, r.Error())
	}
	if transport.IsNetworkError(err) {
		classified := transport.ClassifyError(err)
		return fterrors.WithCause(kind, classified, "%s%s", prefix, fterrors.Message(classified))
	}
	return fterrors.WithCause(kind, err, "%s%s", prefix, err.Error())
}
