// Package identity talks to the external OAuth2/OIDC authority: it trades a username and
// password for tokens and looks up the caller's profile.
package identity

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
	"github.com/jrsteele09/go-fittrack-client/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const keycloakProtocolPath = "/protocol/openid-connect"

// Config describes the authority and the public client used for the password grant
type Config struct {
	IssuerURL string
	ClientID  string
	Scopes    []string

	// Discover fetches endpoints from the issuer's discovery document. Otherwise they are
	// derived from the Keycloak realm layout under IssuerURL.
	Discover bool
}

// Grant is the outcome of a successful password exchange
type Grant struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Profile      Profile
	SubjectID    string
}

// Client performs the resource-owner password grant and the profile lookup.
// Failed exchanges are reported immediately and never retried.
type Client struct {
	oauth2     *oauth2.Config
	provider   *oidc.Provider
	httpClient *http.Client
	logger     zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient sets the client used for every call to the authority
func WithHTTPClient(c *http.Client) Option {
	return func(ic *Client) {
		ic.httpClient = c
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(ic *Client) {
		ic.logger = logger
	}
}

// New builds the identity client. With Discover set this performs a network call to the
// issuer's discovery endpoint.
func New(ctx context.Context, cfg Config, options ...Option) (*Client, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("[identity.New] issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("[identity.New] client ID is required")
	}

	c := &Client{
		httpClient: transport.NewAnonymousClient(transport.DefaultTimeout),
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}

	provider, err := c.newProvider(oidc.ClientContext(ctx, c.httpClient), cfg)
	if err != nil {
		return nil, err
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	endpoint := provider.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams // public client, no secret

	c.provider = provider
	c.oauth2 = &oauth2.Config{
		ClientID: cfg.ClientID,
		Endpoint: endpoint,
		Scopes:   scopes,
	}
	return c, nil
}

func (c *Client) newProvider(ctx context.Context, cfg Config) (*oidc.Provider, error) {
	if cfg.Discover {
		provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
		if err != nil {
			return nil, errors.Wrap(transport.ClassifyError(err), "[identity.New] oidc.NewProvider")
		}
		return provider, nil
	}

	base := strings.TrimRight(cfg.IssuerURL, "/") + keycloakProtocolPath
	providerConfig := &oidc.ProviderConfig{
		IssuerURL:   cfg.IssuerURL,
		AuthURL:     base + "/auth",
		TokenURL:    base + "/token",
		UserInfoURL: base + "/userinfo",
		JWKSURL:     base + "/certs",
	}
	return providerConfig.NewProvider(ctx), nil
}

// ExchangePassword trades credentials for tokens, then fetches the profile with the new
// access token. Each stage short-circuits on failure.
func (c *Client) ExchangePassword(ctx context.Context, username, password string) (*Grant, error) {
	ctx = oidc.ClientContext(ctx, c.httpClient)

	token, err := c.oauth2.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		c.logger.Info().Str("username", username).Err(err).Msg("password grant failed")
		return nil, errors.Wrap(classifyGrantError(err), "[identity.Client.ExchangePassword] token request")
	}

	info, err := c.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		c.logger.Info().Str("username", username).Err(err).Msg("profile lookup failed")
		return nil, errors.Wrap(classifyProfileError(err), "[identity.Client.ExchangePassword] userinfo")
	}

	var profile Profile
	if err := info.Claims(&profile); err != nil {
		return nil, errors.Wrap(
			fterrors.WithCause(fterrors.ErrAuthRejected, err, "Login failed: unreadable profile"),
			"[identity.Client.ExchangePassword] decoding claims")
	}

	subject := profile.Subject
	if subject == "" {
		subject = subjectFromToken(token.AccessToken)
	}

	c.logger.Debug().Str("username", username).Str("subject", subject).Msg("password grant succeeded")
	return &Grant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		Profile:      profile,
		SubjectID:    subject,
	}, nil
}

func classifyGrantError(err error) error {
	var rErr *oauth2.RetrieveError
	if stderrors.As(err, &rErr) {
		reason := rErr.ErrorDescription
		if reason == "" {
			reason = "Login failed"
		}
		return fterrors.WithCause(fterrors.ErrAuthRejected, err, "%s", reason)
	}
	if transport.IsNetworkError(err) {
		return transport.ClassifyError(err)
	}
	return fterrors.WithCause(fterrors.ErrAuthRejected, err, "Login failed")
}

func classifyProfileError(err error) error {
	if transport.IsNetworkError(err) {
		return transport.ClassifyError(err)
	}
	return fterrors.WithCause(fterrors.ErrAuthRejected, err, "Login failed: profile lookup was rejected")
}

// subjectFromToken reads the sub claim without verifying the signature. The token has just
// come from the authority over the same channel, and the backend verifies it on every call.
func subjectFromToken(accessToken string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

// TokenExpiry reads the exp claim of a JWT access token without verifying it.
// It reports false for opaque tokens or tokens without an expiry.
func TokenExpiry(accessToken string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
