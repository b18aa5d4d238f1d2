// Package backend is the application API client: activities and their recommendations.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
	"github.com/jrsteele09/go-fittrack-client/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const maxErrorBody = 64 << 10

// StatusError is a non-2xx answer from the backend
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

func (e *StatusError) DisplayMessage() string {
	return e.Error()
}

// Unwrap exposes ErrAuthorizationExpired for 401 answers
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return fterrors.ErrAuthorizationExpired
	}
	return nil
}

// StatusCode returns the HTTP status carried by err, or 0 if it has none
func StatusCode(err error) int {
	var sErr *StatusError
	if errors.As(err, &sErr) {
		return sErr.StatusCode
	}
	return 0
}

// Client calls the application API. The http.Client it is given is expected to be the
// session-aware pipeline client, so credentials and 401 handling are not its concern.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

type Option func(*Client)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, httpClient *http.Client, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     log.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// ListActivities returns the caller's activities
func (c *Client) ListActivities(ctx context.Context) ([]Activity, error) {
	var activities []Activity
	if err := c.do(ctx, http.MethodGet, "/activities", nil, &activities); err != nil {
		return nil, errors.Wrap(err, "[backend.Client.ListActivities]")
	}
	return activities, nil
}

// AddActivity records a new activity. The recommendation for it is produced asynchronously.
func (c *Client) AddActivity(ctx context.Context, req ActivityRequest) (*Activity, error) {
	if req.AdditionalMetrices == nil {
		req.AdditionalMetrices = map[string]any{}
	}
	var activity Activity
	if err := c.do(ctx, http.MethodPost, "/activities", req, &activity); err != nil {
		return nil, errors.Wrap(err, "[backend.Client.AddActivity]")
	}
	return &activity, nil
}

func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/activities/"+url.PathEscape(id), nil, nil); err != nil {
		return errors.Wrapf(err, "[backend.Client.DeleteActivity] %s", id)
	}
	return nil
}

// GetRecommendation fetches the recommendation for an activity. Until the backend has
// produced it the call fails with a 404 or 500 StatusError.
func (c *Client) GetRecommendation(ctx context.Context, activityID string) (*Recommendation, error) {
	var rec Recommendation
	if err := c.do(ctx, http.MethodGet, "/recommendations/activity/"+url.PathEscape(activityID), nil, &rec); err != nil {
		return nil, errors.Wrapf(err, "[backend.Client.GetRecommendation] %s", activityID)
	}
	return &rec, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transport.ClassifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("backend request failed")
		return &StatusError{StatusCode: resp.StatusCode, Message: ErrorMessage(data)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if transport.IsNetworkError(err) {
			return transport.ClassifyError(err)
		}
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

// ErrorMessage extracts a readable message from an error body: the JSON message or error
// field when present, otherwise the trimmed text.
func ErrorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"message", "error_description", "error"} {
			if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.Str != "" {
				return v.Str
			}
		}
	}
	return strings.TrimSpace(string(body))
}
