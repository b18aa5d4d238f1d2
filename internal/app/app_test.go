package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-fittrack-client/credentials"
	"github.com/jrsteele09/go-fittrack-client/credentials/filestore"
	"github.com/jrsteele09/go-fittrack-client/credentials/keyringstore"
	"github.com/jrsteele09/go-fittrack-client/fetcher"
	"github.com/jrsteele09/go-fittrack-client/internal/app"
	"github.com/jrsteele09/go-fittrack-client/internal/config"
	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
	"github.com/jrsteele09/go-fittrack-client/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

const subject = "kc-42"

type instantClock struct{}

func (instantClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

type testFixture struct {
	srv           *httptest.Server
	app           *app.App
	token         string
	revoked       atomic.Bool
	recPolls      atomic.Int32
	invalidations atomic.Int32
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	f.token = signed

	authorized := func(r *http.Request) bool {
		return !f.revoked.Load() &&
			r.Header.Get("Authorization") == "Bearer "+f.token &&
			r.Header.Get("X-User-ID") == subject &&
			r.Header.Get("X-Request-ID") != ""
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /realms/fitness-oauth2/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("password") != "pw" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_grant", "error_description": "Invalid user credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"access_token": f.token, "refresh_token": "r", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("GET /realms/fitness-oauth2/protocol/openid-connect/userinfo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"sub": subject, "name": "Ada Runner", "email": "ada@example.com"})
	})
	mux.HandleFunc("GET /api/activities", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{{"id": "a1", "type": "RUNNING", "duration": 20}})
	})
	mux.HandleFunc("GET /api/recommendations/activity/a1", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.recPolls.Add(1) <= 2 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "r1", "activityId": "a1", "recommendation": "Nice run"})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	t.Setenv("FITTRACK_AUTHORITY_URL", f.srv.URL)
	t.Setenv("FITTRACK_API_URL", f.srv.URL+"/api")
	t.Setenv("FITTRACK_DISCOVER", "false")

	a, err := app.New(context.Background(), config.New(),
		app.WithStore(credentials.NewMemoryStore()),
		app.WithClock(instantClock{}),
		app.WithLogger(zerolog.Nop()),
		app.OnInvalidate(func(session.Invalidation) { f.invalidations.Add(1) }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	f.app = a
	return f
}

func TestApp_SessionLifecycle(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.Equal(t, session.StatusAnonymous, f.app.Session.Status())

	err := f.app.Session.Login(ctx, "ada", "nope")
	require.ErrorIs(t, err, fterrors.ErrAuthRejected)
	require.Equal(t, "Invalid user credentials", f.app.Session.Snapshot().LastError)

	require.NoError(t, f.app.Session.Login(ctx, "ada", "pw"))
	snap := f.app.Session.Snapshot()
	require.Equal(t, session.StatusAuthenticated, snap.Status)
	require.Equal(t, subject, snap.SubjectID)
	require.Equal(t, "Ada Runner", snap.User.DisplayName())

	activities, err := f.app.Backend.ListActivities(ctx)
	require.NoError(t, err)
	require.Len(t, activities, 1)

	result, ok := f.app.Recommendations.Fetch(ctx, "a1")
	require.True(t, ok)
	require.Equal(t, fetcher.StateReady, result.State)
	require.Equal(t, 3, result.Attempts)
	require.Equal(t, "Nice run", result.Payload.Recommendation)

	f.revoked.Store(true)
	_, err = f.app.Backend.ListActivities(ctx)
	require.ErrorIs(t, err, fterrors.ErrAuthorizationExpired)
	require.Equal(t, session.StatusAnonymous, f.app.Session.Status())
	require.Equal(t, int32(1), f.invalidations.Load())

	// the follow-up call goes out unauthenticated and does not invalidate again
	_, err = f.app.Backend.ListActivities(ctx)
	require.ErrorIs(t, err, fterrors.ErrAuthorizationExpired)
	require.Equal(t, int32(1), f.invalidations.Load())
}

func TestNewStore(t *testing.T) {
	t.Setenv("FITTRACK_STORE", "file")
	t.Setenv("FITTRACK_STORE_PATH", filepath.Join(t.TempDir(), "creds", "credentials.json"))
	store, err := app.NewStore(config.New(), zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &filestore.Store{}, store)

	t.Setenv("FITTRACK_STORE", "memory")
	store, err = app.NewStore(config.New(), zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &credentials.MemoryStore{}, store)

	keyring.MockInit()
	t.Setenv("FITTRACK_STORE", "keyring")
	store, err = app.NewStore(config.New(), zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &keyringstore.Store{}, store)

	_, err = store.Load()
	require.ErrorIs(t, err, fterrors.ErrNotFound)
}
