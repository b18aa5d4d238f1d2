package fetcher_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-fittrack-client/backend"
	"github.com/jrsteele09/go-fittrack-client/fetcher"
	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
	"github.com/jrsteele09/go-fittrack-client/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// instantClock records each requested delay and fires at once
type instantClock struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func (c *instantClock) Delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration{}, c.delays...)
}

// cancellingClock tears the consumer down when the given delay is requested and never fires it
type cancellingClock struct {
	instantClock
	cancelOn int
	cancel   context.CancelFunc
}

func (c *cancellingClock) After(d time.Duration) <-chan time.Time {
	if len(c.Delays())+1 == c.cancelOn {
		c.mu.Lock()
		c.delays = append(c.delays, d)
		c.mu.Unlock()
		c.cancel()
		return make(chan time.Time)
	}
	return c.instantClock.After(d)
}

type testFixture struct {
	srv      *httptest.Server
	requests atomic.Int32
	notReady int32 // requests answered 404 before the payload
	status   int
	client   *backend.Client
}

func setupTestFixture(t *testing.T, notReady int32) *testFixture {
	t.Helper()
	f := &testFixture{notReady: notReady, status: http.StatusNotFound}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := f.requests.Add(1)
		if n <= f.notReady {
			w.WriteHeader(f.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"r1","activityId":"a1","recommendation":"Keep it up"}`)
	}))
	t.Cleanup(f.srv.Close)
	f.client = backend.New(f.srv.URL, f.srv.Client(), backend.WithLogger(zerolog.Nop()))
	return f
}

func (f *testFixture) fetcher(clock fetcher.Clock, opts ...fetcher.Option) *fetcher.Fetcher[*backend.Recommendation] {
	opts = append([]fetcher.Option{
		fetcher.WithClock(clock),
		fetcher.WithLogger(zerolog.Nop()),
		fetcher.WithBaseDelay(time.Second),
	}, opts...)
	return fetcher.New(f.client.GetRecommendation, opts...)
}

func TestFetch_ReadyAfterNotFound(t *testing.T) {
	f := setupTestFixture(t, 3)
	clock := &instantClock{}

	result, ok := f.fetcher(clock).Fetch(context.Background(), "a1")
	require.True(t, ok)
	require.Equal(t, fetcher.StateReady, result.State)
	require.Equal(t, "Keep it up", result.Payload.Recommendation)
	require.Equal(t, 4, result.Attempts)
	require.Equal(t, int32(4), f.requests.Load())

	delays := clock.Delays()
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, delays)
	for i := 1; i < len(delays); i++ {
		require.Greater(t, delays[i], delays[i-1])
	}
}

func TestFetch_ServerErrorCountsAsNotReady(t *testing.T) {
	f := setupTestFixture(t, 2)
	f.status = http.StatusInternalServerError

	result, ok := f.fetcher(&instantClock{}).Fetch(context.Background(), "a1")
	require.True(t, ok)
	require.Equal(t, fetcher.StateReady, result.State)
	require.Equal(t, int32(3), f.requests.Load())
}

func TestFetch_ExhaustedNeverFailed(t *testing.T) {
	f := setupTestFixture(t, 1000)
	clock := &instantClock{}

	result, ok := f.fetcher(clock, fetcher.WithMaxAttempts(5)).Fetch(context.Background(), "a1")
	require.True(t, ok)
	require.Equal(t, fetcher.StateExhausted, result.State)
	require.Equal(t, fetcher.MsgStillProcessing, result.Message)
	require.ErrorIs(t, result.Err, fterrors.ErrResourceNotReady)
	require.NotErrorIs(t, result.Err, fterrors.ErrResourceFetchFailed)
	require.Equal(t, 5, result.Attempts)
	require.Equal(t, int32(5), f.requests.Load())
	require.Len(t, clock.Delays(), 4)
}

func TestFetch_DefaultSchedule(t *testing.T) {
	f := setupTestFixture(t, 1000)
	clock := &instantClock{}

	result, ok := fetcher.New(f.client.GetRecommendation,
		fetcher.WithClock(clock),
		fetcher.WithLogger(zerolog.Nop()),
	).Fetch(context.Background(), "a1")
	require.True(t, ok)
	require.Equal(t, fetcher.StateExhausted, result.State)
	require.Equal(t, int32(fetcher.DefaultMaxAttempts), f.requests.Load())

	delays := clock.Delays()
	require.Len(t, delays, fetcher.DefaultMaxAttempts-1)
	require.Equal(t, 1500*time.Millisecond, delays[0])
	require.Equal(t, 9*1500*time.Millisecond, delays[len(delays)-1])
}

func TestFetch_CancelStopsFurtherAttempts(t *testing.T) {
	f := setupTestFixture(t, 1000)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &cancellingClock{cancelOn: 2, cancel: cancel}

	delivered := make(chan fetcher.Result[*backend.Recommendation], 1)
	done := f.fetcher(clock).Start(ctx, "a1", func(r fetcher.Result[*backend.Recommendation]) {
		delivered <- r
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not stop after cancellation")
	}
	require.Equal(t, int32(2), f.requests.Load())
	require.Empty(t, delivered)
}

func TestFetch_CancelledDuringRequestDropsResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	fetch := func(reqCtx context.Context, id string) (string, error) {
		calls.Add(1)
		cancel()
		require.NoError(t, reqCtx.Err()) // in-flight request is not aborted
		return "payload", nil
	}

	_, ok := fetcher.New(fetch, fetcher.WithClock(&instantClock{}), fetcher.WithLogger(zerolog.Nop())).Fetch(ctx, "x")
	require.False(t, ok)
	require.Equal(t, int32(1), calls.Load())
}

func TestFetch_OtherErrorFailsImmediately(t *testing.T) {
	f := setupTestFixture(t, 1000)
	f.status = http.StatusForbidden
	clock := &instantClock{}

	result, ok := f.fetcher(clock).Fetch(context.Background(), "a1")
	require.True(t, ok)
	require.Equal(t, fetcher.StateFailed, result.State)
	require.Equal(t, fetcher.MsgFailed, result.Message)
	require.ErrorIs(t, result.Err, fterrors.ErrResourceFetchFailed)
	require.Equal(t, int32(1), f.requests.Load())
	require.Empty(t, clock.Delays())
}

func TestFetch_TimeoutIsFailureNotNotReady(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := backend.New(srv.URL, transport.NewAnonymousClient(50*time.Millisecond, transport.WithLogger(zerolog.Nop())))
	clock := &instantClock{}

	result, ok := fetcher.New(client.GetRecommendation, fetcher.WithClock(clock), fetcher.WithLogger(zerolog.Nop())).
		Fetch(context.Background(), "a1")
	require.True(t, ok)
	require.Equal(t, fetcher.StateFailed, result.State)
	require.ErrorIs(t, result.Err, fterrors.ErrNetwork)
	require.Empty(t, clock.Delays())
}

func TestStart_DeliversSettledResult(t *testing.T) {
	f := setupTestFixture(t, 1)

	delivered := make(chan fetcher.Result[*backend.Recommendation], 1)
	done := f.fetcher(&instantClock{}).Start(context.Background(), "a1", func(r fetcher.Result[*backend.Recommendation]) {
		delivered <- r
	})
	<-done

	result := <-delivered
	require.Equal(t, fetcher.StateReady, result.State)
	require.Equal(t, 2, result.Attempts)
}

func TestNotReady(t *testing.T) {
	require.True(t, fetcher.NotReady(&backend.StatusError{StatusCode: http.StatusNotFound}))
	require.True(t, fetcher.NotReady(&backend.StatusError{StatusCode: http.StatusInternalServerError}))
	require.True(t, fetcher.NotReady(fterrors.ErrResourceNotReady))
	require.False(t, fetcher.NotReady(&backend.StatusError{StatusCode: http.StatusUnauthorized}))
	require.False(t, fetcher.NotReady(fterrors.Newf(fterrors.ErrNetwork, "down")))
}

func TestStateString(t *testing.T) {
	require.Equal(t, "fetching", fetcher.StateFetching.String())
	require.Equal(t, "ready", fetcher.StateReady.String())
	require.Equal(t, "exhausted", fetcher.StateExhausted.String())
	require.Equal(t, "failed", fetcher.StateFailed.String())
}
