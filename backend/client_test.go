package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-fittrack-client/backend"
	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	srv    *httptest.Server
	mux    *http.ServeMux
	client *backend.Client
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{mux: http.NewServeMux()}
	f.srv = httptest.NewServer(f.mux)
	t.Cleanup(f.srv.Close)
	f.client = backend.New(f.srv.URL+"/api/", f.srv.Client(), backend.WithLogger(zerolog.Nop()))
	return f
}

func TestListActivities(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("GET /api/activities", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":"a1","userId":"u1","type":"RUNNING","duration":30,"caloriesBurned":300,
			"startTime":"2025-03-01T07:30:00","additionalMetrices":{"distance":5.2},
			"createdAt":"2025-03-01T08:00:00.123456","updatedAt":null}]`)
	})

	activities, err := f.client.ListActivities(context.Background())
	require.NoError(t, err)
	require.Len(t, activities, 1)

	a := activities[0]
	require.Equal(t, "a1", a.ID)
	require.Equal(t, backend.ActivityRunning, a.Type)
	require.Equal(t, 30, a.Duration)
	require.Equal(t, time.Date(2025, 3, 1, 7, 30, 0, 0, time.UTC), a.StartTime.Time)
	require.Equal(t, 123456000, a.CreatedAt.Nanosecond())
	require.True(t, a.UpdatedAt.IsZero())
	require.InDelta(t, 5.2, a.AdditionalMetrices["distance"], 0.0001)
}

func TestAddActivity(t *testing.T) {
	f := setupTestFixture(t)
	var got map[string]any
	f.mux.HandleFunc("POST /api/activities", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"a2","type":"YOGA","duration":45}`)
	})

	activity, err := f.client.AddActivity(context.Background(), backend.ActivityRequest{
		Type:      backend.ActivityYoga,
		Duration:  45,
		StartTime: time.Date(2025, 3, 2, 6, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, "a2", activity.ID)
	require.Equal(t, "YOGA", got["type"])
	require.Equal(t, map[string]any{}, got["additionalMetrices"])
	require.Equal(t, "2025-03-02T06:00:00Z", got["startTime"])
}

func TestDeleteActivity_SurfacesBackendMessage(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("DELETE /api/activities/a3", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"Activity belongs to another user"}`)
	})

	err := f.client.DeleteActivity(context.Background(), "a3")
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, backend.StatusCode(err))
	require.Equal(t, "Activity belongs to another user", fterrors.Message(err))
	require.Contains(t, err.Error(), "Activity belongs to another user")
}

func TestGetRecommendation(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("GET /api/recommendations/activity/a4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"r1","activityId":"a4","recommendation":"Good pace",
			"improvements":["Stretch"],"suggestions":["Hydrate"],"safety":["Warm up"]}`)
	})

	rec, err := f.client.GetRecommendation(context.Background(), "a4")
	require.NoError(t, err)
	require.Equal(t, "Good pace", rec.Recommendation)
	require.Equal(t, []string{"Stretch"}, rec.Improvements)
	require.Equal(t, []string{"Warm up"}, rec.Safety)
}

func TestGetRecommendation_NotReady(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("GET /api/recommendations/activity/a5", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := f.client.GetRecommendation(context.Background(), "a5")
	require.Equal(t, http.StatusNotFound, backend.StatusCode(err))
	require.NotErrorIs(t, err, fterrors.ErrAuthorizationExpired)
}

func TestUnauthorizedIsAuthorizationExpired(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("GET /api/activities", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := f.client.ListActivities(context.Background())
	require.ErrorIs(t, err, fterrors.ErrAuthorizationExpired)
}

func TestNetworkFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.srv.Close()

	_, err := f.client.ListActivities(context.Background())
	require.ErrorIs(t, err, fterrors.ErrNetwork)
	require.Zero(t, backend.StatusCode(err))
}

func TestErrorMessage(t *testing.T) {
	require.Equal(t, "boom", backend.ErrorMessage([]byte(`{"message":"boom"}`)))
	require.Equal(t, "bad", backend.ErrorMessage([]byte(`{"error":"bad"}`)))
	require.Equal(t, "User exists", backend.ErrorMessage([]byte("  User exists\n")))
	require.Equal(t, `{"status":409}`, backend.ErrorMessage([]byte(`{"status":409}`)))
}

func TestLocalTime_RoundTrip(t *testing.T) {
	var lt backend.LocalTime
	require.NoError(t, json.Unmarshal([]byte(`"2025-01-02T03:04:05"`), &lt))
	data, err := json.Marshal(lt)
	require.NoError(t, err)
	require.JSONEq(t, `"2025-01-02T03:04:05"`, string(data))

	require.NoError(t, json.Unmarshal([]byte(`"2025-01-02T03:04:05+02:00"`), &lt))
	require.Equal(t, 1, lt.Hour())

	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &lt))
}
