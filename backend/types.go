package backend

import (
	"bytes"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ActivityType is the backend's activity enum. Values are passed through unvalidated.
type ActivityType string

const (
	ActivityRunning        ActivityType = "RUNNING"
	ActivityWalking        ActivityType = "WALKING"
	ActivityCycling        ActivityType = "CYCLING"
	ActivitySwimming       ActivityType = "SWIMMING"
	ActivityWeightTraining ActivityType = "WEIGHT_TRAINNING" // spelt as the backend enum spells it
	ActivityYoga           ActivityType = "YOGA"
)

// ActivityTypes lists the known activity types in display order
var ActivityTypes = []ActivityType{
	ActivityRunning,
	ActivityWalking,
	ActivityCycling,
	ActivitySwimming,
	ActivityWeightTraining,
	ActivityYoga,
}

// Activity is a recorded workout as returned by the activity service
type Activity struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"userId"`
	Type               ActivityType   `json:"type"`
	Duration           int            `json:"duration"`
	CaloriesBurned     int            `json:"caloriesBurned"`
	StartTime          LocalTime      `json:"startTime"`
	AdditionalMetrices map[string]any `json:"additionalMetrices,omitempty"`
	CreatedAt          LocalTime      `json:"createdAt"`
	UpdatedAt          LocalTime      `json:"updatedAt"`
}

// ActivityRequest is the body of an add-activity call
type ActivityRequest struct {
	Type               ActivityType   `json:"type"`
	Duration           int            `json:"duration"`
	CaloriesBurned     int            `json:"caloriesBurned"`
	StartTime          time.Time      `json:"startTime"`
	AdditionalMetrices map[string]any `json:"additionalMetrices"`
}

// Recommendation is the AI analysis produced asynchronously for an activity.
// It does not exist until the backend has finished processing.
type Recommendation struct {
	ID             string    `json:"id"`
	ActivityID     string    `json:"activityId"`
	UserID         string    `json:"userId"`
	ActivityType   string    `json:"activityType"`
	Recommendation string    `json:"recommendation"`
	Improvements   []string  `json:"improvements"`
	Suggestions    []string  `json:"suggestions"`
	Safety         []string  `json:"safety"`
	CreatedAt      LocalTime `json:"createdAt"`
}

// User is the application's own user record, created by the second registration phase
type User struct {
	ID         string    `json:"id"`
	KeycloakID string    `json:"keycloakId"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	CreatedAt  LocalTime `json:"createdAt"`
	UpdatedAt  LocalTime `json:"updatedAt"`
}

const localTimeLayout = "2006-01-02T15:04:05.999999999"

// LocalTime is a wall-clock timestamp without a zone, as the backend serialises them.
// It is interpreted in UTC.
type LocalTime struct {
	time.Time
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(localTimeLayout) + `"`), nil
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(localTimeLayout, s)
	if err != nil {
		// tolerate zoned timestamps
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return errors.Wrapf(err, "[LocalTime.UnmarshalJSON] %q", s)
		}
	}
	t.Time = parsed.UTC()
	return nil
}
