package config

import "time"

const (
	pollMaxAttemptsVar = "FITTRACK_POLL_MAX_ATTEMPTS"
	pollBaseDelayVar   = "FITTRACK_POLL_BASE_DELAY"
)

type Polling struct {
	file *fileValues
}

var _ PollingConfig = Polling{}

func (p Polling) GetPollMaxAttempts() int {
	return lookupInt(pollMaxAttemptsVar, p.file.Polling.MaxAttempts, 10)
}

// GetPollBaseDelay is multiplied by the attempt number between recommendation polls
func (p Polling) GetPollBaseDelay() time.Duration {
	return lookupDuration(pollBaseDelayVar, p.file.Polling.BaseDelay, 1500*time.Millisecond)
}
