package config

import (
	"strings"
	"time"
)

const (
	apiBaseURLVar     = "FITTRACK_API_URL"
	requestTimeoutVar = "FITTRACK_REQUEST_TIMEOUT"
)

type Backend struct {
	file *fileValues
}

var _ BackendConfig = Backend{}

func (b Backend) GetAPIBaseURL() string {
	return strings.TrimRight(lookup(apiBaseURLVar, b.file.Backend.APIURL, "http://localhost:8085/api"), "/")
}

// GetRequestTimeout bounds every outbound call
func (b Backend) GetRequestTimeout() time.Duration {
	return lookupDuration(requestTimeoutVar, b.file.Backend.RequestTimeout, 10*time.Second)
}
