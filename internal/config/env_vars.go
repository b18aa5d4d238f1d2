package config

import (
	"os"
	"strconv"
	"time"
)

const (
	appNameVar  = "FITTRACK_APP_NAME"
	envVar      = "FITTRACK_ENV"
	logLevelVar = "FITTRACK_LOG_LEVEL"
	logFileVar  = "FITTRACK_LOG_FILE"
)

type EnvVars struct {
	file *fileValues
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return lookup(appNameVar, e.file.AppName, "FitTracker")
}

func (e EnvVars) GetEnv() string {
	return lookup(envVar, e.file.Env, "DEV")
}

func (e EnvVars) GetLogLevel() string {
	return lookup(logLevelVar, e.file.LogLevel, "info")
}

// GetLogFile returns the rotating log file path, empty to log to stderr only
func (e EnvVars) GetLogFile() string {
	return lookup(logFileVar, e.file.LogFile, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// lookup resolves a setting from the environment first, then the config file, then the default.
func lookup(envVar, fileValue, defaultValue string) string {
	if fileValue != "" {
		defaultValue = fileValue
	}
	return GetEnv(envVar, defaultValue)
}

func lookupInt(envVar, fileValue string, defaultValue int) int {
	value := lookup(envVar, fileValue, "")
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil || i <= 0 {
		return defaultValue
	}
	return i
}

func lookupDuration(envVar, fileValue string, defaultValue time.Duration) time.Duration {
	value := lookup(envVar, fileValue, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func lookupBool(envVar, fileValue string, defaultValue bool) bool {
	value := lookup(envVar, fileValue, "")
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
