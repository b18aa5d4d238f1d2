package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	IdentityConfig
	BackendConfig
	PollingConfig
	StoreConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetLogFile() string
}

type IdentityConfig interface {
	GetAuthorityURL() string
	GetRealm() string
	GetIssuerURL() string
	GetClientID() string
	GetScopes() []string
	GetDiscoverEndpoints() bool
}

type BackendConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
}

type PollingConfig interface {
	GetPollMaxAttempts() int
	GetPollBaseDelay() time.Duration
}

type StoreConfig interface {
	GetStoreType() StoreType
	GetStorePath() string
	GetKeyringService() string
}

// fileValues mirrors the optional YAML config file. Empty values fall through to defaults.
type fileValues struct {
	AppName  string `yaml:"app_name"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	Identity struct {
		AuthorityURL string   `yaml:"authority_url"`
		Realm        string   `yaml:"realm"`
		IssuerURL    string   `yaml:"issuer_url"`
		ClientID     string   `yaml:"client_id"`
		Scopes       []string `yaml:"scopes"`
		Discover     string   `yaml:"discover"`
	} `yaml:"identity"`

	Backend struct {
		APIURL         string `yaml:"api_url"`
		RequestTimeout string `yaml:"request_timeout"`
	} `yaml:"backend"`

	Polling struct {
		MaxAttempts string `yaml:"max_attempts"`
		BaseDelay   string `yaml:"base_delay"`
	} `yaml:"polling"`

	Store struct {
		Type           string `yaml:"type"`
		Path           string `yaml:"path"`
		KeyringService string `yaml:"keyring_service"`
	} `yaml:"store"`
}

type mainConfig struct {
	EnvVars
	Identity
	Backend
	Polling
	Store
}

// New returns a config backed by environment variables and defaults only.
func New() Config {
	return newConfig(&fileValues{})
}

// Load reads the YAML file at path and layers environment variables over it.
// An empty path behaves like New.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[config.Load] reading %s", path)
	}
	values := &fileValues{}
	if err := yaml.Unmarshal(data, values); err != nil {
		return nil, errors.Wrapf(err, "[config.Load] parsing %s", path)
	}
	return newConfig(values), nil
}

func newConfig(values *fileValues) Config {
	return mainConfig{
		EnvVars:  EnvVars{values},
		Identity: Identity{values},
		Backend:  Backend{values},
		Polling:  Polling{values},
		Store:    Store{values},
	}
}
