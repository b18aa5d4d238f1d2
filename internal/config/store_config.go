package config

import (
	"os"
	"path/filepath"
)

type StoreType string

const (
	StoreTypeFile    StoreType = "file"
	StoreTypeKeyring StoreType = "keyring"
	StoreTypeMemory  StoreType = "memory"
)

const (
	storeTypeVar      = "FITTRACK_STORE"
	storePathVar      = "FITTRACK_STORE_PATH"
	keyringServiceVar = "FITTRACK_KEYRING_SERVICE"

	defaultStoreDir = ".config/fittrack"
)

type Store struct {
	file *fileValues
}

var _ StoreConfig = Store{}

func (s Store) GetStoreType() StoreType {
	switch t := StoreType(lookup(storeTypeVar, s.file.Store.Type, string(StoreTypeFile))); t {
	case StoreTypeFile, StoreTypeKeyring, StoreTypeMemory:
		return t
	default:
		return StoreTypeFile
	}
}

// GetStorePath returns the credential file location for the file store
func (s Store) GetStorePath() string {
	return lookup(storePathVar, s.file.Store.Path, defaultStorePath())
}

func (s Store) GetKeyringService() string {
	return lookup(keyringServiceVar, s.file.Store.KeyringService, "fittrack")
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "credentials.json")
	}
	return filepath.Join(home, defaultStoreDir, "credentials.json")
}
