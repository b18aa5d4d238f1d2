package filestore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-fittrack-client/credentials"
	"github.com/jrsteele09/go-fittrack-client/credentials/filestore"
	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
	"github.com/stretchr/testify/require"
)

var testRecord = credentials.Record{
	AccessToken:  "access-1",
	RefreshToken: "refresh-1",
	User:         `{"sub":"user-1","preferred_username":"jdoe"}`,
	SubjectID:    "user-1",
}

func newStore(t *testing.T) (*filestore.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	s, err := filestore.New(path)
	require.NoError(t, err)
	return s, path
}

func TestStore_LoadEmpty(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.Load()
	require.ErrorIs(t, err, fterrors.ErrNotFound)
}

func TestStore_SaveLoadClear(t *testing.T) {
	s, path := newStore(t)

	require.NoError(t, s.Save(testRecord))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, testRecord, got)

	require.NoError(t, s.Clear())
	_, err = s.Load()
	require.ErrorIs(t, err, fterrors.ErrNotFound)

	// Clearing twice is fine
	require.NoError(t, s.Clear())
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, s.Save(testRecord))

	reopened, err := filestore.New(path)
	require.NoError(t, err)
	got, err := reopened.Load()
	require.NoError(t, err)
	require.Equal(t, testRecord, got)
}

func TestStore_NamedEntries(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, s.Save(testRecord))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, name := range []string{`"token"`, `"refreshToken"`, `"user"`, `"userId"`} {
		require.Contains(t, string(data), name)
	}
}

func TestStore_CorruptFile(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := s.Load()
	require.ErrorIs(t, err, credentials.ErrCorrupt)
}
