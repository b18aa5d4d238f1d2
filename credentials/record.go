package credentials

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Persisted entry names, kept stable so existing stores stay readable.
const (
	EntryAccessToken  = "token"
	EntryRefreshToken = "refreshToken"
	EntryUser         = "user"
	EntrySubjectID    = "userId"
)

// ErrCorrupt is returned by Unmarshal when stored data cannot be decoded
var ErrCorrupt = errors.New("credential record is corrupt")

// Record is the durable projection of a session.
type Record struct {
	AccessToken  string
	RefreshToken string
	User         string // JSON encoded identity profile
	SubjectID    string
}

// HasToken reports whether the record carries an access token.
// A record without one does not represent a session.
func (r Record) HasToken() bool {
	return r.AccessToken != ""
}

// Entries returns the four named entries of the record
func (r Record) Entries() map[string]string {
	return map[string]string{
		EntryAccessToken:  r.AccessToken,
		EntryRefreshToken: r.RefreshToken,
		EntryUser:         r.User,
		EntrySubjectID:    r.SubjectID,
	}
}

// FromEntries rebuilds a record from named entries. Unknown names are ignored.
func FromEntries(entries map[string]string) Record {
	return Record{
		AccessToken:  entries[EntryAccessToken],
		RefreshToken: entries[EntryRefreshToken],
		User:         entries[EntryUser],
		SubjectID:    entries[EntrySubjectID],
	}
}

// Marshal encodes the record's entries as a single JSON document
func Marshal(r Record) ([]byte, error) {
	data, err := json.Marshal(r.Entries())
	if err != nil {
		return nil, errors.Wrap(err, "[credentials.Marshal]")
	}
	return data, nil
}

// Unmarshal decodes a JSON document produced by Marshal
func Unmarshal(data []byte) (Record, error) {
	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return Record{}, errors.Wrapf(ErrCorrupt, "[credentials.Unmarshal] %v", err)
	}
	return FromEntries(entries), nil
}
