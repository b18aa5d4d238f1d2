package credentials

// Store is durable key/value persistence for the session's credential record.
// Save and Clear act on all four entries as a unit; Load returns errors.ErrNotFound
// when nothing is stored.
type Store interface {
	Load() (Record, error)
	Save(record Record) error
	Clear() error
}
