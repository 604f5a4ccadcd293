package session

import "context"

// Store defines the interface for persisting and retrieving sessions.
// Every Save rewrites the whole session; there is no partial update and no
// concurrent writer to coordinate with.
type Store interface {
	// Save writes the full session, replacing any previous version.
	Save(ctx context.Context, s *Session) error

	// Load retrieves a session by id. Returns ErrNotFound when the session
	// doesn't exist or its stored form can't be read back.
	Load(ctx context.Context, id string) (*Session, error)

	// List returns summaries of all stored sessions, newest-updated first.
	// Unreadable entries are skipped, not reported.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a session. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id string) error

	// Close closes the store and releases any resources.
	Close() error
}

// ErrNotFound is returned when a session doesn't exist in the store.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	if e.ID == "" {
		return "session not found"
	}

	return "session not found: " + e.ID
}
