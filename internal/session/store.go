package session

import "context"

// Store persists Session aggregates between requests. Implementations assign
// message sequence numbers at write time: every message with Sequence == 0 is
// numbered from the persisted message count, so sequences within a session
// are strictly increasing with no gaps.
//
// Update performs a conditional write on Session.Version and fails with
// KindConflict when another writer got there first. Each request loads its
// own copy, mutates it locally, and writes it back; the version stamp turns
// the race at the write step into a typed error instead of a silent
// last-write-wins.
type Store interface {
	GetByID(ctx context.Context, id string) (*Session, error)
	GetByOwner(ctx context.Context, ownerID string) ([]*Session, error)
	ListActive(ctx context.Context) ([]*Session, error)
	Add(ctx context.Context, s *Session) error
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// finalizeSequences numbers unassigned messages starting after the persisted
// count. Append order is preserved.
func finalizeSequences(messages []Message, persistedCount int) {
	next := persistedCount + 1
	for i := range messages {
		if messages[i].Sequence == 0 {
			messages[i].Sequence = next
			next++
		}
	}
}
