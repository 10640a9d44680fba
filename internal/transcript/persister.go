package transcript

import "context"

// Snapshot is the persisted state a store is initialized from.
type Snapshot struct {
	Students []*Student
	// LastID is the highest StudentID ever issued, including deleted ones.
	LastID StudentID
}

// Change is a single unit of work. At most one of Upsert and Delete is set.
type Change struct {
	// Upsert replaces the student record and its whole grade set.
	Upsert *Student
	// Delete removes the student and its grades. Zero means no delete.
	Delete StudentID
	// LastID is the new high-water mark for issued IDs.
	LastID StudentID
}

// Persister is a storage backend the store writes through.
type Persister interface {
	// Load reads every stored student and the last issued ID.
	Load(ctx context.Context) (*Snapshot, error)
	// Apply stores change atomically. Nothing must be written if an error is
	// returned.
	Apply(ctx context.Context, change *Change) error
	// Shutdown releases the backend's resources.
	Shutdown(ctx context.Context) error
}
