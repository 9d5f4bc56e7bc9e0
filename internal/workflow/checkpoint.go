package workflow

import "context"

// CheckpointStore persists the latest state snapshot per conversation id.
// Save overwrites the whole snapshot; Load reports absence via the bool.
// Retention and eviction are the store's concern, not the driver's.
type CheckpointStore interface {
	Save(ctx context.Context, id string, state State) error
	Load(ctx context.Context, id string) (State, bool, error)
}
