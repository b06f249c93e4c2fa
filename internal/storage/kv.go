package storage

import "context"

// Storage slot keys. The engine uses exactly two durable slots, each
// written atomically as a whole.
const (
	TasksKey          = "tasks"
	PendingChangesKey = "pending_changes"
)

// KV is the durable key-value store the engine persists into. Writes are
// atomic per key; there is no partial update.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
