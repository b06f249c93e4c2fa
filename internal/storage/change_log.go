package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/andriyansyah/todosync/internal/models"
)

// ChangeLog is the durable, ordered record of mutations not yet confirmed
// by the remote service. Replay order must match append order, so entries
// are stored as a single JSON array under one slot and rewritten whole.
type ChangeLog struct {
	kv KV
}

// NewChangeLog creates a change log over the given store.
func NewChangeLog(kv KV) *ChangeLog {
	return &ChangeLog{kv: kv}
}

// Append re-reads the current log, pushes the change, and writes the whole
// log back. The fresh read guards against lost updates when an earlier
// in-flight operation rewrote the slot.
func (l *ChangeLog) Append(ctx context.Context, change models.PendingChange) error {
	changes := l.Load(ctx)
	return l.Replace(ctx, append(changes, change))
}

// Load returns the pending changes in original append order. An absent or
// corrupt slot yields an empty log, never an error.
func (l *ChangeLog) Load(ctx context.Context) []models.PendingChange {
	data, ok, err := l.kv.Get(ctx, PendingChangesKey)
	if err != nil {
		log.Printf("Error loading pending changes: %v", err)
		return nil
	}
	if !ok {
		return nil
	}
	var changes []models.PendingChange
	if err := json.Unmarshal(data, &changes); err != nil {
		log.Printf("Corrupt pending change log, starting empty: %v", err)
		return nil
	}
	return changes
}

// Replace overwrites the entire log. Used by Append and by reconciliation
// to persist the unprocessed tail after a partial replay failure.
func (l *ChangeLog) Replace(ctx context.Context, changes []models.PendingChange) error {
	if len(changes) == 0 {
		return l.Clear(ctx)
	}
	data, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("encode pending changes: %w", err)
	}
	if err := l.kv.Set(ctx, PendingChangesKey, data); err != nil {
		return fmt.Errorf("persist pending changes: %w", err)
	}
	return nil
}

// Clear removes the entire log. Called only after a fully successful
// reconciliation pass.
func (l *ChangeLog) Clear(ctx context.Context) error {
	return l.kv.Remove(ctx, PendingChangesKey)
}
