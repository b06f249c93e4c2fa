package services

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/andriyansyah/todosync/internal/models"
	"github.com/andriyansyah/todosync/internal/storage"
)

// SyncEngine replays the pending change log against the remote service once
// connectivity returns. A pass deduplicates the log, replays the survivors
// strictly in append order, and on a full drain clears the log and
// overwrites the local store with the server's collection. A pass must not
// overlap with itself: a trigger arriving while one is running is dropped.
type SyncEngine struct {
	client  RemoteAPI
	store   *storage.TaskStore
	log     *storage.ChangeLog
	apply   func(ctx context.Context, tasks []models.Task)
	running atomic.Bool
}

// NewSyncEngine creates a reconciliation engine. apply receives the
// refreshed collection after a successful pass (the gateway's ReplaceAll).
func NewSyncEngine(client RemoteAPI, store *storage.TaskStore, changeLog *storage.ChangeLog, apply func(context.Context, []models.Task)) *SyncEngine {
	return &SyncEngine{client: client, store: store, log: changeLog, apply: apply}
}

// Run executes one reconciliation pass. On the first replay failure the
// remaining tail of the log (provisional ids already rewritten) is
// persisted for the next trigger and the pass aborts: a later entry may
// depend on the failed one having been applied.
func (e *SyncEngine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		log.Printf("Reconciliation already in progress, dropping trigger")
		return nil
	}
	defer e.running.Store(false)

	changes := Dedupe(e.log.Load(ctx))

	// Maps provisional ids to server-assigned ids as ADD entries land, so
	// later UPDATE/DELETE entries for the same conceptual task are
	// rewritten before replay instead of carrying a dead id.
	remap := make(map[string]string)

	for i := range changes {
		changes[i] = rewriteIDs(changes[i], remap)
		change := changes[i]

		var err error
		switch change.Type {
		case models.ChangeAdd:
			var created models.Task
			created, err = e.client.CreateTask(ctx, change.Add.RawTask)
			if err == nil && change.Add.ProvisionalID != "" {
				remap[change.Add.ProvisionalID] = created.ID
			}
		case models.ChangeUpdate:
			_, err = e.client.UpdateTask(ctx, *change.Update)
		case models.ChangeDelete:
			err = e.client.DeleteTask(ctx, change.TaskID)
		}
		if err != nil {
			// The remap table dies with this pass, so entries past the
			// failure point must be rewritten before the tail is persisted.
			tail := changes[i:]
			for j := range tail {
				tail[j] = rewriteIDs(tail[j], remap)
			}
			if perr := e.log.Replace(ctx, tail); perr != nil {
				log.Printf("Error persisting pending change tail: %v", perr)
			}
			return fmt.Errorf("replay %s: %w", change.Type, err)
		}
	}

	if err := e.log.Clear(ctx); err != nil {
		return fmt.Errorf("clear pending changes: %w", err)
	}

	tasks, err := e.client.ListTasks(ctx, "dueDate")
	if err != nil {
		// The drain succeeded; the refresh will happen on the next pass.
		return fmt.Errorf("refresh after sync: %w", err)
	}
	e.store.Save(ctx, tasks)
	if e.apply != nil {
		e.apply(ctx, tasks)
	}
	return nil
}

// Dedupe collapses entries representing the same logical mutation, keeping
// the first occurrence and preserving the relative order of survivors.
func Dedupe(changes []models.PendingChange) []models.PendingChange {
	out := make([]models.PendingChange, 0, len(changes))
	for _, change := range changes {
		dup := false
		for _, kept := range out {
			if kept.Duplicates(change) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, change)
		}
	}
	return out
}

func rewriteIDs(change models.PendingChange, remap map[string]string) models.PendingChange {
	switch change.Type {
	case models.ChangeUpdate:
		if serverID, ok := remap[change.Update.ID]; ok {
			t := *change.Update
			t.ID = serverID
			change.Update = &t
		}
	case models.ChangeDelete:
		if serverID, ok := remap[change.TaskID]; ok {
			change.TaskID = serverID
		}
	}
	return change
}
