package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andriyansyah/todosync/internal/models"
	"github.com/andriyansyah/todosync/internal/storage"
)

func TestDedupeCollapsesRepeatedSubmissions(t *testing.T) {
	changes := []models.PendingChange{
		models.NewAddChange(sampleRaw("Buy milk"), "p1"),
		models.NewDeleteChange("srv-1"),
		models.NewAddChange(sampleRaw("Buy milk"), "p2"), // double-tapped submit
		models.NewDeleteChange("srv-1"),                  // double-tapped delete
		models.NewAddChange(sampleRaw("Walk dog"), "p3"),
	}

	deduped := Dedupe(changes)
	require.Len(t, deduped, 3)
	assert.Equal(t, "p1", deduped[0].Add.ProvisionalID, "first occurrence wins")
	assert.Equal(t, "srv-1", deduped[1].TaskID)
	assert.Equal(t, "Walk dog", deduped[2].Add.Title, "survivor order preserved")
}

func TestDedupeKeepsAllUpdates(t *testing.T) {
	task := sampleRaw("edit me").Materialize("srv-1", time.Now().UTC())
	changes := []models.PendingChange{
		models.NewUpdateChange(task),
		models.NewUpdateChange(task),
	}
	assert.Len(t, Dedupe(changes), 2, "UPDATE entries are never collapsed")
}

func TestRunDrainsLogAndRefreshes(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	log := storage.NewChangeLog(kv)
	store := storage.NewTaskStore(kv, log)

	require.NoError(t, log.Append(ctx, models.NewAddChange(sampleRaw("queued"), "p1")))
	require.NoError(t, log.Append(ctx, models.NewDeleteChange("srv-old")))

	var replayed []string
	serverList := []models.Task{sampleRaw("queued").Materialize("srv-1", time.Now().UTC())}
	client := &fakeRemote{
		create: func(raw models.RawTask) (models.Task, error) {
			replayed = append(replayed, "ADD "+raw.Title)
			return raw.Materialize("srv-1", time.Now().UTC()), nil
		},
		remove: func(id string) error {
			replayed = append(replayed, "DELETE "+id)
			return nil
		},
		list: func(string) ([]models.Task, error) { return serverList, nil },
	}

	var applied []models.Task
	engine := NewSyncEngine(client, store, log, func(_ context.Context, tasks []models.Task) {
		applied = tasks
	})

	require.NoError(t, engine.Run(ctx))
	assert.Equal(t, []string{"ADD queued", "DELETE srv-old"}, replayed, "replay must follow append order")
	assert.Empty(t, log.Load(ctx), "log cleared after a full drain")

	stored := store.Load(ctx)
	require.Len(t, stored, 1)
	assert.Equal(t, "srv-1", stored[0].ID, "store overwritten with the server collection")
	require.Len(t, applied, 1)
	assert.Equal(t, "srv-1", applied[0].ID)
}

func TestRunAbortsAndRetainsTail(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	log := storage.NewChangeLog(kv)
	store := storage.NewTaskStore(kv, log)

	updated := sampleRaw("edit").Materialize("srv-b", time.Now().UTC())
	require.NoError(t, log.Append(ctx, models.NewAddChange(sampleRaw("a"), "p-a")))
	require.NoError(t, log.Append(ctx, models.NewUpdateChange(updated)))
	require.NoError(t, log.Append(ctx, models.NewDeleteChange("srv-c")))

	client := &fakeRemote{
		create: func(raw models.RawTask) (models.Task, error) {
			return raw.Materialize("srv-a", time.Now().UTC()), nil
		},
		update: func(models.Task) (models.Task, error) { return models.Task{}, offline() },
	}
	engine := NewSyncEngine(client, store, log, nil)

	err := engine.Run(ctx)
	require.Error(t, err, "a failed replay aborts the pass")

	// The failed entry and everything after it survive for the next trigger.
	tail := log.Load(ctx)
	require.Len(t, tail, 2)
	assert.Equal(t, models.ChangeUpdate, tail[0].Type)
	assert.Equal(t, "srv-b", tail[0].Update.ID)
	assert.Equal(t, models.ChangeDelete, tail[1].Type)
	assert.Equal(t, "srv-c", tail[1].TaskID)
}

func TestRunRemapsProvisionalIDs(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	log := storage.NewChangeLog(kv)
	store := storage.NewTaskStore(kv, log)

	// Created offline, then edited and another one deleted, all before
	// connectivity returned. The later entries carry the provisional id.
	provisional := "1700000000000-offline01"
	edited := sampleRaw("created offline").Materialize(provisional, time.Now().UTC())
	edited.Title = "edited offline"
	require.NoError(t, log.Append(ctx, models.NewAddChange(sampleRaw("created offline"), provisional)))
	require.NoError(t, log.Append(ctx, models.NewUpdateChange(edited)))
	require.NoError(t, log.Append(ctx, models.NewDeleteChange(provisional)))

	var updatedID, deletedID string
	client := &fakeRemote{
		create: func(raw models.RawTask) (models.Task, error) {
			return raw.Materialize("srv-77", time.Now().UTC()), nil
		},
		update: func(task models.Task) (models.Task, error) {
			updatedID = task.ID
			return task, nil
		},
		remove: func(id string) error {
			deletedID = id
			return nil
		},
		list: func(string) ([]models.Task, error) { return nil, nil },
	}
	engine := NewSyncEngine(client, store, log, nil)

	require.NoError(t, engine.Run(ctx))
	assert.Equal(t, "srv-77", updatedID, "UPDATE must carry the server-assigned id")
	assert.Equal(t, "srv-77", deletedID, "DELETE must carry the server-assigned id")
}

func TestRunRetainedTailCarriesRewrittenIDs(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	log := storage.NewChangeLog(kv)
	store := storage.NewTaskStore(kv, log)

	provisional := "1700000000000-offline01"
	edited := sampleRaw("created offline").Materialize(provisional, time.Now().UTC())
	require.NoError(t, log.Append(ctx, models.NewAddChange(sampleRaw("created offline"), provisional)))
	require.NoError(t, log.Append(ctx, models.NewUpdateChange(edited)))

	client := &fakeRemote{
		create: func(raw models.RawTask) (models.Task, error) {
			return raw.Materialize("srv-77", time.Now().UTC()), nil
		},
		update: func(models.Task) (models.Task, error) { return models.Task{}, offline() },
	}
	engine := NewSyncEngine(client, store, log, nil)

	require.Error(t, engine.Run(ctx))

	// The retained UPDATE already points at the server id, so the next pass
	// does not depend on the in-memory remap table.
	tail := log.Load(ctx)
	require.Len(t, tail, 1)
	assert.Equal(t, "srv-77", tail[0].Update.ID)
}

func TestRunRewritesEntriesPastTheFailurePoint(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	log := storage.NewChangeLog(kv)
	store := storage.NewTaskStore(kv, log)

	// The ADD lands and maps the provisional id, the unrelated UPDATE
	// fails, and a DELETE for the added task sits past the failure point.
	provisional := "1700000000000-offline01"
	unrelated := sampleRaw("unrelated edit").Materialize("srv-b", time.Now().UTC())
	require.NoError(t, log.Append(ctx, models.NewAddChange(sampleRaw("created offline"), provisional)))
	require.NoError(t, log.Append(ctx, models.NewUpdateChange(unrelated)))
	require.NoError(t, log.Append(ctx, models.NewDeleteChange(provisional)))

	client := &fakeRemote{
		create: func(raw models.RawTask) (models.Task, error) {
			return raw.Materialize("srv-77", time.Now().UTC()), nil
		},
		update: func(models.Task) (models.Task, error) { return models.Task{}, offline() },
	}
	engine := NewSyncEngine(client, store, log, nil)

	require.Error(t, engine.Run(ctx))

	// The whole retained tail must carry server ids, not just the failed
	// entry: the next pass starts with an empty remap table, so a trailing
	// provisional id would be dead forever.
	tail := log.Load(ctx)
	require.Len(t, tail, 2)
	assert.Equal(t, "srv-b", tail[0].Update.ID)
	assert.Equal(t, models.ChangeDelete, tail[1].Type)
	assert.Equal(t, "srv-77", tail[1].TaskID)

	// A retry with the network back drains the log cleanly.
	var deletedID string
	client.update = func(task models.Task) (models.Task, error) { return task, nil }
	client.remove = func(id string) error {
		deletedID = id
		return nil
	}
	client.list = func(string) ([]models.Task, error) { return nil, nil }
	require.NoError(t, engine.Run(ctx))
	assert.Equal(t, "srv-77", deletedID)
	assert.Empty(t, log.Load(ctx))
}

func TestRunDropsOverlappingTrigger(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	log := storage.NewChangeLog(kv)
	store := storage.NewTaskStore(kv, log)

	require.NoError(t, log.Append(ctx, models.NewAddChange(sampleRaw("slow"), "p1")))

	entered := make(chan struct{})
	release := make(chan struct{})
	client := &fakeRemote{
		create: func(raw models.RawTask) (models.Task, error) {
			close(entered)
			<-release
			return raw.Materialize("srv-1", time.Now().UTC()), nil
		},
		list: func(string) ([]models.Task, error) { return nil, nil },
	}
	engine := NewSyncEngine(client, store, log, nil)

	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()
	<-entered

	// A trigger while a pass is in flight is dropped, not queued.
	require.NoError(t, engine.Run(ctx))
	assert.Equal(t, 1, client.createCalls)

	close(release)
	require.NoError(t, <-done)
}

func TestRunEmptyLogStillRefreshes(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	log := storage.NewChangeLog(kv)
	store := storage.NewTaskStore(kv, log)

	fresh := sampleRaw("fresh").Materialize("srv-1", time.Now().UTC())
	client := &fakeRemote{
		list: func(string) ([]models.Task, error) { return []models.Task{fresh}, nil },
	}
	engine := NewSyncEngine(client, store, log, nil)

	require.NoError(t, engine.Run(ctx))
	stored := store.Load(ctx)
	require.Len(t, stored, 1)
	assert.Equal(t, "srv-1", stored[0].ID)
}
