package storage

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/andriyansyah/todosync/internal/models"
)

// TaskStore persists the full task collection in a single slot. It is a
// best-effort cache: a failed write is logged, never propagated, because
// the remote service and the change log remain the source of truth.
type TaskStore struct {
	kv  KV
	log *ChangeLog
}

// NewTaskStore creates a task store over the given KV. The change log is
// consulted on Load so offline creations stay visible across restarts.
func NewTaskStore(kv KV, changeLog *ChangeLog) *TaskStore {
	return &TaskStore{kv: kv, log: changeLog}
}

// Save overwrites the persisted collection.
func (s *TaskStore) Save(ctx context.Context, tasks []models.Task) {
	data, err := json.Marshal(tasks)
	if err != nil {
		log.Printf("Error encoding tasks: %v", err)
		return
	}
	if err := s.kv.Set(ctx, TasksKey, data); err != nil {
		log.Printf("Error saving tasks: %v", err)
	}
}

// Load returns the persisted collection merged with tasks implied by ADD
// entries still in the pending change log, so a not-yet-synced creation is
// visible even if the optimistic task-slot write never landed. An absent or
// corrupt slot yields an empty collection.
func (s *TaskStore) Load(ctx context.Context) []models.Task {
	tasks := s.loadSlot(ctx)

	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		seen[t.ID] = true
	}

	now := time.Now()
	for _, change := range s.log.Load(ctx) {
		if change.Type != models.ChangeAdd {
			continue
		}
		id := change.Add.ProvisionalID
		if id == "" {
			id = models.NewProvisionalID()
		}
		if seen[id] {
			continue
		}
		tasks = append(tasks, change.Add.RawTask.Materialize(id, now))
		seen[id] = true
	}
	return tasks
}

func (s *TaskStore) loadSlot(ctx context.Context) []models.Task {
	data, ok, err := s.kv.Get(ctx, TasksKey)
	if err != nil {
		log.Printf("Error loading tasks: %v", err)
		return nil
	}
	if !ok {
		return nil
	}
	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		log.Printf("Corrupt task collection, starting empty: %v", err)
		return nil
	}
	return tasks
}
