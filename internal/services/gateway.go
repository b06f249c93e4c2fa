package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/andriyansyah/todosync/internal/models"
	"github.com/andriyansyah/todosync/internal/remote"
	"github.com/andriyansyah/todosync/internal/storage"
)

// RemoteAPI is the slice of the remote task service the engine consumes.
type RemoteAPI interface {
	CreateTask(ctx context.Context, raw models.RawTask) (models.Task, error)
	UpdateTask(ctx context.Context, task models.Task) (models.Task, error)
	PatchTaskStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, sortKey string) ([]models.Task, error)
}

// ValidationError marks input rejected before any network attempt.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Gateway is the per-operation entry point for task mutations. Each
// operation attempts the remote call first, falls back to a local mutation
// plus a pending-log entry on network failure, and propagates server
// rejections untouched. The gateway owns the Local Task Store and the
// Pending Change Log; the UI layer only reads snapshots and subscribes.
type Gateway struct {
	mu       sync.Mutex
	client   RemoteAPI
	store    *storage.TaskStore
	log      *storage.ChangeLog
	tasks    []models.Task
	subs     []func([]models.Task)
	validate *validator.Validate
}

// NewGateway creates a gateway over the given remote client and stores.
func NewGateway(client RemoteAPI, store *storage.TaskStore, changeLog *storage.ChangeLog) *Gateway {
	return &Gateway{
		client:   client,
		store:    store,
		log:      changeLog,
		validate: validator.New(),
	}
}

// Subscribe registers a callback invoked with a snapshot of the collection
// after every change. The UI layer re-renders from these snapshots.
func (g *Gateway) Subscribe(fn func([]models.Task)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subs = append(g.subs, fn)
}

// Tasks returns a snapshot of the cached collection.
func (g *Gateway) Tasks() []models.Task {
	g.mu.Lock()
	defer g.mu.Unlock()
	return snapshot(g.tasks)
}

// Refresh fetches the authoritative collection from the remote service and
// overwrites the local store. On any failure it serves whatever is cached
// locally instead; Refresh never surfaces a network error.
func (g *Gateway) Refresh(ctx context.Context) []models.Task {
	tasks, err := g.client.ListTasks(ctx, "dueDate")

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		log.Printf("Fetching tasks failed, serving local cache: %v", err)
		g.setTasks(ctx, g.store.Load(ctx), false)
		return snapshot(g.tasks)
	}
	g.setTasks(ctx, tasks, true)
	return snapshot(g.tasks)
}

// ReplaceAll overwrites the store and cache with the given collection.
// Used by the reconciliation engine after a full successful pass.
func (g *Gateway) ReplaceAll(ctx context.Context, tasks []models.Task) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setTasks(ctx, tasks, true)
}

// Create stores a new task. Online, the server-assigned task is appended to
// the collection. Offline, a provisional task is applied optimistically and
// an ADD entry is queued. A server rejection is propagated with no local
// mutation and no log entry.
func (g *Gateway) Create(ctx context.Context, raw models.RawTask) (models.Task, error) {
	if err := g.validate.Struct(raw); err != nil {
		return models.Task{}, &ValidationError{Message: "title is required"}
	}

	created, err := g.client.CreateTask(ctx, raw)

	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case err == nil:
		cur := append(g.store.Load(ctx), created)
		g.setTasks(ctx, cur, true)
		return created, nil

	case remote.IsUnreachable(err):
		id := models.NewProvisionalID()
		task := raw.Materialize(id, time.Now())
		cur := g.store.Load(ctx)
		if appendErr := g.log.Append(ctx, models.NewAddChange(raw, id)); appendErr != nil {
			// Accepted best-effort risk: optimistic state may outlive a
			// failed log write.
			log.Printf("Error queueing ADD change: %v", appendErr)
		}
		g.setTasks(ctx, append(cur, task), true)
		return task, nil

	default:
		return models.Task{}, err
	}
}

// Update replaces an existing task. Online, the server's stored version
// wins. Offline, the caller's snapshot is applied verbatim and an UPDATE
// entry is queued. A server rejection is propagated with no local mutation.
func (g *Gateway) Update(ctx context.Context, task models.Task) (models.Task, error) {
	if err := g.validate.Struct(task); err != nil {
		return models.Task{}, &ValidationError{Message: "id and title are required"}
	}

	stored, err := g.client.UpdateTask(ctx, task)

	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case err == nil:
		g.setTasks(ctx, replaceTask(g.store.Load(ctx), stored), true)
		return stored, nil

	case remote.IsUnreachable(err):
		cur := replaceTask(g.store.Load(ctx), task)
		if appendErr := g.log.Append(ctx, models.NewUpdateChange(task)); appendErr != nil {
			log.Printf("Error queueing UPDATE change: %v", appendErr)
		}
		g.setTasks(ctx, cur, true)
		return task, nil

	default:
		return models.Task{}, err
	}
}

// Delete removes a task. The optimistic removal happens even on network
// failure, with a DELETE entry queued for replay. A server rejection is
// propagated and nothing is removed.
func (g *Gateway) Delete(ctx context.Context, taskID string) error {
	err := g.client.DeleteTask(ctx, taskID)

	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case err == nil:
		g.setTasks(ctx, removeTask(g.store.Load(ctx), taskID), true)
		return nil

	case remote.IsUnreachable(err):
		cur := removeTask(g.store.Load(ctx), taskID)
		if appendErr := g.log.Append(ctx, models.NewDeleteChange(taskID)); appendErr != nil {
			log.Printf("Error queueing DELETE change: %v", appendErr)
		}
		g.setTasks(ctx, cur, true)
		return nil

	default:
		return err
	}
}

// ToggleStatus advances a task through the toggle transition table. The new
// status is applied locally before the remote call so the UI stays snappy;
// if the status PUT then fails for any reason, the pre-toggle status is
// restored and the error is surfaced. Toggle never queues a pending entry.
func (g *Gateway) ToggleStatus(ctx context.Context, taskID string) (models.Task, error) {
	g.mu.Lock()
	cur := g.store.Load(ctx)
	idx := indexOf(cur, taskID)
	if idx < 0 {
		g.mu.Unlock()
		return models.Task{}, &ValidationError{Message: "task not found"}
	}
	prev := cur[idx].Status
	next := models.NextStatus(prev)
	cur[idx].Status = next
	g.setTasks(ctx, cur, true)
	g.mu.Unlock()

	stored, err := g.client.PatchTaskStatus(ctx, taskID, next)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		// Compensating rollback to the exact pre-toggle status.
		rolled := g.store.Load(ctx)
		if i := indexOf(rolled, taskID); i >= 0 {
			rolled[i].Status = prev
		}
		g.setTasks(ctx, rolled, true)
		return models.Task{}, err
	}
	g.setTasks(ctx, replaceTask(g.store.Load(ctx), stored), true)
	return stored, nil
}

// setTasks updates the cache, optionally persists, and notifies
// subscribers. Callers must hold g.mu.
func (g *Gateway) setTasks(ctx context.Context, tasks []models.Task, persist bool) {
	g.tasks = tasks
	if persist {
		g.store.Save(ctx, tasks)
	}
	for _, fn := range g.subs {
		fn(snapshot(tasks))
	}
}

func snapshot(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	return out
}

func indexOf(tasks []models.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func replaceTask(tasks []models.Task, task models.Task) []models.Task {
	for i, t := range tasks {
		if t.ID == task.ID {
			tasks[i] = task
			return tasks
		}
	}
	return append(tasks, task)
}

func removeTask(tasks []models.Task, id string) []models.Task {
	out := tasks[:0]
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
