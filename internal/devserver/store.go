package devserver

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/andriyansyah/todosync/internal/models"
)

// ErrTaskNotFound is returned when a task id does not exist.
var ErrTaskNotFound = errors.New("task not found")

// TaskStore is the persistence surface of the dev server.
type TaskStore interface {
	Create(ctx context.Context, task models.Task) error
	Get(ctx context.Context, id string) (models.Task, error)
	Update(ctx context.Context, task models.Task) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, sortKey string) ([]models.Task, error)
}

// MemoryStore is the default in-memory TaskStore.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]models.Task
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]models.Task)}
}

func (s *MemoryStore) Create(ctx context.Context, task models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, ErrTaskNotFound
	}
	return task, nil
}

func (s *MemoryStore) Update(ctx context.Context, task models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return ErrTaskNotFound
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, sortKey string) ([]models.Task, error) {
	s.mu.RLock()
	out := make([]models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task)
	}
	s.mu.RUnlock()

	sortTasks(out, sortKey)
	return out, nil
}

func sortTasks(tasks []models.Task, sortKey string) {
	switch sortKey {
	case "dueDate":
		sort.Slice(tasks, func(i, j int) bool {
			if tasks[i].DueDate.Equal(tasks[j].DueDate) {
				return tasks[i].ID < tasks[j].ID
			}
			return tasks[i].DueDate.Before(tasks[j].DueDate)
		})
	default:
		sort.Slice(tasks, func(i, j int) bool {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		})
	}
}
