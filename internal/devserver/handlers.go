package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/andriyansyah/todosync/internal/models"
	"github.com/andriyansyah/todosync/internal/utils"
)

// TaskHandler handles task related HTTP requests
type TaskHandler struct {
	store     TaskStore
	validator *validator.Validate
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(store TaskStore) *TaskHandler {
	return &TaskHandler{
		store:     store,
		validator: validator.New(),
	}
}

// createTaskRequest mirrors the client create payload: dueDate as an ISO
// string, category as a bare name.
type createTaskRequest struct {
	Title       string              `json:"title" validate:"required"`
	Description string              `json:"description"`
	DueDate     string              `json:"dueDate"`
	Time        string              `json:"time"`
	Status      models.TaskStatus   `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Priority    models.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Category    string              `json:"category"`
}

// updateTaskRequest accepts any subset of task fields. Category arrives
// either as a bare name or as a {name,color} object depending on the
// caller, so it is decoded lazily.
type updateTaskRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	DueDate     *string              `json:"dueDate"`
	Time        *string              `json:"time"`
	Status      *models.TaskStatus   `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Priority    *models.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Category    json.RawMessage      `json:"category"`
}

// CreateTask handles creating a new task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	dueDate := time.Now()
	if req.DueDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid dueDate format, expected RFC 3339")
			return
		}
		dueDate = parsed
	}

	// Set defaults if not provided
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if req.Category == "" {
		req.Category = "Uncategorized"
	}

	now := time.Now()
	task := models.Task{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Time:        req.Time,
		Date:        models.FormatTaskDate(dueDate),
		Status:      req.Status,
		Priority:    req.Priority,
		// The color is regenerated on every creation, which is why the
		// client's dedup ignores it.
		Category:  models.Category{Name: req.Category, Color: randomHexColor()},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.Create(r.Context(), task); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{"data": task})
}

// GetTasks handles listing tasks, ordered by the sort query parameter
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.List(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve tasks")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": tasks})
}

// UpdateTask handles updating an existing task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	taskID := vars["id"]

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.store.Get(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Task not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve task for update")
		return
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.DueDate != nil {
		parsed, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid dueDate format, expected RFC 3339")
			return
		}
		task.DueDate = parsed
		task.Date = models.FormatTaskDate(parsed)
	}
	if req.Time != nil {
		task.Time = *req.Time
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if len(req.Category) > 0 {
		applyCategory(&task, req.Category)
	}
	task.UpdatedAt = time.Now()

	if err := h.store.Update(r.Context(), task); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Task not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update task")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": task})
}

// DeleteTask handles deleting a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	taskID := vars["id"]

	if err := h.store.Delete(r.Context(), taskID); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Task not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete task")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"message": "Task deleted successfully"})
}

// applyCategory accepts the category either as a bare name string or as a
// full {name,color} object.
func applyCategory(task *models.Task, raw json.RawMessage) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		task.Category.Name = name
		return
	}
	var category models.Category
	if err := json.Unmarshal(raw, &category); err == nil {
		task.Category = category
	}
}

func randomHexColor() string {
	return fmt.Sprintf("#%06X", rand.Intn(0x1000000))
}
