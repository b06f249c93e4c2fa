package models

import (
	"fmt"
	"time"

	"github.com/andriyansyah/todosync/internal/utils"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Category is a denormalized copy of a category at time of assignment,
// not a live reference. The color is assigned server-side on creation.
type Category struct {
	Name  string `bson:"name" json:"name"`
	Color string `bson:"color" json:"color"`
}

// TaskDate is the display projection of the due date. The dueDate instant
// is the source of truth; these fields are derived and cached.
type TaskDate struct {
	Day   int    `bson:"day" json:"day"`
	Month string `bson:"month" json:"month"`
	Year  int    `bson:"year" json:"year"`
}

// Task represents a single task item
type Task struct {
	ID          string       `bson:"_id" json:"id" validate:"required"`
	Title       string       `bson:"title" json:"title" validate:"required"`
	Description string       `bson:"description" json:"description"`
	DueDate     time.Time    `bson:"dueDate" json:"dueDate"`
	Time        string       `bson:"time" json:"time"` // free-form display string, e.g. "02:30 PM"
	Date        TaskDate     `bson:"date" json:"date"`
	Status      TaskStatus   `bson:"status" json:"status"`
	Priority    TaskPriority `bson:"priority" json:"priority"`
	Category    Category     `bson:"category" json:"category"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// RawTask is the pre-persistence shape of a task: the fields a caller
// supplies before any id or timestamps exist. DueDate round-trips through
// JSON as an RFC 3339 string, never as a live date object.
type RawTask struct {
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description"`
	DueDate     time.Time    `json:"dueDate"`
	Time        string       `json:"time"`
	Status      TaskStatus   `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Priority    TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Category    Category     `json:"category"`
}

// CategoryName returns the category name to send on the wire, falling back
// to "Uncategorized" when none was assigned.
func (r RawTask) CategoryName() string {
	if r.Category.Name == "" {
		return "Uncategorized"
	}
	return r.Category.Name
}

// Materialize builds the optimistic local Task for a raw task created
// offline: provisional id, client-assigned timestamps, derived date fields.
func (r RawTask) Materialize(id string, now time.Time) Task {
	return Task{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Time:        r.Time,
		Date:        FormatTaskDate(r.DueDate),
		Status:      r.Status,
		Priority:    r.Priority,
		Category:    r.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// FormatTaskDate decomposes a due-date instant into the cached display
// projection (day, full English month name, year).
func FormatTaskDate(dueDate time.Time) TaskDate {
	return TaskDate{
		Day:   dueDate.Day(),
		Month: monthNames[dueDate.Month()-1],
		Year:  dueDate.Year(),
	}
}

// NextStatus returns the status a toggle action transitions to:
// completed -> in_progress, in_progress -> completed, pending -> completed,
// anything else -> pending.
func NextStatus(s TaskStatus) TaskStatus {
	switch s {
	case StatusCompleted:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	case StatusPending:
		return StatusCompleted
	default:
		return StatusPending
	}
}

// NewProvisionalID synthesizes a client-side task id for offline creations:
// epoch milliseconds plus a random suffix, unique within a session.
func NewProvisionalID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), utils.RandomSuffix(9))
}
