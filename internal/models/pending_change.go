package models

import (
	"encoding/json"
	"fmt"
)

// ChangeType tags a pending change variant
type ChangeType string

const (
	ChangeAdd    ChangeType = "ADD"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// AddChange is the payload of an ADD pending change: the raw task as
// submitted, plus the provisional id the optimistic local copy was stored
// under. The provisional id lets reconciliation rewrite later Update/Delete
// entries once the server assigns a permanent id.
type AddChange struct {
	RawTask
	ProvisionalID string `json:"provisionalId,omitempty"`
}

// PendingChange is one entry of the pending change log: a tagged variant of
// Add, Update or Delete. Exactly one of Add, Update or TaskID is set,
// according to Type.
type PendingChange struct {
	Type   ChangeType
	Add    *AddChange // Type == ChangeAdd
	Update *Task      // Type == ChangeUpdate
	TaskID string     // Type == ChangeDelete
}

// NewAddChange builds an ADD entry for a task created offline.
func NewAddChange(raw RawTask, provisionalID string) PendingChange {
	return PendingChange{Type: ChangeAdd, Add: &AddChange{RawTask: raw, ProvisionalID: provisionalID}}
}

// NewUpdateChange builds an UPDATE entry carrying the full task snapshot.
func NewUpdateChange(task Task) PendingChange {
	t := task
	return PendingChange{Type: ChangeUpdate, Update: &t}
}

// NewDeleteChange builds a DELETE entry carrying only the task id.
func NewDeleteChange(taskID string) PendingChange {
	return PendingChange{Type: ChangeDelete, TaskID: taskID}
}

// Duplicates reports whether o is a duplicate of the same logical mutation.
// Two DELETE entries are duplicates iff they target the same task id. Two
// ADD entries are duplicates iff title, description, dueDate, time, status
// and priority all match; category is deliberately excluded because its
// color is regenerated server-side per submission. UPDATE entries are never
// duplicates of anything.
func (c PendingChange) Duplicates(o PendingChange) bool {
	if c.Type != o.Type {
		return false
	}
	switch c.Type {
	case ChangeDelete:
		return c.TaskID == o.TaskID
	case ChangeAdd:
		a, b := c.Add, o.Add
		return a.Title == b.Title &&
			a.Description == b.Description &&
			a.DueDate.Equal(b.DueDate) &&
			a.Time == b.Time &&
			a.Status == b.Status &&
			a.Priority == b.Priority
	}
	return false
}

// pendingChangeJSON is the persisted wire shape. ADD and UPDATE both store
// their payload under "task"; DELETE stores only "taskId".
type pendingChangeJSON struct {
	Type   ChangeType      `json:"type"`
	Task   json.RawMessage `json:"task,omitempty"`
	TaskID string          `json:"taskId,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c PendingChange) MarshalJSON() ([]byte, error) {
	out := pendingChangeJSON{Type: c.Type}
	switch c.Type {
	case ChangeAdd:
		task, err := json.Marshal(c.Add)
		if err != nil {
			return nil, err
		}
		out.Task = task
	case ChangeUpdate:
		task, err := json.Marshal(c.Update)
		if err != nil {
			return nil, err
		}
		out.Task = task
	case ChangeDelete:
		out.TaskID = c.TaskID
	default:
		return nil, fmt.Errorf("unknown pending change type %q", c.Type)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *PendingChange) UnmarshalJSON(data []byte) error {
	var in pendingChangeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = PendingChange{Type: in.Type}
	switch in.Type {
	case ChangeAdd:
		var add AddChange
		if err := json.Unmarshal(in.Task, &add); err != nil {
			return err
		}
		c.Add = &add
	case ChangeUpdate:
		var task Task
		if err := json.Unmarshal(in.Task, &task); err != nil {
			return err
		}
		c.Update = &task
	case ChangeDelete:
		c.TaskID = in.TaskID
	default:
		return fmt.Errorf("unknown pending change type %q", in.Type)
	}
	return nil
}
