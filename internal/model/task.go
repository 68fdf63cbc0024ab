package model

import "time"

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone:
		return true
	}
	return false
}

// Task is a single item either inside a unit or in the personal list.
type Task struct {
	ID         string     `json:"id" validate:"required"`
	Text       string     `json:"text" validate:"required,max=500"`
	Status     TaskStatus `json:"status" validate:"required,oneof=todo in-progress review done"`
	IsPriority bool       `json:"isPriority,omitempty"`
	DueDateISO string     `json:"dueDateISO,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Tags       []string   `json:"tags,omitempty" validate:"omitempty,dive,max=50"`
	Note       string     `json:"note,omitempty" validate:"max=500"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// TaskInput carries the editable fields of a task.
type TaskInput struct {
	Text       string
	IsPriority bool
	DueDateISO string
	Tags       []string
	Note       string
}

// TaskPatch updates a subset of task fields. Status is deliberately absent:
// it changes only through toggle and status updates.
type TaskPatch struct {
	Text       *string
	IsPriority *bool
	DueDateISO *string
	Tags       []string
	Note       *string
}
