package model

import "time"

// Unit groups tasks inside a course.
type Unit struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title" validate:"required,max=200"`
	Order int    `json:"order"`
	Tasks []Task `json:"tasks" validate:"dive"`
}

// Exam is a dated assessment of a course.
type Exam struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	ExamDateISO string `json:"examDateISO" validate:"required"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// Course is the root aggregate owning units and exams.
type Course struct {
	ID        string    `json:"id" validate:"required"`
	Code      string    `json:"code,omitempty" validate:"max=50"`
	Title     string    `json:"title" validate:"required,max=200"`
	Color     string    `json:"color,omitempty"`
	Units     []Unit    `json:"units" validate:"dive"`
	Exams     []Exam    `json:"exams" validate:"dive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CompletionState tracks which course tasks are done and when.
type CompletionState struct {
	CompletedTaskIDs  []string          `json:"completedTaskIds"`
	CompletionHistory map[string]string `json:"completionHistory"`
}

// NewCompletionState returns an empty, non-nil completion state.
func NewCompletionState() CompletionState {
	return CompletionState{
		CompletedTaskIDs:  []string{},
		CompletionHistory: map[string]string{},
	}
}

// Contains reports whether taskID is marked completed.
func (c CompletionState) Contains(taskID string) bool {
	for _, id := range c.CompletedTaskIDs {
		if id == taskID {
			return true
		}
	}
	return false
}

// Clone deep-copies the state.
func (c CompletionState) Clone() CompletionState {
	out := CompletionState{
		CompletedTaskIDs:  make([]string, len(c.CompletedTaskIDs)),
		CompletionHistory: make(map[string]string, len(c.CompletionHistory)),
	}
	copy(out.CompletedTaskIDs, c.CompletedTaskIDs)
	for k, v := range c.CompletionHistory {
		out.CompletionHistory[k] = v
	}
	return out
}

// UndoSnapshot is a saved copy of the completion state.
type UndoSnapshot struct {
	Timestamp         time.Time         `json:"timestamp"`
	CompletedTaskIDs  []string          `json:"completedTaskIds"`
	CompletionHistory map[string]string `json:"completionHistory"`
}

// CoursePatch updates a subset of course fields.
type CoursePatch struct {
	Title *string
	Code  *string
	Color *string
}

// ExamInput carries the fields of a new or edited exam.
type ExamInput struct {
	Title       string
	ExamDateISO string
	Description string
}
