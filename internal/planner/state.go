// Package planner holds the course/task state machine: a pure reducer over
// State plus a Store that injects ids and time, surfaces errors as
// notifications and persists through a debounced writer.
package planner

import (
	"study-planner/internal/model"
)

// State is the full planner aggregate.
type State struct {
	Courses         []model.Course          `json:"courses"`
	CompletionState model.CompletionState   `json:"completionState"`
	UndoStack       []model.UndoSnapshot    `json:"undoStack"`
	PersonalTasks   []model.Task            `json:"personalTasks"`
	LectureNotes    []model.LectureNoteMeta `json:"lectureNotes"`
}

// NewState returns an empty state with non-nil collections.
func NewState() State {
	return State{
		Courses:         []model.Course{},
		CompletionState: model.NewCompletionState(),
		UndoStack:       []model.UndoSnapshot{},
		PersonalTasks:   []model.Task{},
		LectureNotes:    []model.LectureNoteMeta{},
	}
}

// Clone deep-copies the state so reducers never share backing arrays with
// their input.
func (s State) Clone() State {
	out := State{
		Courses:         make([]model.Course, len(s.Courses)),
		CompletionState: s.CompletionState.Clone(),
		UndoStack:       make([]model.UndoSnapshot, len(s.UndoStack)),
		PersonalTasks:   cloneTasks(s.PersonalTasks),
		LectureNotes:    make([]model.LectureNoteMeta, len(s.LectureNotes)),
	}
	for i, c := range s.Courses {
		out.Courses[i] = cloneCourse(c)
	}
	for i, snap := range s.UndoStack {
		out.UndoStack[i] = cloneSnapshot(snap)
	}
	copy(out.LectureNotes, s.LectureNotes)
	return out
}

// FindTask locates a course task anywhere in the state.
func (s State) FindTask(taskID string) (courseIdx, unitIdx, taskIdx int, ok bool) {
	for ci := range s.Courses {
		for ui := range s.Courses[ci].Units {
			for ti := range s.Courses[ci].Units[ui].Tasks {
				if s.Courses[ci].Units[ui].Tasks[ti].ID == taskID {
					return ci, ui, ti, true
				}
			}
		}
	}
	return -1, -1, -1, false
}

// Course returns the course with the given id.
func (s State) Course(courseID string) (model.Course, bool) {
	if i := s.courseIndex(courseID); i >= 0 {
		return s.Courses[i], true
	}
	return model.Course{}, false
}

// NotesForCourse lists the lecture note metadata of a course.
func (s State) NotesForCourse(courseID string) []model.LectureNoteMeta {
	var out []model.LectureNoteMeta
	for _, n := range s.LectureNotes {
		if n.CourseID == courseID {
			out = append(out, n)
		}
	}
	return out
}

func (s State) courseIndex(courseID string) int {
	for i := range s.Courses {
		if s.Courses[i].ID == courseID {
			return i
		}
	}
	return -1
}

func cloneCourse(c model.Course) model.Course {
	out := c
	out.Units = make([]model.Unit, len(c.Units))
	for i, u := range c.Units {
		out.Units[i] = u
		out.Units[i].Tasks = cloneTasks(u.Tasks)
	}
	out.Exams = make([]model.Exam, len(c.Exams))
	copy(out.Exams, c.Exams)
	return out
}

func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t
		if t.Tags != nil {
			out[i].Tags = append([]string(nil), t.Tags...)
		}
	}
	return out
}

func cloneSnapshot(s model.UndoSnapshot) model.UndoSnapshot {
	c := model.CompletionState{CompletedTaskIDs: s.CompletedTaskIDs, CompletionHistory: s.CompletionHistory}.Clone()
	return model.UndoSnapshot{Timestamp: s.Timestamp, CompletedTaskIDs: c.CompletedTaskIDs, CompletionHistory: c.CompletionHistory}
}
