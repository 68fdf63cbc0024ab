package planner

import (
	"time"

	"study-planner/internal/model"
)

// Action is a planner state transition. Ids and timestamps are resolved by
// the caller so Reduce stays deterministic.
type Action interface {
	plannerAction()
}

type AddCourse struct {
	ID     string
	UnitID string
	Title  string
	Code   string
	Now    time.Time
}

type UpdateCourse struct {
	CourseID string
	Patch    model.CoursePatch
	Now      time.Time
}

type DeleteCourse struct {
	CourseID string
}

type AddUnit struct {
	CourseID string
	ID       string
	Title    string
	Now      time.Time
}

type UpdateUnit struct {
	CourseID string
	UnitID   string
	Title    *string
	Order    *int
	Now      time.Time
}

type DeleteUnit struct {
	CourseID string
	UnitID   string
	Now      time.Time
}

type AddTask struct {
	CourseID string
	UnitID   string
	ID       string
	Input    model.TaskInput
	Now      time.Time
}

type UpdateTask struct {
	CourseID string
	UnitID   string
	TaskID   string
	Patch    model.TaskPatch
	Now      time.Time
}

type DeleteTask struct {
	CourseID string
	UnitID   string
	TaskID   string
	Now      time.Time
}

type AddExam struct {
	CourseID string
	ID       string
	Input    model.ExamInput
	Now      time.Time
}

type UpdateExam struct {
	CourseID string
	ExamID   string
	Input    model.ExamInput
	Now      time.Time
}

type DeleteExam struct {
	CourseID string
	ExamID   string
	Now      time.Time
}

type ToggleTaskCompletion struct {
	TaskID string
	Now    time.Time
}

type UpdateTaskStatus struct {
	TaskID   string
	Status   model.TaskStatus
	CourseID string
	UnitID   string
	Now      time.Time
}

type Undo struct{}

type AddPersonalTask struct {
	ID    string
	Input model.TaskInput
	Now   time.Time
}

type UpdatePersonalTask struct {
	TaskID string
	Patch  model.TaskPatch
	Now    time.Time
}

type TogglePersonalTask struct {
	TaskID string
	Now    time.Time
}

type DeletePersonalTask struct {
	TaskID string
}

type AddLectureNote struct {
	Meta model.LectureNoteMeta
}

type DeleteLectureNote struct {
	ID string
}

type ImportData struct {
	Courses         []model.Course
	CompletionState model.CompletionState
	PersonalTasks   []model.Task
}

func (AddCourse) plannerAction()            {}
func (UpdateCourse) plannerAction()         {}
func (DeleteCourse) plannerAction()         {}
func (AddUnit) plannerAction()              {}
func (UpdateUnit) plannerAction()           {}
func (DeleteUnit) plannerAction()           {}
func (AddTask) plannerAction()              {}
func (UpdateTask) plannerAction()           {}
func (DeleteTask) plannerAction()           {}
func (AddExam) plannerAction()              {}
func (UpdateExam) plannerAction()           {}
func (DeleteExam) plannerAction()           {}
func (ToggleTaskCompletion) plannerAction() {}
func (UpdateTaskStatus) plannerAction()     {}
func (Undo) plannerAction()                 {}
func (AddPersonalTask) plannerAction()      {}
func (UpdatePersonalTask) plannerAction()   {}
func (TogglePersonalTask) plannerAction()   {}
func (DeletePersonalTask) plannerAction()   {}
func (AddLectureNote) plannerAction()       {}
func (DeleteLectureNote) plannerAction()    {}
func (ImportData) plannerAction()           {}
