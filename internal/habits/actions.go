package habits

import (
	"time"

	"study-planner/internal/model"
)

// Action is a habits state transition.
type Action interface {
	habitsAction()
}

type AddHabit struct {
	ID    string
	Input model.HabitInput
	Now   time.Time
}

type UpdateHabit struct {
	ID    string
	Patch model.HabitPatch
	Now   time.Time
}

type ArchiveHabit struct {
	ID  string
	Now time.Time
}

type UnarchiveHabit struct {
	ID  string
	Now time.Time
}

// RemoveHabit drops a habit and its in-memory logs. Stored logs must be
// deleted before dispatching it.
type RemoveHabit struct {
	ID string
}

// SetLog replaces the in-memory log of (habit, day).
type SetLog struct {
	Log model.HabitLog
}

// ReorderHabits replaces the list with the given order.
type ReorderHabits struct {
	Habits []model.Habit
	Now    time.Time
}

// ImportHabits replaces every habit and the whole in-memory log map.
type ImportHabits struct {
	Habits []model.Habit
	Logs   []model.HabitLog
}

// LoadLogs replaces the in-memory log map with logs read from storage.
type LoadLogs struct {
	Logs []model.HabitLog
}

func (AddHabit) habitsAction()       {}
func (UpdateHabit) habitsAction()    {}
func (ArchiveHabit) habitsAction()   {}
func (UnarchiveHabit) habitsAction() {}
func (RemoveHabit) habitsAction()    {}
func (SetLog) habitsAction()         {}
func (ReorderHabits) habitsAction()  {}
func (ImportHabits) habitsAction()   {}
func (LoadLogs) habitsAction()       {}
