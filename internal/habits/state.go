// Package habits tracks recurring habits and their per-day logs. Reduce is
// a pure state transition; Store runs the record-store effects (log writes,
// cascade deletes) around it.
package habits

import (
	"sort"

	"study-planner/internal/model"
)

// State holds the habit list and the logs loaded so far, grouped by habit.
type State struct {
	Habits []model.Habit
	Logs   map[string][]model.HabitLog
}

func NewState() State {
	return State{Habits: []model.Habit{}, Logs: map[string][]model.HabitLog{}}
}

func (s State) Clone() State {
	out := State{
		Habits: make([]model.Habit, len(s.Habits)),
		Logs:   make(map[string][]model.HabitLog, len(s.Logs)),
	}
	for i, h := range s.Habits {
		out.Habits[i] = cloneHabit(h)
	}
	for id, logs := range s.Logs {
		out.Logs[id] = append([]model.HabitLog(nil), logs...)
	}
	return out
}

// Habit returns the habit with the given id.
func (s State) Habit(id string) (model.Habit, bool) {
	if i := s.index(id); i >= 0 {
		return s.Habits[i], true
	}
	return model.Habit{}, false
}

// LogsFor returns the loaded logs of a habit ordered by date.
func (s State) LogsFor(habitID string) []model.HabitLog {
	return s.Logs[habitID]
}

// Active returns the habits that are not archived.
func (s State) Active() []model.Habit {
	out := make([]model.Habit, 0, len(s.Habits))
	for _, h := range s.Habits {
		if !h.IsArchived {
			out = append(out, h)
		}
	}
	return out
}

func (s State) index(id string) int {
	for i := range s.Habits {
		if s.Habits[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneHabit(h model.Habit) model.Habit {
	out := h
	if h.Target != nil {
		v := *h.Target
		out.Target = &v
	}
	if h.ManualOrder != nil {
		v := *h.ManualOrder
		out.ManualOrder = &v
	}
	if h.Frequency.Days != nil {
		out.Frequency.Days = append([]int(nil), h.Frequency.Days...)
	}
	return out
}

// groupLogs buckets logs by habit, keeping one log per day (the last one
// wins) and sorting each bucket by date.
func groupLogs(logs []model.HabitLog) map[string][]model.HabitLog {
	out := make(map[string][]model.HabitLog)
	for _, l := range logs {
		out[l.HabitID] = upsertLog(out[l.HabitID], l)
	}
	return out
}

func upsertLog(logs []model.HabitLog, log model.HabitLog) []model.HabitLog {
	for i := range logs {
		if logs[i].DateISO == log.DateISO {
			logs[i] = log
			return logs
		}
	}
	logs = append(logs, log)
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].DateISO < logs[j].DateISO })
	return logs
}
