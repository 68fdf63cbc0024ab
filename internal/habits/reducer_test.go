package habits

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"study-planner/internal/model"
)

var now = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

func mustReduce(t *testing.T, s State, a Action) State {
	t.Helper()
	next, err := Reduce(s, a)
	if err != nil {
		t.Fatalf("reduce %T: %v", a, err)
	}
	return next
}

func boolPtr(b bool) *bool { return &b }
func floatPtr(f float64) *float64 { return &f }

func TestAddHabitDefaults(t *testing.T) {
	s := mustReduce(t, NewState(), AddHabit{ID: "h1", Input: model.HabitInput{Title: "Read", Frequency: model.WeeklyTarget(3)}, Now: now})
	s = mustReduce(t, s, AddHabit{ID: "h2", Input: model.HabitInput{Title: "Run", Emoji: "🏃", Frequency: model.SpecificDays(1, 3, 5)}, Now: now})

	h1, h2 := s.Habits[0], s.Habits[1]
	if h1.Emoji != model.DefaultHabitEmoji || h1.Type != model.HabitTypeBoolean || h1.IsArchived {
		t.Fatalf("h1 = %+v", h1)
	}
	if h1.SortMode != model.SortManual || h1.ManualOrder == nil || *h1.ManualOrder != 0 {
		t.Fatalf("h1 order = %+v", h1)
	}
	if h2.ManualOrder == nil || *h2.ManualOrder != 1 {
		t.Fatalf("h2 order = %v", h2.ManualOrder)
	}
	if h1.Color != model.Palette[0] || h2.Color != model.Palette[1] {
		t.Fatalf("colors = %s %s", h1.Color, h2.Color)
	}
}

func TestAddHabitValidation(t *testing.T) {
	cases := map[string]model.HabitInput{
		"empty title":        {Title: " ", Frequency: model.WeeklyTarget(3)},
		"long emoji":         {Title: "x", Emoji: "abcde", Frequency: model.WeeklyTarget(3)},
		"zero weekly target": {Title: "x", Frequency: model.WeeklyTarget(0)},
		"zero interval":      {Title: "x", Frequency: model.EveryXDays(0)},
		"bad weekday":        {Title: "x", Frequency: model.SpecificDays(7)},
		"unknown type":       {Title: "x", Type: "counter", Frequency: model.WeeklyTarget(1)},
		"negative target":    {Title: "x", Type: model.HabitTypeNumeric, Target: floatPtr(-1), Frequency: model.WeeklyTarget(1)},
		"no frequency":       {Title: "x"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Reduce(NewState(), AddHabit{ID: "h", Input: in, Now: now})
			if !errors.Is(err, model.ErrInvalidInput) {
				t.Fatalf("err = %v, want invalid input", err)
			}
		})
	}
}

func TestHabitCapacity(t *testing.T) {
	s := NewState()
	for i := 0; i < model.MaxHabits; i++ {
		s = mustReduce(t, s, AddHabit{ID: fmt.Sprintf("h%d", i), Input: model.HabitInput{Title: "x", Frequency: model.WeeklyTarget(1)}, Now: now})
	}
	next, err := Reduce(s, AddHabit{ID: "extra", Input: model.HabitInput{Title: "x", Frequency: model.WeeklyTarget(1)}, Now: now})
	if !errors.Is(err, model.ErrCapacity) || len(next.Habits) != model.MaxHabits {
		t.Fatalf("err = %v, habits = %d", err, len(next.Habits))
	}
}

func TestUpdateArchiveHabit(t *testing.T) {
	s := mustReduce(t, NewState(), AddHabit{ID: "h1", Input: model.HabitInput{Title: "Read", Frequency: model.WeeklyTarget(3)}, Now: now})
	later := now.Add(time.Hour)
	title := "Read 20 pages"
	freq := model.EveryXDays(2)
	s = mustReduce(t, s, UpdateHabit{ID: "h1", Patch: model.HabitPatch{Title: &title, Frequency: &freq}, Now: later})
	if h := s.Habits[0]; h.Title != title || h.Frequency.Type != model.FrequencyEveryXDays || !h.UpdatedAt.Equal(later) {
		t.Fatalf("habit = %+v", h)
	}

	bad := model.WeeklyTarget(9)
	if _, err := Reduce(s, UpdateHabit{ID: "h1", Patch: model.HabitPatch{Frequency: &bad}, Now: later}); err == nil {
		t.Fatal("invalid frequency accepted")
	}

	s = mustReduce(t, s, ArchiveHabit{ID: "h1", Now: later})
	if !s.Habits[0].IsArchived || len(s.Active()) != 0 {
		t.Fatal("archive failed")
	}
	s = mustReduce(t, s, UnarchiveHabit{ID: "h1", Now: later})
	if s.Habits[0].IsArchived {
		t.Fatal("unarchive failed")
	}
}

func TestSetLogReplacesSameDay(t *testing.T) {
	s := mustReduce(t, NewState(), AddHabit{ID: "h1", Input: model.HabitInput{Title: "Read", Frequency: model.WeeklyTarget(3)}, Now: now})
	s = mustReduce(t, s, SetLog{Log: model.HabitLog{HabitID: "h1", DateISO: "2024-06-10", Done: boolPtr(false)}})
	s = mustReduce(t, s, SetLog{Log: model.HabitLog{HabitID: "h1", DateISO: "2024-06-08", Done: boolPtr(true)}})
	s = mustReduce(t, s, SetLog{Log: model.HabitLog{HabitID: "h1", DateISO: "2024-06-10", Done: boolPtr(true)}})

	logs := s.LogsFor("h1")
	if len(logs) != 2 {
		t.Fatalf("logs = %+v", logs)
	}
	if logs[0].DateISO != "2024-06-08" || logs[1].DateISO != "2024-06-10" || !*logs[1].Done {
		t.Fatalf("logs = %+v", logs)
	}

	if _, err := Reduce(s, SetLog{Log: model.HabitLog{HabitID: "ghost", DateISO: "2024-06-10"}}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("ghost log err = %v", err)
	}
}

func TestRemoveHabitDropsLogs(t *testing.T) {
	s := mustReduce(t, NewState(), AddHabit{ID: "h1", Input: model.HabitInput{Title: "Read", Frequency: model.WeeklyTarget(3)}, Now: now})
	s = mustReduce(t, s, SetLog{Log: model.HabitLog{HabitID: "h1", DateISO: "2024-06-10", Done: boolPtr(true)}})
	s = mustReduce(t, s, RemoveHabit{ID: "h1"})
	if len(s.Habits) != 0 || len(s.Logs) != 0 {
		t.Fatalf("state = %+v", s)
	}
}

func TestReorderHabits(t *testing.T) {
	s := NewState()
	for _, id := range []string{"a", "b", "c"} {
		s = mustReduce(t, s, AddHabit{ID: id, Input: model.HabitInput{Title: id, Frequency: model.WeeklyTarget(1)}, Now: now})
	}
	reordered := []model.Habit{s.Habits[2], s.Habits[0], s.Habits[1]}
	s = mustReduce(t, s, ReorderHabits{Habits: reordered, Now: now})

	var got []string
	for _, h := range s.Habits {
		got = append(got, fmt.Sprintf("%s:%d", h.ID, *h.ManualOrder))
	}
	if want := []string{"c:0", "a:1", "b:2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}

	if _, err := Reduce(s, ReorderHabits{Habits: s.Habits[:2]}); err == nil {
		t.Fatal("partial reorder accepted")
	}
}

func TestImportHabitsReplacesEverything(t *testing.T) {
	s := mustReduce(t, NewState(), AddHabit{ID: "old", Input: model.HabitInput{Title: "Old", Frequency: model.WeeklyTarget(1)}, Now: now})
	s = mustReduce(t, s, SetLog{Log: model.HabitLog{HabitID: "old", DateISO: "2024-06-10", Done: boolPtr(true)}})

	imported := []model.Habit{{ID: "new", Title: "New", Type: model.HabitTypeBoolean, Frequency: model.WeeklyTarget(2)}}
	s = mustReduce(t, s, ImportHabits{Habits: imported})
	if len(s.Habits) != 1 || s.Habits[0].ID != "new" {
		t.Fatalf("habits = %+v", s.Habits)
	}
	if len(s.Logs) != 0 {
		t.Fatal("old logs survived import")
	}
}
