package schema

import (
	"errors"
	"strings"
	"testing"

	"study-planner/internal/model"
)

func TestCoursesValid(t *testing.T) {
	raw := `[{"id":"c1","title":"Math","units":[{"id":"u1","title":"Bölüm 1","order":0,"tasks":[{"id":"t1","text":"Read"}]}]}]`
	courses, err := Courses([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(courses) != 1 || courses[0].Exams == nil {
		t.Fatalf("unexpected courses %+v", courses)
	}
	if got := courses[0].Units[0].Tasks[0].Status; got != model.TaskStatusTodo {
		t.Fatalf("status default = %q", got)
	}
}

func TestCoursesRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":      `{oops`,
		"wrong shape":   `{"id":"c1"}`,
		"missing title": `[{"id":"c1","units":[],"exams":[]}]`,
		"bad status":    `[{"id":"c1","title":"x","units":[{"id":"u","title":"u","tasks":[{"id":"t","text":"a","status":"finished"}]}]}]`,
		"long title":    `[{"id":"c1","title":"` + strings.Repeat("a", 201) + `"}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Courses([]byte(raw)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestHabitsFrequencyRule(t *testing.T) {
	cases := []struct {
		name string
		freq string
		ok   bool
	}{
		{"weekly ok", `{"type":"weeklyTarget","timesPerWeek":3}`, true},
		{"weekly zero", `{"type":"weeklyTarget","timesPerWeek":0}`, false},
		{"weekly eight", `{"type":"weeklyTarget","timesPerWeek":8}`, false},
		{"days ok", `{"type":"specificDays","days":[1,3,5]}`, true},
		{"days out of range", `{"type":"specificDays","days":[7]}`, false},
		{"every ok", `{"type":"everyXDays","interval":365}`, true},
		{"every too large", `{"type":"everyXDays","interval":366}`, false},
		{"unknown type", `{"type":"monthly"}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := `[{"id":"h1","title":"Run","type":"boolean","frequency":` + tc.freq + `}]`
			_, err := Habits([]byte(raw))
			if (err == nil) != tc.ok {
				t.Fatalf("err = %v, want ok=%v", err, tc.ok)
			}
		})
	}
}

func TestHabitDefaults(t *testing.T) {
	habits, err := Habits([]byte(`[{"id":"h1","title":"Read","frequency":{"type":"weeklyTarget","timesPerWeek":2}}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	h := habits[0]
	if h.Emoji != model.DefaultHabitEmoji || h.Type != model.HabitTypeBoolean || h.IsArchived {
		t.Fatalf("defaults not applied: %+v", h)
	}
}

func TestSettingsKeepDefaultsForMissingFields(t *testing.T) {
	s, err := Settings([]byte(`{"theme":"dark"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Theme != model.ThemeDark || s.PomodoroWorkMinutes != 25 {
		t.Fatalf("unexpected settings %+v", s)
	}
	if _, err := Settings([]byte(`{"pomodoroWorkMinutes":0}`)); err == nil {
		t.Fatal("expected range error")
	}
}

func TestCompletionStateNullCollections(t *testing.T) {
	c, err := CompletionState([]byte(`{"completedTaskIds":null}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.CompletedTaskIDs == nil || c.CompletionHistory == nil {
		t.Fatal("nil collections survived")
	}
}

func TestRequiredText(t *testing.T) {
	got, err := RequiredText("title", "  <b>Math</b> & Physics ", 200)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if got != "Math & Physics" {
		t.Fatalf("cleaned = %q", got)
	}
	if _, err := RequiredText("title", "<script></script>", 200); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if _, err := RequiredText("title", strings.Repeat("ş", 201), 200); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
}
