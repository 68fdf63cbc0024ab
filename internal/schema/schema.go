// Package schema validates persisted and imported data. Decoders return an
// error for malformed input; callers decide which default to substitute.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"study-planner/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(frequencyRuleValidation, model.FrequencyRule{})
	return v
}

func frequencyRuleValidation(sl validator.StructLevel) {
	rule := sl.Current().Interface().(model.FrequencyRule)
	switch rule.Type {
	case model.FrequencyWeeklyTarget:
		if rule.TimesPerWeek < 1 || rule.TimesPerWeek > 7 {
			sl.ReportError(rule.TimesPerWeek, "timesPerWeek", "TimesPerWeek", "weeklytarget", "1..7")
		}
	case model.FrequencyEveryXDays:
		if rule.Interval < 1 || rule.Interval > 365 {
			sl.ReportError(rule.Interval, "interval", "Interval", "interval", "1..365")
		}
	}
}

// Validate runs struct-tag validation on v.
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// ValidateList validates every element of a slice of structs.
func ValidateList(list interface{}) error {
	if err := validate.Var(list, "dive"); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

func decodeList[T any](data []byte, normalize func(*T)) ([]T, error) {
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if list == nil {
		list = []T{}
	}
	if normalize != nil {
		for i := range list {
			normalize(&list[i])
		}
	}
	if err := ValidateList(list); err != nil {
		return nil, err
	}
	return list, nil
}

// Courses decodes and validates the stored course list.
func Courses(data []byte) ([]model.Course, error) {
	return decodeList(data, NormalizeCourse)
}

// Tasks decodes and validates a flat task list.
func Tasks(data []byte) ([]model.Task, error) {
	return decodeList(data, NormalizeTask)
}

// Habits decodes and validates the stored habit list.
func Habits(data []byte) ([]model.Habit, error) {
	return decodeList(data, NormalizeHabit)
}

// UndoStack decodes the stored undo snapshots.
func UndoStack(data []byte) ([]model.UndoSnapshot, error) {
	return decodeList(data, func(s *model.UndoSnapshot) {
		if s.CompletedTaskIDs == nil {
			s.CompletedTaskIDs = []string{}
		}
		if s.CompletionHistory == nil {
			s.CompletionHistory = map[string]string{}
		}
	})
}

// LectureNotes decodes the stored lecture note metadata.
func LectureNotes(data []byte) ([]model.LectureNoteMeta, error) {
	return decodeList[model.LectureNoteMeta](data, nil)
}

// CompletionState decodes the stored completion state.
func CompletionState(data []byte) (model.CompletionState, error) {
	var state model.CompletionState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.CompletionState{}, fmt.Errorf("decode: %w", err)
	}
	NormalizeCompletion(&state)
	return state, nil
}

// Settings decodes stored settings on top of the defaults, so missing
// fields keep their default value.
func Settings(data []byte) (model.AppSettings, error) {
	settings := model.DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return model.AppSettings{}, fmt.Errorf("decode: %w", err)
	}
	NormalizeSettings(&settings)
	if err := Validate(settings); err != nil {
		return model.AppSettings{}, err
	}
	return settings, nil
}

// NormalizeCourse fills nil collections and task defaults.
func NormalizeCourse(c *model.Course) {
	if c.Units == nil {
		c.Units = []model.Unit{}
	}
	if c.Exams == nil {
		c.Exams = []model.Exam{}
	}
	for i := range c.Units {
		if c.Units[i].Tasks == nil {
			c.Units[i].Tasks = []model.Task{}
		}
		for j := range c.Units[i].Tasks {
			NormalizeTask(&c.Units[i].Tasks[j])
		}
	}
}

// NormalizeTask defaults a missing status to todo.
func NormalizeTask(t *model.Task) {
	if t.Status == "" {
		t.Status = model.TaskStatusTodo
	}
}

// NormalizeHabit applies the habit field defaults.
func NormalizeHabit(h *model.Habit) {
	if h.Emoji == "" {
		h.Emoji = model.DefaultHabitEmoji
	}
	if h.Type == "" {
		h.Type = model.HabitTypeBoolean
	}
	if h.SortMode == "" {
		h.SortMode = model.SortManual
	}
}

// NormalizeCompletion replaces nil collections with empty ones.
func NormalizeCompletion(c *model.CompletionState) {
	if c.CompletedTaskIDs == nil {
		c.CompletedTaskIDs = []string{}
	}
	if c.CompletionHistory == nil {
		c.CompletionHistory = map[string]string{}
	}
}

// NormalizeSettings repairs an empty theme.
func NormalizeSettings(s *model.AppSettings) {
	if s.Theme == "" {
		s.Theme = model.ThemeSystem
	}
}
