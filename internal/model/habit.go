package model

import "time"

// HabitType decides how a log counts as completed.
type HabitType string

const (
	HabitTypeBoolean HabitType = "boolean"
	HabitTypeNumeric HabitType = "numeric"
)

// FrequencyType tags the recurrence rule variant.
type FrequencyType string

const (
	FrequencyWeeklyTarget FrequencyType = "weeklyTarget"
	FrequencySpecificDays FrequencyType = "specificDays"
	FrequencyEveryXDays   FrequencyType = "everyXDays"
)

// FrequencyRule is a tagged union keyed by Type. Only the fields of the
// active variant are meaningful.
type FrequencyRule struct {
	Type         FrequencyType `json:"type" validate:"required,oneof=weeklyTarget specificDays everyXDays"`
	TimesPerWeek int           `json:"timesPerWeek,omitempty"`
	Days         []int         `json:"days,omitempty" validate:"omitempty,dive,min=0,max=6"`
	Interval     int           `json:"interval,omitempty"`
}

// WeeklyTarget builds a rule due every day with a weekly count goal.
func WeeklyTarget(timesPerWeek int) FrequencyRule {
	return FrequencyRule{Type: FrequencyWeeklyTarget, TimesPerWeek: timesPerWeek}
}

// SpecificDays builds a rule due on the listed weekdays (0=Sunday).
func SpecificDays(days ...int) FrequencyRule {
	return FrequencyRule{Type: FrequencySpecificDays, Days: days}
}

// EveryXDays builds a rule due every interval days from creation.
func EveryXDays(interval int) FrequencyRule {
	return FrequencyRule{Type: FrequencyEveryXDays, Interval: interval}
}

// SortMode controls how habits are ordered for display.
type SortMode string

const (
	SortManual       SortMode = "manual"
	SortAlphabetical SortMode = "alphabetical"
	SortStreak       SortMode = "streak"
	SortCreated      SortMode = "created"
)

// Habit is a tracked recurring practice.
type Habit struct {
	ID          string        `json:"id" validate:"required"`
	Title       string        `json:"title" validate:"required,max=200"`
	Description string        `json:"description,omitempty" validate:"max=500"`
	Emoji       string        `json:"emoji" validate:"max=4"`
	Type        HabitType     `json:"type" validate:"required,oneof=boolean numeric"`
	Target      *float64      `json:"target,omitempty"`
	Unit        string        `json:"unit,omitempty" validate:"max=50"`
	Color       string        `json:"color,omitempty"`
	Frequency   FrequencyRule `json:"frequency"`
	SortMode    SortMode      `json:"sortMode,omitempty" validate:"omitempty,oneof=manual alphabetical streak created"`
	ManualOrder *int          `json:"manualOrder,omitempty"`
	IsArchived  bool          `json:"isArchived"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// HabitInput carries the fields supplied when a habit is created.
type HabitInput struct {
	Title       string
	Description string
	Emoji       string
	Type        HabitType
	Target      *float64
	Unit        string
	Color       string
	Frequency   FrequencyRule
}

// HabitPatch updates a subset of habit fields.
type HabitPatch struct {
	Title       *string
	Description *string
	Emoji       *string
	Target      *float64
	Unit        *string
	Color       *string
	Frequency   *FrequencyRule
	SortMode    *SortMode
}

// HabitLog is the single per-day record of a habit.
type HabitLog struct {
	HabitID   string    `json:"habitId" validate:"required"`
	DateISO   string    `json:"dateISO" validate:"required,datetime=2006-01-02"`
	Done      *bool     `json:"done,omitempty"`
	Value     *float64  `json:"value,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
