package stats

import (
	"math"
	"time"

	"study-planner/internal/model"
)

const (
	streakLookbackDays   = 365
	currentStreakWindow  = 30
	weeklyMissTolerance  = 7
	DefaultScoreWindow   = 30
	scoreRecencyWeight   = 1.05
	defaultNumericTarget = 1.0
)

// Streak holds the current and best run of completed due days.
type Streak struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

// WeeklyProgress counts completed due days in a Monday-start week.
type WeeklyProgress struct {
	Completed  int `json:"completed"`
	Target     int `json:"target"`
	Percentage int `json:"percentage"`
}

// IsHabitDueOnDate evaluates the habit's frequency rule for a YYYY-MM-DD date.
func IsHabitDueOnDate(habit model.Habit, dateISO string) bool {
	day, err := ParseDate(dateISO)
	if err != nil {
		return false
	}
	return isDue(habit, day)
}

func isDue(habit model.Habit, day time.Time) bool {
	rule := habit.Frequency
	switch rule.Type {
	case model.FrequencyWeeklyTarget:
		return true
	case model.FrequencySpecificDays:
		weekday := int(day.Weekday())
		for _, d := range rule.Days {
			if d == weekday {
				return true
			}
		}
		return false
	case model.FrequencyEveryXDays:
		if rule.Interval <= 0 {
			return false
		}
		since := DaysBetween(habit.CreatedAt, day)
		return since >= 0 && since%rule.Interval == 0
	default:
		return false
	}
}

// IsHabitCompleted reports whether log satisfies the habit. Boolean habits
// need done=true; numeric habits need value >= target (1 when unset).
func IsHabitCompleted(habit model.Habit, log *model.HabitLog) bool {
	if log == nil {
		return false
	}
	if habit.Type == model.HabitTypeNumeric {
		if log.Value == nil {
			return false
		}
		target := defaultNumericTarget
		if habit.Target != nil {
			target = *habit.Target
		}
		return *log.Value >= target
	}
	return log.Done != nil && *log.Done
}

func indexLogs(habitID string, logs []model.HabitLog) map[string]*model.HabitLog {
	byDate := make(map[string]*model.HabitLog, len(logs))
	for i := range logs {
		if logs[i].HabitID != "" && logs[i].HabitID != habitID {
			continue
		}
		byDate[logs[i].DateISO] = &logs[i]
	}
	return byDate
}

// CalculateHabitStreak walks back from endDate over at most 365 days.
// Completed due days extend the running streak; only days inside the most
// recent 30 count toward Current. A missed due day ends the run, except
// that weekly-target habits tolerate up to 7 consecutive misses.
func CalculateHabitStreak(habit model.Habit, logs []model.HabitLog, endDate time.Time) Streak {
	byDate := indexLogs(habit.ID, logs)
	end := DateOf(endDate)
	weekly := habit.Frequency.Type == model.FrequencyWeeklyTarget

	var streak Streak
	running, misses := 0, 0
	currentOpen := true
	for i := 0; i < streakLookbackDays; i++ {
		day := end.AddDate(0, 0, -i)
		if !isDue(habit, day) {
			continue
		}
		if IsHabitCompleted(habit, byDate[FormatDate(day)]) {
			running++
			misses = 0
			if currentOpen && i < currentStreakWindow {
				streak.Current = running
			}
			continue
		}
		if weekly {
			misses++
			if misses <= weeklyMissTolerance {
				continue
			}
		}
		if running > streak.Best {
			streak.Best = running
		}
		running, misses = 0, 0
		currentOpen = false
	}
	if running > streak.Best {
		streak.Best = running
	}
	return streak
}

// CalculateHabitScore returns a 0..100 recency-weighted completion rate of
// the due days in the window ending at endDate. The oldest day weighs 1 and
// each later day 1.05 times the previous. A window without due days scores
// 100.
func CalculateHabitScore(habit model.Habit, logs []model.HabitLog, endDate time.Time, windowDays int) int {
	if windowDays <= 0 {
		windowDays = DefaultScoreWindow
	}
	byDate := indexLogs(habit.ID, logs)
	end := DateOf(endDate)

	var earned, possible float64
	for idx := 0; idx < windowDays; idx++ {
		day := end.AddDate(0, 0, -(windowDays - 1 - idx))
		if !isDue(habit, day) {
			continue
		}
		weight := math.Pow(scoreRecencyWeight, float64(idx))
		possible += weight
		if IsHabitCompleted(habit, byDate[FormatDate(day)]) {
			earned += weight
		}
	}
	if possible == 0 {
		return 100
	}
	return int(math.Round(100 * earned / possible))
}

// GetWeeklyProgress counts due-and-completed days of the week starting at
// weekStart. Weekly-target habits use timesPerWeek as the target instead
// of the number of due days.
func GetWeeklyProgress(habit model.Habit, logs []model.HabitLog, weekStart time.Time) WeeklyProgress {
	byDate := indexLogs(habit.ID, logs)
	start := DateOf(weekStart)

	var progress WeeklyProgress
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		if !isDue(habit, day) {
			continue
		}
		progress.Target++
		if IsHabitCompleted(habit, byDate[FormatDate(day)]) {
			progress.Completed++
		}
	}
	if habit.Frequency.Type == model.FrequencyWeeklyTarget {
		progress.Target = habit.Frequency.TimesPerWeek
	}
	if progress.Target > 0 {
		progress.Percentage = int(math.Round(100 * float64(progress.Completed) / float64(progress.Target)))
		if progress.Percentage > 100 {
			progress.Percentage = 100
		}
	}
	return progress
}

// HabitWithStats bundles a habit with everything derived from its logs.
type HabitWithStats struct {
	Habit          model.Habit     `json:"habit"`
	Streak         Streak          `json:"streak"`
	Score          int             `json:"score"`
	Weekly         WeeklyProgress  `json:"weekly"`
	TodayLog       *model.HabitLog `json:"todayLog,omitempty"`
	DueToday       bool            `json:"dueToday"`
	CompletedToday bool            `json:"completedToday"`
}

// GetHabitWithStats computes every derived value of a habit as of now.
func GetHabitWithStats(habit model.Habit, logs []model.HabitLog, now time.Time) HabitWithStats {
	today := FormatDate(now)
	todayLog := indexLogs(habit.ID, logs)[today]
	return HabitWithStats{
		Habit:          habit,
		Streak:         CalculateHabitStreak(habit, logs, now),
		Score:          CalculateHabitScore(habit, logs, now, DefaultScoreWindow),
		Weekly:         GetWeeklyProgress(habit, logs, WeekStart(now)),
		TodayLog:       todayLog,
		DueToday:       IsHabitDueOnDate(habit, today),
		CompletedToday: IsHabitCompleted(habit, todayLog),
	}
}

// GetTodayHabits returns the active habits due on now's date, in order.
func GetTodayHabits(habits []model.Habit, now time.Time) []model.Habit {
	today := FormatDate(now)
	out := make([]model.Habit, 0, len(habits))
	for _, h := range habits {
		if h.IsArchived {
			continue
		}
		if IsHabitDueOnDate(h, today) {
			out = append(out, h)
		}
	}
	return out
}
