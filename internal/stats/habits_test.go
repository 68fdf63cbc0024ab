package stats

import (
	"testing"
	"time"

	"study-planner/internal/model"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(model.DateLayout, s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func done(habitID, date string) model.HabitLog {
	yes := true
	return model.HabitLog{HabitID: habitID, DateISO: date, Done: &yes}
}

func value(habitID, date string, v float64) model.HabitLog {
	return model.HabitLog{HabitID: habitID, DateISO: date, Value: &v}
}

func floatPtr(f float64) *float64 { return &f }

func daily(id string, created time.Time) model.Habit {
	return model.Habit{
		ID:        id,
		Title:     "daily",
		Type:      model.HabitTypeBoolean,
		Frequency: model.SpecificDays(0, 1, 2, 3, 4, 5, 6),
		CreatedAt: created,
	}
}

// logsBack marks the given offsets (days before end) as done.
func logsBack(habitID string, end time.Time, offsets ...int) []model.HabitLog {
	var logs []model.HabitLog
	for _, o := range offsets {
		logs = append(logs, done(habitID, FormatDate(end.AddDate(0, 0, -o))))
	}
	return logs
}

func TestIsHabitDueOnDate(t *testing.T) {
	everyTwo := model.Habit{ID: "h", Frequency: model.EveryXDays(2), CreatedAt: day("2024-01-01").Add(15 * time.Hour)}
	mwf := model.Habit{ID: "h", Frequency: model.SpecificDays(1, 3, 5)}
	weekly := model.Habit{ID: "h", Frequency: model.WeeklyTarget(3)}

	cases := []struct {
		name  string
		habit model.Habit
		date  string
		want  bool
	}{
		{"every 2 day 0", everyTwo, "2024-01-01", true},
		{"every 2 day 1", everyTwo, "2024-01-02", false},
		{"every 2 day 2", everyTwo, "2024-01-03", true},
		{"every 2 before creation", everyTwo, "2023-12-30", false},
		{"mwf monday", mwf, "2024-05-13", true},
		{"mwf tuesday", mwf, "2024-05-14", false},
		{"mwf sunday", mwf, "2024-05-19", false},
		{"weekly any day", weekly, "2024-05-19", true},
		{"bad date", weekly, "19.05.2024", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsHabitDueOnDate(tc.habit, tc.date); got != tc.want {
				t.Fatalf("due = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsHabitCompleted(t *testing.T) {
	boolean := model.Habit{ID: "h", Type: model.HabitTypeBoolean}
	numeric := model.Habit{ID: "h", Type: model.HabitTypeNumeric, Target: floatPtr(5)}
	noTarget := model.Habit{ID: "h", Type: model.HabitTypeNumeric}
	no := false
	notDone := model.HabitLog{HabitID: "h", DateISO: "2024-01-01", Done: &no}
	yes := done("h", "2024-01-01")
	five := value("h", "2024-01-01", 5)
	four := value("h", "2024-01-01", 4)
	one := value("h", "2024-01-01", 1)

	cases := []struct {
		name  string
		habit model.Habit
		log   *model.HabitLog
		want  bool
	}{
		{"no log", boolean, nil, false},
		{"done", boolean, &yes, true},
		{"not done", boolean, &notDone, false},
		{"numeric at target", numeric, &five, true},
		{"numeric below target", numeric, &four, false},
		{"numeric without value", numeric, &yes, false},
		{"numeric default target", noTarget, &one, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsHabitCompleted(tc.habit, tc.log); got != tc.want {
				t.Fatalf("completed = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStreakSpecificDaysThreeWeeks(t *testing.T) {
	habit := model.Habit{ID: "h", Type: model.HabitTypeBoolean, Frequency: model.SpecificDays(1, 3, 5), CreatedAt: day("2024-04-29")}
	var logs []model.HabitLog
	for d := day("2024-04-29"); !d.After(day("2024-05-17")); d = d.AddDate(0, 0, 1) {
		if IsHabitDueOnDate(habit, FormatDate(d)) {
			logs = append(logs, done("h", FormatDate(d)))
		}
	}
	if len(logs) != 9 {
		t.Fatalf("fixture has %d logs", len(logs))
	}

	got := CalculateHabitStreak(habit, logs, day("2024-05-17"))
	if got.Current != 9 || got.Best != 9 {
		t.Fatalf("streak = %+v, want 9/9", got)
	}
}

func TestStreakCurrentCappedAtThirtyDays(t *testing.T) {
	end := day("2024-06-30")
	habit := daily("h", end.AddDate(-1, 0, 0))
	offsets := make([]int, 40)
	for i := range offsets {
		offsets[i] = i
	}
	got := CalculateHabitStreak(habit, logsBack("h", end, offsets...), end)
	if got.Current != 30 || got.Best != 40 {
		t.Fatalf("streak = %+v, want current 30 best 40", got)
	}
}

func TestStreakMissBreaksCurrent(t *testing.T) {
	end := day("2024-06-30")
	habit := daily("h", end.AddDate(-1, 0, 0))
	logs := logsBack("h", end, 2, 3, 4, 5, 6, 10, 11)

	got := CalculateHabitStreak(habit, logs, end)
	if got.Current != 0 || got.Best != 5 {
		t.Fatalf("streak = %+v, want current 0 best 5", got)
	}
}

func TestStreakWeeklyTargetToleratesSevenMisses(t *testing.T) {
	end := day("2024-06-30")
	weekly := model.Habit{ID: "h", Type: model.HabitTypeBoolean, Frequency: model.WeeklyTarget(3), CreatedAt: end.AddDate(-1, 0, 0)}
	logs := logsBack("h", end, 0, 8, 17)

	got := CalculateHabitStreak(weekly, logs, end)
	if got.Current != 2 || got.Best != 2 {
		t.Fatalf("weekly streak = %+v, want 2/2", got)
	}

	strict := daily("h", end.AddDate(-1, 0, 0))
	got = CalculateHabitStreak(strict, logs, end)
	if got.Current != 1 || got.Best != 1 {
		t.Fatalf("daily streak = %+v, want 1/1", got)
	}
}

func TestScoreEveryXDaysCreatedToday(t *testing.T) {
	now := day("2024-06-10").Add(10 * time.Hour)
	habit := model.Habit{ID: "h", Type: model.HabitTypeBoolean, Frequency: model.EveryXDays(10), CreatedAt: now}

	if got := CalculateHabitScore(habit, nil, now, 30); got != 0 {
		t.Fatalf("score without log = %d, want 0", got)
	}
	logs := []model.HabitLog{done("h", "2024-06-10")}
	if got := CalculateHabitScore(habit, logs, now, 30); got != 100 {
		t.Fatalf("score with log = %d, want 100", got)
	}
}

func TestScoreNothingDueIsPerfect(t *testing.T) {
	habit := model.Habit{ID: "h", Frequency: model.SpecificDays(), CreatedAt: day("2024-01-01")}
	if got := CalculateHabitScore(habit, nil, day("2024-06-10"), 30); got != 100 {
		t.Fatalf("score = %d, want 100", got)
	}
}

func TestScoreWeightsRecentDaysHigher(t *testing.T) {
	end := day("2024-06-30")
	habit := daily("h", end.AddDate(-1, 0, 0))

	recent := CalculateHabitScore(habit, logsBack("h", end, 0, 1, 2, 3, 4), end, 10)
	old := CalculateHabitScore(habit, logsBack("h", end, 5, 6, 7, 8, 9), end, 10)
	if recent <= old {
		t.Fatalf("recent %d should beat old %d", recent, old)
	}
	if recent+old != 100 && recent+old != 101 {
		t.Fatalf("halves should add up to about 100, got %d + %d", recent, old)
	}
	if got := CalculateHabitScore(habit, nil, end, 0); got != 0 {
		t.Fatalf("default window score = %d, want 0", got)
	}
}

func TestWeeklyProgress(t *testing.T) {
	monday := day("2024-05-13")
	weekly := model.Habit{ID: "h", Type: model.HabitTypeBoolean, Frequency: model.WeeklyTarget(3), CreatedAt: day("2024-01-01")}
	logs := []model.HabitLog{done("h", "2024-05-13"), done("h", "2024-05-14"), done("h", "2024-05-20")}

	got := GetWeeklyProgress(weekly, logs, monday)
	if got.Completed != 2 || got.Target != 3 || got.Percentage != 67 {
		t.Fatalf("weekly = %+v", got)
	}

	mwf := model.Habit{ID: "h", Type: model.HabitTypeBoolean, Frequency: model.SpecificDays(1, 3, 5), CreatedAt: day("2024-01-01")}
	got = GetWeeklyProgress(mwf, logs, monday)
	if got.Completed != 1 || got.Target != 3 {
		t.Fatalf("mwf weekly = %+v", got)
	}
}

func TestWeekStart(t *testing.T) {
	for _, d := range []string{"2024-05-13", "2024-05-15", "2024-05-19"} {
		if got := FormatDate(WeekStart(day(d))); got != "2024-05-13" {
			t.Fatalf("week start of %s = %s", d, got)
		}
	}
}

func TestGetTodayHabitsSkipsArchivedAndNotDue(t *testing.T) {
	now := day("2024-05-14") // Tuesday
	habits := []model.Habit{
		{ID: "a", Frequency: model.WeeklyTarget(2)},
		{ID: "b", Frequency: model.SpecificDays(1)},
		{ID: "c", Frequency: model.WeeklyTarget(2), IsArchived: true},
	}
	got := GetTodayHabits(habits, now)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("today habits = %+v", got)
	}
}

func TestGetHabitWithStats(t *testing.T) {
	now := day("2024-05-14").Add(9 * time.Hour)
	habit := daily("h", day("2024-05-01"))
	logs := logsBack("h", day("2024-05-14"), 0, 1)

	got := GetHabitWithStats(habit, logs, now)
	if !got.DueToday || !got.CompletedToday || got.TodayLog == nil {
		t.Fatalf("today flags wrong: %+v", got)
	}
	if got.Streak.Current != 2 {
		t.Fatalf("current streak = %d", got.Streak.Current)
	}
}
