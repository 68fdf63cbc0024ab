package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"study-planner/internal/habits"
	"study-planner/internal/planner"
	"study-planner/internal/settings"
	"study-planner/internal/stats"
)

const examHorizonDays = 7

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	planner    *planner.Store
	habits     *habits.Store
	settings   *settings.Service
	backupDays int
}

func NewReminderService(p *planner.Store, h *habits.Store, s *settings.Service, backupReminderDays int) *ReminderService {
	return &ReminderService{planner: p, habits: h, settings: s, backupDays: backupReminderDays}
}

// DailySummary renders today's habits, due tasks and near exams as
// Telegram HTML.
func (s *ReminderService) DailySummary(now time.Time) string {
	st := s.planner.State()

	var b strings.Builder
	b.WriteString("📋 <b>Daily summary</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	b.WriteString("🌱 <b>Habits</b>\n")
	today := s.habits.TodayHabits()
	if len(today) == 0 {
		b.WriteString("— nothing due today\n")
	}
	for _, h := range today {
		b.WriteString(formatHabit(h))
	}

	b.WriteString("\n🔥 <b>Tasks</b>\n")
	due := stats.GetDueTasks(st.Courses, st.PersonalTasks, now)
	if len(due) == 0 {
		b.WriteString("— no tasks due\n")
	}
	for _, t := range due {
		b.WriteString(formatDueTask(t))
	}

	b.WriteString("\n🎓 <b>Exams</b>\n")
	exams := stats.GetUpcomingExams(st.Courses, now, examHorizonDays)
	if len(exams) == 0 {
		b.WriteString(fmt.Sprintf("— none in the next %d days\n", examHorizonDays))
	}
	for _, e := range exams {
		b.WriteString(formatExam(e))
	}

	overall := stats.CalculateOverallProgress(st.Courses, st.CompletionState.CompletedTaskIDs)
	b.WriteString(fmt.Sprintf("\n📈 Overall progress: %d/%d (%d%%)\n", overall.Completed, overall.Total, overall.Percentage))

	if s.settings != nil && s.backupDays > 0 && s.settings.BackupOverdue(now, s.backupDays) {
		b.WriteString("\n💾 No backup in the last ")
		b.WriteString(fmt.Sprintf("%d days. Run <code>studyplanner export</code>.\n", s.backupDays))
	}
	return strings.TrimSpace(b.String())
}

func formatHabit(h stats.HabitWithStats) string {
	mark := "⬜"
	if h.CompletedToday {
		mark = "✅"
	}
	line := fmt.Sprintf("%s %s %s", mark, h.Habit.Emoji, html.EscapeString(h.Habit.Title))
	if h.Streak.Current > 0 {
		line += fmt.Sprintf(" · 🔥%d", h.Streak.Current)
	}
	return line + "\n"
}

func formatDueTask(t stats.DueTask) string {
	icon := "⏳"
	if t.Overdue {
		icon = "⚠️"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(t.Task.Text)))
	if t.CourseTitle != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(t.CourseTitle)))
	}
	if t.Overdue {
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s, <b>overdue</b>", t.Task.DueDateISO))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func formatExam(e stats.UpcomingExam) string {
	when := "today"
	switch {
	case e.DaysLeft == 1:
		when = "tomorrow"
	case e.DaysLeft > 1:
		when = fmt.Sprintf("in %d days", e.DaysLeft)
	}
	return fmt.Sprintf("📝 %s <i>(%s)</i> · %s\n", html.EscapeString(e.Exam.Title), html.EscapeString(e.CourseTitle), when)
}
