package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/stats"
)

func renderToday(list []stats.HabitWithStats) string {
	var b strings.Builder
	b.WriteString("🌱 <b>Today's habits</b>\n")
	if len(list) == 0 {
		b.WriteString("— nothing due today")
		return b.String()
	}
	for _, h := range list {
		mark := "⬜"
		if h.CompletedToday {
			mark = "✅"
		}
		b.WriteString(fmt.Sprintf("%s %s %s", mark, h.Habit.Emoji, escape(h.Habit.Title)))
		if h.Streak.Current > 0 {
			b.WriteString(fmt.Sprintf(" · 🔥%d", h.Streak.Current))
		}
		b.WriteString(fmt.Sprintf(" · %d%%\n", h.Score))
	}
	return strings.TrimSpace(b.String())
}

func renderTasks(due []stats.DueTask, personal []model.Task) string {
	var b strings.Builder
	b.WriteString("📋 <b>Due course tasks</b>\n")
	if len(due) == 0 {
		b.WriteString("— nothing due\n")
	}
	for _, t := range due {
		icon := "⏳"
		if t.Overdue {
			icon = "⚠️"
		}
		b.WriteString(fmt.Sprintf("%s %s <i>(%s)</i> <code>%s</code>\n", icon, escape(t.Task.Text), escape(t.CourseTitle), escape(t.Task.ID)))
	}

	b.WriteString("\n🗒 <b>Personal tasks</b>\n")
	open := 0
	for _, t := range personal {
		if t.Status == model.TaskStatusDone {
			continue
		}
		open++
		line := "• " + escape(t.Text)
		if t.IsPriority {
			line = "❗ " + escape(t.Text)
		}
		if t.DueDateISO != "" {
			line += " · " + t.DueDateISO
		}
		b.WriteString(fmt.Sprintf("%s <code>%s</code>\n", line, escape(t.ID)))
	}
	if open == 0 {
		b.WriteString("— all done\n")
	}
	return strings.TrimSpace(b.String())
}

func renderProgress(st planner.State) string {
	completed := st.CompletionState.CompletedTaskIDs
	var b strings.Builder
	overall := stats.CalculateOverallProgress(st.Courses, completed)
	b.WriteString(fmt.Sprintf("📈 <b>Progress</b> %d/%d (%d%%)\n", overall.Completed, overall.Total, overall.Percentage))
	if len(st.Courses) == 0 {
		b.WriteString("— no courses yet")
		return b.String()
	}
	for _, c := range st.Courses {
		p := stats.CalculateCourseProgress(c, completed)
		b.WriteString(fmt.Sprintf("%s %s %d/%d\n", progressBar(p.Percentage), escape(c.Title), p.Completed, p.Total))
	}
	return strings.TrimSpace(b.String())
}

func renderExams(exams []stats.UpcomingExam) string {
	var b strings.Builder
	b.WriteString("🎓 <b>Upcoming exams</b>\n")
	if len(exams) == 0 {
		b.WriteString("— none scheduled")
		return b.String()
	}
	for _, e := range exams {
		b.WriteString(fmt.Sprintf("📝 %s <i>(%s)</i> · %s · %d days\n",
			escape(e.Exam.Title), escape(e.CourseTitle), examDay(e.Exam), e.DaysLeft))
	}
	return strings.TrimSpace(b.String())
}

func examDay(e model.Exam) string {
	if len(e.ExamDateISO) > len(model.DateLayout) {
		return e.ExamDateISO[:len(model.DateLayout)]
	}
	return e.ExamDateISO
}

// progressBar renders a percentage as ten cells.
func progressBar(pct int) string {
	filled := pct / 10
	if filled > 10 {
		filled = 10
	}
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 10-filled)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.Join(strings.Fields(title), " ")
	if utf8.RuneCountInString(clean) <= maxLen {
		return clean
	}
	runes := []rune(clean)
	return string(runes[:maxLen-1]) + "…"
}
