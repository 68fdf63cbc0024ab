package stats

import (
	"math"
	"sort"
	"time"

	"study-planner/internal/model"
)

// Progress is a completed/total task count.
type Progress struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Percentage int `json:"percentage"`
}

func (p *Progress) finish() {
	if p.Total == 0 {
		p.Percentage = 0
		return
	}
	p.Percentage = int(math.Round(100 * float64(p.Completed) / float64(p.Total)))
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// CalculateCourseProgress counts tasks across all units of a course.
func CalculateCourseProgress(course model.Course, completedTaskIDs []string) Progress {
	done := idSet(completedTaskIDs)
	var p Progress
	for _, unit := range course.Units {
		for _, task := range unit.Tasks {
			p.Total++
			if _, ok := done[task.ID]; ok {
				p.Completed++
			}
		}
	}
	p.finish()
	return p
}

// CalculateUnitProgress counts tasks of a single unit.
func CalculateUnitProgress(unit model.Unit, completedTaskIDs []string) Progress {
	return CalculateCourseProgress(model.Course{Units: []model.Unit{unit}}, completedTaskIDs)
}

// CalculateOverallProgress aggregates every course.
func CalculateOverallProgress(courses []model.Course, completedTaskIDs []string) Progress {
	var total Progress
	for _, c := range courses {
		p := CalculateCourseProgress(c, completedTaskIDs)
		total.Total += p.Total
		total.Completed += p.Completed
	}
	total.finish()
	return total
}

// UpcomingExam is an exam with its course context.
type UpcomingExam struct {
	CourseID    string     `json:"courseId"`
	CourseTitle string     `json:"courseTitle"`
	CourseColor string     `json:"courseColor,omitempty"`
	Exam        model.Exam `json:"exam"`
	DaysLeft    int        `json:"daysLeft"`
}

// GetUpcomingExams lists exams dated today or later, soonest first. When
// withinDays is positive only exams at most that many days away are kept.
// Exams with unparsable dates are skipped.
func GetUpcomingExams(courses []model.Course, now time.Time, withinDays int) []UpcomingExam {
	today := DateOf(now)
	var out []UpcomingExam
	for _, c := range courses {
		for _, e := range c.Exams {
			day, err := ParseDate(e.ExamDateISO)
			if err != nil {
				continue
			}
			left := DaysBetween(today, day)
			if left < 0 || (withinDays > 0 && left > withinDays) {
				continue
			}
			out = append(out, UpcomingExam{
				CourseID:    c.ID,
				CourseTitle: c.Title,
				CourseColor: c.Color,
				Exam:        e,
				DaysLeft:    left,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysLeft < out[j].DaysLeft
	})
	return out
}

// DueTask is a task with a due date and where it lives.
type DueTask struct {
	Task        model.Task `json:"task"`
	CourseTitle string     `json:"courseTitle,omitempty"`
	Overdue     bool       `json:"overdue"`
}

// GetDueTasks returns unfinished course and personal tasks due on or
// before now's date, earliest first.
func GetDueTasks(courses []model.Course, personal []model.Task, now time.Time) []DueTask {
	today := FormatDate(now)
	var out []DueTask
	collect := func(task model.Task, courseTitle string) {
		if task.Status == model.TaskStatusDone || task.DueDateISO == "" || task.DueDateISO > today {
			return
		}
		out = append(out, DueTask{Task: task, CourseTitle: courseTitle, Overdue: task.DueDateISO < today})
	}
	for _, c := range courses {
		for _, u := range c.Units {
			for _, t := range u.Tasks {
				collect(t, c.Title)
			}
		}
	}
	for _, t := range personal {
		collect(t, "")
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Task.DueDateISO < out[j].Task.DueDateISO
	})
	return out
}
