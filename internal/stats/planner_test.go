package stats

import (
	"testing"

	"study-planner/internal/model"
)

func TestCalculateCourseProgress(t *testing.T) {
	course := model.Course{
		ID: "c",
		Units: []model.Unit{
			{ID: "u1", Tasks: []model.Task{{ID: "t1"}, {ID: "t2"}}},
			{ID: "u2", Tasks: []model.Task{{ID: "t3"}}},
		},
	}
	got := CalculateCourseProgress(course, []string{"t1", "t3", "other"})
	if got != (Progress{Total: 3, Completed: 2, Percentage: 67}) {
		t.Fatalf("progress = %+v", got)
	}

	empty := CalculateCourseProgress(model.Course{}, []string{"t1"})
	if empty != (Progress{}) {
		t.Fatalf("empty progress = %+v", empty)
	}

	overall := CalculateOverallProgress([]model.Course{course, {Units: []model.Unit{{Tasks: []model.Task{{ID: "t4"}}}}}}, []string{"t4"})
	if overall != (Progress{Total: 4, Completed: 1, Percentage: 25}) {
		t.Fatalf("overall = %+v", overall)
	}
}

func TestGetUpcomingExams(t *testing.T) {
	courses := []model.Course{
		{ID: "c1", Title: "Math", Exams: []model.Exam{
			{ID: "e1", Title: "Final", ExamDateISO: "2024-06-20"},
			{ID: "e2", Title: "Past", ExamDateISO: "2024-05-01"},
		}},
		{ID: "c2", Title: "Physics", Exams: []model.Exam{
			{ID: "e3", Title: "Midterm", ExamDateISO: "2024-06-12T09:00:00Z"},
			{ID: "e4", Title: "Broken", ExamDateISO: "soon"},
		}},
	}
	now := day("2024-06-10")

	got := GetUpcomingExams(courses, now, 0)
	if len(got) != 2 || got[0].Exam.ID != "e3" || got[1].Exam.ID != "e1" {
		t.Fatalf("upcoming = %+v", got)
	}
	if got[0].DaysLeft != 2 || got[0].CourseTitle != "Physics" {
		t.Fatalf("first = %+v", got[0])
	}

	soon := GetUpcomingExams(courses, now, 7)
	if len(soon) != 1 || soon[0].Exam.ID != "e3" {
		t.Fatalf("within 7 days = %+v", soon)
	}
}

func TestGetDueTasks(t *testing.T) {
	courses := []model.Course{{Title: "Math", Units: []model.Unit{{Tasks: []model.Task{
		{ID: "t1", DueDateISO: "2024-06-10", Status: model.TaskStatusTodo},
		{ID: "t2", DueDateISO: "2024-06-01", Status: model.TaskStatusDone},
		{ID: "t3", DueDateISO: "2024-06-11", Status: model.TaskStatusTodo},
	}}}}}
	personal := []model.Task{{ID: "p1", DueDateISO: "2024-06-05", Status: model.TaskStatusInProgress}, {ID: "p2"}}

	got := GetDueTasks(courses, personal, day("2024-06-10"))
	if len(got) != 2 || got[0].Task.ID != "p1" || !got[0].Overdue || got[1].Task.ID != "t1" || got[1].Overdue {
		t.Fatalf("due tasks = %+v", got)
	}
}
