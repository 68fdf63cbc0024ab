package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"study-planner/internal/habits"
	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/platform"
	"study-planner/internal/repository"
	"study-planner/internal/settings"
)

var now = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

type memBlobs struct {
	mu         sync.Mutex
	notes      map[string]model.StoredNote
	failPut    bool
	failDelete bool
}

func newMemBlobs() *memBlobs { return &memBlobs{notes: map[string]model.StoredNote{}} }

func (m *memBlobs) Put(_ context.Context, n model.StoredNote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return errors.New("record store unavailable")
	}
	m.notes[n.ID] = n
	return nil
}

func (m *memBlobs) Get(_ context.Context, id string) (*model.StoredNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return nil, model.NotFound("note", id)
	}
	return &n, nil
}

func (m *memBlobs) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return errors.New("record store unavailable")
	}
	delete(m.notes, id)
	return nil
}

func (m *memBlobs) DeleteByCourse(_ context.Context, courseID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return 0, errors.New("record store unavailable")
	}
	var n int64
	for id, note := range m.notes {
		if note.CourseID == courseID {
			delete(m.notes, id)
			n++
		}
	}
	return n, nil
}

func (m *memBlobs) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notes)
}

type nopLogs struct{}

func (nopLogs) Put(context.Context, model.HabitLog) error { return nil }
func (nopLogs) ListAll(context.Context) ([]model.HabitLog, error) {
	return nil, nil
}
func (nopLogs) ListByDateRange(context.Context, string, string) ([]model.HabitLog, error) {
	return nil, nil
}
func (nopLogs) DeleteByHabit(context.Context, string) (int64, error) { return 0, nil }

func newPlanner(t *testing.T) *planner.Store {
	t.Helper()
	p := planner.NewStore(context.Background(), planner.Options{
		Storage:  repository.NewStorage(repository.NewMemoryKV(), nil),
		Clock:    platform.FixedClock(now),
		IDs:      &platform.SequenceGenerator{Prefix: "p"},
		Debounce: time.Hour,
	})
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestNoteUploadDownloadDelete(t *testing.T) {
	ctx := context.Background()
	p := newPlanner(t)
	blobs := newMemBlobs()
	svc := NewNoteService(blobs, p, 16, nil)
	courseID, _ := p.AddCourse("Math", "")

	meta, err := svc.Upload(ctx, courseID, "Week 1", "w1.pdf", "application/pdf", []byte("slides"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if meta.FileSize != 6 || meta.UploadDateISO != "2024-06-10" {
		t.Fatalf("meta = %+v", meta)
	}

	got, blob, err := svc.Download(ctx, meta.ID)
	if err != nil || string(blob.Data) != "slides" || got.Name != "Week 1" {
		t.Fatalf("download = %+v %+v %v", got, blob, err)
	}

	if err := svc.Delete(ctx, meta.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if blobs.len() != 0 || len(p.State().LectureNotes) != 0 {
		t.Fatal("note not fully deleted")
	}
}

func TestNoteUploadLimits(t *testing.T) {
	ctx := context.Background()
	p := newPlanner(t)
	blobs := newMemBlobs()
	svc := NewNoteService(blobs, p, 4, nil)
	courseID, _ := p.AddCourse("Math", "")

	if _, err := svc.Upload(ctx, courseID, "Big", "big.pdf", "", []byte("12345")); !errors.Is(err, model.ErrNoteTooLarge) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.Upload(ctx, "ghost", "x", "x", "", []byte("1")); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("ghost err = %v", err)
	}
	blobs.failPut = true
	if _, err := svc.Upload(ctx, courseID, "x", "x", "", []byte("1")); err == nil {
		t.Fatal("expected write error")
	}
	if len(p.State().LectureNotes) != 0 || blobs.len() != 0 {
		t.Fatal("failed uploads left data behind")
	}
}

func TestDeleteCourseCascadesNotes(t *testing.T) {
	ctx := context.Background()
	p := newPlanner(t)
	blobs := newMemBlobs()
	svc := NewNoteService(blobs, p, 0, nil)
	keep, _ := p.AddCourse("Keep", "")
	drop, _ := p.AddCourse("Drop", "")
	_, _ = svc.Upload(ctx, keep, "a", "a.pdf", "", []byte("a"))
	_, _ = svc.Upload(ctx, drop, "b", "b.pdf", "", []byte("b"))

	blobs.failDelete = true
	if err := svc.DeleteCourse(ctx, drop); err == nil {
		t.Fatal("expected cascade error")
	}
	if _, ok := p.State().Course(drop); !ok {
		t.Fatal("course removed although payloads remain")
	}

	blobs.failDelete = false
	if err := svc.DeleteCourse(ctx, drop); err != nil {
		t.Fatalf("delete course: %v", err)
	}
	if blobs.len() != 1 || len(p.State().LectureNotes) != 1 {
		t.Fatalf("blobs = %d, meta = %d", blobs.len(), len(p.State().LectureNotes))
	}
}

func TestDailySummary(t *testing.T) {
	ctx := context.Background()
	storage := repository.NewStorage(repository.NewMemoryKV(), nil)
	p := newPlanner(t)
	h := habits.NewStore(ctx, habits.Options{Storage: storage, Logs: nopLogs{}, Clock: platform.FixedClock(now), Debounce: time.Hour})
	t.Cleanup(func() { _ = h.Close(ctx) })
	st := settings.NewService(ctx, storage, nil)

	courseID, _ := p.AddCourse("Math <101>", "")
	course, _ := p.State().Course(courseID)
	_, _ = p.AddTask(courseID, course.Units[0].ID, model.TaskInput{Text: "Homework", DueDateISO: "2024-06-09"})
	_, _ = p.AddExam(courseID, model.ExamInput{Title: "Midterm", ExamDateISO: "2024-06-11"})
	_, _ = p.AddExam(courseID, model.ExamInput{Title: "Final", ExamDateISO: "2024-08-01"})
	_, _ = h.AddHabit(model.HabitInput{Title: "Read", Frequency: model.WeeklyTarget(3)})

	out := NewReminderService(p, h, st, 7).DailySummary(now)
	for _, want := range []string{"Read", "Homework", "overdue", "Midterm", "tomorrow", "No backup"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Final") {
		t.Error("far exam listed")
	}

	_ = st.MarkBackup(ctx, now)
	if strings.Contains(NewReminderService(p, h, st, 7).DailySummary(now), "No backup") {
		t.Error("backup reminder after a fresh backup")
	}
}

func TestBuildDailySpec(t *testing.T) {
	cases := map[string]string{"08:30": "0 30 8 * * *", "0:00": "0 0 0 * * *"}
	for in, want := range cases {
		got, err := buildDailySpec(in)
		if err != nil || got != want {
			t.Fatalf("%s: got %q, %v", in, got, err)
		}
	}
	for _, bad := range []string{"24:00", "12", "ab:cd", "12:60"} {
		if _, err := buildDailySpec(bad); err == nil {
			t.Fatalf("%s accepted", bad)
		}
	}
}

func TestSchedulerRegistersJobs(t *testing.T) {
	s := NewSchedulerService(time.UTC, nil)
	if _, err := s.ScheduleInterval("flush", time.Minute, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("interval: %v", err)
	}
	if _, err := s.ScheduleDaily("summary", "07:00", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("daily: %v", err)
	}
	if _, err := s.ScheduleInterval("bad", 0, nil); err == nil {
		t.Fatal("zero interval accepted")
	}
	if s.Entries() != 2 {
		t.Fatalf("entries = %d", s.Entries())
	}
}

func TestSchedulerReplacesNamedJob(t *testing.T) {
	s := NewSchedulerService(time.UTC, nil)
	nop := func(context.Context) error { return nil }
	if _, err := s.ScheduleDaily("daily-reminder", "07:00", nop); err != nil {
		t.Fatalf("daily: %v", err)
	}
	if _, err := s.ScheduleDaily("daily-reminder", "08:30", nop); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if s.Entries() != 1 {
		t.Fatalf("entries = %d, want 1", s.Entries())
	}
	if _, err := s.ScheduleDaily("daily-reminder", "25:00", nop); err == nil {
		t.Fatal("invalid time accepted")
	}
	if s.Entries() != 1 {
		t.Fatal("invalid time dropped the existing job")
	}
	if !s.Remove("daily-reminder") || s.Remove("daily-reminder") {
		t.Fatal("remove did not report the job once")
	}
	if s.Entries() != 0 {
		t.Fatalf("entries = %d after remove", s.Entries())
	}
}
