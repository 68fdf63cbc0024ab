package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"study-planner/internal/model"
	"study-planner/internal/notify"
	"study-planner/internal/platform"
	"study-planner/internal/repository"
	"study-planner/internal/stats"
)

type testEnv struct {
	kv      *repository.MemoryKV
	storage *repository.Storage
	sink    *notify.Recorder
	store   *Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	kv := repository.NewMemoryKV()
	env := &testEnv{kv: kv, storage: repository.NewStorage(kv, nil), sink: &notify.Recorder{}}
	env.store = env.open(t)
	return env
}

func (e *testEnv) open(t *testing.T) *Store {
	t.Helper()
	s := NewStore(context.Background(), Options{
		Storage:  e.storage,
		Sink:     e.sink,
		Clock:    platform.FixedClock(now),
		IDs:      &platform.SequenceGenerator{Prefix: "id"},
		Debounce: time.Hour,
	})
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestStoreCourseTaskScenario(t *testing.T) {
	env := newTestEnv(t)
	s := env.store

	courseID, err := s.AddCourse("Math101", "")
	if err != nil {
		t.Fatalf("add course: %v", err)
	}
	course, _ := s.State().Course(courseID)
	if len(course.Units) != 1 || course.Units[0].Title != "Bölüm 1" {
		t.Fatalf("units = %+v", course.Units)
	}
	unitID := course.Units[0].ID

	taskID, err := s.AddTask(courseID, unitID, model.TaskInput{Text: "Read ch.1", DueDateISO: stats.FormatDate(now)})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if err := s.ToggleTaskCompletion(taskID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	st := s.State()
	if !st.CompletionState.Contains(taskID) {
		t.Fatal("task not completed")
	}
	course, _ = st.Course(courseID)
	p := stats.CalculateCourseProgress(course, st.CompletionState.CompletedTaskIDs)
	if p != (stats.Progress{Total: 1, Completed: 1, Percentage: 100}) {
		t.Fatalf("progress = %+v", p)
	}

	if err := s.DeleteTask(courseID, unitID, taskID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.State().CompletionState.Contains(taskID) {
		t.Fatal("completion survived delete")
	}
}

func TestStoreCapacityNotifies(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < model.MaxCourses; i++ {
		if _, err := env.store.AddCourse("Course", ""); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	_, err := env.store.AddCourse("One more", "")
	if !errors.Is(err, model.ErrCapacity) {
		t.Fatalf("err = %v", err)
	}
	if got := len(env.store.State().Courses); got != model.MaxCourses {
		t.Fatalf("courses = %d", got)
	}
	if env.sink.Count(notify.LevelWarning) != 1 {
		t.Fatalf("warnings = %d", env.sink.Count(notify.LevelWarning))
	}
	if env.sink.Count(notify.LevelSuccess) != model.MaxCourses {
		t.Fatalf("successes = %d", env.sink.Count(notify.LevelSuccess))
	}
}

func TestStoreNotFoundIsError(t *testing.T) {
	env := newTestEnv(t)
	if err := env.store.ToggleTaskCompletion("missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if env.sink.Count(notify.LevelError) != 1 {
		t.Fatal("error notification missing")
	}
}

func TestStoreUndo(t *testing.T) {
	env := newTestEnv(t)
	if env.store.Undo() {
		t.Fatal("undo on empty stack reported work")
	}
	id, _ := env.store.AddPersonalTask(model.TaskInput{Text: "unused"})
	courseID, _ := env.store.AddCourse("Math", "")
	course, _ := env.store.State().Course(courseID)
	taskID, _ := env.store.AddTask(courseID, course.Units[0].ID, model.TaskInput{Text: "Read"})
	_ = env.store.ToggleTaskCompletion(taskID)

	if !env.store.Undo() {
		t.Fatal("undo reported nothing")
	}
	if env.store.State().CompletionState.Contains(taskID) {
		t.Fatal("undo did not restore completion")
	}
	if id == "" {
		t.Fatal("personal task id empty")
	}
}

func TestStorePersistsOnFlush(t *testing.T) {
	env := newTestEnv(t)
	courseID, _ := env.store.AddCourse("Math101", "MAT")
	course, _ := env.store.State().Course(courseID)
	taskID, _ := env.store.AddTask(courseID, course.Units[0].ID, model.TaskInput{Text: "Read ch.1"})
	_ = env.store.ToggleTaskCompletion(taskID)

	if len(env.kv.Keys()) != 0 {
		t.Fatalf("written before flush: %v", env.kv.Keys())
	}
	if err := env.store.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reloaded := env.open(t)
	st := reloaded.State()
	if len(st.Courses) != 1 || st.Courses[0].Title != "Math101" {
		t.Fatalf("courses = %+v", st.Courses)
	}
	if !st.CompletionState.Contains(taskID) {
		t.Fatal("completion not persisted")
	}
	if len(st.UndoStack) != 1 {
		t.Fatalf("undo stack = %d", len(st.UndoStack))
	}
}

func TestStoreWriteFailureKeepsState(t *testing.T) {
	env := newTestEnv(t)
	env.kv.FailWrites = true

	if _, err := env.store.AddCourse("Math", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := env.store.Flush(context.Background()); err == nil {
		t.Fatal("flush succeeded against failing storage")
	}
	if len(env.store.State().Courses) != 1 {
		t.Fatal("in-memory state lost")
	}

	env.kv.FailWrites = false
	if err := env.store.Flush(context.Background()); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
	if len(env.storage.GetCourses(context.Background())) != 1 {
		t.Fatal("retry did not persist")
	}
}

func TestStoreLectureNotes(t *testing.T) {
	env := newTestEnv(t)
	courseID, _ := env.store.AddCourse("Math", "")
	meta := model.LectureNoteMeta{ID: "n1", CourseID: courseID, Name: "Week 1", FileName: "w1.pdf", FileSize: 10}
	if err := env.store.AddLectureNote(meta); err != nil {
		t.Fatalf("add note: %v", err)
	}
	if err := env.store.AddLectureNote(model.LectureNoteMeta{ID: "n2", CourseID: "ghost", Name: "x", FileName: "x"}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("orphan note err = %v", err)
	}
	if got := env.store.State().NotesForCourse(courseID); len(got) != 1 {
		t.Fatalf("notes = %+v", got)
	}
	_ = env.store.DeleteCourse(courseID)
	if len(env.store.State().LectureNotes) != 0 {
		t.Fatal("note metadata survived course delete")
	}
}

func TestStoreCompletionChangesNotifySuccess(t *testing.T) {
	env := newTestEnv(t)
	courseID, _ := env.store.AddCourse("Math", "")
	course, _ := env.store.State().Course(courseID)
	unitID := course.Units[0].ID
	taskID, _ := env.store.AddTask(courseID, unitID, model.TaskInput{Text: "Read"})
	personalID, _ := env.store.AddPersonalTask(model.TaskInput{Text: "Laundry"})
	before := env.sink.Count(notify.LevelSuccess)

	if err := env.store.ToggleTaskCompletion(taskID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := env.store.UpdateTaskStatus(taskID, model.TaskStatusInProgress, courseID, unitID); err != nil {
		t.Fatalf("status: %v", err)
	}
	if err := env.store.TogglePersonalTask(personalID); err != nil {
		t.Fatalf("toggle personal: %v", err)
	}
	if got := env.sink.Count(notify.LevelSuccess) - before; got != 3 {
		t.Fatalf("success notifications = %d, want 3", got)
	}
}
