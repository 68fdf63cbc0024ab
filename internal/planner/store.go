package planner

import (
	"context"
	"errors"
	"sync"
	"time"

	"study-planner/internal/autosave"
	"study-planner/internal/logger"
	"study-planner/internal/model"
	"study-planner/internal/notify"
	"study-planner/internal/platform"
	"study-planner/internal/repository"
)

// Options configures a Store.
type Options struct {
	Storage  *repository.Storage
	Sink     notify.Sink
	Clock    platform.Clock
	IDs      platform.IDGenerator
	Debounce time.Duration
	Logger   *logger.Logger
}

// Store owns the planner state. Every successful dispatch schedules a
// debounced save of all persisted aggregates.
type Store struct {
	mu    sync.RWMutex
	state State

	storage *repository.Storage
	sink    notify.Sink
	clock   platform.Clock
	ids     platform.IDGenerator
	saver   *autosave.Writer
	log     *logger.Logger
}

// NewStore loads the persisted planner state and returns a ready store.
func NewStore(ctx context.Context, opts Options) *Store {
	s := newStore(opts)
	s.state = State{
		Courses:         opts.Storage.GetCourses(ctx),
		CompletionState: opts.Storage.GetCompletionState(ctx),
		UndoStack:       opts.Storage.GetUndoStack(ctx),
		PersonalTasks:   opts.Storage.GetPersonalTasks(ctx),
		LectureNotes:    opts.Storage.GetLectureNotes(ctx),
	}
	s.log.Infow("planner state loaded",
		"courses", len(s.state.Courses),
		"completed", len(s.state.CompletionState.CompletedTaskIDs),
		"personal_tasks", len(s.state.PersonalTasks),
	)
	return s
}

func newStore(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Sink == nil {
		opts.Sink = notify.NewLogSink(opts.Logger)
	}
	if opts.Clock == nil {
		opts.Clock = platform.SystemClock
	}
	if opts.IDs == nil {
		opts.IDs = platform.UUIDGenerator{}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	s := &Store{
		state:   NewState(),
		storage: opts.Storage,
		sink:    opts.Sink,
		clock:   opts.Clock,
		ids:     opts.IDs,
		log:     opts.Logger.WithComponent("planner"),
	}
	s.saver = autosave.New("planner", opts.Debounce, s.persist, opts.Logger)
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Dispatch reduces a into the state. Failures leave the state unchanged
// and are surfaced through the notification sink.
func (s *Store) Dispatch(a Action) error {
	return s.apply(a, "")
}

func (s *Store) apply(a Action, success string) error {
	s.mu.Lock()
	next, err := Reduce(s.state, a)
	if err == nil {
		s.state = next
	}
	s.mu.Unlock()

	if err != nil {
		s.report(err)
		return err
	}
	s.saver.Schedule()
	if success != "" {
		s.sink.Notify(notify.LevelSuccess, success)
	}
	return nil
}

func (s *Store) report(err error) {
	level := notify.LevelError
	if errors.Is(err, model.ErrCapacity) || errors.Is(err, model.ErrInvalidInput) {
		level = notify.LevelWarning
	}
	s.log.Debugw("action rejected", "error", err)
	s.sink.Notify(level, err.Error())
}

// persist writes all five planner aggregates.
func (s *Store) persist(ctx context.Context) error {
	st := s.State()
	return errors.Join(
		s.storage.SaveCourses(ctx, st.Courses),
		s.storage.SaveCompletionState(ctx, st.CompletionState),
		s.storage.SaveUndoStack(ctx, st.UndoStack),
		s.storage.SavePersonalTasks(ctx, st.PersonalTasks),
		s.storage.SaveLectureNotes(ctx, st.LectureNotes),
	)
}

// Flush writes pending changes now.
func (s *Store) Flush(ctx context.Context) error {
	return s.saver.Flush(ctx)
}

// Close flushes pending changes and stops autosaving.
func (s *Store) Close(ctx context.Context) error {
	return s.saver.Close(ctx)
}

func (s *Store) AddCourse(title, code string) (string, error) {
	id := s.ids.NewID()
	err := s.apply(AddCourse{ID: id, UnitID: s.ids.NewID(), Title: title, Code: code, Now: s.clock()}, "Course added")
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateCourse(courseID string, patch model.CoursePatch) error {
	return s.apply(UpdateCourse{CourseID: courseID, Patch: patch, Now: s.clock()}, "Course updated")
}

func (s *Store) DeleteCourse(courseID string) error {
	return s.apply(DeleteCourse{CourseID: courseID}, "Course deleted")
}

func (s *Store) AddUnit(courseID, title string) (string, error) {
	id := s.ids.NewID()
	if err := s.apply(AddUnit{CourseID: courseID, ID: id, Title: title, Now: s.clock()}, "Unit added"); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateUnit(courseID, unitID string, title *string, order *int) error {
	return s.apply(UpdateUnit{CourseID: courseID, UnitID: unitID, Title: title, Order: order, Now: s.clock()}, "Unit updated")
}

func (s *Store) DeleteUnit(courseID, unitID string) error {
	return s.apply(DeleteUnit{CourseID: courseID, UnitID: unitID, Now: s.clock()}, "Unit deleted")
}

func (s *Store) AddTask(courseID, unitID string, input model.TaskInput) (string, error) {
	id := s.ids.NewID()
	if err := s.apply(AddTask{CourseID: courseID, UnitID: unitID, ID: id, Input: input, Now: s.clock()}, "Task added"); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateTask(courseID, unitID, taskID string, patch model.TaskPatch) error {
	return s.apply(UpdateTask{CourseID: courseID, UnitID: unitID, TaskID: taskID, Patch: patch, Now: s.clock()}, "Task updated")
}

func (s *Store) DeleteTask(courseID, unitID, taskID string) error {
	return s.apply(DeleteTask{CourseID: courseID, UnitID: unitID, TaskID: taskID, Now: s.clock()}, "Task deleted")
}

func (s *Store) AddExam(courseID string, input model.ExamInput) (string, error) {
	id := s.ids.NewID()
	if err := s.apply(AddExam{CourseID: courseID, ID: id, Input: input, Now: s.clock()}, "Exam added"); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateExam(courseID, examID string, input model.ExamInput) error {
	return s.apply(UpdateExam{CourseID: courseID, ExamID: examID, Input: input, Now: s.clock()}, "Exam updated")
}

func (s *Store) DeleteExam(courseID, examID string) error {
	return s.apply(DeleteExam{CourseID: courseID, ExamID: examID, Now: s.clock()}, "Exam deleted")
}

// ToggleTaskCompletion flips a course task between done and todo.
func (s *Store) ToggleTaskCompletion(taskID string) error {
	return s.apply(ToggleTaskCompletion{TaskID: taskID, Now: s.clock()}, "Task completion updated")
}

func (s *Store) UpdateTaskStatus(taskID string, status model.TaskStatus, courseID, unitID string) error {
	return s.apply(UpdateTaskStatus{TaskID: taskID, Status: status, CourseID: courseID, UnitID: unitID, Now: s.clock()}, "Task status updated")
}

// Undo restores the previous completion state. It reports whether there
// was anything to undo.
func (s *Store) Undo() bool {
	s.mu.RLock()
	empty := len(s.state.UndoStack) == 0
	s.mu.RUnlock()
	if empty {
		return false
	}
	_ = s.apply(Undo{}, "Undone")
	return true
}

func (s *Store) AddPersonalTask(input model.TaskInput) (string, error) {
	id := s.ids.NewID()
	if err := s.apply(AddPersonalTask{ID: id, Input: input, Now: s.clock()}, "Task added"); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdatePersonalTask(taskID string, patch model.TaskPatch) error {
	return s.apply(UpdatePersonalTask{TaskID: taskID, Patch: patch, Now: s.clock()}, "Task updated")
}

func (s *Store) TogglePersonalTask(taskID string) error {
	return s.apply(TogglePersonalTask{TaskID: taskID, Now: s.clock()}, "Task status updated")
}

func (s *Store) DeletePersonalTask(taskID string) error {
	return s.apply(DeletePersonalTask{TaskID: taskID}, "Task deleted")
}

// AddLectureNote records metadata of an uploaded note.
func (s *Store) AddLectureNote(meta model.LectureNoteMeta) error {
	return s.apply(AddLectureNote{Meta: meta}, "Note uploaded")
}

func (s *Store) DeleteLectureNote(id string) error {
	return s.apply(DeleteLectureNote{ID: id}, "Note deleted")
}

// ImportData replaces courses, completion state and personal tasks.
func (s *Store) ImportData(courses []model.Course, completion model.CompletionState, personal []model.Task) error {
	return s.apply(ImportData{Courses: courses, CompletionState: completion, PersonalTasks: personal}, "Data imported")
}

// NewID exposes the store's id generator to collaborating services.
func (s *Store) NewID() string {
	return s.ids.NewID()
}

// Now exposes the store's clock.
func (s *Store) Now() time.Time {
	return s.clock()
}
