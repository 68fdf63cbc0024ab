package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"study-planner/internal/logger"
	"study-planner/internal/metrics"
	"study-planner/internal/model"
	"study-planner/internal/schema"
)

// Storage keys. The version suffix is bumped whenever the stored shape
// changes, so old data is re-defaulted instead of fed through validation.
const (
	KeyCourses         = "studyplanner.courses.v2"
	KeyCompletionState = "studyplanner.completion.v2"
	KeyUndoStack       = "studyplanner.undo.v1"
	KeyPersonalTasks   = "studyplanner.personal-tasks.v1"
	KeyHabits          = "studyplanner.habits.v1"
	KeySettings        = "studyplanner.settings.v1"
	KeyLectureNotes    = "studyplanner.lecture-notes.v1"
)

// AllKeys lists every key-value entry owned by the app.
var AllKeys = []string{
	KeyCourses,
	KeyCompletionState,
	KeyUndoStack,
	KeyPersonalTasks,
	KeyHabits,
	KeySettings,
	KeyLectureNotes,
}

// Storage reads and writes the top-level aggregates. Reads never fail:
// missing, unparsable or invalid data is replaced by a default and logged.
type Storage struct {
	kv  KVStore
	log *logger.Logger
}

func NewStorage(kv KVStore, log *logger.Logger) *Storage {
	if log == nil {
		log = logger.Nop()
	}
	return &Storage{kv: kv, log: log.WithComponent("storage")}
}

// KV exposes the underlying store.
func (s *Storage) KV() KVStore {
	return s.kv
}

func (s *Storage) GetCourses(ctx context.Context) []model.Course {
	return read(ctx, s, KeyCourses, schema.Courses, func() []model.Course { return []model.Course{} })
}

func (s *Storage) SaveCourses(ctx context.Context, courses []model.Course) error {
	return s.write(ctx, KeyCourses, courses)
}

func (s *Storage) GetCompletionState(ctx context.Context) model.CompletionState {
	return read(ctx, s, KeyCompletionState, schema.CompletionState, model.NewCompletionState)
}

func (s *Storage) SaveCompletionState(ctx context.Context, state model.CompletionState) error {
	return s.write(ctx, KeyCompletionState, state)
}

func (s *Storage) GetUndoStack(ctx context.Context) []model.UndoSnapshot {
	return read(ctx, s, KeyUndoStack, schema.UndoStack, func() []model.UndoSnapshot { return []model.UndoSnapshot{} })
}

func (s *Storage) SaveUndoStack(ctx context.Context, stack []model.UndoSnapshot) error {
	return s.write(ctx, KeyUndoStack, stack)
}

func (s *Storage) GetPersonalTasks(ctx context.Context) []model.Task {
	return read(ctx, s, KeyPersonalTasks, schema.Tasks, func() []model.Task { return []model.Task{} })
}

func (s *Storage) SavePersonalTasks(ctx context.Context, tasks []model.Task) error {
	return s.write(ctx, KeyPersonalTasks, tasks)
}

func (s *Storage) GetHabits(ctx context.Context) []model.Habit {
	return read(ctx, s, KeyHabits, schema.Habits, func() []model.Habit { return []model.Habit{} })
}

func (s *Storage) SaveHabits(ctx context.Context, habits []model.Habit) error {
	return s.write(ctx, KeyHabits, habits)
}

func (s *Storage) GetSettings(ctx context.Context) model.AppSettings {
	return read(ctx, s, KeySettings, schema.Settings, model.DefaultSettings)
}

func (s *Storage) SaveSettings(ctx context.Context, settings model.AppSettings) error {
	return s.write(ctx, KeySettings, settings)
}

func (s *Storage) GetLectureNotes(ctx context.Context) []model.LectureNoteMeta {
	return read(ctx, s, KeyLectureNotes, schema.LectureNotes, func() []model.LectureNoteMeta { return []model.LectureNoteMeta{} })
}

func (s *Storage) SaveLectureNotes(ctx context.Context, notes []model.LectureNoteMeta) error {
	return s.write(ctx, KeyLectureNotes, notes)
}

func read[T any](ctx context.Context, s *Storage, key string, decode func([]byte) (T, error), def func() T) T {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warnw("read failed, using default", "key", key, "error", err)
		metrics.KVFallbacks.WithLabelValues(key, "read").Inc()
		return def()
	}
	if !ok {
		return def()
	}
	value, err := decode([]byte(raw))
	if err != nil {
		s.log.Warnw("stored data invalid, using default", "key", key, "error", err)
		metrics.KVFallbacks.WithLabelValues(key, "invalid").Inc()
		return def()
	}
	return value
}

func (s *Storage) write(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		metrics.KVWrites.WithLabelValues(key, "error").Inc()
		return fmt.Errorf("encode %s: %w", key, err)
	}
	err = s.kv.Set(ctx, key, string(data))
	metrics.KVWrites.WithLabelValues(key, metrics.Result(err)).Inc()
	if err != nil {
		s.log.Errorw("write failed", "key", key, "error", err)
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
