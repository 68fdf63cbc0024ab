// Package backup exports the planner, habits and settings into a single
// JSON document and restores them from one. Habit logs are not part of
// the document.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"study-planner/internal/habits"
	"study-planner/internal/logger"
	"study-planner/internal/metrics"
	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/platform"
	"study-planner/internal/schema"
	"study-planner/internal/settings"
)

// Version is written into every exported document.
const Version = "1.0"

// ErrInvalidDocument wraps every reason an import is rejected.
var ErrInvalidDocument = errors.New("invalid backup document")

// Document is the backup file layout.
type Document struct {
	Version          string                  `json:"version" validate:"required"`
	ExportedAt       time.Time               `json:"exportedAt"`
	Courses          []model.Course          `json:"courses" validate:"dive"`
	CompletionState  model.CompletionState   `json:"completionState"`
	PersonalTasks    []model.Task            `json:"personalTasks" validate:"dive"`
	Habits           []model.Habit           `json:"habits" validate:"dive"`
	Settings         model.AppSettings       `json:"settings"`
	LectureNotesMeta []model.LectureNoteMeta `json:"lectureNotesMeta,omitempty" validate:"omitempty,dive"`
}

type Service struct {
	planner  *planner.Store
	habits   *habits.Store
	settings *settings.Service
	clock    platform.Clock
	log      *logger.Logger
}

func NewService(p *planner.Store, h *habits.Store, s *settings.Service, clock platform.Clock, log *logger.Logger) *Service {
	if clock == nil {
		clock = platform.SystemClock
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{planner: p, habits: h, settings: s, clock: clock, log: log.WithComponent("backup")}
}

// Snapshot assembles a document from the current in-memory state.
func (s *Service) Snapshot() Document {
	ps := s.planner.State()
	return Document{
		Version:          Version,
		ExportedAt:       s.clock().UTC(),
		Courses:          ps.Courses,
		CompletionState:  ps.CompletionState,
		PersonalTasks:    ps.PersonalTasks,
		Habits:           s.habits.State().Habits,
		Settings:         s.settings.Get(),
		LectureNotesMeta: ps.LectureNotes,
	}
}

// Export writes the backup document to w and records the backup time.
func (s *Service) Export(ctx context.Context, w io.Writer) (err error) {
	defer func() { metrics.BackupOps.WithLabelValues("export", metrics.Result(err)).Inc() }()

	doc, err := s.encode(w)
	if err != nil {
		return err
	}
	return s.recordExport(ctx, doc)
}

// ExportFile writes the backup to path through a temporary file in the same
// directory. The backup time is recorded only after the file is synced,
// closed and renamed into place.
func (s *Service) ExportFile(ctx context.Context, path string) (err error) {
	defer func() { metrics.BackupOps.WithLabelValues("export", metrics.Result(err)).Inc() }()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	doc, err := s.encode(tmp)
	if err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync backup file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close backup file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move backup file: %w", err)
	}
	return s.recordExport(ctx, doc)
}

func (s *Service) encode(w io.Writer) (Document, error) {
	doc := s.Snapshot()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return Document{}, fmt.Errorf("write backup: %w", err)
	}
	return doc, nil
}

func (s *Service) recordExport(ctx context.Context, doc Document) error {
	if err := s.settings.MarkBackup(ctx, doc.ExportedAt); err != nil {
		return fmt.Errorf("record backup time: %w", err)
	}
	s.log.Infow("backup exported",
		"courses", len(doc.Courses),
		"habits", len(doc.Habits),
		"personal_tasks", len(doc.PersonalTasks),
	)
	return nil
}

// Parse reads and fully validates a backup document. Missing optional
// fields get their defaults.
func Parse(r io.Reader) (Document, error) {
	var raw struct {
		Document
		Settings json.RawMessage `json:"settings"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	doc := raw.Document
	doc.Settings = model.DefaultSettings()
	if len(raw.Settings) > 0 && string(raw.Settings) != "null" {
		st, err := schema.Settings(raw.Settings)
		if err != nil {
			return Document{}, fmt.Errorf("%w: settings: %v", ErrInvalidDocument, err)
		}
		doc.Settings = st
	}
	if doc.ExportedAt.IsZero() {
		return Document{}, fmt.Errorf("%w: exportedAt is missing", ErrInvalidDocument)
	}
	normalize(&doc)
	if err := schema.Validate(doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

func normalize(doc *Document) {
	if doc.Courses == nil {
		doc.Courses = []model.Course{}
	}
	for i := range doc.Courses {
		schema.NormalizeCourse(&doc.Courses[i])
	}
	if doc.PersonalTasks == nil {
		doc.PersonalTasks = []model.Task{}
	}
	for i := range doc.PersonalTasks {
		schema.NormalizeTask(&doc.PersonalTasks[i])
	}
	if doc.Habits == nil {
		doc.Habits = []model.Habit{}
	}
	for i := range doc.Habits {
		schema.NormalizeHabit(&doc.Habits[i])
	}
	schema.NormalizeCompletion(&doc.CompletionState)
}

// Import validates the document in r and only then replaces state, in
// three independent steps: planner data, habits, settings. A failure in a
// later step leaves the earlier ones applied.
func (s *Service) Import(ctx context.Context, r io.Reader) (err error) {
	defer func() { metrics.BackupOps.WithLabelValues("import", metrics.Result(err)).Inc() }()

	doc, err := Parse(r)
	if err != nil {
		s.log.Warnw("backup rejected", "error", err)
		return err
	}
	return s.Apply(ctx, doc)
}

// Apply replaces state with a parsed document. Note metadata in the
// document is not restored because payloads are not exported; local notes
// of courses that are gone after the import are dropped.
func (s *Service) Apply(ctx context.Context, doc Document) error {
	if err := s.planner.ImportData(doc.Courses, doc.CompletionState, doc.PersonalTasks); err != nil {
		return fmt.Errorf("import planner data: %w", err)
	}
	if err := s.habits.ImportHabits(ctx, doc.Habits, nil); err != nil {
		return fmt.Errorf("import habits: %w", err)
	}
	if _, err := s.settings.Update(ctx, model.PatchFrom(doc.Settings)); err != nil {
		return fmt.Errorf("import settings: %w", err)
	}
	s.log.Infow("backup imported",
		"version", doc.Version,
		"exported_at", doc.ExportedAt,
		"courses", len(doc.Courses),
		"habits", len(doc.Habits),
	)
	return nil
}
