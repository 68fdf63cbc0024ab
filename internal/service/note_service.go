package service

import (
	"context"
	"fmt"

	"study-planner/internal/logger"
	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/schema"
	"study-planner/internal/stats"
)

// NoteBlobStore holds lecture note payloads.
type NoteBlobStore interface {
	Put(ctx context.Context, note model.StoredNote) error
	Get(ctx context.Context, id string) (*model.StoredNote, error)
	Delete(ctx context.Context, id string) error
	DeleteByCourse(ctx context.Context, courseID string) (int64, error)
}

// NoteService manages lecture notes: payloads in the record store,
// metadata in planner state.
type NoteService struct {
	blobs   NoteBlobStore
	planner *planner.Store
	maxSize int64
	log     *logger.Logger
}

func NewNoteService(blobs NoteBlobStore, p *planner.Store, maxSize int64, log *logger.Logger) *NoteService {
	if maxSize <= 0 {
		maxSize = model.DefaultNoteMaxSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &NoteService{blobs: blobs, planner: p, maxSize: maxSize, log: log.WithComponent("notes")}
}

// Upload stores the payload and then its metadata. If the metadata cannot
// be added the payload is removed again.
func (s *NoteService) Upload(ctx context.Context, courseID, name, fileName, mimeType string, data []byte) (model.LectureNoteMeta, error) {
	if int64(len(data)) > s.maxSize {
		return model.LectureNoteMeta{}, fmt.Errorf("%w: %d bytes, limit %d", model.ErrNoteTooLarge, len(data), s.maxSize)
	}
	if _, ok := s.planner.State().Course(courseID); !ok {
		return model.LectureNoteMeta{}, model.NotFound("course", courseID)
	}
	title, err := schema.RequiredText("note name", name, model.MaxTitleLength)
	if err != nil {
		return model.LectureNoteMeta{}, err
	}
	cleanFile := schema.CleanText(fileName)
	if cleanFile == "" {
		cleanFile = title
	}

	meta := model.LectureNoteMeta{
		ID:            s.planner.NewID(),
		CourseID:      courseID,
		Name:          title,
		FileName:      cleanFile,
		UploadDateISO: stats.FormatDate(s.planner.Now()),
		FileSize:      int64(len(data)),
	}
	if err := s.blobs.Put(ctx, model.StoredNote{ID: meta.ID, CourseID: courseID, Data: data, MimeType: mimeType}); err != nil {
		return model.LectureNoteMeta{}, err
	}
	if err := s.planner.AddLectureNote(meta); err != nil {
		if derr := s.blobs.Delete(ctx, meta.ID); derr != nil {
			s.log.Warnw("orphaned note payload", "note_id", meta.ID, "error", derr)
		}
		return model.LectureNoteMeta{}, err
	}
	s.log.Infow("note uploaded", "note_id", meta.ID, "course_id", courseID, "size", meta.FileSize)
	return meta, nil
}

// Download returns the metadata and payload of a note.
func (s *NoteService) Download(ctx context.Context, id string) (model.LectureNoteMeta, *model.StoredNote, error) {
	meta, ok := s.meta(id)
	if !ok {
		return model.LectureNoteMeta{}, nil, model.NotFound("lecture note", id)
	}
	blob, err := s.blobs.Get(ctx, id)
	if err != nil {
		return meta, nil, err
	}
	return meta, blob, nil
}

// Delete removes the payload first, then the metadata.
func (s *NoteService) Delete(ctx context.Context, id string) error {
	if _, ok := s.meta(id); !ok {
		return model.NotFound("lecture note", id)
	}
	if err := s.blobs.Delete(ctx, id); err != nil {
		return err
	}
	return s.planner.DeleteLectureNote(id)
}

// DeleteCourse removes a course together with its note payloads. The
// course stays when its payloads cannot be deleted.
func (s *NoteService) DeleteCourse(ctx context.Context, courseID string) error {
	if _, ok := s.planner.State().Course(courseID); !ok {
		return model.NotFound("course", courseID)
	}
	n, err := s.blobs.DeleteByCourse(ctx, courseID)
	if err != nil {
		return err
	}
	s.log.Debugw("course notes deleted", "course_id", courseID, "count", n)
	return s.planner.DeleteCourse(courseID)
}

func (s *NoteService) meta(id string) (model.LectureNoteMeta, bool) {
	for _, n := range s.planner.State().LectureNotes {
		if n.ID == id {
			return n, true
		}
	}
	return model.LectureNoteMeta{}, false
}
