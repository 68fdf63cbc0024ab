package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"study-planner/internal/metrics"
	"study-planner/internal/model"
)

const collectionNotes = "lecture_notes"

// NoteRepository stores lecture note payloads keyed by note id.
type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Put(ctx context.Context, note model.StoredNote) error {
	rec := model.NoteBlobRecord{
		ID:       note.ID,
		CourseID: note.CourseID,
		Data:     note.Data,
		MimeType: note.MimeType,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
	metrics.RecordStoreOps.WithLabelValues(collectionNotes, "put", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("put note: %w", err)
	}
	return nil
}

// Get returns the payload of a note or model.ErrNotFound.
func (r *NoteRepository) Get(ctx context.Context, id string) (*model.StoredNote, error) {
	var rec model.NoteBlobRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	switch {
	case err == nil:
		return &model.StoredNote{ID: rec.ID, CourseID: rec.CourseID, Data: rec.Data, MimeType: rec.MimeType}, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, model.NotFound("note", id)
	default:
		return nil, fmt.Errorf("get note: %w", err)
	}
}

// ListIDsByCourse returns the ids of every payload stored for a course.
func (r *NoteRepository) ListIDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.NoteBlobRecord{}).
		Where("course_id = ?", courseID).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return ids, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.NoteBlobRecord{}).Error
	metrics.RecordStoreOps.WithLabelValues(collectionNotes, "delete", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// DeleteByCourse removes every payload of a course.
func (r *NoteRepository) DeleteByCourse(ctx context.Context, courseID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("course_id = ?", courseID).Delete(&model.NoteBlobRecord{})
	metrics.RecordStoreOps.WithLabelValues(collectionNotes, "delete_by_course", metrics.Result(res.Error)).Inc()
	if res.Error != nil {
		return 0, fmt.Errorf("delete course notes: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *NoteRepository) clear(tx *gorm.DB) error {
	if err := tx.Where("1 = 1").Delete(&model.NoteBlobRecord{}).Error; err != nil {
		return fmt.Errorf("clear notes: %w", err)
	}
	return nil
}
