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

const collectionHabitLogs = "habit_logs"

// HabitLogRepository stores one log per (habit, day).
type HabitLogRepository struct {
	db *gorm.DB
}

func NewHabitLogRepository(db *gorm.DB) *HabitLogRepository {
	return &HabitLogRepository{db: db}
}

// Put inserts the log or replaces the existing one for the same day.
func (r *HabitLogRepository) Put(ctx context.Context, log model.HabitLog) error {
	rec := toLogRecord(log)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
	metrics.RecordStoreOps.WithLabelValues(collectionHabitLogs, "put", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("put habit log: %w", err)
	}
	return nil
}

// Get returns the log of a habit on a day, or nil when there is none.
func (r *HabitLogRepository) Get(ctx context.Context, habitID, dateISO string) (*model.HabitLog, error) {
	var rec model.HabitLogRecord
	err := r.db.WithContext(ctx).Where("habit_id = ? AND date_iso = ?", habitID, dateISO).First(&rec).Error
	switch {
	case err == nil:
		log := fromLogRecord(rec)
		return &log, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("get habit log: %w", err)
	}
}

// ListByHabit returns every log of a habit ordered by date.
func (r *HabitLogRepository) ListByHabit(ctx context.Context, habitID string) ([]model.HabitLog, error) {
	var recs []model.HabitLogRecord
	if err := r.db.WithContext(ctx).Where("habit_id = ?", habitID).Order("date_iso ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	return fromLogRecords(recs), nil
}

// ListByDateRange returns logs of all habits with from <= date <= to.
func (r *HabitLogRepository) ListByDateRange(ctx context.Context, from, to string) ([]model.HabitLog, error) {
	var recs []model.HabitLogRecord
	if err := r.db.WithContext(ctx).Where("date_iso BETWEEN ? AND ?", from, to).
		Order("date_iso ASC, habit_id ASC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list habit logs by date: %w", err)
	}
	return fromLogRecords(recs), nil
}

// ListAll returns every stored log.
func (r *HabitLogRepository) ListAll(ctx context.Context) ([]model.HabitLog, error) {
	var recs []model.HabitLogRecord
	if err := r.db.WithContext(ctx).Order("habit_id ASC, date_iso ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	return fromLogRecords(recs), nil
}

// Delete removes the log of a habit on one day.
func (r *HabitLogRepository) Delete(ctx context.Context, habitID, dateISO string) error {
	err := r.db.WithContext(ctx).Where("habit_id = ? AND date_iso = ?", habitID, dateISO).
		Delete(&model.HabitLogRecord{}).Error
	metrics.RecordStoreOps.WithLabelValues(collectionHabitLogs, "delete", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("delete habit log: %w", err)
	}
	return nil
}

// DeleteByHabit removes every log of a habit in a single statement.
func (r *HabitLogRepository) DeleteByHabit(ctx context.Context, habitID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("habit_id = ?", habitID).Delete(&model.HabitLogRecord{})
	metrics.RecordStoreOps.WithLabelValues(collectionHabitLogs, "delete_by_habit", metrics.Result(res.Error)).Inc()
	if res.Error != nil {
		return 0, fmt.Errorf("delete habit logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *HabitLogRepository) clear(tx *gorm.DB) error {
	if err := tx.Where("1 = 1").Delete(&model.HabitLogRecord{}).Error; err != nil {
		return fmt.Errorf("clear habit logs: %w", err)
	}
	return nil
}

func toLogRecord(log model.HabitLog) model.HabitLogRecord {
	return model.HabitLogRecord{
		HabitID:   log.HabitID,
		DateISO:   log.DateISO,
		Done:      log.Done,
		Value:     log.Value,
		Timestamp: log.Timestamp,
	}
}

func fromLogRecord(rec model.HabitLogRecord) model.HabitLog {
	return model.HabitLog{
		HabitID:   rec.HabitID,
		DateISO:   rec.DateISO,
		Done:      rec.Done,
		Value:     rec.Value,
		Timestamp: rec.Timestamp,
	}
}

func fromLogRecords(recs []model.HabitLogRecord) []model.HabitLog {
	logs := make([]model.HabitLog, 0, len(recs))
	for _, rec := range recs {
		logs = append(logs, fromLogRecord(rec))
	}
	return logs
}
