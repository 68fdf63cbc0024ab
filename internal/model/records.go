package model

import "time"

// KVEntry is a row of the key-value table backing small aggregates.
type KVEntry struct {
	Key       string `gorm:"column:entry_key;primaryKey"`
	Value     string
	UpdatedAt time.Time
}

// HabitLogRecord is the record-store row of a habit log, keyed by
// (habit_id, date_iso) with both columns indexed for scans.
type HabitLogRecord struct {
	HabitID   string `gorm:"primaryKey;index:idx_habit_logs_habit"`
	DateISO   string `gorm:"primaryKey;index:idx_habit_logs_date"`
	Done      *bool
	Value     *float64
	Timestamp time.Time
}

func (HabitLogRecord) TableName() string {
	return "habit_logs"
}

// NoteBlobRecord is the record-store row of a lecture note payload.
type NoteBlobRecord struct {
	ID       string `gorm:"primaryKey"`
	CourseID string `gorm:"index"`
	Data     []byte
	MimeType string
}

func (NoteBlobRecord) TableName() string {
	return "lecture_notes"
}
