package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ClearAllData erases every key-value entry and both record-store
// collections. With the SQLite key-value backend this is one transaction.
// With any other backend the record store is cleared in a transaction
// first and the key-value store afterwards, so a failure of the second
// step leaves stale aggregates behind.
func ClearAllData(ctx context.Context, db *gorm.DB, kv KVStore) error {
	logs := NewHabitLogRepository(db)
	notes := NewNoteRepository(db)
	sqliteKV, sqliteBacked := kv.(*SQLiteKV)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := logs.clear(tx); err != nil {
			return err
		}
		if err := notes.clear(tx); err != nil {
			return err
		}
		if sqliteBacked {
			return sqliteKV.clear(tx)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear record store: %w", err)
	}
	if sqliteBacked {
		return nil
	}
	if err := kv.Clear(ctx); err != nil {
		return fmt.Errorf("clear key-value store: %w", err)
	}
	return nil
}
