// Package settings keeps the AppSettings singleton. Settings are read once
// and every change is written through immediately.
package settings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"study-planner/internal/logger"
	"study-planner/internal/model"
	"study-planner/internal/repository"
	"study-planner/internal/schema"
)

type Service struct {
	mu      sync.RWMutex
	current model.AppSettings
	storage *repository.Storage
	log     *logger.Logger
}

func NewService(ctx context.Context, storage *repository.Storage, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		current: storage.GetSettings(ctx),
		storage: storage,
		log:     log.WithComponent("settings"),
	}
}

// Get returns the current settings.
func (s *Service) Get() model.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update merges patch into the current settings and saves the result. An
// invalid result or a failed write leaves the settings unchanged.
func (s *Service) Update(ctx context.Context, patch model.SettingsPatch) (model.AppSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := patch.Apply(s.current)
	schema.NormalizeSettings(&next)
	if err := schema.Validate(next); err != nil {
		return s.current, model.Invalid(err.Error())
	}
	if err := s.storage.SaveSettings(ctx, next); err != nil {
		return s.current, fmt.Errorf("save settings: %w", err)
	}
	s.current = next
	return next, nil
}

// MarkBackup records t as the time of the last successful export.
func (s *Service) MarkBackup(ctx context.Context, t time.Time) error {
	t = t.UTC()
	if _, err := s.Update(ctx, model.SettingsPatch{LastBackupAt: &t}); err != nil {
		return err
	}
	s.log.Infow("backup recorded", "at", t)
	return nil
}

// BackupOverdue reports whether the last backup is older than days. A
// missing backup is always overdue.
func (s *Service) BackupOverdue(now time.Time, days int) bool {
	last := s.Get().LastBackupAt
	if last == nil {
		return true
	}
	return now.Sub(*last) > time.Duration(days)*24*time.Hour
}
