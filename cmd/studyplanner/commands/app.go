package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"study-planner/internal/backup"
	"study-planner/internal/config"
	"study-planner/internal/habits"
	"study-planner/internal/logger"
	"study-planner/internal/notify"
	"study-planner/internal/planner"
	"study-planner/internal/repository"
	"study-planner/internal/service"
	"study-planner/internal/settings"
)

// app holds every long-lived component of one process.
type app struct {
	cfg *config.Config
	log *logger.Logger

	db    *gorm.DB
	redis *redis.Client
	kv    repository.KVStore

	planner   *planner.Store
	habits    *habits.Store
	settings  *settings.Service
	backup    *backup.Service
	notes     *service.NoteService
	reminders *service.ReminderService
}

// newApp loads configuration, opens storage and builds the stores. Extra
// sinks receive the stores' notifications next to the log.
func newApp(ctx context.Context, extra ...notify.Sink) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := repository.NewDB(cfg.Database.Path, log)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, db: db}

	switch cfg.KV.Backend {
	case "redis":
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.closeConnections()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.kv = repository.NewRedisKV(a.redis, cfg.Redis.Prefix)
	default:
		a.kv = repository.NewSQLiteKV(db)
	}

	sink := append(notify.Fanout{notify.NewLogSink(log)}, extra...)
	storage := repository.NewStorage(a.kv, log)

	a.planner = planner.NewStore(ctx, planner.Options{
		Storage:  storage,
		Sink:     sink,
		Debounce: cfg.Autosave.Debounce,
		Logger:   log,
	})
	a.habits = habits.NewStore(ctx, habits.Options{
		Storage:  storage,
		Logs:     repository.NewHabitLogRepository(db),
		Sink:     sink,
		Debounce: cfg.Autosave.Debounce,
		Logger:   log,
	})
	if err := a.habits.LoadLogs(ctx); err != nil {
		log.Warnw("habit logs unavailable", "error", err)
	}
	a.settings = settings.NewService(ctx, storage, log)
	a.backup = backup.NewService(a.planner, a.habits, a.settings, nil, log)
	a.notes = service.NewNoteService(repository.NewNoteRepository(db), a.planner, cfg.Notes.MaxSizeBytes, log)
	a.reminders = service.NewReminderService(a.planner, a.habits, a.settings, cfg.Backup.ReminderDays)
	return a, nil
}

// flush writes pending changes of both stores.
func (a *app) flush(ctx context.Context) error {
	return errors.Join(a.planner.Flush(ctx), a.habits.Flush(ctx))
}

// close flushes pending state and releases connections.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := errors.Join(a.planner.Close(ctx), a.habits.Close(ctx))
	if err != nil {
		a.log.Errorw("final save failed", "error", err)
	}
	a.closeConnections()
	_ = a.log.Close()
	return err
}

func (a *app) closeConnections() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
