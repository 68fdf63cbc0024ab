package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"study-planner/internal/logger"
)

// Job is a scheduled unit of work. Its error is logged, never retried.
type Job func(ctx context.Context) error

// SchedulerService wraps cron-based jobs. Jobs are named; scheduling a
// name again replaces the earlier entry.
type SchedulerService struct {
	cron *cron.Cron
	log  *logger.Logger

	mu    sync.Mutex
	named map[string]cron.EntryID
}

func NewSchedulerService(loc *time.Location, log *logger.Logger) *SchedulerService {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SchedulerService{
		cron:  cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		log:   log.WithComponent("scheduler"),
		named: make(map[string]cron.EntryID),
	}
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(name, timeStr string, job Job) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.add(name, spec, job)
}

// ScheduleInterval registers a periodic job every given duration.
func (s *SchedulerService) ScheduleInterval(name string, interval time.Duration, job Job) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.add(name, fmt.Sprintf("@every %ds", seconds), job)
}

func (s *SchedulerService) add(name, spec string, job Job) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	if old, ok := s.named[name]; ok {
		s.cron.Remove(old)
	}
	s.named[name] = id
	s.log.Debugw("job scheduled", "job", name, "spec", spec)
	return id, nil
}

// Remove unregisters the named job. It reports whether one existed.
func (s *SchedulerService) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.named[name]
	if !ok {
		return false
	}
	s.cron.Remove(id)
	delete(s.named, name)
	s.log.Debugw("job removed", "job", name)
	return true
}

func (s *SchedulerService) run(name string, job Job) {
	started := time.Now()
	if err := job(context.Background()); err != nil {
		s.log.Errorw("job failed", "job", name, "error", err)
		return
	}
	s.log.Debugw("job finished", "job", name, "took", time.Since(started))
}

// Entries returns the number of registered jobs.
func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
