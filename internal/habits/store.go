package habits

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"study-planner/internal/autosave"
	"study-planner/internal/logger"
	"study-planner/internal/model"
	"study-planner/internal/notify"
	"study-planner/internal/platform"
	"study-planner/internal/repository"
	"study-planner/internal/stats"
)

// LogRepository is the record store holding habit logs.
type LogRepository interface {
	Put(ctx context.Context, log model.HabitLog) error
	ListAll(ctx context.Context) ([]model.HabitLog, error)
	ListByDateRange(ctx context.Context, from, to string) ([]model.HabitLog, error)
	DeleteByHabit(ctx context.Context, habitID string) (int64, error)
}

type Options struct {
	Storage  *repository.Storage
	Logs     LogRepository
	Sink     notify.Sink
	Clock    platform.Clock
	IDs      platform.IDGenerator
	Debounce time.Duration
	Logger   *logger.Logger
}

// Store owns the habit state. Habit definitions are saved through the
// debounced writer; logs go straight to the record store.
type Store struct {
	mu    sync.RWMutex
	state State

	storage *repository.Storage
	logs    LogRepository
	sink    notify.Sink
	clock   platform.Clock
	ids     platform.IDGenerator
	saver   *autosave.Writer
	log     *logger.Logger
}

// NewStore loads the stored habit list. Logs are loaded separately with
// LoadLogs.
func NewStore(ctx context.Context, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Sink == nil {
		opts.Sink = notify.NewLogSink(opts.Logger)
	}
	if opts.Clock == nil {
		opts.Clock = platform.SystemClock
	}
	if opts.IDs == nil {
		opts.IDs = platform.UUIDGenerator{}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	s := &Store{
		state:   NewState(),
		storage: opts.Storage,
		logs:    opts.Logs,
		sink:    opts.Sink,
		clock:   opts.Clock,
		ids:     opts.IDs,
		log:     opts.Logger.WithComponent("habits"),
	}
	s.state.Habits = opts.Storage.GetHabits(ctx)
	s.saver = autosave.New("habits", opts.Debounce, s.persist, opts.Logger)
	return s
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Dispatch reduces a into the state and schedules a save.
func (s *Store) Dispatch(a Action) error {
	return s.apply(a, "")
}

func (s *Store) apply(a Action, success string) error {
	s.mu.Lock()
	next, err := Reduce(s.state, a)
	if err == nil {
		s.state = next
	}
	s.mu.Unlock()

	if err != nil {
		s.report(err)
		return err
	}
	s.saver.Schedule()
	if success != "" {
		s.sink.Notify(notify.LevelSuccess, success)
	}
	return nil
}

func (s *Store) report(err error) {
	level := notify.LevelError
	if errors.Is(err, model.ErrCapacity) || errors.Is(err, model.ErrInvalidInput) {
		level = notify.LevelWarning
	}
	s.sink.Notify(level, err.Error())
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.RLock()
	list := s.state.Clone().Habits
	s.mu.RUnlock()
	return s.storage.SaveHabits(ctx, list)
}

func (s *Store) Flush(ctx context.Context) error {
	return s.saver.Flush(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.saver.Close(ctx)
}

func (s *Store) AddHabit(input model.HabitInput) (string, error) {
	id := s.ids.NewID()
	if err := s.apply(AddHabit{ID: id, Input: input, Now: s.clock()}, "Habit added"); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateHabit(id string, patch model.HabitPatch) error {
	return s.apply(UpdateHabit{ID: id, Patch: patch, Now: s.clock()}, "Habit updated")
}

func (s *Store) ArchiveHabit(id string) error {
	return s.apply(ArchiveHabit{ID: id, Now: s.clock()}, "Habit archived")
}

func (s *Store) UnarchiveHabit(id string) error {
	return s.apply(UnarchiveHabit{ID: id, Now: s.clock()}, "Habit restored")
}

// DeleteHabit removes every stored log of the habit, then the habit. When
// the log delete fails the habit stays in place.
func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	if _, ok := s.State().Habit(id); !ok {
		err := model.NotFound("habit", id)
		s.report(err)
		return err
	}
	n, err := s.logs.DeleteByHabit(ctx, id)
	if err != nil {
		s.log.Errorw("cascade delete failed", "habit_id", id, "error", err)
		err = fmt.Errorf("delete habit %s: %w", id, err)
		s.report(err)
		return err
	}
	s.log.Debugw("habit logs deleted", "habit_id", id, "count", n)
	return s.apply(RemoveHabit{ID: id}, "Habit deleted")
}

// LogHabit records the habit's result for a day, replacing any earlier
// log of that day. The record store is written before memory.
func (s *Store) LogHabit(ctx context.Context, habitID, dateISO string, done *bool, value *float64) error {
	if _, ok := s.State().Habit(habitID); !ok {
		err := model.NotFound("habit", habitID)
		s.report(err)
		return err
	}
	if _, err := time.Parse(model.DateLayout, dateISO); err != nil {
		err = model.Invalid("log date must be YYYY-MM-DD")
		s.report(err)
		return err
	}
	entry := model.HabitLog{HabitID: habitID, DateISO: dateISO, Done: done, Value: value, Timestamp: s.clock()}
	if err := s.logs.Put(ctx, entry); err != nil {
		s.log.Errorw("log write failed", "habit_id", habitID, "date", dateISO, "error", err)
		s.report(err)
		return err
	}
	s.mu.Lock()
	next, err := Reduce(s.state, SetLog{Log: entry})
	if err == nil {
		s.state = next
	}
	s.mu.Unlock()
	if err != nil {
		s.report(err)
		return err
	}
	s.sink.Notify(notify.LevelSuccess, "Habit logged")
	return nil
}

// ReorderHabits stores habits in the given order for manual sorting.
func (s *Store) ReorderHabits(habits []model.Habit) error {
	return s.apply(ReorderHabits{Habits: habits, Now: s.clock()}, "Habits reordered")
}

// ImportHabits replaces the habit list and writes every given log to the
// record store. Stored logs of the replaced habits and of the incoming ids
// are deleted first; if that fails nothing is replaced. Log writes are
// independent: failures are counted and returned together, and the logs
// that did succeed stay written.
func (s *Store) ImportHabits(ctx context.Context, habits []model.Habit, logs []model.HabitLog) error {
	if err := s.clearLogs(ctx, replacedIDs(s.State().Habits, habits)); err != nil {
		s.report(err)
		return err
	}
	if err := s.apply(ImportHabits{Habits: habits, Logs: logs}, ""); err != nil {
		return err
	}
	var errs []error
	for _, l := range logs {
		if err := s.logs.Put(ctx, l); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		s.log.Warnw("habit log import incomplete", "failed", len(errs), "total", len(logs))
		err := fmt.Errorf("import habit logs: %d of %d failed: %w", len(errs), len(logs), errors.Join(errs...))
		s.report(err)
		return err
	}
	return nil
}

func replacedIDs(current, incoming []model.Habit) []string {
	seen := make(map[string]struct{}, len(current)+len(incoming))
	var ids []string
	for _, list := range [][]model.Habit{current, incoming} {
		for _, h := range list {
			if _, ok := seen[h.ID]; ok {
				continue
			}
			seen[h.ID] = struct{}{}
			ids = append(ids, h.ID)
		}
	}
	return ids
}

func (s *Store) clearLogs(ctx context.Context, ids []string) error {
	var errs []error
	for _, id := range ids {
		n, err := s.logs.DeleteByHabit(ctx, id)
		if err != nil {
			s.log.Errorw("log cleanup failed", "habit_id", id, "error", err)
			errs = append(errs, err)
			continue
		}
		s.log.Debugw("habit logs deleted", "habit_id", id, "count", n)
	}
	if len(errs) > 0 {
		return fmt.Errorf("clear habit logs: %w", errors.Join(errs...))
	}
	return nil
}

// LoadLogs fills the in-memory log map from the record store.
func (s *Store) LoadLogs(ctx context.Context) error {
	logs, err := s.logs.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load habit logs: %w", err)
	}
	s.mu.Lock()
	s.state.Logs = groupLogs(logs)
	s.mu.Unlock()
	s.log.Infow("habit logs loaded", "count", len(logs))
	return nil
}

// LogsInRange reads logs of every habit with from <= date <= to.
func (s *Store) LogsInRange(ctx context.Context, from, to string) ([]model.HabitLog, error) {
	return s.logs.ListByDateRange(ctx, from, to)
}

// HabitStats computes the derived values of one habit as of now.
func (s *Store) HabitStats(id string) (stats.HabitWithStats, bool) {
	st := s.State()
	h, ok := st.Habit(id)
	if !ok {
		return stats.HabitWithStats{}, false
	}
	return stats.GetHabitWithStats(h, st.LogsFor(id), s.clock()), true
}

// TodayHabits returns today's due habits with their stats.
func (s *Store) TodayHabits() []stats.HabitWithStats {
	st := s.State()
	now := s.clock()
	due := stats.GetTodayHabits(st.Habits, now)
	out := make([]stats.HabitWithStats, 0, len(due))
	for _, h := range due {
		out = append(out, stats.GetHabitWithStats(h, st.LogsFor(h.ID), now))
	}
	return out
}

// SortedHabits returns the active habits with stats in the given order.
func (s *Store) SortedHabits(mode model.SortMode) []stats.HabitWithStats {
	st := s.State()
	now := s.clock()
	active := st.Active()
	out := make([]stats.HabitWithStats, 0, len(active))
	for _, h := range active {
		out = append(out, stats.GetHabitWithStats(h, st.LogsFor(h.ID), now))
	}
	SortHabits(out, mode)
	return out
}

// SortHabits orders habits in place. Manual order falls back to creation
// time for habits that were never placed.
func SortHabits(list []stats.HabitWithStats, mode model.SortMode) {
	var less func(a, b stats.HabitWithStats) bool
	switch mode {
	case model.SortAlphabetical:
		less = func(a, b stats.HabitWithStats) bool {
			return strings.ToLower(a.Habit.Title) < strings.ToLower(b.Habit.Title)
		}
	case model.SortStreak:
		less = func(a, b stats.HabitWithStats) bool { return a.Streak.Current > b.Streak.Current }
	case model.SortCreated:
		less = func(a, b stats.HabitWithStats) bool { return a.Habit.CreatedAt.Before(b.Habit.CreatedAt) }
	default:
		less = func(a, b stats.HabitWithStats) bool {
			ao, bo := a.Habit.ManualOrder, b.Habit.ManualOrder
			switch {
			case ao != nil && bo != nil:
				return *ao < *bo
			case ao != nil:
				return true
			case bo != nil:
				return false
			}
			return a.Habit.CreatedAt.Before(b.Habit.CreatedAt)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })
}
