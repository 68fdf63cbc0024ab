package habits

import (
	"fmt"
	"time"
	"unicode/utf8"

	"study-planner/internal/model"
	"study-planner/internal/schema"
)

// Reduce applies a to s. On error the returned state is s unchanged.
func Reduce(s State, a Action) (State, error) {
	next := s.Clone()
	var err error
	switch a := a.(type) {
	case AddHabit:
		err = next.addHabit(a)
	case UpdateHabit:
		err = next.updateHabit(a)
	case ArchiveHabit:
		err = next.setArchived(a.ID, true, a.Now)
	case UnarchiveHabit:
		err = next.setArchived(a.ID, false, a.Now)
	case RemoveHabit:
		err = next.removeHabit(a)
	case SetLog:
		err = next.setLog(a)
	case ReorderHabits:
		err = next.reorder(a)
	case ImportHabits:
		next.Habits = State{Habits: a.Habits}.Clone().Habits
		next.Logs = groupLogs(a.Logs)
	case LoadLogs:
		next.Logs = groupLogs(a.Logs)
	default:
		err = model.Invalid(fmt.Sprintf("unknown action %T", a))
	}
	if err != nil {
		return s, err
	}
	return next, nil
}

func (s *State) addHabit(a AddHabit) error {
	if len(s.Habits) >= model.MaxHabits {
		return &model.CapacityError{Entity: "habit", Limit: model.MaxHabits}
	}
	in := a.Input
	h := model.Habit{
		ID:        a.ID,
		Type:      in.Type,
		Target:    in.Target,
		Frequency: in.Frequency,
		SortMode:  model.SortManual,
		CreatedAt: a.Now,
		UpdatedAt: a.Now,
	}
	if h.Type == "" {
		h.Type = model.HabitTypeBoolean
	}
	var err error
	if h.Title, err = schema.RequiredText("habit title", in.Title, model.MaxTitleLength); err != nil {
		return err
	}
	if h.Description, err = schema.OptionalText("habit description", in.Description, model.MaxTextLength); err != nil {
		return err
	}
	if h.Unit, err = schema.OptionalText("habit unit", in.Unit, 50); err != nil {
		return err
	}
	if h.Emoji, err = emoji(in.Emoji); err != nil {
		return err
	}
	h.Color = in.Color
	if h.Color == "" {
		h.Color = model.PaletteColor(len(s.Habits))
	}
	order := len(s.Habits)
	h.ManualOrder = &order
	if err := checkHabit(h); err != nil {
		return err
	}
	s.Habits = append(s.Habits, h)
	return nil
}

func emoji(in string) (string, error) {
	if in == "" {
		return model.DefaultHabitEmoji, nil
	}
	if utf8.RuneCountInString(in) > model.MaxEmojiLength {
		return "", model.Invalid("emoji is too long")
	}
	return in, nil
}

func checkHabit(h model.Habit) error {
	if h.Target != nil && *h.Target <= 0 {
		return model.Invalid("target must be positive")
	}
	if err := schema.Validate(h); err != nil {
		return model.Invalid(err.Error())
	}
	return nil
}

func (s *State) updateHabit(a UpdateHabit) error {
	i := s.index(a.ID)
	if i < 0 {
		return model.NotFound("habit", a.ID)
	}
	h := cloneHabit(s.Habits[i])
	p := a.Patch
	var err error
	if p.Title != nil {
		if h.Title, err = schema.RequiredText("habit title", *p.Title, model.MaxTitleLength); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if h.Description, err = schema.OptionalText("habit description", *p.Description, model.MaxTextLength); err != nil {
			return err
		}
	}
	if p.Unit != nil {
		if h.Unit, err = schema.OptionalText("habit unit", *p.Unit, 50); err != nil {
			return err
		}
	}
	if p.Emoji != nil {
		if h.Emoji, err = emoji(*p.Emoji); err != nil {
			return err
		}
	}
	if p.Target != nil {
		v := *p.Target
		h.Target = &v
	}
	if p.Color != nil {
		h.Color = *p.Color
	}
	if p.Frequency != nil {
		h.Frequency = *p.Frequency
	}
	if p.SortMode != nil {
		h.SortMode = *p.SortMode
	}
	h.UpdatedAt = a.Now
	if err := checkHabit(h); err != nil {
		return err
	}
	s.Habits[i] = h
	return nil
}

func (s *State) setArchived(id string, archived bool, now time.Time) error {
	i := s.index(id)
	if i < 0 {
		return model.NotFound("habit", id)
	}
	s.Habits[i].IsArchived = archived
	s.Habits[i].UpdatedAt = now
	return nil
}

func (s *State) removeHabit(a RemoveHabit) error {
	i := s.index(a.ID)
	if i < 0 {
		return model.NotFound("habit", a.ID)
	}
	s.Habits = append(s.Habits[:i], s.Habits[i+1:]...)
	delete(s.Logs, a.ID)
	return nil
}

func (s *State) setLog(a SetLog) error {
	if s.index(a.Log.HabitID) < 0 {
		return model.NotFound("habit", a.Log.HabitID)
	}
	s.Logs[a.Log.HabitID] = upsertLog(s.Logs[a.Log.HabitID], a.Log)
	return nil
}

// reorder takes the new order as given and rewrites manualOrder to match.
func (s *State) reorder(a ReorderHabits) error {
	if len(a.Habits) != len(s.Habits) {
		return model.Invalid("reorder must list every habit")
	}
	out := make([]model.Habit, 0, len(a.Habits))
	seen := make(map[string]bool, len(a.Habits))
	for i, h := range a.Habits {
		idx := s.index(h.ID)
		if idx < 0 || seen[h.ID] {
			return model.Invalid(fmt.Sprintf("reorder: unexpected habit %q", h.ID))
		}
		seen[h.ID] = true
		// The incoming list may be stale; keep current field values.
		cur := cloneHabit(s.Habits[idx])
		order := i
		cur.ManualOrder = &order
		cur.UpdatedAt = a.Now
		out = append(out, cur)
	}
	s.Habits = out
	return nil
}
