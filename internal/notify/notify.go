// Package notify defines the toast sink through which non-fatal outcomes of
// user actions are surfaced.
package notify

import (
	"sync"

	"study-planner/internal/logger"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Sink receives user-facing notifications.
type Sink interface {
	Notify(level Level, message string)
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.WithComponent("notify")}
}

func (s *LogSink) Notify(level Level, message string) {
	switch level {
	case LevelError:
		s.log.Errorw(message, "level", level)
	case LevelWarning:
		s.log.Warnw(message, "level", level)
	default:
		s.log.Infow(message, "level", level)
	}
}

// Fanout delivers each notification to every sink.
type Fanout []Sink

func (f Fanout) Notify(level Level, message string) {
	for _, s := range f {
		if s != nil {
			s.Notify(level, message)
		}
	}
}

// Message is a recorded notification.
type Message struct {
	Level Level
	Text  string
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: message})
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Count returns how many notifications of the given level were recorded.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.Level == level {
			n++
		}
	}
	return n
}
