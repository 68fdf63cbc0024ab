package bot

import (
	"sync"

	"study-planner/internal/notify"
)

// Sink forwards warnings and errors to the bot's chat while notifications
// are enabled. Stores are built before the bot, so the bot is attached
// later; until then Notify drops messages.
type Sink struct {
	mu  sync.RWMutex
	bot *Bot
}

func (s *Sink) Attach(b *Bot) {
	s.mu.Lock()
	s.bot = b
	s.mu.Unlock()
}

func (s *Sink) Notify(level notify.Level, message string) {
	s.mu.RLock()
	b := s.bot
	s.mu.RUnlock()
	if b == nil || level == notify.LevelSuccess || !b.notificationsEnabled() {
		return
	}
	chatID := b.ChatID()
	if chatID == 0 {
		return
	}
	icon := "⚠️"
	if level == notify.LevelError {
		icon = "❌"
	}
	if err := b.sendText(chatID, icon+" "+escape(message)); err != nil {
		b.log.Warnw("notification not delivered", "error", err)
	}
}
