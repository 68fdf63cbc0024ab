package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"study-planner/internal/habits"
	"study-planner/internal/logger"
	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/platform"
	"study-planner/internal/service"
	"study-planner/internal/settings"
	"study-planner/internal/stats"
)

const (
	cbHabitPrefix    = "habit:"
	cbTaskPrefix     = "task:"
	cbPersonalPrefix = "ptask:"
	cbDeletePrefix   = "del:"
)

const (
	menuLabelToday    = "🌱 Today"
	menuLabelTasks    = "📋 Tasks"
	menuLabelProgress = "📈 Progress"
	menuLabelHelp     = "ℹ️ Help"
	menuLabelNewTask  = "➕ New task"
	menuLabelNewHabit = "🌱 New habit"

	maxButtons   = 20
	examHorizon  = 30
	buttonLength = 24
)

// telegramAPI is the part of tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Deps are the services the bot drives. Notes, Settings and
// ReminderTimeChanged are optional.
type Deps struct {
	Planner   *planner.Store
	Habits    *habits.Store
	Reminders *service.ReminderService
	Notes     *service.NoteService
	Settings  *settings.Service
	Clock     platform.Clock

	// ReminderTimeChanged is called after /remind stored a new time; an
	// empty string turns the daily reminder off.
	ReminderTimeChanged func(timeStr string) error
}

// Bot is the Telegram front end of a single-user planner.
type Bot struct {
	api       telegramAPI
	planner   *planner.Store
	habits    *habits.Store
	reminders *service.ReminderService
	notes     *service.NoteService
	settings  *settings.Service
	clock     platform.Clock
	log       *logger.Logger

	reminderChanged func(timeStr string) error

	mu            sync.Mutex
	chatID        int64
	fixedChat     bool
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
}

// New connects to Telegram. With a non-zero chatID the bot only answers
// that chat; otherwise it serves the last private chat that wrote to it.
func New(token string, chatID int64, deps Deps, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newBot(api, chatID, deps, log)
	b.log.Infow("bot authorized", "account", api.Self.UserName)
	return b, nil
}

func newBot(api telegramAPI, chatID int64, deps Deps, log *logger.Logger) *Bot {
	if log == nil {
		log = logger.Nop()
	}
	if deps.Clock == nil {
		deps.Clock = platform.SystemClock
	}
	return &Bot{
		api:       api,
		planner:   deps.Planner,
		habits:    deps.Habits,
		reminders: deps.Reminders,
		notes:     deps.Notes,
		settings:  deps.Settings,
		clock:     deps.Clock,
		log:       log.WithComponent("bot"),

		reminderChanged: deps.ReminderTimeChanged,

		chatID:        chatID,
		fixedChat:     chatID != 0,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Errorw("handle callback", "error", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Errorw("handle message", "error", err)
			}
		}
	}
	return nil
}

// accept reports whether chatID may talk to the bot and remembers it when
// no chat is configured.
func (b *Bot) accept(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fixedChat {
		return chatID == b.chatID
	}
	b.chatID = chatID
	return true
}

// ChatID returns the chat reports and notifications go to, or 0.
func (b *Bot) ChatID() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chatID
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || !b.accept(msg.Chat.ID) {
		return nil
	}
	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}
	if msg.IsCommand() {
		b.log.Debugw("command", "command", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg.Chat.ID, msg.From.ID, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
	}
	if command, ok := menuCommands[strings.TrimSpace(msg.Text)]; ok {
		return b.handleCommand(ctx, msg.Chat.ID, msg.From.ID, command, "")
	}
	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}
	if b.getConversation(msg.From.ID) != nil {
		return b.handleConversation(ctx, msg)
	}
	return b.sendText(msg.Chat.ID, "I did not understand that. Try /newtask or /help.")
}

var menuCommands = map[string]string{
	menuLabelToday:    "today",
	menuLabelTasks:    "tasks",
	menuLabelProgress: "progress",
	menuLabelHelp:     "help",
	menuLabelNewTask:  "newtask",
	menuLabelNewHabit: "newhabit",
}

func (b *Bot) handleCommand(ctx context.Context, chatID, userID int64, command, args string) error {
	switch command {
	case "start", "help":
		return b.sendText(chatID, helpText)
	case "newcourse":
		return b.startConversation(chatID, userID, flowCourse)
	case "newtask":
		return b.startConversation(chatID, userID, flowTask)
	case "newhabit":
		return b.startConversation(chatID, userID, flowHabit)
	case "newexam":
		return b.startConversation(chatID, userID, flowExam)
	case "delete":
		return b.handleDelete(chatID, args)
	case "cancel":
		b.clearConversation(userID)
		b.clearConfirmation(userID)
		return b.sendText(chatID, "⏪ Input cancelled.")
	case "settings":
		return b.sendText(chatID, b.renderSettings())
	case "notify":
		return b.handleNotify(ctx, chatID, args)
	case "remind":
		return b.handleRemind(ctx, chatID, args)
	case "today":
		return b.sendToday(chatID)
	case "tasks":
		return b.sendTasks(chatID)
	case "done":
		return b.handleDone(chatID, args)
	case "add":
		return b.handleAdd(chatID, args)
	case "progress":
		return b.sendText(chatID, renderProgress(b.planner.State()))
	case "exams":
		st := b.planner.State()
		return b.sendText(chatID, renderExams(stats.GetUpcomingExams(st.Courses, b.clock(), examHorizon)))
	case "undo":
		if !b.planner.Undo() {
			return b.sendText(chatID, "Nothing to undo.")
		}
		return b.sendText(chatID, "↩️ Last completion change undone.")
	case "report":
		return b.sendText(chatID, b.reminders.DailySummary(b.clock()))
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

const helpText = "👋 <b>Study planner</b>\n" +
	"• /newcourse, /newtask, /newexam, /newhabit — add step by step\n" +
	"• /delete course|habit|task — delete with confirmation\n" +
	"• /today — habits due today\n" +
	"• /tasks — due and personal tasks\n" +
	"• /done &lt;id&gt; — toggle a task\n" +
	"• /add &lt;text&gt; — add a personal task\n" +
	"• /progress — course progress\n" +
	"• /exams — upcoming exams\n" +
	"• /undo — undo the last completion change\n" +
	"• /report — daily summary\n" +
	"• /settings, /notify on|off, /remind HH:MM|off — notifications\n" +
	"• /cancel — cancel the current input"

func (b *Bot) sendToday(chatID int64) error {
	today := b.habits.TodayHabits()
	text := renderToday(today)
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, h := range today {
		if h.CompletedToday || len(rows) >= maxButtons {
			continue
		}
		label := fmt.Sprintf("✅ %s %s", h.Habit.Emoji, shortTitle(h.Habit.Title, buttonLength))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbHabitPrefix+h.Habit.ID),
		))
	}
	return b.sendInline(chatID, text, rows)
}

func (b *Bot) sendTasks(chatID int64) error {
	st := b.planner.State()
	due := stats.GetDueTasks(st.Courses, nil, b.clock())
	text := renderTasks(due, st.PersonalTasks)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range due {
		if len(rows) >= maxButtons {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ "+shortTitle(t.Task.Text, buttonLength), cbTaskPrefix+t.Task.ID),
		))
	}
	for _, t := range st.PersonalTasks {
		if t.Status == model.TaskStatusDone || len(rows) >= maxButtons {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("☑️ "+shortTitle(t.Text, buttonLength), cbPersonalPrefix+t.ID),
		))
	}
	return b.sendInline(chatID, text, rows)
}

func (b *Bot) handleDone(chatID int64, taskID string) error {
	if taskID == "" {
		return b.sendText(chatID, "Usage: /done &lt;task id&gt;")
	}
	if _, _, _, ok := b.planner.State().FindTask(taskID); ok {
		return b.replyResult(chatID, b.planner.ToggleTaskCompletion(taskID), "Task toggled.")
	}
	return b.replyResult(chatID, b.planner.TogglePersonalTask(taskID), "Task toggled.")
}

func (b *Bot) handleAdd(chatID int64, text string) error {
	if text == "" {
		return b.sendText(chatID, "Usage: /add &lt;text&gt;")
	}
	id, err := b.planner.AddPersonalTask(model.TaskInput{Text: text})
	return b.replyResult(chatID, err, fmt.Sprintf("➕ Added <code>%s</code>.", escape(id)))
}

func (b *Bot) replyResult(chatID int64, err error, success string) error {
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return b.sendText(chatID, "Nothing found with that id.")
		}
		// With notifications on the store already reported it through the sink.
		if !b.notificationsEnabled() {
			return b.sendText(chatID, "❌ "+escape(err.Error()))
		}
		return nil
	}
	return b.sendText(chatID, success)
}

// notificationsEnabled reads the user's preference; without a settings
// service notifications are on.
func (b *Bot) notificationsEnabled() bool {
	if b.settings == nil {
		return true
	}
	return b.settings.Get().NotificationsEnabled
}

func (b *Bot) renderSettings() string {
	if b.settings == nil {
		return "Settings are not available."
	}
	st := b.settings.Get()
	notifications := "off"
	if st.NotificationsEnabled {
		notifications = "on"
	}
	reminder := "off"
	if st.DailyReminderTime != "" {
		reminder = st.DailyReminderTime
	}
	lastBackup := "never"
	if st.LastBackupAt != nil {
		lastBackup = st.LastBackupAt.Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("⚙️ <b>Settings</b>\n• Notifications: %s\n• Daily reminder: %s\n• Last backup: %s",
		notifications, reminder, lastBackup)
}

func (b *Bot) handleNotify(ctx context.Context, chatID int64, args string) error {
	if b.settings == nil {
		return b.sendText(chatID, "Settings are not available.")
	}
	var enabled bool
	switch strings.ToLower(args) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return b.sendText(chatID, "Usage: /notify on|off")
	}
	if _, err := b.settings.Update(ctx, model.SettingsPatch{NotificationsEnabled: &enabled}); err != nil {
		return b.sendText(chatID, "❌ "+escape(err.Error()))
	}
	if enabled {
		return b.sendText(chatID, "🔔 Notifications are on.")
	}
	return b.sendText(chatID, "🔕 Notifications are off. Reports and warnings stay quiet until /notify on.")
}

func (b *Bot) handleRemind(ctx context.Context, chatID int64, args string) error {
	if b.settings == nil {
		return b.sendText(chatID, "Settings are not available.")
	}
	if args == "" {
		return b.sendText(chatID, "Usage: /remind HH:MM or /remind off")
	}
	timeStr := args
	if strings.EqualFold(args, "off") {
		timeStr = ""
	}
	if _, err := b.settings.Update(ctx, model.SettingsPatch{DailyReminderTime: &timeStr}); err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			return b.sendText(chatID, "The time must look like <code>07:30</code>.")
		}
		return b.sendText(chatID, "❌ "+escape(err.Error()))
	}
	if b.reminderChanged != nil {
		if err := b.reminderChanged(timeStr); err != nil {
			b.log.Errorw("reschedule daily reminder", "time", timeStr, "error", err)
			return b.sendText(chatID, "❌ Saved, but the reminder could not be scheduled: "+escape(err.Error()))
		}
	}
	if timeStr == "" {
		return b.sendText(chatID, "⏰ Daily reminder turned off.")
	}
	return b.sendText(chatID, fmt.Sprintf("⏰ Daily summary every day at %s.", timeStr))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if !b.accept(cb.Message.Chat.ID) {
		return nil
	}

	answer := ""
	var err error
	switch data := cb.Data; {
	case strings.HasPrefix(data, cbHabitPrefix):
		done := true
		today := stats.FormatDate(b.clock())
		err = b.habits.LogHabit(ctx, strings.TrimPrefix(data, cbHabitPrefix), today, &done, nil)
		answer = "Habit logged"
	case strings.HasPrefix(data, cbTaskPrefix):
		err = b.planner.ToggleTaskCompletion(strings.TrimPrefix(data, cbTaskPrefix))
		answer = "Task toggled"
	case strings.HasPrefix(data, cbPersonalPrefix):
		err = b.planner.TogglePersonalTask(strings.TrimPrefix(data, cbPersonalPrefix))
		answer = "Task toggled"
	case strings.HasPrefix(data, cbDeletePrefix):
		if _, ackErr := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); ackErr != nil {
			b.log.Warnw("callback ack", "error", ackErr)
		}
		kind, id, ok := strings.Cut(strings.TrimPrefix(data, cbDeletePrefix), ":")
		if !ok {
			return nil
		}
		return b.askDeleteConfirmation(cb.Message.Chat.ID, cb.From.ID, deleteKind(kind), id)
	}
	if err != nil {
		answer = "Failed: " + err.Error()
	}
	if _, ackErr := b.api.Request(tgbotapi.NewCallback(cb.ID, answer)); ackErr != nil {
		b.log.Warnw("callback ack", "error", ackErr)
	}
	return err
}

// SendDailyReports sends the daily summary to the active chat unless
// notifications are turned off.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	chatID := b.ChatID()
	if chatID == 0 {
		b.log.Debug("no chat yet, report skipped")
		return nil
	}
	if !b.notificationsEnabled() {
		b.log.Debug("notifications off, report skipped")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.sendText(chatID, b.reminders.DailySummary(b.clock()))
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendInline(chatID int64, text string, rows [][]tgbotapi.InlineKeyboardButton) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelNewHabit),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelProgress),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func escape(s string) string {
	return html.EscapeString(s)
}
