package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"study-planner/internal/model"
)

type conversationFlow int

const (
	flowCourse conversationFlow = iota + 1
	flowTask
	flowHabit
	flowExam
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageCourseTitle
	stageCourseCode
	stagePickCourse
	stagePickUnit
	stageTaskText
	stageTaskDue
	stageHabitTitle
	stageHabitFrequency
	stageHabitEmoji
	stageExamTitle
	stageExamDate
)

const (
	btnSkip         = "⏭️ Skip"
	btnConfirm      = "✅ Confirm"
	btnCancel       = "↩️ Keep it"
	btnCancelDialog = "⏪ Cancel input"
)

type conversationState struct {
	flow     conversationFlow
	stage    conversationStage
	courseID string
	unitID   string
	title    string
	task     model.TaskInput
	habit    model.HabitInput
	exam     model.ExamInput
}

type deleteKind string

const (
	deleteCourse deleteKind = "course"
	deleteHabit  deleteKind = "habit"
	deleteTask   deleteKind = "task"
)

type confirmationRequest struct {
	kind  deleteKind
	id    string
	label string
}

var errBadFrequency = errors.New("unknown frequency")

func (b *Bot) startConversation(chatID, userID int64, flow conversationFlow) error {
	b.clearConfirmation(userID)
	switch flow {
	case flowCourse:
		b.setConversation(userID, &conversationState{flow: flow, stage: stageCourseTitle})
		return b.sendWithReplyMarkup(chatID, "📚 New course.\n<b>Step 1:</b> what is it called?", cancelKeyboard())
	case flowHabit:
		b.setConversation(userID, &conversationState{flow: flow, stage: stageHabitTitle})
		return b.sendWithReplyMarkup(chatID, "🌱 New habit.\n<b>Step 1:</b> what do you want to keep doing?", cancelKeyboard())
	default:
		courses := b.planner.State().Courses
		if len(courses) == 0 {
			return b.sendText(chatID, "There are no courses yet. Start with /newcourse.")
		}
		b.setConversation(userID, &conversationState{flow: flow, stage: stagePickCourse})
		prompt := "📋 New task.\n<b>Step 1:</b> which course?"
		if flow == flowExam {
			prompt = "📝 New exam.\n<b>Step 1:</b> which course?"
		}
		return b.sendWithReplyMarkup(chatID, prompt, courseKeyboard(courses))
	}
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	userID, chatID := msg.From.ID, msg.Chat.ID
	state := b.getConversation(userID)
	if state == nil {
		return nil
	}
	text := strings.TrimSpace(msg.Text)

	switch state.stage {
	case stageCourseTitle:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "The course needs a name.", cancelKeyboard())
		}
		state.title = text
		state.stage = stageCourseCode
		return b.sendWithReplyMarkup(chatID, "🔤 Short course code, like <code>MAT101</code> (or Skip).", skipKeyboard())
	case stageCourseCode:
		code := ""
		if !isSkipInput(text) {
			code = text
		}
		id, err := b.planner.AddCourse(state.title, code)
		b.clearConversation(userID)
		if err == nil {
			b.log.Infow("course created", "course_id", id)
		}
		return b.replyResult(chatID, err, fmt.Sprintf("✅ Course <b>%s</b> saved. Add tasks with /newtask.", escape(state.title)))

	case stagePickCourse:
		courses := b.planner.State().Courses
		course, ok := matchCourse(courses, text)
		if !ok {
			return b.sendWithReplyMarkup(chatID, "Pick a course from the keyboard.", courseKeyboard(courses))
		}
		state.courseID = course.ID
		if state.flow == flowExam {
			state.stage = stageExamTitle
			return b.sendWithReplyMarkup(chatID, "<b>Step 2:</b> what is the exam called?", cancelKeyboard())
		}
		state.stage = stagePickUnit
		return b.sendWithReplyMarkup(chatID, "<b>Step 2:</b> which unit? Send a new name to create one.", unitKeyboard(course.Units))
	case stagePickUnit:
		course, ok := b.planner.State().Course(state.courseID)
		if !ok {
			b.clearConversation(userID)
			return b.sendText(chatID, "That course is gone. Start again with /newtask.")
		}
		if unit, found := matchUnit(course.Units, text); found {
			state.unitID = unit.ID
		} else {
			if text == "" {
				return b.sendWithReplyMarkup(chatID, "Pick a unit or send a name for a new one.", unitKeyboard(course.Units))
			}
			unitID, err := b.planner.AddUnit(state.courseID, text)
			if err != nil {
				b.clearConversation(userID)
				return b.replyResult(chatID, err, "")
			}
			state.unitID = unitID
		}
		state.stage = stageTaskText
		return b.sendWithReplyMarkup(chatID, "<b>Step 3:</b> what is the task?", cancelKeyboard())
	case stageTaskText:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "The task needs a text.", cancelKeyboard())
		}
		state.task.Text = text
		state.stage = stageTaskDue
		return b.sendWithReplyMarkup(chatID, "⏰ Due date as <code>2024-06-30</code> (or Skip).", skipKeyboard())
	case stageTaskDue:
		if !isSkipInput(text) {
			if _, err := time.Parse(model.DateLayout, text); err != nil {
				return b.sendWithReplyMarkup(chatID, "I cannot read that date. Use <code>2024-06-30</code> or Skip.", skipKeyboard())
			}
			state.task.DueDateISO = text
		}
		id, err := b.planner.AddTask(state.courseID, state.unitID, state.task)
		b.clearConversation(userID)
		return b.replyResult(chatID, err, fmt.Sprintf("✅ Task saved as <code>%s</code>.", escape(id)))

	case stageHabitTitle:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "The habit needs a name.", cancelKeyboard())
		}
		state.habit.Title = text
		state.stage = stageHabitFrequency
		return b.sendWithReplyMarkup(chatID, frequencyPrompt, cancelKeyboard())
	case stageHabitFrequency:
		rule, err := parseFrequency(text)
		if err != nil {
			return b.sendWithReplyMarkup(chatID, frequencyPrompt, cancelKeyboard())
		}
		state.habit.Frequency = rule
		state.stage = stageHabitEmoji
		return b.sendWithReplyMarkup(chatID, "🎨 Pick an emoji for it (or Skip).", skipKeyboard())
	case stageHabitEmoji:
		if !isSkipInput(text) {
			state.habit.Emoji = text
		}
		state.habit.Type = model.HabitTypeBoolean
		_, err := b.habits.AddHabit(state.habit)
		b.clearConversation(userID)
		return b.replyResult(chatID, err, fmt.Sprintf("✅ Habit <b>%s</b> saved. It shows up in /today when due.", escape(state.habit.Title)))

	case stageExamTitle:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "The exam needs a name.", cancelKeyboard())
		}
		state.exam.Title = text
		state.stage = stageExamDate
		return b.sendWithReplyMarkup(chatID, "📅 Exam date as <code>2024-06-30</code>.", cancelKeyboard())
	case stageExamDate:
		if _, err := time.Parse(model.DateLayout, text); err != nil {
			return b.sendWithReplyMarkup(chatID, "I cannot read that date. Use <code>2024-06-30</code>.", cancelKeyboard())
		}
		state.exam.ExamDateISO = text
		_, err := b.planner.AddExam(state.courseID, state.exam)
		b.clearConversation(userID)
		return b.replyResult(chatID, err, fmt.Sprintf("✅ Exam <b>%s</b> on %s saved.", escape(state.exam.Title), text))

	default:
		b.clearConversation(userID)
		return b.sendText(chatID, "Input reset. Try again from /help.")
	}
}

const frequencyPrompt = "🔁 How often? Send <code>daily</code>, <code>3/week</code>, " +
	"<code>every 2</code> for every second day, or weekdays like <code>mon wed fri</code>."

var weekdayNames = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

// parseFrequency reads the frequency answer of the habit dialog.
func parseFrequency(text string) (model.FrequencyRule, error) {
	fields := strings.Fields(strings.ToLower(strings.ReplaceAll(text, ",", " ")))
	switch {
	case len(fields) == 0:
		return model.FrequencyRule{}, errBadFrequency
	case len(fields) == 1 && fields[0] == "daily":
		return model.SpecificDays(0, 1, 2, 3, 4, 5, 6), nil
	case len(fields) == 1 && strings.HasSuffix(fields[0], "/week"):
		n, err := strconv.Atoi(strings.TrimSuffix(fields[0], "/week"))
		if err != nil || n < 1 || n > 7 {
			return model.FrequencyRule{}, errBadFrequency
		}
		return model.WeeklyTarget(n), nil
	case len(fields) == 2 && fields[0] == "every":
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return model.FrequencyRule{}, errBadFrequency
		}
		return model.EveryXDays(n), nil
	}

	seen := make(map[int]bool, len(fields))
	days := make([]int, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 {
			return model.FrequencyRule{}, errBadFrequency
		}
		day, ok := weekdayNames[f[:3]]
		if !ok {
			return model.FrequencyRule{}, errBadFrequency
		}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	sort.Ints(days)
	return model.SpecificDays(days...), nil
}

func matchCourse(courses []model.Course, text string) (model.Course, bool) {
	for _, c := range courses {
		if strings.EqualFold(text, courseLabel(c)) || strings.EqualFold(text, c.Title) ||
			(c.Code != "" && strings.EqualFold(text, c.Code)) {
			return c, true
		}
	}
	return model.Course{}, false
}

func matchUnit(units []model.Unit, text string) (model.Unit, bool) {
	for _, u := range units {
		if strings.EqualFold(text, u.Title) {
			return u, true
		}
	}
	return model.Unit{}, false
}

func courseLabel(c model.Course) string {
	if c.Code != "" {
		return c.Code + " · " + c.Title
	}
	return c.Title
}

// handleDelete lists deletable items of one kind as inline buttons.
func (b *Bot) handleDelete(chatID int64, args string) error {
	var rows [][]tgbotapi.InlineKeyboardButton
	add := func(kind deleteKind, id, label string) {
		if len(rows) >= maxButtons {
			return
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+shortTitle(label, buttonLength), cbDeletePrefix+string(kind)+":"+id),
		))
	}

	var title string
	switch strings.TrimSuffix(strings.ToLower(args), "s") {
	case string(deleteCourse):
		title = "Which course should go? Its units, tasks, exams and notes go with it."
		for _, c := range b.planner.State().Courses {
			add(deleteCourse, c.ID, courseLabel(c))
		}
	case string(deleteHabit):
		title = "Which habit should go? Its whole log history goes with it."
		for _, h := range b.habits.State().Habits {
			add(deleteHabit, h.ID, h.Emoji+" "+h.Title)
		}
	case string(deleteTask):
		title = "Which task should go?"
		st := b.planner.State()
		for _, c := range st.Courses {
			for _, u := range c.Units {
				for _, t := range u.Tasks {
					add(deleteTask, t.ID, t.Text)
				}
			}
		}
		for _, t := range st.PersonalTasks {
			add(deleteTask, t.ID, t.Text)
		}
	default:
		return b.sendText(chatID, "Usage: /delete course | habit | task")
	}
	if len(rows) == 0 {
		return b.sendText(chatID, "Nothing to delete.")
	}
	return b.sendInline(chatID, title, rows)
}

func (b *Bot) askDeleteConfirmation(chatID, userID int64, kind deleteKind, id string) error {
	label, ok := b.describe(kind, id)
	if !ok {
		return b.sendText(chatID, "It is already gone.")
	}
	b.clearConversation(userID)
	b.setConfirmation(userID, confirmationRequest{kind: kind, id: id, label: label})
	text := fmt.Sprintf("Delete %s «%s»?", kind, escape(label))
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) describe(kind deleteKind, id string) (string, bool) {
	switch kind {
	case deleteCourse:
		if c, ok := b.planner.State().Course(id); ok {
			return courseLabel(c), true
		}
	case deleteHabit:
		if h, ok := b.habits.State().Habit(id); ok {
			return h.Title, true
		}
	case deleteTask:
		st := b.planner.State()
		if ci, ui, ti, ok := st.FindTask(id); ok {
			return st.Courses[ci].Units[ui].Tasks[ti].Text, true
		}
		for _, t := range st.PersonalTasks {
			if t.ID == id {
				return t.Text, true
			}
		}
	}
	return "", false
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case text == btnConfirm || strings.EqualFold(text, "yes"):
		b.clearConfirmation(msg.From.ID)
		return b.deleteAndReport(ctx, msg.Chat.ID, req)
	case text == btnCancel || strings.EqualFold(text, "no"):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Nothing was deleted.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

func (b *Bot) deleteAndReport(ctx context.Context, chatID int64, req confirmationRequest) error {
	var err error
	switch req.kind {
	case deleteCourse:
		if b.notes != nil {
			err = b.notes.DeleteCourse(ctx, req.id)
		} else {
			err = b.planner.DeleteCourse(req.id)
		}
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			// Note payload failures do not pass through the planner store.
			b.log.Errorw("course delete failed", "course_id", req.id, "error", err)
			return b.sendText(chatID, "❌ Could not delete the course: "+escape(err.Error()))
		}
	case deleteHabit:
		err = b.habits.DeleteHabit(ctx, req.id)
	case deleteTask:
		st := b.planner.State()
		if ci, ui, _, ok := st.FindTask(req.id); ok {
			err = b.planner.DeleteTask(st.Courses[ci].ID, st.Courses[ci].Units[ui].ID, req.id)
		} else {
			err = b.planner.DeletePersonalTask(req.id)
		}
	}
	if err == nil {
		b.log.Infow("deleted", "kind", req.kind, "id", req.id)
	}
	return b.replyResult(chatID, err, fmt.Sprintf("🗑 Deleted %s «%s».", req.kind, escape(req.label)))
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func isSkipInput(text string) bool {
	return text == btnSkip || text == "-" || strings.EqualFold(text, "skip")
}

func isCancelDialogInput(text string) bool {
	return strings.TrimSpace(text) == btnCancelDialog
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func courseKeyboard(courses []model.Course) tgbotapi.ReplyKeyboardMarkup {
	labels := make([]string, 0, len(courses))
	for _, c := range courses {
		labels = append(labels, courseLabel(c))
	}
	return choiceKeyboard(labels)
}

func unitKeyboard(units []model.Unit) tgbotapi.ReplyKeyboardMarkup {
	labels := make([]string, 0, len(units))
	for _, u := range units {
		labels = append(labels, u.Title)
	}
	return choiceKeyboard(labels)
}

func choiceKeyboard(labels []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i, label := range labels {
		if i >= maxButtons {
			break
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(label)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
