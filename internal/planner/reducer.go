package planner

import (
	"fmt"
	"time"

	"study-planner/internal/model"
	"study-planner/internal/schema"
)

// Reduce applies a to s. On error the returned state is s unchanged; s
// itself is never modified.
func Reduce(s State, a Action) (State, error) {
	next := s.Clone()
	var err error
	switch a := a.(type) {
	case AddCourse:
		err = next.addCourse(a)
	case UpdateCourse:
		err = next.updateCourse(a)
	case DeleteCourse:
		err = next.deleteCourse(a)
	case AddUnit:
		err = next.addUnit(a)
	case UpdateUnit:
		err = next.updateUnit(a)
	case DeleteUnit:
		err = next.deleteUnit(a)
	case AddTask:
		err = next.addTask(a)
	case UpdateTask:
		err = next.updateTask(a)
	case DeleteTask:
		err = next.deleteTask(a)
	case AddExam:
		err = next.addExam(a)
	case UpdateExam:
		err = next.updateExam(a)
	case DeleteExam:
		err = next.deleteExam(a)
	case ToggleTaskCompletion:
		err = next.toggleTaskCompletion(a)
	case UpdateTaskStatus:
		err = next.updateTaskStatus(a)
	case Undo:
		next.undo()
	case AddPersonalTask:
		err = next.addPersonalTask(a)
	case UpdatePersonalTask:
		err = next.updatePersonalTask(a)
	case TogglePersonalTask:
		err = next.togglePersonalTask(a)
	case DeletePersonalTask:
		err = next.deletePersonalTask(a)
	case AddLectureNote:
		err = next.addLectureNote(a)
	case DeleteLectureNote:
		err = next.deleteLectureNote(a)
	case ImportData:
		next.importData(a)
	default:
		err = model.Invalid(fmt.Sprintf("unknown action %T", a))
	}
	if err != nil {
		return s, err
	}
	return next, nil
}

func (s *State) addCourse(a AddCourse) error {
	if len(s.Courses) >= model.MaxCourses {
		return &model.CapacityError{Entity: "course", Limit: model.MaxCourses}
	}
	title, err := schema.RequiredText("course title", a.Title, model.MaxTitleLength)
	if err != nil {
		return err
	}
	code, err := schema.OptionalText("course code", a.Code, 50)
	if err != nil {
		return err
	}
	s.Courses = append(s.Courses, model.Course{
		ID:    a.ID,
		Code:  code,
		Title: title,
		Color: model.PaletteColor(len(s.Courses)),
		Units: []model.Unit{{
			ID:    a.UnitID,
			Title: model.DefaultUnitTitle,
			Order: 0,
			Tasks: []model.Task{},
		}},
		Exams:     []model.Exam{},
		CreatedAt: a.Now,
		UpdatedAt: a.Now,
	})
	return nil
}

func (s *State) course(courseID string) (*model.Course, error) {
	i := s.courseIndex(courseID)
	if i < 0 {
		return nil, model.NotFound("course", courseID)
	}
	return &s.Courses[i], nil
}

func (s *State) unit(courseID, unitID string) (*model.Course, *model.Unit, error) {
	c, err := s.course(courseID)
	if err != nil {
		return nil, nil, err
	}
	for i := range c.Units {
		if c.Units[i].ID == unitID {
			return c, &c.Units[i], nil
		}
	}
	return nil, nil, model.NotFound("unit", unitID)
}

func (s *State) updateCourse(a UpdateCourse) error {
	c, err := s.course(a.CourseID)
	if err != nil {
		return err
	}
	if a.Patch.Title != nil {
		title, err := schema.RequiredText("course title", *a.Patch.Title, model.MaxTitleLength)
		if err != nil {
			return err
		}
		c.Title = title
	}
	if a.Patch.Code != nil {
		code, err := schema.OptionalText("course code", *a.Patch.Code, 50)
		if err != nil {
			return err
		}
		c.Code = code
	}
	if a.Patch.Color != nil {
		c.Color = *a.Patch.Color
	}
	c.UpdatedAt = a.Now
	return nil
}

func (s *State) deleteCourse(a DeleteCourse) error {
	i := s.courseIndex(a.CourseID)
	if i < 0 {
		return model.NotFound("course", a.CourseID)
	}
	for _, u := range s.Courses[i].Units {
		for _, t := range u.Tasks {
			s.purgeCompletion(t.ID)
		}
	}
	s.Courses = append(s.Courses[:i], s.Courses[i+1:]...)

	notes := s.LectureNotes[:0]
	for _, n := range s.LectureNotes {
		if n.CourseID != a.CourseID {
			notes = append(notes, n)
		}
	}
	s.LectureNotes = notes
	return nil
}

func (s *State) addUnit(a AddUnit) error {
	c, err := s.course(a.CourseID)
	if err != nil {
		return err
	}
	if len(c.Units) >= model.MaxUnitsPerCourse {
		return &model.CapacityError{Entity: "unit", Limit: model.MaxUnitsPerCourse}
	}
	title, err := schema.RequiredText("unit title", a.Title, model.MaxTitleLength)
	if err != nil {
		return err
	}
	order := 0
	for _, u := range c.Units {
		if u.Order >= order {
			order = u.Order + 1
		}
	}
	c.Units = append(c.Units, model.Unit{ID: a.ID, Title: title, Order: order, Tasks: []model.Task{}})
	c.UpdatedAt = a.Now
	return nil
}

func (s *State) updateUnit(a UpdateUnit) error {
	c, u, err := s.unit(a.CourseID, a.UnitID)
	if err != nil {
		return err
	}
	if a.Title != nil {
		title, err := schema.RequiredText("unit title", *a.Title, model.MaxTitleLength)
		if err != nil {
			return err
		}
		u.Title = title
	}
	if a.Order != nil {
		u.Order = *a.Order
	}
	c.UpdatedAt = a.Now
	return nil
}

func (s *State) deleteUnit(a DeleteUnit) error {
	c, err := s.course(a.CourseID)
	if err != nil {
		return err
	}
	for i := range c.Units {
		if c.Units[i].ID != a.UnitID {
			continue
		}
		for _, t := range c.Units[i].Tasks {
			s.purgeCompletion(t.ID)
		}
		c.Units = append(c.Units[:i], c.Units[i+1:]...)
		c.UpdatedAt = a.Now
		return nil
	}
	return model.NotFound("unit", a.UnitID)
}

func newTask(id string, in model.TaskInput, now time.Time) (model.Task, error) {
	text, err := schema.RequiredText("task text", in.Text, model.MaxTextLength)
	if err != nil {
		return model.Task{}, err
	}
	note, err := schema.OptionalText("task note", in.Note, model.MaxTextLength)
	if err != nil {
		return model.Task{}, err
	}
	if err := validDueDate(in.DueDateISO); err != nil {
		return model.Task{}, err
	}
	return model.Task{
		ID:         id,
		Text:       text,
		Status:     model.TaskStatusTodo,
		IsPriority: in.IsPriority,
		DueDateISO: in.DueDateISO,
		Tags:       cleanTags(in.Tags),
		Note:       note,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func validDueDate(dateISO string) error {
	if dateISO == "" {
		return nil
	}
	if _, err := time.Parse(model.DateLayout, dateISO); err != nil {
		return model.Invalid("due date must be YYYY-MM-DD")
	}
	return nil
}

func cleanTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = schema.CleanText(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func patchTask(t *model.Task, p model.TaskPatch, now time.Time) error {
	if p.Text != nil {
		text, err := schema.RequiredText("task text", *p.Text, model.MaxTextLength)
		if err != nil {
			return err
		}
		t.Text = text
	}
	if p.Note != nil {
		note, err := schema.OptionalText("task note", *p.Note, model.MaxTextLength)
		if err != nil {
			return err
		}
		t.Note = note
	}
	if p.DueDateISO != nil {
		if err := validDueDate(*p.DueDateISO); err != nil {
			return err
		}
		t.DueDateISO = *p.DueDateISO
	}
	if p.IsPriority != nil {
		t.IsPriority = *p.IsPriority
	}
	if p.Tags != nil {
		t.Tags = cleanTags(p.Tags)
	}
	t.UpdatedAt = now
	return nil
}

func (s *State) addTask(a AddTask) error {
	c, u, err := s.unit(a.CourseID, a.UnitID)
	if err != nil {
		return err
	}
	if len(u.Tasks) >= model.MaxTasksPerUnit {
		return &model.CapacityError{Entity: "task", Limit: model.MaxTasksPerUnit}
	}
	task, err := newTask(a.ID, a.Input, a.Now)
	if err != nil {
		return err
	}
	u.Tasks = append(u.Tasks, task)
	c.UpdatedAt = a.Now
	return nil
}

func (s *State) findUnitTask(courseID, unitID, taskID string) (*model.Course, *model.Unit, int, error) {
	c, u, err := s.unit(courseID, unitID)
	if err != nil {
		return nil, nil, -1, err
	}
	for i := range u.Tasks {
		if u.Tasks[i].ID == taskID {
			return c, u, i, nil
		}
	}
	return nil, nil, -1, model.NotFound("task", taskID)
}

func (s *State) updateTask(a UpdateTask) error {
	c, u, i, err := s.findUnitTask(a.CourseID, a.UnitID, a.TaskID)
	if err != nil {
		return err
	}
	if err := patchTask(&u.Tasks[i], a.Patch, a.Now); err != nil {
		return err
	}
	c.UpdatedAt = a.Now
	return nil
}

func (s *State) deleteTask(a DeleteTask) error {
	c, u, i, err := s.findUnitTask(a.CourseID, a.UnitID, a.TaskID)
	if err != nil {
		return err
	}
	u.Tasks = append(u.Tasks[:i], u.Tasks[i+1:]...)
	s.purgeCompletion(a.TaskID)
	c.UpdatedAt = a.Now
	return nil
}

func (s *State) addExam(a AddExam) error {
	c, err := s.course(a.CourseID)
	if err != nil {
		return err
	}
	if len(c.Exams) >= model.MaxExamsPerCourse {
		return &model.CapacityError{Entity: "exam", Limit: model.MaxExamsPerCourse}
	}
	exam, err := newExam(a.ID, a.Input)
	if err != nil {
		return err
	}
	c.Exams = append(c.Exams, exam)
	c.UpdatedAt = a.Now
	return nil
}

func newExam(id string, in model.ExamInput) (model.Exam, error) {
	title, err := schema.RequiredText("exam title", in.Title, model.MaxTitleLength)
	if err != nil {
		return model.Exam{}, err
	}
	desc, err := schema.OptionalText("exam description", in.Description, model.MaxTextLength)
	if err != nil {
		return model.Exam{}, err
	}
	if len(in.ExamDateISO) < len(model.DateLayout) {
		return model.Exam{}, model.Invalid("exam date is required")
	}
	if _, err := time.Parse(model.DateLayout, in.ExamDateISO[:len(model.DateLayout)]); err != nil {
		return model.Exam{}, model.Invalid("exam date must start with YYYY-MM-DD")
	}
	return model.Exam{ID: id, Title: title, ExamDateISO: in.ExamDateISO, Description: desc}, nil
}

func (s *State) updateExam(a UpdateExam) error {
	c, err := s.course(a.CourseID)
	if err != nil {
		return err
	}
	for i := range c.Exams {
		if c.Exams[i].ID != a.ExamID {
			continue
		}
		exam, err := newExam(a.ExamID, a.Input)
		if err != nil {
			return err
		}
		c.Exams[i] = exam
		c.UpdatedAt = a.Now
		return nil
	}
	return model.NotFound("exam", a.ExamID)
}

func (s *State) deleteExam(a DeleteExam) error {
	c, err := s.course(a.CourseID)
	if err != nil {
		return err
	}
	for i := range c.Exams {
		if c.Exams[i].ID == a.ExamID {
			c.Exams = append(c.Exams[:i], c.Exams[i+1:]...)
			c.UpdatedAt = a.Now
			return nil
		}
	}
	return model.NotFound("exam", a.ExamID)
}

// pushUndo saves the current completion state, evicting the oldest
// snapshot beyond the limit.
func (s *State) pushUndo(now time.Time) {
	c := s.CompletionState.Clone()
	s.UndoStack = append(s.UndoStack, model.UndoSnapshot{
		Timestamp:         now,
		CompletedTaskIDs:  c.CompletedTaskIDs,
		CompletionHistory: c.CompletionHistory,
	})
	if over := len(s.UndoStack) - model.MaxUndoSnapshots; over > 0 {
		s.UndoStack = s.UndoStack[over:]
	}
}

func (s *State) markCompleted(taskID string, now time.Time) {
	if !s.CompletionState.Contains(taskID) {
		s.CompletionState.CompletedTaskIDs = append(s.CompletionState.CompletedTaskIDs, taskID)
	}
	s.CompletionState.CompletionHistory[taskID] = now.UTC().Format(time.RFC3339)
}

// purgeCompletion drops every trace of taskID from the completion state.
func (s *State) purgeCompletion(taskID string) {
	ids := s.CompletionState.CompletedTaskIDs[:0]
	for _, id := range s.CompletionState.CompletedTaskIDs {
		if id != taskID {
			ids = append(ids, id)
		}
	}
	s.CompletionState.CompletedTaskIDs = ids
	delete(s.CompletionState.CompletionHistory, taskID)
}

func (s *State) toggleTaskCompletion(a ToggleTaskCompletion) error {
	ci, ui, ti, ok := s.FindTask(a.TaskID)
	if !ok {
		return model.NotFound("task", a.TaskID)
	}
	s.pushUndo(a.Now)

	task := &s.Courses[ci].Units[ui].Tasks[ti]
	if s.CompletionState.Contains(a.TaskID) {
		s.purgeCompletion(a.TaskID)
		task.Status = model.TaskStatusTodo
	} else {
		s.markCompleted(a.TaskID, a.Now)
		task.Status = model.TaskStatusDone
	}
	task.UpdatedAt = a.Now
	s.Courses[ci].UpdatedAt = a.Now
	return nil
}

func (s *State) updateTaskStatus(a UpdateTaskStatus) error {
	if !a.Status.Valid() {
		return model.Invalid(fmt.Sprintf("unknown status %q", a.Status))
	}
	c, u, i, err := s.findUnitTask(a.CourseID, a.UnitID, a.TaskID)
	if err != nil {
		return err
	}
	s.pushUndo(a.Now)

	task := &u.Tasks[i]
	task.Status = a.Status
	task.UpdatedAt = a.Now
	completed := s.CompletionState.Contains(a.TaskID)
	switch {
	case a.Status == model.TaskStatusDone && !completed:
		s.markCompleted(a.TaskID, a.Now)
	case a.Status != model.TaskStatusDone && completed:
		s.purgeCompletion(a.TaskID)
	}
	c.UpdatedAt = a.Now
	return nil
}

// undo restores the completion state of the latest snapshot. Task status
// fields are left as they are.
func (s *State) undo() {
	n := len(s.UndoStack)
	if n == 0 {
		return
	}
	snap := s.UndoStack[n-1]
	s.UndoStack = s.UndoStack[:n-1]
	s.CompletionState = model.CompletionState{
		CompletedTaskIDs:  snap.CompletedTaskIDs,
		CompletionHistory: snap.CompletionHistory,
	}.Clone()
}

func (s *State) personalTask(taskID string) (int, error) {
	for i := range s.PersonalTasks {
		if s.PersonalTasks[i].ID == taskID {
			return i, nil
		}
	}
	return -1, model.NotFound("personal task", taskID)
}

func (s *State) addPersonalTask(a AddPersonalTask) error {
	if len(s.PersonalTasks) >= model.MaxPersonalTasks {
		return &model.CapacityError{Entity: "personal task", Limit: model.MaxPersonalTasks}
	}
	task, err := newTask(a.ID, a.Input, a.Now)
	if err != nil {
		return err
	}
	s.PersonalTasks = append(s.PersonalTasks, task)
	return nil
}

func (s *State) updatePersonalTask(a UpdatePersonalTask) error {
	i, err := s.personalTask(a.TaskID)
	if err != nil {
		return err
	}
	return patchTask(&s.PersonalTasks[i], a.Patch, a.Now)
}

func (s *State) togglePersonalTask(a TogglePersonalTask) error {
	i, err := s.personalTask(a.TaskID)
	if err != nil {
		return err
	}
	t := &s.PersonalTasks[i]
	if t.Status == model.TaskStatusDone {
		t.Status = model.TaskStatusTodo
	} else {
		t.Status = model.TaskStatusDone
	}
	t.UpdatedAt = a.Now
	return nil
}

func (s *State) deletePersonalTask(a DeletePersonalTask) error {
	i, err := s.personalTask(a.TaskID)
	if err != nil {
		return err
	}
	s.PersonalTasks = append(s.PersonalTasks[:i], s.PersonalTasks[i+1:]...)
	return nil
}

func (s *State) addLectureNote(a AddLectureNote) error {
	if s.courseIndex(a.Meta.CourseID) < 0 {
		return model.NotFound("course", a.Meta.CourseID)
	}
	if err := schema.Validate(a.Meta); err != nil {
		return model.Invalid(err.Error())
	}
	s.LectureNotes = append(s.LectureNotes, a.Meta)
	return nil
}

func (s *State) deleteLectureNote(a DeleteLectureNote) error {
	for i := range s.LectureNotes {
		if s.LectureNotes[i].ID == a.ID {
			s.LectureNotes = append(s.LectureNotes[:i], s.LectureNotes[i+1:]...)
			return nil
		}
	}
	return model.NotFound("lecture note", a.ID)
}

// importData replaces the three imported aggregates and clears the undo
// stack; imports cannot be undone.
func (s *State) importData(a ImportData) {
	imported := State{
		Courses:         a.Courses,
		CompletionState: a.CompletionState,
		PersonalTasks:   a.PersonalTasks,
	}.Clone()
	s.Courses = imported.Courses
	s.CompletionState = imported.CompletionState
	s.PersonalTasks = imported.PersonalTasks
	s.UndoStack = []model.UndoSnapshot{}

	// Note payloads are not part of a backup: only local notes whose course
	// survived the import stay listed.
	notes := make([]model.LectureNoteMeta, 0, len(s.LectureNotes))
	for _, n := range s.LectureNotes {
		if _, ok := s.Course(n.CourseID); ok {
			notes = append(notes, n)
		}
	}
	s.LectureNotes = notes
}
