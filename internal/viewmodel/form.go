package viewmodel

import "taskmaster/internal/model"

// FormMode selects between the two mutually exclusive task-form modes.
type FormMode int

const (
	ModeCreate FormMode = iota
	ModeEdit
)

// FormState models the task edit form: create mode for a new task, edit mode
// when an existing task was selected. Switching modes resets the
// subtask-input scratch list.
type FormState struct {
	Mode           FormMode
	TaskID         int
	SubtaskScratch []string
}

// NewFormState starts in create mode with an empty scratch list.
func NewFormState() *FormState {
	return &FormState{Mode: ModeCreate}
}

// EnterCreate switches to create mode, dropping any edit selection.
func (f *FormState) EnterCreate() {
	f.Mode = ModeCreate
	f.TaskID = 0
	f.SubtaskScratch = nil
}

// EnterEdit switches to edit mode for the selected task, seeding the scratch
// list from the task's current subtask titles.
func (f *FormState) EnterEdit(t model.Task) {
	f.Mode = ModeEdit
	f.TaskID = t.ID
	f.SubtaskScratch = nil
	for _, sub := range t.Subtasks {
		f.SubtaskScratch = append(f.SubtaskScratch, sub.Title)
	}
}

// AddSubtaskInput appends a scratch subtask title.
func (f *FormState) AddSubtaskInput(title string) {
	f.SubtaskScratch = append(f.SubtaskScratch, title)
}

// RemoveSubtaskInput drops the scratch entry at index i, ignoring
// out-of-range indexes.
func (f *FormState) RemoveSubtaskInput(i int) {
	if i < 0 || i >= len(f.SubtaskScratch) {
		return
	}
	f.SubtaskScratch = append(f.SubtaskScratch[:i], f.SubtaskScratch[i+1:]...)
}
