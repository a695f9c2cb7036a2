// Package viewmodel derives the rendered task lists from a fetched task
// collection. Everything here is pure: input slices are never mutated.
package viewmodel

import (
	"sort"

	"taskmaster/internal/model"
)

// SortKey mirrors the sort selection offered by the task list UI.
type SortKey string

const (
	SortDueDate  SortKey = "due_date"
	SortCreated  SortKey = "created"
	SortPosition SortKey = "position"
)

// Options is the current filter/sort selection.
type Options struct {
	Priority      int // 0 means all priorities
	LabelID       int // 0 means all labels
	SortKey       SortKey
	ShowCompleted bool
}

// View is the derived rendering input: two ordered sequences.
type View struct {
	Active    []model.Task `json:"active"`
	Completed []model.Task `json:"completed"`
}

// Build filters, sorts and groups the task collection per the options.
func Build(tasks []model.Task, opts Options) View {
	filtered := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if opts.Priority != 0 && t.Priority != opts.Priority {
			continue
		}
		if opts.LabelID != 0 && !hasLabel(t, opts.LabelID) {
			continue
		}
		filtered = append(filtered, t)
	}

	sortTasks(filtered, opts.SortKey)

	view := View{Active: []model.Task{}, Completed: []model.Task{}}
	for _, t := range filtered {
		if t.Completed {
			if opts.ShowCompleted {
				view.Completed = append(view.Completed, t)
			}
			continue
		}
		view.Active = append(view.Active, t)
	}
	return view
}

func hasLabel(t model.Task, labelID int) bool {
	for _, l := range t.Labels {
		if l.ID == labelID {
			return true
		}
	}
	return false
}

func sortTasks(tasks []model.Task, key SortKey) {
	switch key {
	case SortDueDate:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i].DueDate, tasks[j].DueDate
			switch {
			case a == nil && b == nil:
				// undated ties fall back to newest first
				return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
			case a == nil:
				return false // undated after every dated task
			case b == nil:
				return true
			case !a.Equal(*b):
				return a.Before(*b)
			default:
				return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
			}
		})
	case SortPosition:
		sort.SliceStable(tasks, func(i, j int) bool {
			if tasks[i].Position != tasks[j].Position {
				return tasks[i].Position < tasks[j].Position
			}
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		})
	default: // SortCreated
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		})
	}
}
