package task

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskmaster/internal/model"
)

// fakeRepo is an in-memory Repository. Cascading deletes mirror the schema
// contract: removing a task removes its subtasks and label associations.
type fakeRepo struct {
	nextID             int
	tasks              map[int]*model.Task
	taskLabels         map[int][]int // task id -> label ids
	insertCalls        int
	failSubtaskInserts bool
	missingTable       bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		nextID:     1,
		tasks:      map[int]*model.Task{},
		taskLabels: map[int][]int{},
	}
}

func (f *fakeRepo) ListTopLevel(_ context.Context, userID int, _ string) ([]model.Task, error) {
	if f.missingTable {
		return nil, &pgconn.PgError{Code: "42P01", Message: `relation "tasks" does not exist`}
	}
	out := []model.Task{}
	for _, t := range f.tasks {
		if t.UserID == userID && t.ParentID == nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListSubtasks(_ context.Context, userID int) (map[int][]model.Task, error) {
	out := map[int][]model.Task{}
	for _, t := range f.tasks {
		if t.UserID == userID && t.ParentID != nil {
			out[*t.ParentID] = append(out[*t.ParentID], *t)
		}
	}
	for parent := range out {
		subs := out[parent]
		for i := 0; i < len(subs); i++ {
			for j := i + 1; j < len(subs); j++ {
				if subs[j].Position < subs[i].Position {
					subs[i], subs[j] = subs[j], subs[i]
				}
			}
		}
		out[parent] = subs
	}
	return out, nil
}

func (f *fakeRepo) ListTaskLabels(_ context.Context, userID int) (map[int][]model.Label, error) {
	out := map[int][]model.Label{}
	for taskID, labelIDs := range f.taskLabels {
		t, ok := f.tasks[taskID]
		if !ok || t.UserID != userID {
			continue
		}
		for _, id := range labelIDs {
			out[taskID] = append(out[taskID], model.Label{ID: id, UserID: userID})
		}
	}
	return out, nil
}

func (f *fakeRepo) Insert(_ context.Context, t *model.Task) (int, error) {
	f.insertCalls++
	if f.failSubtaskInserts && t.ParentID != nil {
		return 0, assert.AnError
	}
	t.ID = f.nextID
	f.nextID++
	t.CreatedAt = time.Now()
	cp := *t
	f.tasks[t.ID] = &cp
	return t.ID, nil
}

func (f *fakeRepo) Update(_ context.Context, userID, taskID int, title, description string, dueDate *time.Time, priority int) (int64, error) {
	t, ok := f.tasks[taskID]
	if !ok || t.UserID != userID {
		return 0, nil
	}
	t.Title = title
	t.Description = description
	t.DueDate = dueDate
	t.Priority = priority
	return 1, nil
}

func (f *fakeRepo) SetCompleted(_ context.Context, userID, taskID int, completed bool) (int64, error) {
	if t, ok := f.tasks[taskID]; ok && t.UserID == userID {
		t.Completed = completed
		return 1, nil
	}
	return 0, nil
}

func (f *fakeRepo) Delete(_ context.Context, userID, taskID int) (int64, error) {
	t, ok := f.tasks[taskID]
	if !ok || t.UserID != userID || t.ParentID != nil {
		return 0, nil
	}
	delete(f.tasks, taskID)
	delete(f.taskLabels, taskID)
	for id, sub := range f.tasks {
		if sub.ParentID != nil && *sub.ParentID == taskID {
			delete(f.tasks, id)
		}
	}
	return 1, nil
}

func (f *fakeRepo) DeleteSubtask(_ context.Context, userID, subtaskID int) (int64, error) {
	if t, ok := f.tasks[subtaskID]; ok && t.UserID == userID && t.ParentID != nil {
		delete(f.tasks, subtaskID)
		return 1, nil
	}
	return 0, nil
}

func (f *fakeRepo) DeleteSubtasksOf(_ context.Context, userID, taskID int) error {
	for id, t := range f.tasks {
		if t.UserID == userID && t.ParentID != nil && *t.ParentID == taskID {
			delete(f.tasks, id)
		}
	}
	return nil
}

func (f *fakeRepo) DeleteTaskLabels(_ context.Context, taskID int) error {
	delete(f.taskLabels, taskID)
	return nil
}

func (f *fakeRepo) InsertTaskLabel(_ context.Context, taskID, labelID int) error {
	f.taskLabels[taskID] = append(f.taskLabels[taskID], labelID)
	return nil
}

func newTestService(repo *fakeRepo) Service {
	return NewService(repo, nil, zap.NewNop())
}

func TestCreateAddsOneTopLevelTask(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateRequest{Title: "  Buy milk  "})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, model.PriorityDefault, created.Priority)

	tasks, err := svc.List(ctx, 1, SortCreated)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Nil(t, tasks[0].ParentID)
}

func TestCreateBlankTitleMakesNoCalls(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), 1, CreateRequest{Title: "   "})
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Zero(t, repo.insertCalls, "validation must happen before any write")
}

func TestCreateRejectsOutOfRangePriority(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Create(context.Background(), 1, CreateRequest{Title: "x", Priority: 5})
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestCreateWithSubtasksKeepsInputOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CreateRequest{
		Title:         "Buy milk",
		Priority:      4,
		SubtaskTitles: []string{"2%", "", "1L"},
	})
	require.NoError(t, err)

	tasks, err := svc.List(ctx, 1, SortCreated)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Len(t, tasks[0].Subtasks, 2, "blank titles are skipped")
	assert.Equal(t, "2%", tasks[0].Subtasks[0].Title)
	assert.Equal(t, "1L", tasks[0].Subtasks[1].Title)
	assert.False(t, tasks[0].Subtasks[0].Completed)
	assert.False(t, tasks[0].Subtasks[1].Completed)
}

func TestListExcludesSubtasksFromTopLevel(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CreateRequest{
		Title:         "parent",
		SubtaskTitles: []string{"child"},
	})
	require.NoError(t, err)

	tasks, err := svc.List(ctx, 1, SortCreated)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestToggleCompletionRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateRequest{Title: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.ToggleCompletion(ctx, 1, created.ID, false))
	assert.True(t, repo.tasks[created.ID].Completed)

	require.NoError(t, svc.ToggleCompletion(ctx, 1, created.ID, true))
	assert.False(t, repo.tasks[created.ID].Completed)
}

func TestUpdateReplacesSubtasksAndLabels(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateRequest{
		Title:         "t",
		SubtaskTitles: []string{"a", "b"},
		LabelIDs:      []int{10, 11},
	})
	require.NoError(t, err)

	err = svc.Update(ctx, 1, created.ID, UpdateRequest{
		Title:         "t",
		SubtaskTitles: []string{"c"},
		LabelIDs:      []int{12},
	})
	require.NoError(t, err)

	tasks, err := svc.List(ctx, 1, SortCreated)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Len(t, tasks[0].Subtasks, 1)
	assert.Equal(t, "c", tasks[0].Subtasks[0].Title)
	assert.Equal(t, []int{12}, repo.taskLabels[created.ID])
}

func TestDeleteCascadesSubtasksAndAssociations(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateRequest{
		Title:         "t",
		SubtaskTitles: []string{"s1", "s2"},
		LabelIDs:      []int{7},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, created.ID))

	tasks, err := svc.List(ctx, 1, SortCreated)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Empty(t, repo.tasks, "subtask rows must be gone")
	assert.Empty(t, repo.taskLabels, "association rows must be gone")
}

func TestDeleteSubtaskRemovesOnlyThatRow(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CreateRequest{
		Title:         "t",
		SubtaskTitles: []string{"s1", "s2"},
	})
	require.NoError(t, err)

	tasks, err := svc.List(ctx, 1, SortCreated)
	require.NoError(t, err)
	require.Len(t, tasks[0].Subtasks, 2)

	require.NoError(t, svc.DeleteSubtask(ctx, 1, tasks[0].Subtasks[0].ID))

	tasks, err = svc.List(ctx, 1, SortCreated)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Len(t, tasks[0].Subtasks, 1)
	assert.Equal(t, "s2", tasks[0].Subtasks[0].Title)
}

func TestCreatePartialWriteKeepsTaskRow(t *testing.T) {
	repo := newFakeRepo()
	repo.failSubtaskInserts = true
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateRequest{
		Title:         "t",
		SubtaskTitles: []string{"s1"},
	})
	assert.ErrorIs(t, err, ErrPartialWrite)
	require.NotNil(t, created, "the saved task comes back alongside the error")
	assert.Contains(t, repo.tasks, created.ID, "no rollback: the task row survives")

	tasks, listErr := svc.List(ctx, 1, SortCreated)
	require.NoError(t, listErr)
	require.Len(t, tasks, 1)
	assert.Empty(t, tasks[0].Subtasks)
}

func TestListMissingTableYieldsEmptyList(t *testing.T) {
	repo := newFakeRepo()
	repo.missingTable = true
	svc := newTestService(repo)

	tasks, err := svc.List(context.Background(), 1, SortCreated)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestMutationsOnUnknownTaskReportNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	err := svc.Update(ctx, 1, 99, UpdateRequest{Title: "t"})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	err = svc.ToggleCompletion(ctx, 1, 99, false)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	err = svc.Delete(ctx, 1, 99)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	err = svc.DeleteSubtask(ctx, 1, 99)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDeleteByAnotherUserReportsNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateRequest{Title: "mine"})
	require.NoError(t, err)

	err = svc.Delete(ctx, 2, created.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Contains(t, repo.tasks, created.ID)
}

func TestListRejectsUnknownSortKey(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.List(context.Background(), 1, SortKey("alphabetical"))
	assert.ErrorIs(t, err, ErrInvalidSortKey)
}

func TestOrderClauseDueDatePutsNullsLast(t *testing.T) {
	clause, err := orderClause(SortDueDate)
	require.NoError(t, err)
	assert.Contains(t, clause, "NULLS LAST")
}
