package label

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskmaster/internal/model"
)

type fakeRepo struct {
	nextID      int
	labels      map[int]*model.Label
	insertCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, labels: map[int]*model.Label{}}
}

func (f *fakeRepo) List(_ context.Context, userID int) ([]model.Label, error) {
	out := []model.Label{}
	for _, l := range f.labels {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindByName(_ context.Context, userID int, name string) (*model.Label, error) {
	for _, l := range f.labels {
		if l.UserID == userID && strings.EqualFold(l.Name, name) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRepo) Insert(_ context.Context, l *model.Label) error {
	f.insertCalls++
	l.ID = f.nextID
	f.nextID++
	cp := *l
	f.labels[l.ID] = &cp
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, userID, labelID int) (int64, error) {
	if l, ok := f.labels[labelID]; ok && l.UserID == userID {
		delete(f.labels, labelID)
		return 1, nil
	}
	return 0, nil
}

func newTestService(repo *fakeRepo) Service {
	return NewService(repo, nil, zap.NewNop())
}

func TestCreateAndListLabel(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	l, err := svc.Create(ctx, 1, "urgent", "#dc2626")
	require.NoError(t, err)
	assert.Equal(t, "urgent", l.Name)
	assert.Equal(t, "#dc2626", l.Color)

	labels, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "urgent", labels[0].Name)
}

func TestCreateRejectsCaseInsensitiveDuplicate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, "urgent", "#dc2626")
	require.NoError(t, err)

	_, err = svc.Create(ctx, 1, "URGENT", "#2563eb")
	assert.ErrorIs(t, err, ErrDuplicateName)

	labels, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, labels, 1)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name      string
		labelName string
		color     string
		wantErr   error
	}{
		{"blank name", "   ", "#dc2626", ErrEmptyName},
		{"name too long", strings.Repeat("x", 21), "#dc2626", ErrNameTooLong},
		{"color outside palette", "work", "#123456", ErrInvalidColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			svc := newTestService(repo)

			_, err := svc.Create(context.Background(), 1, tt.labelName, tt.color)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, repo.insertCalls)
		})
	}
}

func TestCreateTrimsName(t *testing.T) {
	svc := newTestService(newFakeRepo())

	l, err := svc.Create(context.Background(), 1, "  work  ", "#059669")
	require.NoError(t, err)
	assert.Equal(t, "work", l.Name)
}

func TestDuplicateCheckIsPerUser(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, "urgent", "#dc2626")
	require.NoError(t, err)

	_, err = svc.Create(ctx, 2, "urgent", "#dc2626")
	assert.NoError(t, err, "another user may reuse the name")
}

func TestDeleteLabel(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	l, err := svc.Create(ctx, 1, "urgent", "#dc2626")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, l.ID))

	labels, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestDeleteUnknownLabelReportsNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	err := svc.Delete(ctx, 1, 99)
	assert.ErrorIs(t, err, ErrLabelNotFound)

	l, err := svc.Create(ctx, 1, "urgent", "#dc2626")
	require.NoError(t, err)

	err = svc.Delete(ctx, 2, l.ID)
	assert.ErrorIs(t, err, ErrLabelNotFound)
	assert.Contains(t, repo.labels, l.ID)
}
