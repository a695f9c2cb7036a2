package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskmaster/internal/model"
	"taskmaster/internal/util"
)

const testSecret = "test-secret"

type fakeUserRepo struct {
	nextID int
	users  map[int]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[int]*model.User{}}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	u.ID = f.nextID
	f.nextID++
	u.CreatedAt = time.Now()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) FindByID(_ context.Context, id int) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) ConfirmByToken(_ context.Context, token string) (int64, error) {
	for _, u := range f.users {
		if u.ConfirmationToken == token && token != "" {
			u.Confirmed = true
			u.ConfirmationToken = ""
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeUserRepo) SetConfirmationToken(_ context.Context, userID int, token string) error {
	if u, ok := f.users[userID]; ok {
		u.ConfirmationToken = token
	}
	return nil
}

type fakeSessions struct {
	live   map[string]int
	states []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{live: map[string]int{}}
}

func (f *fakeSessions) Save(_ context.Context, token string, userID int, _ time.Duration) error {
	f.live[token] = userID
	return nil
}

func (f *fakeSessions) Revoke(_ context.Context, token string) (int, error) {
	if _, ok := f.live[token]; ok {
		delete(f.live, token)
		return 1, nil
	}
	return 0, nil
}

func (f *fakeSessions) PublishState(_ context.Context, event string, _ int) error {
	f.states = append(f.states, event)
	return nil
}

func newTestService(repo *fakeUserRepo, sessions *fakeSessions) *Service {
	return NewService(repo, sessions, nil, testSecret, zap.NewNop())
}

func register(t *testing.T, svc *Service, email string) *model.User {
	t.Helper()
	u, err := svc.Register(context.Background(), email, "hunter2", "Test User")
	require.NoError(t, err)
	return u
}

func TestRegisterCreatesUnconfirmedUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo, newFakeSessions())

	u := register(t, svc, "a@example.com")

	assert.False(t, u.Confirmed)
	assert.NotEmpty(t, u.ConfirmationToken)
	assert.Equal(t, model.ProviderEmail, u.Provider)
	assert.NotEqual(t, "hunter2", u.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(newFakeUserRepo(), newFakeSessions())
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "hunter2", "")
	assert.ErrorIs(t, err, ErrEmptyEmail)

	_, err = svc.Register(ctx, "not-an-email", "hunter2", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Register(ctx, "a@example.com", "abc", "")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService(newFakeUserRepo(), newFakeSessions())

	register(t, svc, "a@example.com")

	_, err := svc.Register(context.Background(), "A@Example.com", "hunter2", "")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLoginRequiresConfirmedEmail(t *testing.T) {
	repo := newFakeUserRepo()
	sessions := newFakeSessions()
	svc := newTestService(repo, sessions)
	ctx := context.Background()

	u := register(t, svc, "a@example.com")

	_, _, err := svc.Login(ctx, "a@example.com", "hunter2")
	assert.ErrorIs(t, err, ErrEmailNotConfirmed)

	require.NoError(t, svc.ConfirmEmail(ctx, u.ConfirmationToken))

	token, loggedIn, err := svc.Login(ctx, "a@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, loggedIn.ID)

	userID, err := util.ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
	assert.Contains(t, sessions.states, "signed_in")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo, newFakeSessions())
	ctx := context.Background()

	u := register(t, svc, "a@example.com")
	require.NoError(t, svc.ConfirmEmail(ctx, u.ConfirmationToken))

	_, _, err := svc.Login(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesSession(t *testing.T) {
	repo := newFakeUserRepo()
	sessions := newFakeSessions()
	svc := newTestService(repo, sessions)
	ctx := context.Background()

	u := register(t, svc, "a@example.com")
	require.NoError(t, svc.ConfirmEmail(ctx, u.ConfirmationToken))
	token, _, err := svc.Login(ctx, "a@example.com", "hunter2")
	require.NoError(t, err)
	require.Len(t, sessions.live, 1)

	require.NoError(t, svc.Logout(ctx, token))
	assert.Empty(t, sessions.live)
	assert.Contains(t, sessions.states, "signed_out")
}

func TestConfirmEmailRejectsUnknownToken(t *testing.T) {
	svc := newTestService(newFakeUserRepo(), newFakeSessions())

	err := svc.ConfirmEmail(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrInvalidToken)

	err = svc.ConfirmEmail(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResendConfirmationRotatesToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo, newFakeSessions())
	ctx := context.Background()

	u := register(t, svc, "a@example.com")
	oldToken := u.ConfirmationToken

	require.NoError(t, svc.ResendConfirmation(ctx, "a@example.com"))
	assert.NotEqual(t, oldToken, repo.users[u.ID].ConfirmationToken)

	err := svc.ResendConfirmation(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResendConfirmationRejectsConfirmedAccount(t *testing.T) {
	svc := newTestService(newFakeUserRepo(), newFakeSessions())
	ctx := context.Background()

	u := register(t, svc, "a@example.com")
	require.NoError(t, svc.ConfirmEmail(ctx, u.ConfirmationToken))

	err := svc.ResendConfirmation(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
}

func TestLoginWithGoogleCreatesConfirmedUserOnFirstSight(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo, newFakeSessions())
	ctx := context.Background()

	token, u, err := svc.LoginWithGoogle(ctx, GoogleIdentity{
		Email:     "g@example.com",
		Name:      "G User",
		AvatarURL: "https://example.com/a.png",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, u.Confirmed)
	assert.Equal(t, model.ProviderGoogle, u.Provider)

	// second sign-in reuses the same account
	_, again, err := svc.LoginWithGoogle(ctx, GoogleIdentity{Email: "g@example.com"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Len(t, repo.users, 1)
}

func TestCurrentUser(t *testing.T) {
	svc := newTestService(newFakeUserRepo(), newFakeSessions())

	u := register(t, svc, "a@example.com")

	got, err := svc.CurrentUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	_, err = svc.CurrentUser(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
