package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taskmaster/internal/model"
	"taskmaster/internal/mq"
	"taskmaster/internal/util"
	"taskmaster/pkg/metrics"
)

// sessionTTL matches the JWT expiry so Redis forgets a session when the
// token itself stops being valid.
const sessionTTL = 24 * time.Hour

// UserRepo is the user persistence surface the service depends on.
type UserRepo interface {
	CreateUser(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int) (*model.User, error)
	ConfirmByToken(ctx context.Context, token string) (int64, error)
	SetConfirmationToken(ctx context.Context, userID int, token string) error
}

// SessionStore records which tokens are live so sign-out takes effect
// immediately instead of waiting for JWT expiry.
type SessionStore interface {
	Save(ctx context.Context, token string, userID int, ttl time.Duration) error
	Revoke(ctx context.Context, token string) (int, error)
	PublishState(ctx context.Context, event string, userID int) error
}

// EventPublisher publishes lifecycle events. A nil publisher disables events.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// GoogleIdentity is the already-verified identity handed over by the
// federated sign-in callback.
type GoogleIdentity struct {
	Email     string
	Name      string
	AvatarURL string
}

type Service struct {
	userRepo  UserRepo
	sessions  SessionStore
	publisher EventPublisher
	jwtSecret string
	logger    *zap.Logger
}

func NewService(userRepo UserRepo, sessions SessionStore, publisher EventPublisher, jwtSecret string, logger *zap.Logger) *Service {
	return &Service{
		userRepo:  userRepo,
		sessions:  sessions,
		publisher: publisher,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// Register creates a new unconfirmed user and hands the confirmation mail off
// to the notification consumer.
func (s *Service) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < 6 {
		return nil, ErrWeakPassword
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		metrics.RecordAuthAttempt("register", "duplicate")
		return nil, ErrEmailExists
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}
	token, err := util.GenerateToken()
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Email:             email,
		PasswordHash:      hash,
		Name:              strings.TrimSpace(name),
		Provider:          model.ProviderEmail,
		Confirmed:         false,
		ConfirmationToken: token,
	}
	if err := s.userRepo.CreateUser(ctx, u); err != nil {
		metrics.RecordAuthAttempt("register", "failed")
		return nil, err
	}

	metrics.RecordAuthAttempt("register", "success")
	s.publish(mq.RoutingUserRegistered, mq.UserRegisteredPayload{
		UserID: u.ID,
		Email:  u.Email,
	})
	s.publish(mq.RoutingConfirmationRequested, mq.ConfirmationRequestedPayload{
		UserID: u.ID,
		Email:  u.Email,
		Token:  token,
	})
	return u, nil
}

// Login checks user credentials and returns a JWT. An unconfirmed
// password-based account cannot sign in.
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		metrics.RecordAuthAttempt("login", "failed")
		return "", nil, ErrInvalidCredentials
	}

	if !util.CheckPassword(password, u.PasswordHash) {
		metrics.RecordAuthAttempt("login", "failed")
		return "", nil, ErrInvalidCredentials
	}

	if !u.Confirmed {
		metrics.RecordAuthAttempt("login", "unconfirmed")
		return "", nil, ErrEmailNotConfirmed
	}

	token, err := s.openSession(ctx, u)
	if err != nil {
		return "", nil, err
	}
	metrics.RecordAuthAttempt("login", "success")
	return token, u, nil
}

// LoginWithGoogle signs in a federated identity, creating the user on first
// sight. Google accounts are confirmed by the provider.
func (s *Service) LoginWithGoogle(ctx context.Context, identity GoogleIdentity) (string, *model.User, error) {
	email := strings.TrimSpace(strings.ToLower(identity.Email))
	if err := validateEmail(email); err != nil {
		return "", nil, err
	}

	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			metrics.RecordAuthAttempt("login_google", "failed")
			return "", nil, err
		}
		u = &model.User{
			Email:     email,
			Name:      strings.TrimSpace(identity.Name),
			AvatarURL: identity.AvatarURL,
			Provider:  model.ProviderGoogle,
			Confirmed: true,
		}
		if err := s.userRepo.CreateUser(ctx, u); err != nil {
			metrics.RecordAuthAttempt("login_google", "failed")
			return "", nil, err
		}
		s.publish(mq.RoutingUserRegistered, mq.UserRegisteredPayload{
			UserID: u.ID,
			Email:  u.Email,
		})
	}

	token, err := s.openSession(ctx, u)
	if err != nil {
		return "", nil, err
	}
	metrics.RecordAuthAttempt("login_google", "success")
	return token, u, nil
}

// Logout revokes the session. Local session state clears immediately; the
// auth-state stream tells every watcher.
func (s *Service) Logout(ctx context.Context, token string) error {
	userID, err := util.ParseJWT(token, s.jwtSecret)
	if err != nil {
		return ErrInvalidCredentials
	}
	if _, err := s.sessions.Revoke(ctx, token); err != nil {
		metrics.RecordAuthAttempt("logout", "failed")
		return err
	}
	if err := s.sessions.PublishState(ctx, "signed_out", userID); err != nil {
		s.logger.Warn("Failed to publish auth state", zap.Error(err))
	}
	metrics.RecordAuthAttempt("logout", "success")
	return nil
}

// ConfirmEmail marks the account matching the token as confirmed.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	n, err := s.userRepo.ConfirmByToken(ctx, token)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidToken
	}
	return nil
}

// ResendConfirmation rotates the confirmation token and requests a fresh
// confirmation mail.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if u.Confirmed {
		return ErrAlreadyConfirmed
	}

	token, err := util.GenerateToken()
	if err != nil {
		return err
	}
	if err := s.userRepo.SetConfirmationToken(ctx, u.ID, token); err != nil {
		return err
	}
	s.publish(mq.RoutingConfirmationRequested, mq.ConfirmationRequestedPayload{
		UserID: u.ID,
		Email:  u.Email,
		Token:  token,
	})
	return nil
}

// CurrentUser returns the authenticated user's profile.
func (s *Service) CurrentUser(ctx context.Context, userID int) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) openSession(ctx context.Context, u *model.User) (string, error) {
	token, err := util.GenerateJWT(u.ID, s.jwtSecret)
	if err != nil {
		return "", err
	}
	if err := s.sessions.Save(ctx, token, u.ID, sessionTTL); err != nil {
		return "", err
	}
	if err := s.sessions.PublishState(ctx, "signed_in", u.ID); err != nil {
		s.logger.Warn("Failed to publish auth state", zap.Error(err))
	}
	return token, nil
}

func (s *Service) publish(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Warn("Failed to publish auth event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmptyEmail
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ErrInvalidEmail
	}
	return nil
}
