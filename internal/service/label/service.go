package label

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taskmaster/internal/model"
	"taskmaster/internal/mq"
	"taskmaster/pkg/metrics"
	"taskmaster/pkg/util"
)

// Repository is the label persistence surface the service depends on.
type Repository interface {
	List(ctx context.Context, userID int) ([]model.Label, error)
	FindByName(ctx context.Context, userID int, name string) (*model.Label, error)
	Insert(ctx context.Context, l *model.Label) error
	Delete(ctx context.Context, userID, labelID int) (int64, error)
}

// EventPublisher publishes lifecycle events. A nil publisher disables events.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Service defines all label-related business operations. Labels have no
// update operation; a label is created once and deleted when obsolete.
type Service interface {
	List(ctx context.Context, userID int) ([]model.Label, error)
	Create(ctx context.Context, userID int, name, color string) (*model.Label, error)
	Delete(ctx context.Context, userID, labelID int) error
}

type service struct {
	repo      Repository
	publisher EventPublisher
	logger    *zap.Logger
}

func NewService(repo Repository, publisher EventPublisher, logger *zap.Logger) Service {
	return &service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// List returns every label owned by the user. A missing labels table yields
// an empty slice so a fresh deployment renders an empty manager, not an error.
func (s *service) List(ctx context.Context, userID int) ([]model.Label, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}
	labels, err := s.repo.List(ctx, userID)
	if err != nil {
		if util.IsTableMissing(err) {
			s.logger.Warn("Labels table missing, returning empty list", zap.Error(err))
			return []model.Label{}, nil
		}
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return labels, nil
}

// Create validates and inserts a new label. The name is trimmed and compared
// case-insensitively against existing labels before any insert.
func (s *service) Create(ctx context.Context, userID int, name, color string) (*model.Label, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if utf8.RuneCountInString(name) > model.MaxLabelNameLength {
		return nil, ErrNameTooLong
	}
	if !model.IsValidLabelColor(color) {
		return nil, ErrInvalidColor
	}

	existing, err := s.repo.FindByName(ctx, userID, name)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check label name: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateName
	}

	l := &model.Label{
		UserID: userID,
		Name:   name,
		Color:  color,
	}
	if err := s.repo.Insert(ctx, l); err != nil {
		// The unique index is the backstop for a concurrent create.
		if util.IsUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		metrics.RecordLabelMutation("create", "failed")
		return nil, fmt.Errorf("failed to create label: %w", err)
	}

	metrics.RecordLabelMutation("create", "success")
	s.publish(mq.RoutingLabelCreated, mq.LabelEventPayload{
		LabelID: l.ID,
		UserID:  userID,
		Name:    l.Name,
		At:      time.Now(),
	})
	return l, nil
}

// Delete removes a label. Task associations disappear with it through the
// schema-level cascade.
func (s *service) Delete(ctx context.Context, userID, labelID int) error {
	if userID <= 0 {
		return ErrInvalidUserID
	}
	if labelID <= 0 {
		return ErrInvalidLabelID
	}

	affected, err := s.repo.Delete(ctx, userID, labelID)
	if err != nil {
		metrics.RecordLabelMutation("delete", "failed")
		return fmt.Errorf("failed to delete label: %w", err)
	}
	if affected == 0 {
		return ErrLabelNotFound
	}

	metrics.RecordLabelMutation("delete", "success")
	s.publish(mq.RoutingLabelDeleted, mq.LabelEventPayload{
		LabelID: labelID,
		UserID:  userID,
		At:      time.Now(),
	})
	return nil
}

func (s *service) publish(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Warn("Failed to publish label event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
