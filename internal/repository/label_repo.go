package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskmaster/internal/model"
	"taskmaster/pkg/metrics"
)

type LabelRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewLabelRepository(db *pgxpool.Pool, logger *zap.Logger) *LabelRepository {
	return &LabelRepository{db: db, logger: logger}
}

// List returns the user's labels ordered by name.
func (r *LabelRepository) List(ctx context.Context, userID int) ([]model.Label, error) {
	start := time.Now()
	query := `
        SELECT id, user_id, name, color, created_at
        FROM labels
        WHERE user_id = $1
        ORDER BY name ASC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query labels",
			zap.Error(err),
			zap.Int("user_id", userID),
		)
		return nil, err
	}
	defer rows.Close()

	labels := []model.Label{}
	for rows.Next() {
		var l model.Label
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.Color, &l.CreatedAt); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	metrics.RecordDBQueryDuration("list", "labels", time.Since(start))
	return labels, nil
}

// FindByName returns the user's label with the given name, compared
// case-insensitively. pgx.ErrNoRows when absent.
func (r *LabelRepository) FindByName(ctx context.Context, userID int, name string) (*model.Label, error) {
	query := `
        SELECT id, user_id, name, color, created_at
        FROM labels
        WHERE user_id = $1 AND LOWER(name) = LOWER($2)
    `
	var l model.Label
	err := r.db.QueryRow(ctx, query, userID, name).Scan(
		&l.ID, &l.UserID, &l.Name, &l.Color, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Insert creates a label row.
func (r *LabelRepository) Insert(ctx context.Context, l *model.Label) error {
	r.logger.Debug("Inserting label",
		zap.Int("user_id", l.UserID),
		zap.String("name", l.Name),
	)
	query := `
        INSERT INTO labels (user_id, name, color)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, l.UserID, l.Name, l.Color).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert label",
			zap.Error(err),
			zap.Int("user_id", l.UserID),
			zap.String("name", l.Name),
		)
		return err
	}
	r.logger.Info("Label inserted",
		zap.Int("label_id", l.ID),
		zap.Int("user_id", l.UserID),
	)
	return nil
}

// Delete removes a label row and reports how many rows matched. Associations
// cascade at the schema level.
func (r *LabelRepository) Delete(ctx context.Context, userID, labelID int) (int64, error) {
	query := `
        DELETE FROM labels
        WHERE id = $2 AND user_id = $1
    `
	tag, err := r.db.Exec(ctx, query, userID, labelID)
	if err != nil {
		r.logger.Error("Failed to delete label",
			zap.Error(err),
			zap.Int("label_id", labelID),
		)
		return 0, err
	}
	r.logger.Info("Label deleted",
		zap.Int("label_id", labelID),
		zap.Int64("rows_affected", tag.RowsAffected()),
	)
	return tag.RowsAffected(), nil
}
