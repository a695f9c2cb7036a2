package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taskmaster/internal/model"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, u *model.User) error {
	query := `
        INSERT INTO users (email, password_hash, name, avatar_url, provider, confirmed, confirmation_token, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        RETURNING id, created_at
    `
	return r.db.QueryRow(ctx, query,
		u.Email,
		u.PasswordHash,
		u.Name,
		u.AvatarURL,
		u.Provider,
		u.Confirmed,
		u.ConfirmationToken,
	).Scan(&u.ID, &u.CreatedAt)
}

// FindByEmail returns user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
        SELECT id, email, password_hash, name, avatar_url, provider, confirmed, confirmation_token, created_at
        FROM users
        WHERE email = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.AvatarURL,
		&u.Provider, &u.Confirmed, &u.ConfirmationToken, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByID returns user by id.
func (r *UserRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	query := `
        SELECT id, email, password_hash, name, avatar_url, provider, confirmed, confirmation_token, created_at
        FROM users
        WHERE id = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.AvatarURL,
		&u.Provider, &u.Confirmed, &u.ConfirmationToken, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ConfirmByToken marks the matching user confirmed and clears the token.
// Returns the number of rows updated.
func (r *UserRepository) ConfirmByToken(ctx context.Context, token string) (int64, error) {
	query := `
        UPDATE users
        SET confirmed = TRUE, confirmation_token = ''
        WHERE confirmation_token = $1 AND confirmation_token <> ''
    `
	tag, err := r.db.Exec(ctx, query, token)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SetConfirmationToken stores a fresh confirmation token for the user.
func (r *UserRepository) SetConfirmationToken(ctx context.Context, userID int, token string) error {
	query := `
        UPDATE users
        SET confirmation_token = $2
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, userID, token)
	return err
}
