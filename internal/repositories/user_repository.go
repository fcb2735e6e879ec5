package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"bitsbarter/internal/apperrors"
	"bitsbarter/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, email, username, verified, is_admin, last_active_at, created_at`

// UserRepository manages account records.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	EnsureUser(ctx context.Context, email string) (models.User, error)
	SetUsername(ctx context.Context, id string, username string) error
	TouchLastActive(ctx context.Context, id string) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByEmail fetches a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// EnsureUser returns the account for the email, creating it on first login.
func (r *UserRepo) EnsureUser(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `INSERT INTO users (id, email) VALUES ($1, $2)
        ON CONFLICT (email) DO UPDATE SET last_active_at=NOW()
        RETURNING `+userColumns, uuid.NewString(), email).StructScan(&user)
	return user, err
}

// SetUsername assigns the username exactly once; a second attempt or a
// taken name fails with Conflict.
func (r *UserRepo) SetUsername(ctx context.Context, id string, username string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET username=$2 WHERE id=$1 AND username IS NULL`, id, username)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperrors.New(apperrors.Conflict, "username is taken")
		}
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return apperrors.New(apperrors.Conflict, "username already set")
	}
	return nil
}

// TouchLastActive refreshes the user's last-active timestamp.
func (r *UserRepo) TouchLastActive(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_active_at=NOW() WHERE id=$1`, id)
	return err
}
