package postgres

import (
	"context"
	"errors"
	"fmt"

	"classroom-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const userColumns = `id, username, email, password_hash, phone_number, image, role, status, created_at`

// UserStore keeps accounts in Postgres.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) FindUser(ctx context.Context, userID string) (domain.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
}

func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (s *UserStore) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.PhoneNumber, user.Image,
		string(user.Role), string(user.Status), user.CreatedAt,
	)
	if isUniqueViolation(err, "users_email_key") {
		return domain.User{}, domain.ErrEmailTaken
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// SetUserStatus activates or suspends an account.
func (s *UserStore) SetUserStatus(ctx context.Context, userID string, status domain.UserStatus) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET status=$2 WHERE id=$1`, userID, string(status))
	if err != nil {
		return fmt.Errorf("set user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) findOne(ctx context.Context, query string, arg string) (domain.User, error) {
	var (
		user         domain.User
		role, status string
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.PhoneNumber, &user.Image,
		&role, &status, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	user.Role = domain.Role(role)
	user.Status = domain.UserStatus(status)
	return user, nil
}
