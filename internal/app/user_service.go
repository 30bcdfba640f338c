package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(user domain.User) (string, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// Registration carries the sign-up form.
type Registration struct {
	Username    string
	Email       string
	Password    string
	PhoneNumber string
	Role        domain.Role
}

// UserService handles accounts and the active-status check.
type UserService struct {
	users  UserStore
	tokens TokenIssuer
	hasher PasswordHasher
	now    func() time.Time
	logger *zap.Logger
}

func NewUserService(users UserStore, tokens TokenIssuer, hasher PasswordHasher, logger *zap.Logger, opts ...Option) *UserService {
	o := buildOptions(opts)
	return &UserService{users: users, tokens: tokens, hasher: hasher, now: o.now, logger: logger}
}

// Register creates a student or mentor account and returns it with a token.
func (s *UserService) Register(ctx context.Context, reg Registration) (domain.User, string, error) {
	email := normalizeEmail(reg.Email)
	if strings.TrimSpace(reg.Username) == "" || email == "" || reg.Password == "" || strings.TrimSpace(reg.PhoneNumber) == "" {
		return domain.User{}, "", domain.ErrInvalidInput
	}
	role := reg.Role
	if role == "" {
		role = domain.RoleStudent
	}
	if role != domain.RoleStudent && role != domain.RoleMentor {
		return domain.User{}, "", domain.ErrInvalidInput
	}

	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return domain.User{}, "", domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, "", err
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return domain.User{}, "", err
	}
	user, err := s.users.CreateUser(ctx, domain.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(reg.Username),
		Email:        email,
		PasswordHash: hash,
		PhoneNumber:  strings.TrimSpace(reg.PhoneNumber),
		Role:         role,
		Status:       domain.StatusActive,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return domain.User{}, "", err
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return domain.User{}, "", err
	}
	s.logger.Info("user registered", zap.String("userId", user.ID), zap.String("role", string(user.Role)))
	return user, token, nil
}

// Login verifies credentials and returns a fresh token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		return "", domain.ErrInvalidCredentials
	}
	if user.Status == domain.StatusSuspended {
		return "", domain.ErrUserSuspended
	}
	return s.tokens.Issue(user)
}

// Profile returns the user's account.
func (s *UserService) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.users.FindUser(ctx, userID)
}

// CheckActive fails unless the user exists and is not suspended.
func (s *UserService) CheckActive(ctx context.Context, userID string) error {
	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Status == domain.StatusSuspended {
		return domain.ErrUserSuspended
	}
	return nil
}

// SetStatus suspends or reactivates an account. Admin only.
func (s *UserService) SetStatus(ctx context.Context, actor domain.Actor, userID string, status domain.UserStatus) error {
	if actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	if status != domain.StatusActive && status != domain.StatusSuspended {
		return domain.ErrInvalidInput
	}
	if err := s.users.SetUserStatus(ctx, userID, status); err != nil {
		return err
	}
	s.logger.Info("user status changed", zap.String("userId", userID), zap.String("status", string(status)), zap.String("by", actor.ID))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
