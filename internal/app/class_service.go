package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const joinCodeAttempts = 5

// ClassInput carries the fields of a new class.
type ClassInput struct {
	Topic       string
	Name        string
	Description string
}

// ClassService creates classes and enrolls students by join code.
type ClassService struct {
	classes  ClassStore
	joinCode func() (string, error)
	now      func() time.Time
	logger   *zap.Logger
}

func NewClassService(classes ClassStore, logger *zap.Logger, opts ...Option) *ClassService {
	o := buildOptions(opts)
	return &ClassService{
		classes:  classes,
		joinCode: newJoinCode,
		now:      o.now,
		logger:   logger,
	}
}

// Create makes a class with the creator as its first mentor.
func (s *ClassService) Create(ctx context.Context, actor domain.Actor, in ClassInput) (domain.Class, error) {
	if !domain.CanAuthor(actor) {
		return domain.Class{}, domain.ErrForbidden
	}
	if strings.TrimSpace(in.Name) == "" {
		return domain.Class{}, domain.ErrInvalidInput
	}

	for i := 0; i < joinCodeAttempts; i++ {
		code, err := s.joinCode()
		if err != nil {
			return domain.Class{}, fmt.Errorf("generate join code: %w", err)
		}
		class := domain.Class{
			ID:          uuid.NewString(),
			Topic:       in.Topic,
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			JoinCode:    code,
			CreatedBy:   actor.ID,
			Mentors:     []string{actor.ID},
			Students:    []string{},
			CreatedAt:   s.now(),
		}
		created, err := s.classes.CreateClass(ctx, class)
		if errors.Is(err, domain.ErrJoinCodeTaken) {
			continue
		}
		if err != nil {
			return domain.Class{}, err
		}
		s.logger.Info("class created", zap.String("classId", created.ID), zap.String("actorId", actor.ID))
		return created, nil
	}
	return domain.Class{}, fmt.Errorf("create class: %w", domain.ErrJoinCodeTaken)
}

// Join enrolls the actor as a student of the class owning code.
func (s *ClassService) Join(ctx context.Context, actor domain.Actor, code string) (domain.Class, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return domain.Class{}, domain.ErrInvalidJoinCode
	}
	class, err := s.classes.FindClassByJoinCode(ctx, code)
	if errors.Is(err, domain.ErrClassNotFound) {
		return domain.Class{}, domain.ErrInvalidJoinCode
	}
	if err != nil {
		return domain.Class{}, err
	}
	if class.HasStudent(actor.ID) || class.HasMentor(actor.ID) {
		return domain.Class{}, domain.ErrAlreadyMember
	}
	if err := s.classes.AddStudent(ctx, class.ID, actor.ID); err != nil {
		return domain.Class{}, err
	}
	s.logger.Info("student joined class", zap.String("classId", class.ID), zap.String("studentId", actor.ID))
	return s.classes.FindClass(ctx, class.ID)
}

// Get returns a class by id.
func (s *ClassService) Get(ctx context.Context, classID string) (domain.Class, error) {
	return s.classes.FindClass(ctx, classID)
}

// ListForUser returns the classes where userID is a student or mentor.
func (s *ClassService) ListForUser(ctx context.Context, userID string) ([]domain.Class, error) {
	return s.classes.ListClassesForUser(ctx, userID)
}

// newJoinCode returns 8 lowercase hex characters.
func newJoinCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
