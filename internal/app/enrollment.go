package app

import (
	"context"
	"errors"
	"fmt"

	"classroom-quiz-service/internal/domain"
)

// Enrollment answers whether a student belongs to a class.
type Enrollment struct {
	classes ClassStore
}

func NewEnrollment(classes ClassStore) *Enrollment {
	return &Enrollment{classes: classes}
}

// IsEnrolled is read-only; it fails with domain.ErrClassNotFound for unknown classes.
func (e *Enrollment) IsEnrolled(ctx context.Context, studentID, classID string) (bool, error) {
	class, err := e.Class(ctx, classID)
	if err != nil {
		return false, err
	}
	return class.HasStudent(studentID), nil
}

// Class returns the roster used for enrollment checks.
func (e *Enrollment) Class(ctx context.Context, classID string) (domain.Class, error) {
	class, err := e.classes.FindClass(ctx, classID)
	if errors.Is(err, domain.ErrClassNotFound) {
		return domain.Class{}, fmt.Errorf("class %s: %w", classID, domain.ErrClassNotFound)
	}
	if err != nil {
		return domain.Class{}, err
	}
	return class, nil
}
