package app_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/memory"
	"go.uber.org/zap"
)

var joinCodePattern = regexp.MustCompile(`^[0-9a-f]{8}$`)

func TestCreateAndJoinClass(t *testing.T) {
	ctx := context.Background()
	classes := app.NewClassService(memory.NewStore(), zap.NewNop())
	student := domain.Actor{ID: "s1", Role: domain.RoleStudent}

	if _, err := classes.Create(ctx, student, app.ClassInput{Name: "Physics"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected students to be forbidden, got %v", err)
	}

	class, err := classes.Create(ctx, mentor, app.ClassInput{Topic: "science", Name: "Physics"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !joinCodePattern.MatchString(class.JoinCode) {
		t.Fatalf("unexpected join code %q", class.JoinCode)
	}
	if !class.HasMentor(mentor.ID) {
		t.Fatalf("creator should mentor the class: %+v", class)
	}

	joined, err := classes.Join(ctx, student, " "+class.JoinCode+" ")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !joined.HasStudent(student.ID) {
		t.Fatalf("expected student enrolled: %+v", joined)
	}

	if _, err := classes.Join(ctx, student, class.JoinCode); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("expected already member, got %v", err)
	}
	if _, err := classes.Join(ctx, mentor, class.JoinCode); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("expected mentor to be a member already, got %v", err)
	}
	if _, err := classes.Join(ctx, student, "00000000"); !errors.Is(err, domain.ErrInvalidJoinCode) {
		t.Fatalf("expected invalid join code, got %v", err)
	}

	listed, err := classes.ListForUser(ctx, student.ID)
	if err != nil || len(listed) != 1 || listed[0].ID != class.ID {
		t.Fatalf("list for student = (%+v, %v)", listed, err)
	}
}
