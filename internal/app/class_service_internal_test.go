package app

import (
	"context"
	"errors"
	"testing"

	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/memory"
	"go.uber.org/zap"
)

func TestCreateClassRegeneratesCollidingJoinCode(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	if _, err := store.CreateClass(ctx, domain.Class{ID: "existing", Name: "Old", JoinCode: "aaaaaaaa"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	codes := []string{"aaaaaaaa", "aaaaaaaa", "bbbbbbbb"}
	service := NewClassService(store, zap.NewNop())
	service.joinCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	mentor := domain.Actor{ID: "m1", Role: domain.RoleMentor}
	class, err := service.Create(ctx, mentor, ClassInput{Name: "New"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if class.JoinCode != "bbbbbbbb" {
		t.Fatalf("expected regenerated code, got %q", class.JoinCode)
	}

	service.joinCode = func() (string, error) { return "aaaaaaaa", nil }
	if _, err := service.Create(ctx, mentor, ClassInput{Name: "Another"}); !errors.Is(err, domain.ErrJoinCodeTaken) {
		t.Fatalf("expected join code exhaustion, got %v", err)
	}
}
