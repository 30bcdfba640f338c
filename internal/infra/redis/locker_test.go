package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestQuizLockerSetsAndClearsKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	locker := NewQuizLocker(newClient(mr), time.Minute)
	unlock, err := locker.Lock(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !mr.Exists("quiz:quiz-1:lock") {
		t.Fatalf("expected redis lock key to be set")
	}

	unlock()
	if mr.Exists("quiz:quiz-1:lock") {
		t.Fatalf("expected redis lock key to be removed")
	}
}

func TestQuizLockerBlocksSecondHolder(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	locker := NewQuizLocker(newClient(mr), time.Minute)
	unlock, err := locker.Lock(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "quiz-1"); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected lock timeout, got %v", err)
	}

	other, err := locker.Lock(context.Background(), "quiz-2")
	if err != nil {
		t.Fatalf("lock of another quiz should not block: %v", err)
	}
	other()
}

func TestQuizLockerReleaseKeepsForeignToken(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	locker := NewQuizLocker(newClient(mr), time.Second)
	unlock, err := locker.Lock(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	// The lock expires and another instance takes it.
	mr.FastForward(2 * time.Second)
	if err := mr.Set("quiz:quiz-1:lock", "someone-else"); err != nil {
		t.Fatalf("seed foreign lock: %v", err)
	}

	unlock()
	if got, _ := mr.Get("quiz:quiz-1:lock"); got != "someone-else" {
		t.Fatalf("expected foreign lock to survive release, got %q", got)
	}
}

func TestQuizLockerHandsOverToWaiter(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	locker := NewQuizLocker(newClient(mr), time.Minute)
	unlock, err := locker.Lock(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	acquired := make(chan error, 1)
	go func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		next, err := locker.Lock(ctx, "quiz-1")
		if err == nil {
			next()
		}
		acquired <- err
	}()

	time.Sleep(30 * time.Millisecond)
	unlock()
	wg.Wait()
	if err := <-acquired; err != nil {
		t.Fatalf("waiter did not acquire lock: %v", err)
	}
}
