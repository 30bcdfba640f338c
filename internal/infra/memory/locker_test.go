package memory

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestQuizLockerSerializesSameQuiz(t *testing.T) {
	locker := NewQuizLocker()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "quiz-1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected exclusive access, saw %d holders", maxSeen)
	}
	if locker.size() != 0 {
		t.Fatalf("expected lock entries to be released, got %d", locker.size())
	}
}

func TestQuizLockerDifferentQuizzesDoNotContend(t *testing.T) {
	locker := NewQuizLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("lock quiz-1: %v", err)
	}
	defer unlock()

	timeout, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	unlock2, err := locker.Lock(timeout, "quiz-2")
	if err != nil {
		t.Fatalf("lock quiz-2 while quiz-1 held: %v", err)
	}
	unlock2()
}

func TestQuizLockerHonorsContext(t *testing.T) {
	locker := NewQuizLocker()
	unlock, err := locker.Lock(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "quiz-1"); err == nil {
		t.Fatalf("expected context error while lock held")
	}

	unlock()
	unlock()
	if locker.size() != 0 {
		t.Fatalf("expected no lock entries, got %d", locker.size())
	}
}
