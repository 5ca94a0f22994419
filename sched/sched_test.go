package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestPool_RunsAll(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		tasks   int
	}{
		{"single worker", 1, 20},
		{"many workers", 8, 100},
		{"default workers", 0, 10},
		{"no tasks", 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(t.Context(), tt.workers)

			var count atomic.Int64

			for range tt.tasks {
				if err := p.Submit(func(context.Context) error {
					count.Add(1)

					return nil
				}); err != nil {
					t.Fatal(err)
				}
			}

			if err := p.Wait(); err != nil {
				t.Fatalf("Wait() = %v", err)
			}

			if got := count.Load(); got != int64(tt.tasks) {
				t.Errorf("ran %d tasks, want %d", got, tt.tasks)
			}
		})
	}
}

func TestPool_SelfSubmit(t *testing.T) {
	// a single worker must not deadlock when its task enqueues more work
	p := New(t.Context(), 1)

	var count atomic.Int64

	var spawn func(depth int) Task
	spawn = func(depth int) Task {
		return func(context.Context) error {
			count.Add(1)

			if depth == 0 {
				return nil
			}

			for range 2 {
				if err := p.Submit(spawn(depth - 1)); err != nil {
					return err
				}
			}

			return nil
		}
	}

	if err := p.Submit(spawn(4)); err != nil {
		t.Fatal(err)
	}

	if err := p.Wait(); err != nil {
		t.Fatalf("Wait() = %v", err)
	}

	// 1 + 2 + 4 + 8 + 16
	if got := count.Load(); got != 31 {
		t.Errorf("ran %d tasks, want 31", got)
	}
}

func TestPool_ErrorsDoNotCancelSiblings(t *testing.T) {
	p := New(t.Context(), 4)

	errA := errors.New("a failed")
	errB := errors.New("b failed")

	var ok atomic.Int64

	for i := range 10 {
		_ = p.Submit(func(context.Context) error {
			switch i {
			case 3:
				return errA
			case 7:
				return errB
			}

			ok.Add(1)

			return nil
		})
	}

	err := p.Wait()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Wait() = %v, want both task errors", err)
	}

	if got := ok.Load(); got != 8 {
		t.Errorf("%d tasks succeeded, want 8", got)
	}
}

func TestPool_Panic(t *testing.T) {
	p := New(t.Context(), 2)

	_ = p.Submit(func(context.Context) error { panic("boom") })

	if err := p.Wait(); !errors.Is(err, ErrPanic) {
		t.Errorf("Wait() = %v, want %v", err, ErrPanic)
	}
}

func TestPool_SubmitAfterWait(t *testing.T) {
	p := New(t.Context(), 1)

	if err := p.Wait(); err != nil {
		t.Fatal(err)
	}

	if err := p.Submit(func(context.Context) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit() after Wait = %v, want %v", err, ErrClosed)
	}
}
