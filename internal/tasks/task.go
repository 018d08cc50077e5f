package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/listenr/internal/shared"
)

// TaskResult is what a [Task] delivers on completion.
type TaskResult[T any] struct {
	Value T
	Err   error
}

// Task runs a function in the background with its own cancellable context.
// Exactly one [TaskResult] is delivered on the Done channel.
type Task[T any] struct {
	cancel context.CancelFunc
	done   chan TaskResult[T]
}

// StartTask runs fn in a goroutine with a context derived from ctx.
func StartTask[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{cancel: cancel, done: make(chan TaskResult[T], 1)}

	go func() {
		defer cancel()
		v, err := fn(ctx)
		t.done <- TaskResult[T]{Value: v, Err: err}
	}()
	return t
}

// Done returns the channel the result is delivered on.
func (t *Task[T]) Done() <-chan TaskResult[T] {
	return t.done
}

// Cancel asks the task to stop. It does not wait for it.
func (t *Task[T]) Cancel() {
	t.cancel()
}

// Wait blocks until the task finishes or timeout elapses.
//
// On timeout the task is cancelled and Wait returns once it has stopped, with an error wrapping
// [shared.ErrTimeout] unless the task still completed cleanly. A non-positive timeout waits indefinitely.
func (t *Task[T]) Wait(timeout time.Duration) (T, error) {
	if timeout <= 0 {
		r := <-t.done
		return r.Value, r.Err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-t.done:
		return r.Value, r.Err
	case <-timer.C:
		t.cancel()
		r := <-t.done
		if r.Err == nil {
			return r.Value, nil
		}
		return r.Value, fmt.Errorf("%w after %s: %v", shared.ErrTimeout, timeout, r.Err)
	}
}
