package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/listenr/internal/shared"
)

func TestTask(t *testing.T) {
	t.Run("delivers the result", func(t *testing.T) {
		task := StartTask(context.Background(), func(ctx context.Context) (int, error) {
			return 42, nil
		})
		v, err := task.Wait(time.Second)
		if err != nil || v != 42 {
			t.Errorf("expected 42, got %d (%v)", v, err)
		}
	})

	t.Run("times out and cancels", func(t *testing.T) {
		stopped := make(chan struct{})
		task := StartTask(context.Background(), func(ctx context.Context) (string, error) {
			<-ctx.Done()
			close(stopped)
			return "", ctx.Err()
		})

		_, err := task.Wait(10 * time.Millisecond)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
		select {
		case <-stopped:
		default:
			t.Error("expected the task to have stopped before Wait returned")
		}
	})

	t.Run("Cancel reaches the task", func(t *testing.T) {
		task := StartTask(context.Background(), func(ctx context.Context) (struct{}, error) {
			<-ctx.Done()
			return struct{}{}, ctx.Err()
		})
		task.Cancel()

		r := <-task.Done()
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", r.Err)
		}
	})

	t.Run("parent cancellation propagates", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		task := StartTask(ctx, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		cancel()

		if _, err := task.Wait(0); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
