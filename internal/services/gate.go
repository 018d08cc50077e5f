package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Clock abstracts time for [Gate] and retry backoff so tests can run without real sleeps.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock returns the wall-clock [Clock].
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Gate spaces outbound requests to one source at least interval apart.
//
// Every operation of a source shares the same Gate, so a search followed by a detail
// fetch still waits out the interval between them.
type Gate struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	clock    Clock
	interval time.Duration
}

// NewGate creates a fixed-interval [Gate]. A nil clock uses [RealClock].
func NewGate(interval time.Duration, clock Clock) *Gate {
	if clock == nil {
		clock = RealClock()
	}
	return &Gate{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		clock:    clock,
		interval: interval,
	}
}

// Interval is the minimum spacing between requests.
func (g *Gate) Interval() time.Duration { return g.interval }

// Wait blocks until the caller may send its next request.
func (g *Gate) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	now := g.clock.Now()
	r := g.limiter.ReserveN(now, 1)
	if !r.OK() {
		g.mu.Unlock()
		return fmt.Errorf("rate gate cannot grant a request every %v", g.interval)
	}
	delay := r.DelayFrom(now)
	// rate tracks float64 tokens, which can land a few ns short of the interval.
	if rem := delay % time.Microsecond; rem != 0 {
		delay += time.Microsecond - rem
	}
	g.mu.Unlock()

	if delay <= 0 {
		return nil
	}
	if err := g.clock.Sleep(ctx, delay); err != nil {
		r.CancelAt(g.clock.Now())
		return err
	}
	return nil
}
