package service

import (
	"context"
	"time"
)

// Latency holds the artificial delay a simulated backend waits before each
// operation completes.
type Latency struct {
	List   time.Duration
	Get    time.Duration
	Create time.Duration
	Update time.Duration
	Delete time.Duration
}

// Scale multiplies every delay by f. A non-positive f disables latency.
func (l Latency) Scale(f float64) Latency {
	if f <= 0 {
		return Latency{}
	}
	scale := func(d time.Duration) time.Duration { return time.Duration(float64(d) * f) }
	return Latency{
		List:   scale(l.List),
		Get:    scale(l.Get),
		Create: scale(l.Create),
		Update: scale(l.Update),
		Delete: scale(l.Delete),
	}
}

// For returns the delay configured for op.
func (l Latency) For(op Op) time.Duration {
	switch op {
	case OpList:
		return l.List
	case OpGet:
		return l.Get
	case OpCreate:
		return l.Create
	case OpUpdate:
		return l.Update
	case OpDelete:
		return l.Delete
	default:
		return 0
	}
}

// Wait blocks for the delay configured for op or until ctx is done.
func (l Latency) Wait(ctx context.Context, op Op) error {
	d := l.For(op)
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
