package ratelimiting

import (
	"context"
	"slices"
	"sync"
	"time"
)

// WindowLimiter allows at most limit operations to finish within any window.
// Operations that finished are remembered by their completion time.
type WindowLimiter struct {
	limit     int
	window    time.Duration
	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time

	slots chan struct{}

	mu       sync.Mutex
	finished []time.Time
}

func NewWindowLimitRequestLimiter(
	limit int,
	window time.Duration,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) *WindowLimiter {
	slots := make(chan struct{}, limit)
	finished := make([]time.Time, 0, limit)
	longAgo := nowFunc().Add(-window)
	for range limit {
		slots <- struct{}{}
		finished = append(finished, longAgo)
	}

	return &WindowLimiter{
		limit:     limit,
		window:    window,
		nowFunc:   nowFunc,
		afterFunc: afterFunc,

		slots:    slots,
		finished: finished,
	}
}

// Limit runs operation once the window allows it.
// Returns false without running the operation when ctx is done, or when the context
// deadline leaves less than minOperationTime after the wait.
func (l *WindowLimiter) Limit(ctx context.Context, minOperationTime time.Duration, operation func(ctx context.Context)) bool {
	select {
	case <-l.slots:
	case <-ctx.Done():
		return false
	}
	defer func() {
		l.slots <- struct{}{}
	}()

	oldest, ok := l.take(ctx, minOperationTime)
	if !ok {
		return false
	}

	if wait := l.waitFor(oldest); wait > 0 {
		select {
		case <-ctx.Done():
			l.put(oldest)
			return false
		case <-l.afterFunc(wait):
		}
	}

	operation(ctx)

	l.put(l.nowFunc())
	return true
}

func (l *WindowLimiter) waitFor(finishedAt time.Time) time.Duration {
	return l.window - l.nowFunc().Sub(finishedAt)
}

func (l *WindowLimiter) take(ctx context.Context, minOperationTime time.Duration) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	oldest := l.finished[0]
	if deadline, ok := ctx.Deadline(); ok {
		if l.waitFor(oldest)+minOperationTime > deadline.Sub(l.nowFunc()) {
			return time.Time{}, false
		}
	}

	l.finished = l.finished[1:]
	return oldest, true
}

func (l *WindowLimiter) put(finishedAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, _ := slices.BinarySearchFunc(l.finished, finishedAt, func(a, b time.Time) int {
		return a.Compare(b)
	})
	l.finished = slices.Insert(l.finished, i, finishedAt)
}
