package framebuffer

import (
	"golang.org/x/sync/semaphore"
)

// Limiter bounds how many producers run at once. Each capture owns its own
// producer; the limiter only keeps the host from forking without bound.
type Limiter struct {
	sem *semaphore.Weighted
	max int64
}

// NewLimiter allows up to max concurrent captures. max <= 0 means 1.
func NewLimiter(max int) *Limiter {
	if max <= 0 {
		max = 1
	}
	return &Limiter{
		sem: semaphore.NewWeighted(int64(max)),
		max: int64(max),
	}
}

// TryAcquire takes a slot without blocking.
func (l *Limiter) TryAcquire() bool {
	return l.sem.TryAcquire(1)
}

// Release returns a slot.
func (l *Limiter) Release() {
	l.sem.Release(1)
}

// Max returns the slot count.
func (l *Limiter) Max() int {
	return int(l.max)
}
