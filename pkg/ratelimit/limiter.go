package ratelimit

import (
	"sync"
	"time"
)

// Limiter paces requests against the remote API.
type Limiter interface {
	// Wait blocks until the limiter allows another request.
	Wait()
	// Reset resets the limiter state.
	Reset()
}

// Interval is a fixed-interval pacer: each Wait blocks until at least the
// configured interval has passed since the previous one. Used between
// pagination pages, where the remote expects a polite gap rather than a
// request budget.
type Interval struct {
	interval time.Duration
	last     time.Time
	mu       sync.Mutex
}

// NewInterval creates a pacer with the given minimum gap between requests.
func NewInterval(interval time.Duration) *Interval {
	return &Interval{interval: interval}
}

// Wait blocks until the interval since the previous Wait has elapsed.
func (i *Interval) Wait() {
	i.mu.Lock()
	now := time.Now()
	sleep := i.interval - now.Sub(i.last)
	if sleep > 0 {
		i.last = now.Add(sleep)
	} else {
		i.last = now
	}
	i.mu.Unlock()

	if sleep > 0 {
		time.Sleep(sleep)
	}
}

// Reset clears the pacer so the next Wait proceeds immediately.
func (i *Interval) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.last = time.Time{}
}
