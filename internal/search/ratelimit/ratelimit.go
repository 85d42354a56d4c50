package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter applies a token bucket per key (client IP). Each bucket holds up to
// limit tokens and refills at limit tokens per window.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a Limiter allowing limit requests per window for each key.
// A limit of zero or less rejects everything.
func New(limit int, window time.Duration) *Limiter {
	return newLimiter(limit, window, time.Now, 5*time.Minute)
}

func newLimiter(limit int, window time.Duration, now func() time.Time, sweep time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     now,
		done:    make(chan struct{}),
	}
	if sweep > 0 {
		go l.cleanup(sweep)
	}
	return l
}

// Close stops the background cleanup goroutine. It is safe to call twice.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.done) })
}

// Allow reports whether a request for key may proceed, consuming a token if
// so.
func (l *Limiter) Allow(key string) bool {
	if l.limit <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Sweep drops buckets idle for more than two windows; by then they have
// refilled completely.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > 2*l.window {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-l.done:
			return
		}
	}
}
