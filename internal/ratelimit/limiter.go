// Package ratelimit enforces a per-client fixed-window request budget
// at the serving boundary. Windows reset lazily on the first request
// after expiry; a periodic sweep clears clients that went quiet.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/memescout/memescout/internal/metadata"
)

const (
	DefaultWindow = time.Minute
	DefaultLimit  = 60

	DefaultSweepInterval = 5 * time.Minute
)

type FixedWindowLimiter struct {
	mu           sync.RWMutex
	windows      map[string]clientWindow
	window       time.Duration
	limit        int
	metadataSink metadata.Sink

	// now is swappable for window tests.
	now func() time.Time
}

func NewFixedWindowLimiter(metadataSink metadata.Sink, window time.Duration, limit int) *FixedWindowLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &FixedWindowLimiter{
		windows:      make(map[string]clientWindow),
		window:       window,
		limit:        limit,
		metadataSink: metadataSink,
		now:          time.Now,
	}
}

// SetNowFunc replaces the limiter's clock, for window tests.
func (l *FixedWindowLimiter) SetNowFunc(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Allow records one request for the client and reports whether it fits
// in the current window.
func (l *FixedWindowLimiter) Allow(clientKey string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[clientKey]
	if !exists || now.Sub(w.windowStart) >= l.window {
		w = clientWindow{windowStart: now}
	}

	if w.count >= l.limit {
		l.metadataSink.RecordRateLimit(clientKey, w.count, true)
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: w.windowStart.Add(l.window).Sub(now),
		}
	}

	w.count++
	l.windows[clientKey] = w
	l.metadataSink.RecordRateLimit(clientKey, w.count, false)
	return Decision{
		Allowed:   true,
		Remaining: l.limit - w.count,
	}
}

// Sweep drops clients whose window has fully lapsed and returns how
// many were removed.
func (l *FixedWindowLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for clientKey, w := range l.windows {
		if now.Sub(w.windowStart) >= l.window {
			delete(l.windows, clientKey)
			removed++
		}
	}
	return removed
}

// StartSweeper runs periodic sweeps until the context is cancelled.
func (l *FixedWindowLimiter) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}

// Stats reports current limiter occupancy. Lapsed windows still
// counted here disappear on the next sweep.
func (l *FixedWindowLimiter) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := Stats{TrackedClients: len(l.windows)}
	for _, w := range l.windows {
		stats.TotalRequestsTracked += w.count
	}
	return stats
}
