package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Class identifies an endpoint budget. Authentication endpoints get a
// stricter budget than the general API surface; both share one window
// length.
type Class string

const (
	ClassAuth Class = "auth"
	ClassAPI  Class = "api"
)

// Limit is the per-class budget: at most Max requests per Window.
type Limit struct {
	Max    int
	Window time.Duration
}

// Config holds the limiter configuration.
type Config struct {
	Auth          Limit
	API           Limit
	SweepInterval time.Duration
}

// Result reports the outcome of a Check with enough detail for standard
// rate-limit response headers.
type Result struct {
	Allowed           bool
	Limit             int
	Remaining         int
	ResetAt           time.Time
	RetryAfterSeconds int // ceil of time until the window resets; 0 when allowed
}

type record struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window request counter keyed by (class, client
// identity). State is process-local and in-memory, which is only
// acceptable for a single-instance deployment.
type Limiter struct {
	mu      sync.Mutex
	limits  map[Class]Limit
	records map[string]record

	sweepInterval time.Duration
	now           func() time.Time
	logger        *slog.Logger
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// New creates a Limiter. Unknown classes fall back to the API budget.
func New(cfg Config, logger *slog.Logger) *Limiter {
	return &Limiter{
		limits: map[Class]Limit{
			ClassAuth: cfg.Auth,
			ClassAPI:  cfg.API,
		},
		records:       make(map[string]record),
		sweepInterval: cfg.SweepInterval,
		now:           time.Now,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}
}

// Check admits or denies one request for the given class and client
// identity. The read-increment-write on a key is serialized under the
// limiter mutex, so burst traffic cannot exceed the configured maximum.
// Denial never returns an error; retry metadata is in the Result.
func (l *Limiter) Check(class Class, clientID string) Result {
	limit, ok := l.limits[class]
	if !ok {
		limit = l.limits[ClassAPI]
	}

	key := string(class) + ":" + clientID
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, exists := l.records[key]
	if !exists || now.After(rec.resetAt) {
		// First request of a new window; the old record is replaced,
		// not merged.
		rec = record{count: 1, resetAt: now.Add(limit.Window)}
		l.records[key] = rec
		return Result{
			Allowed:   true,
			Limit:     limit.Max,
			Remaining: limit.Max - 1,
			ResetAt:   rec.resetAt,
		}
	}

	if rec.count >= limit.Max {
		return Result{
			Allowed:           false,
			Limit:             limit.Max,
			Remaining:         0,
			ResetAt:           rec.resetAt,
			RetryAfterSeconds: ceilSeconds(rec.resetAt.Sub(now)),
		}
	}

	rec.count++
	l.records[key] = rec
	return Result{
		Allowed:   true,
		Limit:     limit.Max,
		Remaining: limit.Max - rec.count,
		ResetAt:   rec.resetAt,
	}
}

// Start runs the periodic sweep that deletes expired records, bounding
// memory growth. This is best-effort housekeeping: an expired record that
// has not been swept yet is still treated as expired by Check.
func (l *Limiter) Start(ctx context.Context) {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopCh:
			l.logger.Info("rate limiter sweep stopped")
			return
		case <-ctx.Done():
			l.logger.Info("rate limiter sweep context cancelled")
			return
		}
	}
}

// Stop signals the sweep goroutine to exit.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *Limiter) sweep() {
	now := l.now()

	l.mu.Lock()
	removed := 0
	for key, rec := range l.records {
		if now.After(rec.resetAt) {
			delete(l.records, key)
			removed++
		}
	}
	remaining := len(l.records)
	l.mu.Unlock()

	if removed > 0 {
		l.logger.Debug("rate limit records swept",
			slog.Int("removed", removed),
			slog.Int("remaining", remaining))
	}
}

func ceilSeconds(d time.Duration) int {
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	if secs < 0 {
		return 0
	}
	return secs
}
