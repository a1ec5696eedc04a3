package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/okhose/annals/internal/model"
)

// Limiter throttles ingestion per upstream source. Batch backfills can
// slam a single extraction queue or archive feed; limiting per sourceType
// keeps one noisy producer from starving the rest.
type Limiter struct {
	limiters     map[model.SourceType]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter with the given default per-source rate
func NewLimiter(perSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[model.SourceType]*rate.Limiter),
		defaultRate:  rate.Limit(perSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the source's limiter clears or ctx is done
func (l *Limiter) Wait(ctx context.Context, source model.SourceType) error {
	return l.getLimiter(source).Wait(ctx)
}

// Allow reports whether a request may proceed without waiting
func (l *Limiter) Allow(source model.SourceType) bool {
	return l.getLimiter(source).Allow()
}

func (l *Limiter) getLimiter(source model.SourceType) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[source]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[source]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[source] = limiter

	return limiter
}

// SetSourceRate overrides the rate for one source type
func (l *Limiter) SetSourceRate(source model.SourceType, perSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[source] = rate.NewLimiter(rate.Limit(perSecond), burst)
}
