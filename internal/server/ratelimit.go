package server

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultRequestsPerMinute = 120
	defaultBurst             = 20

	// Clients silent for this long lose their bucket and start over with a full one.
	clientIdleTimeout = 10 * time.Minute
)

type clientBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// clientLimiter rate limits API callers by client key (remote IP).
type clientLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*clientBucket

	stop     chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func newClientLimiter(requestsPerMinute, burst int, logger *zap.Logger) *clientLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = defaultRequestsPerMinute
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &clientLimiter{
		limit:   rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:   burst,
		idle:    clientIdleTimeout,
		now:     time.Now,
		buckets: make(map[string]*clientBucket),
		stop:    make(chan struct{}),
		logger:  logger,
	}

	go l.sweepLoop()
	return l
}

// Allow takes one token from the bucket of client. It never blocks.
func (l *clientLimiter) Allow(client string) bool {
	l.mu.Lock()
	b, ok := l.buckets[client]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[client] = b
	}
	b.seen = l.now()
	l.mu.Unlock()

	return b.limiter.Allow()
}

// Clients returns the number of tracked clients.
func (l *clientLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweep forgets clients idle for longer than the idle timeout and returns how many were dropped.
func (l *clientLimiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idle)
	dropped := 0
	for client, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, client)
			dropped++
		}
	}
	return dropped
}

func (l *clientLimiter) sweepLoop() {
	ticker := time.NewTicker(l.idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			if dropped := l.sweep(); dropped > 0 {
				l.logger.Debug("idle rate limit buckets dropped", zap.Int("dropped", dropped), zap.Int("clients", l.Clients()))
			}
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (l *clientLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}
