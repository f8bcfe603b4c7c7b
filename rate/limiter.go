// Package rate keeps one token bucket per client and forgets buckets
// that go quiet.
package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter struct {
	burst  int
	rps    float64
	expiry time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// NewLimiter allows rps requests per second with the given burst per
// client id. Buckets idle longer than expiry are dropped, so a client
// coming back after a pause starts with a full burst again.
func NewLimiter(burst int, expiry time.Duration, rps float64) *Limiter {
	l := &Limiter{
		burst:    burst,
		rps:      rps,
		expiry:   expiry,
		visitors: make(map[string]*visitor),
	}
	go l.sweep()
	return l
}

// Check reports whether the client may proceed.
func (l *Limiter) Check(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[id]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.visitors[id] = v
	}
	v.lastSeen = time.Now()

	return v.bucket.Allow()
}

func (l *Limiter) sweep() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()

	for range tick.C {
		l.mu.Lock()
		for id, v := range l.visitors {
			if time.Since(v.lastSeen) > l.expiry {
				delete(l.visitors, id)
			}
		}
		l.mu.Unlock()
	}
}

// Every converts a per-event interval into a requests-per-second rate.
func Every(interval time.Duration) float64 {
	return float64(rate.Every(interval))
}
