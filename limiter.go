package racepub

import (
	"sync"
	"time"
)

// AuthLimiter counts failed admin authentications per IP address over a
// sliding window.
type AuthLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	max      int
	window   time.Duration
	stop     chan struct{}
	once     sync.Once
}

// NewAuthLimiter creates an AuthLimiter that blocks an IP after max failures
// within window. Call Stop to end its background sweeper.
func NewAuthLimiter(max int, window time.Duration) *AuthLimiter {
	l := &AuthLimiter{
		failures: make(map[string][]time.Time),
		max:      max,
		window:   window,
		stop:     make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *AuthLimiter) sweep() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}
		cutoff := time.Now().Add(-l.window)
		l.mu.Lock()
		for ip := range l.failures {
			if kept := l.prune(ip, cutoff); len(kept) == 0 {
				delete(l.failures, ip)
			}
		}
		l.mu.Unlock()
	}
}

// prune drops failures older than cutoff. Callers hold l.mu.
func (l *AuthLimiter) prune(ip string, cutoff time.Time) []time.Time {
	hits := l.failures[ip]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.failures[ip] = kept
	return kept
}

// Check returns true if the IP may still attempt to authenticate.
// It does not record anything; call Fail after a rejected attempt.
func (l *AuthLimiter) Check(ip string) bool {
	cutoff := time.Now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(ip, cutoff)) < l.max
}

// Fail records a rejected attempt for the IP.
func (l *AuthLimiter) Fail(ip string) {
	l.mu.Lock()
	l.failures[ip] = append(l.failures[ip], time.Now())
	l.mu.Unlock()
}

// Reset forgets the failures of the IP, e.g. after a successful login.
func (l *AuthLimiter) Reset(ip string) {
	l.mu.Lock()
	delete(l.failures, ip)
	l.mu.Unlock()
}

// Stop ends the background sweeper. It is safe to call more than once.
func (l *AuthLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
