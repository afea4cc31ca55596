package gateway

import (
	"context"
	"net"
	"sync"
	"time"
)

const (
	authRateWindow   = 5 * time.Minute
	authRateMaxFails = 10
	authRateMaxIPs   = 10000
)

// authRateLimiter counts failed handshakes per remote host.
type authRateLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	now      func() time.Time
}

func newAuthRateLimiter() *authRateLimiter {
	return &authRateLimiter{failures: make(map[string][]time.Time), now: time.Now}
}

// run prunes stale entries every minute until ctx is done.
func (l *authRateLimiter) run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.prune()
		}
	}
}

func (l *authRateLimiter) prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for host := range l.failures {
		l.recentLocked(host)
	}
}

// recentLocked drops expired failures for host and returns what is left.
func (l *authRateLimiter) recentLocked(host string) []time.Time {
	cutoff := l.now().Add(-authRateWindow)
	times := l.failures[host]
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, host)
		return nil
	}
	l.failures[host] = kept
	return kept
}

func (l *authRateLimiter) allow(remoteAddr string) bool {
	host := hostOf(remoteAddr)
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recentLocked(host)) < authRateMaxFails
}

func (l *authRateLimiter) recordFailure(remoteAddr string) {
	host := hostOf(remoteAddr)
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.failures[host]; !ok && len(l.failures) >= authRateMaxIPs {
		var oldest string
		var oldestAt time.Time
		for h, times := range l.failures {
			if len(times) > 0 && (oldest == "" || times[0].Before(oldestAt)) {
				oldest, oldestAt = h, times[0]
			}
		}
		delete(l.failures, oldest)
	}
	l.failures[host] = append(l.failures[host], l.now())
}

func hostOf(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil || host == "" {
		return remoteAddr
	}
	return host
}
