package gateway

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuthRateLimiter(t *testing.T) {
	l := newAuthRateLimiter()
	now := time.Now()
	l.now = func() time.Time { return now }

	for i := 0; i < authRateMaxFails; i++ {
		assert.True(t, l.allow("10.0.0.1:5000"))
		l.recordFailure(fmt.Sprintf("10.0.0.1:%d", 5000+i))
	}
	assert.False(t, l.allow("10.0.0.1:6000"), "ports share a host budget")
	assert.True(t, l.allow("10.0.0.2:5000"))

	now = now.Add(authRateWindow + time.Second)
	assert.True(t, l.allow("10.0.0.1:6000"), "failures expire")
	assert.Empty(t, l.failures)
}

func TestAuthRateLimiter_Prune(t *testing.T) {
	l := newAuthRateLimiter()
	now := time.Now()
	l.now = func() time.Time { return now }

	l.recordFailure("10.0.0.1:1")
	l.recordFailure("10.0.0.2:1")
	now = now.Add(authRateWindow / 2)
	l.recordFailure("10.0.0.2:1")
	now = now.Add(authRateWindow/2 + time.Second)

	l.prune()
	assert.NotContains(t, l.failures, "10.0.0.1")
	assert.Len(t, l.failures["10.0.0.2"], 1)
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "10.0.0.1", hostOf("10.0.0.1:80"))
	assert.Equal(t, "::1", hostOf("[::1]:80"))
	assert.Equal(t, "pipe", hostOf("pipe"))
}
