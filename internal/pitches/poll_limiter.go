package pitches

import (
	"sync"
	"time"
)

const pollWindow = time.Second

// pollLimiter allows one status poll per user and pitch per window.
type pollLimiter struct {
	mu      sync.Mutex
	lastHit map[string]time.Time
	now     func() time.Time
	window  time.Duration
}

func newPollLimiter(window time.Duration, now func() time.Time) *pollLimiter {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = pollWindow
	}
	return &pollLimiter{lastHit: make(map[string]time.Time), now: now, window: window}
}

func (l *pollLimiter) Allow(userID, pitchID string) bool {
	if l == nil {
		return true
	}
	key := userID + "|" + pitchID
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastHit[key]; ok && now.Sub(last) < l.window {
		return false
	}
	l.lastHit[key] = now
	if len(l.lastHit) > 10000 {
		l.evict(now)
	}
	return true
}

func (l *pollLimiter) evict(now time.Time) {
	for k, t := range l.lastHit {
		if now.Sub(t) >= l.window {
			delete(l.lastHit, k)
		}
	}
}

func (l *pollLimiter) RetryAfterSeconds() int {
	if l == nil {
		return int(pollWindow.Seconds())
	}
	return max(1, int(l.window.Seconds()))
}
