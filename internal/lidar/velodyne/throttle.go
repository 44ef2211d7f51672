package velodyne

import (
	"log"
	"sync"
	"time"
)

// logThrottle emits at most one log line per interval for a recurring
// condition, so per-point failures never flood the log.
type logThrottle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func newLogThrottle(interval time.Duration) *logThrottle {
	return &logThrottle{interval: interval}
}

func (t *logThrottle) Printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return
	}
	t.last = now
	log.Printf(format, args...)
}
