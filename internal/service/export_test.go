package service

import "time"

// SetClock swaps the limiter clock in tests.
func (tb *TokenBucket) SetClock(now func() time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.now = now
}

// RemoveStale runs one sweep immediately.
func (tb *TokenBucket) RemoveStale() {
	tb.removeStale()
}
