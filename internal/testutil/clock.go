package testutil

import (
	"sync"
	"time"
)

// Clock testler için ayarlanabilir saat, eşzamanlı kullanılabilir.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock saati UTC'ye çevrilmiş start'tan başlatır.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC()}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance saati ilerletir, yeni zamanı döner.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t.UTC()
	c.mu.Unlock()
}
