package clock

import "time"

// FakeClock pins Now to a fixed instant so recency windows and stale
// cutoffs stay deterministic in tests.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the pinned instant forward, e.g. across a recency-band
// boundary.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
