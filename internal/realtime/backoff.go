package realtime

import (
	"math/rand"
	"time"
)

// Backoff produces a jittered exponential retry schedule: base delay
// doubling up to a cap, halved-plus-random jitter, reset after a
// successful connection.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64

	attempt int
	rng     *rand.Rand
}

// NewBackoff returns a schedule with the given knobs. Zero values fall
// back to 1s base, 30s cap, factor 2.
func NewBackoff(base, max time.Duration, factor float64) *Backoff {
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = 30 * time.Second
	}
	if factor < 1 {
		factor = 2
	}
	return &Backoff{
		Base:   base,
		Max:    max,
		Factor: factor,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the delay before the next attempt and advances the schedule.
func (b *Backoff) Next() time.Duration {
	d := float64(b.Base)
	for i := 0; i < b.attempt; i++ {
		d *= b.Factor
		if d >= float64(b.Max) {
			d = float64(b.Max)
			break
		}
	}
	b.attempt++

	// Full delay minus up to half of it, so retries spread out.
	half := int64(d / 2)
	jitter := time.Duration(0)
	if half > 0 {
		jitter = time.Duration(b.rng.Int63n(half))
	}
	return time.Duration(int64(d)/2) + jitter
}

// Reset restarts the schedule after a successful connection.
func (b *Backoff) Reset() {
	b.attempt = 0
}
