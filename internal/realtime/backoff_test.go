package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffGrowsToCap(t *testing.T) {
	b := NewBackoff(time.Second, 8*time.Second, 2)

	// With jitter in [d/2, d), every delay stays inside the window for
	// its attempt and never exceeds the cap.
	expectedFull := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		8 * time.Second,
	}
	for i, full := range expectedFull {
		got := b.Next()
		assert.GreaterOrEqual(t, got, full/2, "attempt %d", i)
		assert.Less(t, got, full, "attempt %d", i)
	}
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoff(time.Second, time.Minute, 2)
	b.Next()
	b.Next()
	b.Next()
	b.Reset()

	got := b.Next()
	assert.GreaterOrEqual(t, got, 500*time.Millisecond)
	assert.Less(t, got, time.Second)
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(0, 0, 0)
	assert.Equal(t, time.Second, b.Base)
	assert.Equal(t, 30*time.Second, b.Max)
	assert.Equal(t, float64(2), b.Factor)
}
