package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffGrowsToCap(t *testing.T) {
	s := &Subscriber{}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, s.backoffLocked(), "attempt %d", i)
	}
}

func TestBackoffStaysPositiveOverLongOutages(t *testing.T) {
	s := &Subscriber{}

	// An outage long past the shift width of a duration must keep
	// returning the cap, never a negative (immediate) delay.
	for i := 0; i < 100; i++ {
		delay := s.backoffLocked()
		require.Positive(t, delay, "attempt %d", i)
		require.LessOrEqual(t, delay, maxBackoff, "attempt %d", i)
	}
	assert.Equal(t, maxBackoff, s.backoffLocked())
}
