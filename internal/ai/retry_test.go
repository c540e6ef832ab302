package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicyNext(t *testing.T) {
	p := DefaultPolicy()

	t.Run("doubles per failed attempt", func(t *testing.T) {
		expected := []time.Duration{
			200 * time.Millisecond,
			400 * time.Millisecond,
			800 * time.Millisecond,
			1600 * time.Millisecond,
		}
		for i, want := range expected {
			delay, ok := p.Next(i + 1)
			assert.True(t, ok, "attempt %d should allow a retry", i+1)
			assert.Equal(t, want, delay, "attempt %d", i+1)
		}
	})

	t.Run("exhausted at max attempts", func(t *testing.T) {
		_, ok := p.Next(p.MaxAttempts)
		assert.False(t, ok)
		_, ok = p.Next(p.MaxAttempts + 1)
		assert.False(t, ok)
	})

	t.Run("invalid attempt numbers", func(t *testing.T) {
		_, ok := p.Next(0)
		assert.False(t, ok)
		_, ok = p.Next(-1)
		assert.False(t, ok)
	})

	t.Run("exponent is capped", func(t *testing.T) {
		long := Policy{
			MaxAttempts: 10,
			BaseDelay:   200 * time.Millisecond,
			Multiplier:  2,
			MaxExponent: 5,
		}
		capped, ok := long.Next(6)
		assert.True(t, ok)
		assert.Equal(t, 200*time.Millisecond*32, capped)

		beyond, ok := long.Next(9)
		assert.True(t, ok)
		assert.Equal(t, capped, beyond, "delay must plateau once the exponent caps")
	})
}

func TestPolicyJitterBounds(t *testing.T) {
	p := DefaultPolicy()
	for i := 0; i < 100; i++ {
		j := p.jitter()
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, p.JitterBound)
	}

	none := Policy{JitterBound: 0}
	assert.Equal(t, time.Duration(0), none.jitter())
}

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationID(ctx))

	tagged := WithCorrelationID(ctx, "req-123")
	assert.Equal(t, "req-123", CorrelationID(tagged))

	// An empty id must not shadow an existing one
	same := WithCorrelationID(tagged, "")
	assert.Equal(t, "req-123", CorrelationID(same))
}
