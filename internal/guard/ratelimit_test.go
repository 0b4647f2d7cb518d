package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Run("allows up to the limit then blocks", func(t *testing.T) {
		rl := NewRateLimiter(3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, rl.Check("user-a").Allowed)
		}
		blocked := rl.Check("user-a")
		assert.False(t, blocked.Allowed)
		assert.Contains(t, blocked.Reason, "rate limit exceeded")
	})

	t.Run("keys are independent", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Minute)

		assert.True(t, rl.Check("user-a").Allowed)
		assert.False(t, rl.Check("user-a").Allowed)
		assert.True(t, rl.Check("user-b").Allowed)
	})

	t.Run("window slides", func(t *testing.T) {
		rl := NewRateLimiter(1, 10*time.Millisecond)

		assert.True(t, rl.Check("user-a").Allowed)
		assert.False(t, rl.Check("user-a").Allowed)
		time.Sleep(15 * time.Millisecond)
		assert.True(t, rl.Check("user-a").Allowed)
	})

	t.Run("zero limit disables the limiter", func(t *testing.T) {
		rl := NewRateLimiter(0, time.Minute)
		for i := 0; i < 100; i++ {
			assert.True(t, rl.Check("user-a").Allowed)
		}
	})

	t.Run("nil limiter allows everything", func(t *testing.T) {
		var rl *RateLimiter
		assert.True(t, rl.Check("user-a").Allowed)
	})
}
