package core

import (
	"errors"
	"fmt"
	"sync"
)

// ErrModelCallLimit is returned once a run exceeds its model call budget.
var ErrModelCallLimit = errors.New("model call limit exceeded")

// ModelLimiter enforces a maximum number of allowed model calls per run. A
// single limiter is shared by a lead agent and every subagent it spawns.
type ModelLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewModelLimiter creates a new limiter with a max number of calls.
// If max == 0, unlimited calls are allowed.
func NewModelLimiter(max int) *ModelLimiter {
	return &ModelLimiter{max: max}
}

// Increment increases the call counter and returns an error if the limit is exceeded.
func (ml *ModelLimiter) Increment() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	ml.count++
	if ml.max > 0 && ml.count > ml.max {
		return fmt.Errorf("%w: %d", ErrModelCallLimit, ml.max)
	}

	return nil
}

// Count returns the current number of calls made.
func (ml *ModelLimiter) Count() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	return ml.count
}

// Remaining returns how many calls are left, or -1 when unlimited.
func (ml *ModelLimiter) Remaining() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.max == 0 {
		return -1
	}

	if ml.count >= ml.max {
		return 0
	}

	return ml.max - ml.count
}
