package core

import (
	"errors"
	"fmt"
)

// ErrBudgetExhausted is returned by Consume once every turn has been spent.
var ErrBudgetExhausted = errors.New("iteration budget exhausted")

// IterationBudget counts reasoning turns for one task execution. The counter
// only moves forward and refuses to go past max. It belongs to a single loop
// and is not safe for concurrent use.
type IterationBudget struct {
	max  int
	used int
}

// NewIterationBudget creates a budget allowing max turns (max >= 1).
func NewIterationBudget(max int) (*IterationBudget, error) {
	if max < 1 {
		return nil, fmt.Errorf("max iterations must be >= 1, got %d", max)
	}
	return &IterationBudget{max: max}, nil
}

// Consume claims the next turn. It returns ErrBudgetExhausted instead of
// exceeding the maximum.
func (b *IterationBudget) Consume() error {
	if b.used >= b.max {
		return fmt.Errorf("%w: %d/%d", ErrBudgetExhausted, b.used, b.max)
	}
	b.used++
	return nil
}

// Used returns how many turns have been claimed.
func (b *IterationBudget) Used() int { return b.used }

// Remaining returns how many turns are left.
func (b *IterationBudget) Remaining() int { return b.max - b.used }

// Max returns the configured maximum.
func (b *IterationBudget) Max() int { return b.max }

// Exhausted reports whether no turns are left.
func (b *IterationBudget) Exhausted() bool { return b.used >= b.max }
