package host

import (
	"fmt"
	"sync/atomic"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// Clock is the ledger height. Heights never decrease.
//
// Safe for concurrent use, although only the Host writer advances it.
type Clock struct {
	h atomic.Int64
}

// NewClock creates a clock at height 0.
func NewClock() *Clock {
	return &Clock{}
}

// Current returns the height without advancing.
func (c *Clock) Current() ir.Height {
	return ir.Height(c.h.Load())
}

// Advance mines one height and returns it.
func (c *Clock) Advance() ir.Height {
	return ir.Height(c.h.Add(1))
}

// AdvanceTo moves the clock to h. Staying at the current height is allowed.
func (c *Clock) AdvanceTo(h ir.Height) error {
	for {
		cur := c.h.Load()
		if int64(h) < cur {
			return fmt.Errorf("%w: %d < %d", ErrHeightRegression, h, cur)
		}
		if c.h.CompareAndSwap(cur, int64(h)) {
			return nil
		}
	}
}
