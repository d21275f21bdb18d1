package sim

import "time"

// Clock converts wall-clock time into a number of fixed-size frames.
type Clock struct {
	step float64
	max  int
	acc  float64
}

// NewClock returns a clock releasing at most maxUpdates frames per Advance.
//
// Precondition: tickRate > 0 and maxUpdates > 0.
func NewClock(tickRate float64, maxUpdates int) *Clock {
	if tickRate <= 0 || maxUpdates <= 0 {
		panic("sim: clock needs a positive tick rate and update cap")
	}
	return &Clock{step: 1 / tickRate, max: maxUpdates}
}

// Step returns the frame length in seconds.
func (c *Clock) Step() float64 { return c.step }

// Advance accumulates elapsed time and returns how many frames to run.
// Whole frames beyond the cap are dropped; the fractional remainder carries.
func (c *Clock) Advance(elapsed time.Duration) int {
	if elapsed > 0 {
		c.acc += elapsed.Seconds()
	}
	n := int(c.acc / c.step)
	c.acc -= float64(n) * c.step
	return min(n, c.max)
}
