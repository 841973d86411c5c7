package realtime

import "time"

// Countdown is a phase boundary expressed as Unix seconds. Zero means no
// countdown is running.
type Countdown struct {
	To int64
}

// Active reports whether a boundary is set.
func (c Countdown) Active() bool {
	return c.To != 0
}

// Remaining returns the whole seconds left until the boundary, clamped at zero.
func (c Countdown) Remaining(now time.Time) int64 {
	if !c.Active() {
		return 0
	}
	left := c.To - now.Unix()
	if left < 0 {
		return 0
	}
	return left
}

// NextWake returns when the remaining value next changes, and false once the
// countdown is inactive or has reached zero.
func (c Countdown) NextWake(now time.Time) (time.Time, bool) {
	if c.Remaining(now) == 0 {
		return time.Time{}, false
	}
	return time.Unix(now.Unix()+1, 0), true
}
