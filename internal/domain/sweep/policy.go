package sweep

import "time"

// Defaults applied when a policy carries negative durations.
const (
	DefaultDelay = 1500 * time.Millisecond
	DefaultFade  = 750 * time.Millisecond
)

// Policy controls whether and how quickly completed items are swept away.
// Delay is the pause between completion and the fade cue; Fade is how long
// the surface gets to animate before the item is removed.
type Policy struct {
	Enabled bool
	Delay   time.Duration
	Fade    time.Duration
}

// normalized replaces negative durations with the defaults. Zero is kept
// as-is and means "immediately".
func (p Policy) normalized() Policy {
	if p.Delay < 0 {
		p.Delay = DefaultDelay
	}
	if p.Fade < 0 {
		p.Fade = DefaultFade
	}
	return p
}
