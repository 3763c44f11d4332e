package manualcontrol

import (
	"math"
	"time"
)

// ApplyDeadband zeroes values inside the symmetric deadband and shifts
// the remaining range inward so there is no step at the band edge.
func ApplyDeadband(value, deadband float64) float64 {
	if math.Abs(value) < deadband {
		return 0
	}
	if value > 0 {
		return value - deadband
	}
	return value + deadband
}

// LowPassFilter smooths normalized channel values with a first-order
// filter whose time constant is the channel's configured response
// time. One state slot per logical channel.
type LowPassFilter struct {
	state [NumChannels]float64
}

// Apply filters one channel's value. A zero response time disables
// filtering for the channel and passes the value through. dT must be
// positive; the runner substitutes the nominal period when the clock
// has not advanced.
func (f *LowPassFilter) Apply(ch Channel, value float64, responseTime, dT time.Duration) float64 {
	if responseTime <= 0 {
		return value
	}
	rt := responseTime.Seconds()
	dt := dT.Seconds()
	f.state[ch] = (rt*f.state[ch] + dt*value) / (rt + dt)
	return f.state[ch]
}

// Reset clears the filter state for all channels.
func (f *LowPassFilter) Reset() {
	f.state = [NumChannels]float64{}
}
