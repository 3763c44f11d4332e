// Package sim provides an in-memory receiver driver with scripted
// channel values, used by the simulator tool and by tests.
package sim

import (
	"sync"

	"github.com/openfcs/flightinput/pkg/receiver"
)

// Driver is a receiver driver whose channel values are set by the
// caller instead of by hardware.
type Driver struct {
	mu       sync.Mutex
	values   []uint16
	timedOut bool
}

// New returns a simulated driver with the given channel count. All
// channels start at 1500 (nominal center pulse).
func New(numChannels int) *Driver {
	d := &Driver{values: make([]uint16, numChannels)}
	for i := range d.values {
		d.values[i] = 1500
	}
	return d
}

// NumChannels implements receiver.Driver.
func (d *Driver) NumChannels() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.values)
}

// Read implements receiver.Driver.
func (d *Driver) Read(channel int) receiver.Sample {
	d.mu.Lock()
	defer d.mu.Unlock()
	if channel < 1 || channel > len(d.values) {
		return receiver.Sample{Status: receiver.StatusInvalid}
	}
	if d.timedOut {
		return receiver.Sample{Status: receiver.StatusTimeout}
	}
	return receiver.Sample{Value: d.values[channel-1]}
}

// Set updates one channel's pulse value. Channel numbers are
// 1-indexed, matching Read.
func (d *Driver) Set(channel int, value uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if channel >= 1 && channel <= len(d.values) {
		d.values[channel-1] = value
	}
}

// SetAll updates every channel at once.
func (d *Driver) SetAll(values ...uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.values, values)
}

// SetTimedOut makes every subsequent Read report StatusTimeout until
// cleared, simulating a dead link.
func (d *Driver) SetTimedOut(timedOut bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timedOut = timedOut
}
