// Package manualcontrol converts raw receiver channel pulses into
// vehicle commands and owns the arm/disarm decision. It runs once per
// fixed control period.
package manualcontrol

import "time"

// Control loop defaults
const (
	// DefaultPeriod is the nominal control period.
	DefaultPeriod = 20 * time.Millisecond
)

// Arming constants
const (
	// ArmedThreshold is the normalized stick/switch deflection that
	// counts as an arming or disarming gesture.
	ArmedThreshold = 0.50
)

// Connection detection constants
const (
	// ConnectionOffset widens the valid pulse window beyond the
	// configured min/max to allow a bit of calibration error or trim
	// offset (in microseconds).
	ConnectionOffset = 250

	// ConnectionHysteresis is how many consecutive agreeing samples
	// are needed before the connection status flips.
	ConnectionHysteresis = 10
)

// Receiver activity monitor constants
const (
	// ActivityChannelsPerGroup is the fixed number of channels the
	// monitor snapshots per source group.
	ActivityChannelsPerGroup = 12

	// ActivityMinRange is the noise floor: a channel must move more
	// than this many pulse units between samples to count as
	// operator activity.
	ActivityMinRange = 10

	// ActivityResetAfter is how long without any detected activity
	// before the monitor starts over from the first group.
	ActivityResetAfter = 5 * time.Second
)

// MaxFlightModePositions is the largest supported flight-mode switch
// position count.
const MaxFlightModePositions = 6
