package manualcontrol

import "errors"

// Configuration consistency errors
var (
	// ErrBadChannelMapping indicates a required axis has no valid
	// group/channel mapping.
	ErrBadChannelMapping = errors.New("invalid channel mapping")

	// ErrBadFlightModeCount indicates the switch position count is
	// out of range.
	ErrBadFlightModeCount = errors.New("invalid flight mode count")

	// ErrBadFailsafe indicates the failsafe slot points outside the
	// configured flight-mode table.
	ErrBadFailsafe = errors.New("invalid failsafe behavior")

	// ErrBadDeadband indicates a negative deadband.
	ErrBadDeadband = errors.New("invalid deadband")
)
