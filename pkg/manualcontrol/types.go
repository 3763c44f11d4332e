package manualcontrol

import "github.com/openfcs/flightinput/pkg/receiver"

// Channel identifies one logical input of the pipeline. The ordering
// is load-bearing: arrays in Settings and Command are indexed by it.
type Channel int

// Logical channels
const (
	ChannelRoll Channel = iota
	ChannelPitch
	ChannelYaw
	ChannelThrottle
	ChannelCollective
	ChannelFlightMode
	ChannelAccessory0
	ChannelAccessory1
	ChannelAccessory2

	NumChannels = int(iota)
)

var channelNames = [NumChannels]string{
	"Roll", "Pitch", "Yaw", "Throttle", "Collective",
	"FlightMode", "Accessory0", "Accessory1", "Accessory2",
}

// String returns the channel name.
func (c Channel) String() string {
	if c < 0 || int(c) >= NumChannels {
		return "Invalid"
	}
	return channelNames[c]
}

// FlightMode is the vehicle's control-behavior category selected by
// the mode switch (or forced by failsafe).
type FlightMode uint8

// Flight modes
const (
	FlightModeManual FlightMode = iota
	FlightModeStabilized1
	FlightModeStabilized2
	FlightModeStabilized3
	FlightModeAutotune
	FlightModeAltitudeHold
	FlightModeAltitudeVario
	FlightModePositionHold
	FlightModePOI
	FlightModeReturnToBase
	FlightModeLand
	FlightModePathPlanner
)

var flightModeNames = [...]string{
	"Manual", "Stabilized1", "Stabilized2", "Stabilized3", "Autotune",
	"AltitudeHold", "AltitudeVario", "PositionHold", "POI",
	"ReturnToBase", "Land", "PathPlanner",
}

// String returns the flight mode name.
func (m FlightMode) String() string {
	if int(m) >= len(flightModeNames) {
		return "Undefined"
	}
	return flightModeNames[m]
}

// ModeCategory groups flight modes by which dispatcher handles them.
type ModeCategory uint8

// Mode categories
const (
	// CategoryUndefined means the mode maps to no handler. Reaching
	// it indicates a configuration or logic defect.
	CategoryUndefined ModeCategory = iota
	CategoryManual
	CategoryStabilized
	CategoryTuning
	CategoryGuidance
)

// Category returns the dispatch category of a flight mode.
func (m FlightMode) Category() ModeCategory {
	switch m {
	case FlightModeManual:
		return CategoryManual
	case FlightModeStabilized1, FlightModeStabilized2, FlightModeStabilized3:
		return CategoryStabilized
	case FlightModeAutotune:
		return CategoryTuning
	case FlightModeAltitudeHold, FlightModeAltitudeVario,
		FlightModePositionHold, FlightModePOI,
		FlightModeReturnToBase, FlightModeLand, FlightModePathPlanner:
		return CategoryGuidance
	default:
		return CategoryUndefined
	}
}

// ArmedStatus is the externally visible arming state.
type ArmedStatus uint8

// Armed statuses
const (
	StatusDisarmed ArmedStatus = iota
	StatusArming
	StatusArmed
)

var armedStatusNames = [...]string{"Disarmed", "Arming", "Armed"}

// String returns the status name.
func (s ArmedStatus) String() string {
	if int(s) >= len(armedStatusNames) {
		return "Unknown"
	}
	return armedStatusNames[s]
}

// Command is the per-cycle output of input processing: normalized
// stick values, the raw channel snapshot, connection status and the
// decoded mode-switch position.
type Command struct {
	Roll       float64
	Pitch      float64
	Yaw        float64
	Throttle   float64
	Collective float64

	Channels [NumChannels]receiver.Sample

	Connected                bool
	FlightModeSwitchPosition int
}

// FlightStatus is the published arming and flight-mode state.
type FlightStatus struct {
	Armed ArmedStatus
	Mode  FlightMode
}

// ActuatorDesired is the direct-mode output: conditioned stick values
// passed through to the mixer verbatim.
type ActuatorDesired struct {
	Roll     float64
	Pitch    float64
	Yaw      float64
	Throttle float64
}

// StabilizationDesired is the stabilized-mode output: per-axis desired
// values scaled by the sub-mode's rate or attitude limit.
type StabilizationDesired struct {
	Roll     float64
	Pitch    float64
	Yaw      float64
	Throttle float64

	// Mode carries the per-axis sub-mode (Roll, Pitch, Yaw order) so
	// the stabilization loop knows how to interpret each value.
	Mode [3]StabilizationMode
}

// AccessoryDesired is one accessory channel's conditioned value.
type AccessoryDesired struct {
	Value float64
}

// AltitudeControlMode selects how the altitude-hold setpoint is
// interpreted downstream.
type AltitudeControlMode uint8

// Altitude control modes
const (
	AltitudeControlAltitude AltitudeControlMode = iota
	AltitudeControlVelocity
	AltitudeControlThrottle
)

// AltitudeHoldDesired is the altitude-hold/vario guidance output.
type AltitudeHoldDesired struct {
	Roll  float64
	Pitch float64
	Yaw   float64

	SetPoint    float64
	ControlMode AltitudeControlMode
}

// NED is a local north/east/down position in meters. Down is positive
// toward the ground.
type NED struct {
	North float64
	East  float64
	Down  float64
}

// PathMode selects how a path segment is flown.
type PathMode uint8

// Path modes
const (
	PathModeFlyEndpoint PathMode = iota
)

// PathDesired is the position-hold/return-to-base/land guidance
// output.
type PathDesired struct {
	Start NED
	End   NED

	StartingVelocity float64
	EndingVelocity   float64

	Mode PathMode
}

// PositionState is the estimated vehicle position, produced by the
// sensor-fusion pipeline and consumed by the guidance handlers.
type PositionState struct {
	North float64
	East  float64
	Down  float64
}

// TelemetryStatus reports whether the ground link is up. It gates the
// ground-station command override.
type TelemetryStatus struct {
	Connected bool
}

// ActivityChannelNone marks "no active channel" in ReceiverActivity.
const ActivityChannelNone = -1

// ReceiverActivity reports which input source is currently receiving
// operator input, for diagnostics and auto-detection.
type ReceiverActivity struct {
	ActiveGroup   receiver.Group
	ActiveChannel int
}

// NoActivity is the cleared activity report.
func NoActivity() ReceiverActivity {
	return ReceiverActivity{ActiveGroup: receiver.GroupNone, ActiveChannel: ActivityChannelNone}
}
