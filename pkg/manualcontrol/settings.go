package manualcontrol

import (
	"fmt"
	"time"

	"github.com/openfcs/flightinput/pkg/receiver"
)

// ChannelConfig maps one logical channel onto a source group and
// physical channel, with its pulse calibration. Min may exceed Max for
// reversed channels.
type ChannelConfig struct {
	Group   receiver.Group
	Number  int
	Min     int
	Max     int
	Neutral int
}

// Assigned reports whether the channel is mapped to a source group.
func (c ChannelConfig) Assigned() bool {
	return c.Group.Valid()
}

// ArmingMethod selects the arming gesture source, or one of the two
// unconditional modes.
type ArmingMethod uint8

// Arming methods
const (
	ArmAlwaysDisarmed ArmingMethod = iota
	ArmAlwaysArmed
	ArmRollLeft
	ArmRollRight
	ArmPitchForward
	ArmPitchAft
	ArmYawLeft
	ArmYawRight
	ArmAccessory0
	ArmAccessory1
	ArmAccessory2
)

var armingMethodNames = [...]string{
	"AlwaysDisarmed", "AlwaysArmed",
	"RollLeft", "RollRight", "PitchForward", "PitchAft",
	"YawLeft", "YawRight",
	"Accessory0", "Accessory1", "Accessory2",
}

// String returns the arming method name.
func (m ArmingMethod) String() string {
	if int(m) >= len(armingMethodNames) {
		return "Unknown"
	}
	return armingMethodNames[m]
}

// Accessory returns which accessory channel drives the arming gesture
// and whether the method is accessory-based at all.
func (m ArmingMethod) Accessory() (Channel, bool) {
	switch m {
	case ArmAccessory0:
		return ChannelAccessory0, true
	case ArmAccessory1:
		return ChannelAccessory1, true
	case ArmAccessory2:
		return ChannelAccessory2, true
	default:
		return 0, false
	}
}

// StabilizationMode is the per-axis stabilization sub-mode within a
// stabilized bank.
type StabilizationMode uint8

// Stabilization sub-modes
const (
	StabNone StabilizationMode = iota
	StabRate
	StabWeakLeveling
	StabAttitude
	StabAxisLock
	StabVirtualBar
	StabRattitude
	StabRelayRate
	StabRelayAttitude
)

var stabilizationModeNames = [...]string{
	"None", "Rate", "WeakLeveling", "Attitude", "AxisLock",
	"VirtualBar", "Rattitude", "RelayRate", "RelayAttitude",
}

// String returns the sub-mode name.
func (m StabilizationMode) String() string {
	if int(m) >= len(stabilizationModeNames) {
		return "Unknown"
	}
	return stabilizationModeNames[m]
}

// StabilizationBank is the per-axis sub-mode selection for one
// stabilized flight mode.
type StabilizationBank struct {
	Roll  StabilizationMode
	Pitch StabilizationMode
	Yaw   StabilizationMode
}

// BankLimits are the stick scale factors shared by the stabilized
// banks: manual rate limits (deg/s) and maximum attitude angles (deg).
type BankLimits struct {
	ManualRateRoll  float64
	ManualRatePitch float64
	ManualRateYaw   float64

	RollMax  float64
	PitchMax float64
	YawMax   float64
}

// AltitudeHoldSettings tunes the altitude-vario throttle response.
type AltitudeHoldSettings struct {
	// ThrottleRate is the max climb/descend rate (m/s) at full
	// throttle deflection.
	ThrottleRate float64

	// ThrottleExp bends the response curve, 0 (linear) to 255.
	ThrottleExp uint8

	// CutThrottleWhenZero passes negative throttle straight through
	// instead of holding altitude.
	CutThrottleWhenZero bool
}

// FailsafeNone disables the failsafe flight-mode override.
const FailsafeNone = 0

// Settings is the configuration snapshot the pipeline works from. It
// is copied from the settings store at the start of each cycle, so a
// concurrent change is either fully visible next cycle or not at all.
type Settings struct {
	// Channels is indexed by Channel.
	Channels [NumChannels]ChannelConfig

	// Deadband is the symmetric zero zone applied to Roll/Pitch/Yaw.
	Deadband float64

	// ResponseTime enables input smoothing per channel; zero disables
	// filtering for that channel.
	ResponseTime [NumChannels]time.Duration

	Arming                ArmingMethod
	ArmingSequenceTime    time.Duration
	DisarmingSequenceTime time.Duration

	// ArmedTimeout auto-disarms after this long at low throttle; zero
	// disables the timeout transition.
	ArmedTimeout time.Duration

	// FailsafeBehavior is the 1-based flight-mode slot forced on
	// disconnection, or FailsafeNone.
	FailsafeBehavior int

	// FlightModeCount is how many switch positions are configured.
	FlightModeCount int

	// FlightModes maps switch positions onto flight modes; only the
	// first FlightModeCount entries are used.
	FlightModes [MaxFlightModePositions]FlightMode

	// Stabilization holds the per-axis sub-modes for the three
	// stabilized banks.
	Stabilization [3]StabilizationBank

	Limits BankLimits

	// ReturnToBaseAltitudeOffset lifts the return-to-base target
	// above the current altitude (m).
	ReturnToBaseAltitudeOffset float64

	AltitudeHold AltitudeHoldSettings
}

// DefaultSettings returns a safe baseline: a single iBus receiver on
// channels 1-6, stick arming disabled (always disarmed), one manual
// flight mode.
func DefaultSettings() Settings {
	s := Settings{
		Deadband:              0.02,
		Arming:                ArmAlwaysDisarmed,
		ArmingSequenceTime:    1000 * time.Millisecond,
		DisarmingSequenceTime: 1000 * time.Millisecond,
		ArmedTimeout:          30 * time.Second,
		FailsafeBehavior:      FailsafeNone,
		FlightModeCount:       3,
		FlightModes: [MaxFlightModePositions]FlightMode{
			FlightModeManual, FlightModeStabilized1, FlightModeStabilized2,
		},
		Limits: BankLimits{
			ManualRateRoll:  220,
			ManualRatePitch: 220,
			ManualRateYaw:   220,
			RollMax:         55,
			PitchMax:        55,
			YawMax:          55,
		},
		ReturnToBaseAltitudeOffset: 10,
		AltitudeHold: AltitudeHoldSettings{
			ThrottleRate:        2,
			ThrottleExp:         128,
			CutThrottleWhenZero: true,
		},
	}
	for i := range s.Stabilization {
		s.Stabilization[i] = StabilizationBank{
			Roll:  StabAttitude,
			Pitch: StabAttitude,
			Yaw:   StabRate,
		}
	}
	for ch := 0; ch < NumChannels; ch++ {
		s.Channels[ch] = ChannelConfig{
			Group:   receiver.GroupNone,
			Min:     1000,
			Max:     2000,
			Neutral: 1500,
		}
	}
	for ch, num := range map[Channel]int{
		ChannelRoll: 1, ChannelPitch: 2, ChannelThrottle: 3,
		ChannelYaw: 4, ChannelFlightMode: 5, ChannelAccessory0: 6,
	} {
		s.Channels[ch].Group = receiver.GroupIBus
		s.Channels[ch].Number = num
	}
	// Throttle neutral sits at the bottom of the stick so that mid
	// stick scales to +0.5 and bottom stick to below zero.
	s.Channels[ChannelThrottle].Neutral = 1050
	return s
}

// Validate performs the static configuration consistency checks: the
// required axes must be mapped, and the flight-mode table must be
// coherent. Per-cycle driver checks (unbound group, sentinel reads)
// live in the runner because they depend on live samples.
func (s *Settings) Validate() error {
	for _, ch := range []Channel{ChannelRoll, ChannelPitch, ChannelYaw, ChannelThrottle} {
		if !s.Channels[ch].Assigned() {
			return fmt.Errorf("%w: %s channel has no source group", ErrBadChannelMapping, ch)
		}
	}
	if s.FlightModeCount < 1 || s.FlightModeCount > MaxFlightModePositions {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrBadFlightModeCount, s.FlightModeCount, MaxFlightModePositions)
	}
	if s.FlightModeCount > 1 && !s.Channels[ChannelFlightMode].Assigned() {
		return fmt.Errorf("%w: FlightMode channel has no source group", ErrBadChannelMapping)
	}
	if s.FailsafeBehavior != FailsafeNone &&
		(s.FailsafeBehavior < 1 || s.FailsafeBehavior > s.FlightModeCount) {
		return fmt.Errorf("%w: failsafe slot %d with %d positions", ErrBadFailsafe, s.FailsafeBehavior, s.FlightModeCount)
	}
	if s.Deadband < 0 {
		return fmt.Errorf("%w: deadband %v", ErrBadDeadband, s.Deadband)
	}
	return nil
}
