package manualcontrol

import "time"

// ArmState is the internal arming state machine state. It is mutated
// only by Arming.Step; everything else reads the published
// ArmedStatus instead.
type ArmState uint8

// Arming states
const (
	ArmStateDisarmed ArmState = iota
	ArmStateArmingManual
	ArmStateArmed
	ArmStateDisarmingManual
	ArmStateDisarmingTimeout
)

var armStateNames = [...]string{
	"Disarmed", "ArmingManual", "Armed", "DisarmingManual", "DisarmingTimeout",
}

// String returns the state name.
func (s ArmState) String() string {
	if int(s) >= len(armStateNames) {
		return "Unknown"
	}
	return armStateNames[s]
}

// ArmInput is everything the state machine looks at in one cycle.
type ArmInput struct {
	Roll     float64
	Pitch    float64
	Yaw      float64
	Throttle float64

	Connected bool

	// ArmSwitch is the accessory-gesture result: +1 arm, -1 disarm,
	// 0 neutral. Only meaningful for accessory arming methods.
	ArmSwitch int

	// ForcedDisarm is the guidance-layer critical fault signal. It
	// wins over everything else on the same cycle.
	ForcedDisarm bool

	// OKToArm is the pre-arm safety check result.
	OKToArm bool
}

// Arming is the arm/disarm state machine context. All timer state
// lives here; there are no package-level statics.
type Arming struct {
	state ArmState
	since time.Time
}

// NewArming returns a disarmed state machine.
func NewArming() *Arming {
	return &Arming{state: ArmStateDisarmed}
}

// State returns the current internal state.
func (a *Arming) State() ArmState {
	return a.state
}

// ForceDisarm drops straight to Disarmed, bypassing gestures and
// timers. Used for the configuration-inconsistency path where the
// rest of the cycle is skipped.
func (a *Arming) ForceDisarm() {
	a.state = ArmStateDisarmed
}

// Step advances the state machine one cycle and returns the status to
// publish. now must come from a monotonic clock; all timing guards are
// deltas against it.
func (a *Arming) Step(now time.Time, s *Settings, in ArmInput) ArmedStatus {
	lowThrottle := in.Throttle < 0

	// Disarming via accessory switch must be instant, so the switch
	// substitutes for low throttle.
	if _, accessory := s.Arming.Accessory(); accessory && in.ArmSwitch < 0 {
		lowThrottle = true
	}

	if in.ForcedDisarm {
		a.state = ArmStateDisarmed
		return StatusDisarmed
	}

	if s.Arming == ArmAlwaysDisarmed {
		a.state = ArmStateDisarmed
		return StatusDisarmed
	}

	// With no valid input the vehicle must behave as if the throttle
	// is low so a live disarm sequence can complete.
	if !in.Connected {
		lowThrottle = true
	}

	if !lowThrottle {
		// Abort any in-progress arming or disarming sequence.
		switch a.state {
		case ArmStateDisarmingManual, ArmStateDisarmingTimeout:
			a.state = ArmStateArmed
		case ArmStateArmingManual:
			a.state = ArmStateDisarmed
		}
		return a.status()
	}

	if s.Arming == ArmAlwaysArmed {
		a.state = ArmStateArmed
		return StatusArmed
	}

	manualArm, manualDisarm := classifyGesture(armingInputLevel(s.Arming, in))

	switch a.state {
	case ArmStateDisarmed:
		if manualArm && in.OKToArm {
			a.since = now
			a.state = ArmStateArmingManual
		}

	case ArmStateArmingManual:
		if manualArm && now.Sub(a.since) > s.ArmingSequenceTime {
			a.state = ArmStateArmed
		} else if !manualArm {
			a.state = ArmStateDisarmed
		}

	case ArmStateArmed:
		// Armed at low throttle: immediately start the disarm
		// timeout, even when the timeout itself is disabled, so an
		// explicit disarm gesture can be recognized.
		a.since = now
		a.state = ArmStateDisarmingTimeout

	case ArmStateDisarmingTimeout:
		if s.ArmedTimeout != 0 && now.Sub(a.since) > s.ArmedTimeout {
			a.state = ArmStateDisarmed
			break
		}
		if manualDisarm {
			a.since = now
			a.state = ArmStateDisarmingManual
		}

	case ArmStateDisarmingManual:
		if manualDisarm && now.Sub(a.since) > s.DisarmingSequenceTime {
			a.state = ArmStateDisarmed
		} else if !manualDisarm {
			a.state = ArmStateArmed
		}
	}

	return a.status()
}

// status maps the internal state onto the published status. The two
// disarming states are still armed as far as the rest of the system is
// concerned.
func (a *Arming) status() ArmedStatus {
	switch a.state {
	case ArmStateDisarmed:
		return StatusDisarmed
	case ArmStateArmingManual:
		return StatusArming
	default:
		return StatusArmed
	}
}

// armingInputLevel projects the configured gesture onto a single
// signed level: values at or below -ArmedThreshold request arming,
// values at or above +ArmedThreshold request disarming.
func armingInputLevel(method ArmingMethod, in ArmInput) float64 {
	switch method {
	case ArmRollLeft:
		return in.Roll
	case ArmRollRight:
		return -in.Roll
	case ArmPitchForward:
		return in.Pitch
	case ArmPitchAft:
		return -in.Pitch
	case ArmYawLeft:
		return in.Yaw
	case ArmYawRight:
		return -in.Yaw
	case ArmAccessory0, ArmAccessory1, ArmAccessory2:
		return -float64(in.ArmSwitch)
	default:
		return 0
	}
}

func classifyGesture(level float64) (manualArm, manualDisarm bool) {
	if level <= -ArmedThreshold {
		manualArm = true
	} else if level >= ArmedThreshold {
		manualDisarm = true
	}
	return
}
