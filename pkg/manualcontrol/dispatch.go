package manualcontrol

import (
	"math"

	"github.com/openfcs/flightinput/pkg/alarms"
)

// Dispatcher turns the per-cycle command into the output object for
// the active flight mode. Guidance handlers keep internal targets that
// re-initialize whenever the active mode just changed.
type Dispatcher struct {
	bus *Bus

	// newAltitude marks that the altitude-hold setpoint must be
	// re-captured from the current position.
	newAltitude bool
}

// guidanceHandler produces the desired state for one guidance mode.
// changed is true on the first cycle after a mode switch.
type guidanceHandler func(d *Dispatcher, cmd Command, s *Settings, mode FlightMode, changed bool)

// guidanceHandlers maps every guidance mode onto its handler. A
// guidance mode missing here is a logic defect and surfaces as a
// critical alarm at dispatch time.
var guidanceHandlers = map[FlightMode]guidanceHandler{
	FlightModeAltitudeHold:  (*Dispatcher).altitudeHoldDesired,
	FlightModeAltitudeVario: (*Dispatcher).altitudeHoldDesired,
	FlightModePositionHold:  (*Dispatcher).holdPositionDesired,
	FlightModePOI:           (*Dispatcher).holdPositionDesired,
	FlightModeReturnToBase:  (*Dispatcher).returnToBaseDesired,
	FlightModeLand:          (*Dispatcher).landDesired,
	FlightModePathPlanner:   (*Dispatcher).pathPlannerDesired,
}

// NewDispatcher returns a dispatcher publishing onto the given bus.
func NewDispatcher(bus *Bus) *Dispatcher {
	return &Dispatcher{bus: bus, newAltitude: true}
}

// Dispatch routes the command to the handler for the active mode's
// category. An undefined category raises a critical alarm: it means
// the mode table and the dispatch logic disagree.
func (d *Dispatcher) Dispatch(cmd Command, s *Settings, mode FlightMode, changed bool) {
	switch mode.Category() {
	case CategoryManual:
		d.updateActuatorDesired(cmd)
	case CategoryStabilized:
		d.updateStabilizationDesired(cmd, s, mode)
	case CategoryTuning:
		// Tuning takes its values directly from the command object;
		// nothing to produce here.
	case CategoryGuidance:
		h, ok := guidanceHandlers[mode]
		if !ok {
			d.bus.Alarms.Raise(alarms.ManualControl, alarms.SeverityCritical)
			return
		}
		h(d, cmd, s, mode, changed)
	default:
		d.bus.Alarms.Raise(alarms.ManualControl, alarms.SeverityCritical)
	}
}

// updateActuatorDesired passes conditioned stick values through
// verbatim. Negative throttle is the motors-off sentinel and is
// forced to exactly -1.
func (d *Dispatcher) updateActuatorDesired(cmd Command) {
	d.bus.Actuator.Set(ActuatorDesired{
		Roll:     cmd.Roll,
		Pitch:    cmd.Pitch,
		Yaw:      cmd.Yaw,
		Throttle: cutThrottle(cmd.Throttle),
	})
}

// updateStabilizationDesired scales each axis by its sub-mode's limit
// and publishes the per-axis sub-modes alongside.
func (d *Dispatcher) updateStabilizationDesired(cmd Command, s *Settings, mode FlightMode) {
	var bank StabilizationBank
	switch mode {
	case FlightModeStabilized1:
		bank = s.Stabilization[0]
	case FlightModeStabilized2:
		bank = s.Stabilization[1]
	case FlightModeStabilized3:
		bank = s.Stabilization[2]
	default:
		// Only reachable if Category and this switch disagree.
		d.bus.Alarms.Raise(alarms.ManualControl, alarms.SeverityCritical)
		return
	}

	out := StabilizationDesired{
		Roll:     stabilizationScale(bank.Roll, cmd.Roll, s.Limits.ManualRateRoll, s.Limits.RollMax),
		Pitch:    stabilizationScale(bank.Pitch, cmd.Pitch, s.Limits.ManualRatePitch, s.Limits.PitchMax),
		Throttle: cutThrottle(cmd.Throttle),
		Mode:     [3]StabilizationMode{bank.Roll, bank.Pitch, bank.Yaw},
	}

	// Yaw has no attitude-hold sub-mode: Rattitude falls back to
	// plain rate.
	if bank.Yaw == StabRattitude {
		out.Mode[2] = StabRate
		out.Yaw = cmd.Yaw * s.Limits.ManualRateYaw
	} else {
		out.Yaw = stabilizationScale(bank.Yaw, cmd.Yaw, s.Limits.ManualRateYaw, s.Limits.YawMax)
	}

	d.bus.Stabilization.Set(out)
}

// stabilizationScale applies the sub-mode's scale factor to a
// normalized stick value: rate-like sub-modes use the manual rate
// limit, attitude-like sub-modes the maximum angle, pass-through
// sub-modes neither.
func stabilizationScale(m StabilizationMode, stick, manualRate, attitudeMax float64) float64 {
	switch m {
	case StabNone, StabVirtualBar, StabRattitude:
		return stick
	case StabRate, StabWeakLeveling, StabAxisLock, StabRelayRate:
		return stick * manualRate
	case StabAttitude, StabRelayAttitude:
		return stick * attitudeMax
	default:
		// Invalid sub-mode in the configuration.
		return 0
	}
}

// altitudeHoldDesired holds the current altitude, or in vario mode
// converts throttle deflection outside a center deadband into a climb
// rate through a cubic response curve.
func (d *Dispatcher) altitudeHoldDesired(cmd Command, s *Settings, mode FlightMode, changed bool) {
	const (
		deadband     = 0.20
		deadbandHigh = 0.5 + deadband/2
		deadbandLow  = 0.5 - deadband/2
	)

	pos := d.bus.Position.Get()
	out := d.bus.AltitudeHold.Get()

	out.Roll = cmd.Roll * s.Limits.RollMax
	out.Pitch = cmd.Pitch * s.Limits.PitchMax
	out.Yaw = cmd.Yaw * s.Limits.ManualRateYaw

	if changed {
		d.newAltitude = true
	}

	exp := float64(s.AltitudeHold.ThrottleExp)
	rate := s.AltitudeHold.ThrottleRate

	switch {
	case s.AltitudeHold.CutThrottleWhenZero && cmd.Throttle < 0:
		out.SetPoint = cmd.Throttle
		out.ControlMode = AltitudeControlThrottle
		d.newAltitude = true

	case mode == FlightModeAltitudeVario && cmd.Throttle > deadbandHigh:
		x := (cmd.Throttle - deadbandHigh) / deadbandLow
		out.SetPoint = -((exp*math.Pow(x, 3) + (255-exp)*x) / 255 * rate)
		out.ControlMode = AltitudeControlVelocity
		d.newAltitude = true

	case mode == FlightModeAltitudeVario && cmd.Throttle < deadbandLow:
		t := cmd.Throttle
		if t < 0 {
			t = 0
		}
		x := (deadbandLow - t) / deadbandLow
		out.SetPoint = (exp*math.Pow(x, 3) + (255-exp)*x) / 255 * rate
		out.ControlMode = AltitudeControlVelocity
		d.newAltitude = true

	case d.newAltitude:
		out.SetPoint = pos.Down
		out.ControlMode = AltitudeControlAltitude
		d.newAltitude = false
	}

	d.bus.AltitudeHold.Set(out)
}

// holdPositionDesired captures the current position as the target when
// the mode is first entered.
func (d *Dispatcher) holdPositionDesired(_ Command, _ *Settings, _ FlightMode, changed bool) {
	if !changed {
		return
	}
	pos := d.bus.Position.Get()
	here := NED{North: pos.North, East: pos.East, Down: pos.Down}
	d.bus.Path.Set(PathDesired{
		Start:            here,
		End:              here,
		StartingVelocity: 1,
		EndingVelocity:   0,
		Mode:             PathModeFlyEndpoint,
	})
}

// returnToBaseDesired flies to the home position at the current
// altitude plus the configured offset.
func (d *Dispatcher) returnToBaseDesired(_ Command, s *Settings, _ FlightMode, changed bool) {
	if !changed {
		return
	}
	pos := d.bus.Position.Get()
	target := NED{North: 0, East: 0, Down: pos.Down - s.ReturnToBaseAltitudeOffset}
	d.bus.Path.Set(PathDesired{
		Start:            target,
		End:              target,
		StartingVelocity: 1,
		EndingVelocity:   0,
		Mode:             PathModeFlyEndpoint,
	})
}

// landDesired keeps the target under the vehicle and biases it below
// the current altitude each cycle so the vehicle keeps descending.
func (d *Dispatcher) landDesired(_ Command, _ *Settings, _ FlightMode, changed bool) {
	const descendBias = 5 // meters below current altitude

	pos := d.bus.Position.Get()
	path := d.bus.Path.Get()
	if changed {
		here := NED{North: pos.North, East: pos.East, Down: pos.Down}
		path = PathDesired{
			Start:            here,
			End:              here,
			StartingVelocity: 1,
			EndingVelocity:   0,
			Mode:             PathModeFlyEndpoint,
		}
	}
	path.End.Down = pos.Down + descendBias
	d.bus.Path.Set(path)
}

// pathPlannerDesired is a no-op: the path-planner module produces its
// own desired state.
func (d *Dispatcher) pathPlannerDesired(_ Command, _ *Settings, _ FlightMode, _ bool) {}

// cutThrottle maps the negative-throttle sentinel to exactly -1 so
// every consumer sees the same motors-off value.
func cutThrottle(throttle float64) float64 {
	if throttle < 0 {
		return -1
	}
	return throttle
}
