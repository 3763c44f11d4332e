package manualcontrol

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openfcs/flightinput/pkg/alarms"
	"github.com/openfcs/flightinput/pkg/receiver"
)

// Options tunes the runner. The zero value selects sane defaults.
type Options struct {
	// Period is the control period; zero selects DefaultPeriod.
	Period time.Duration

	// Watchdog, when set, is refreshed exactly once per completed
	// cycle. A missed refresh is an external-system fault.
	Watchdog func()

	// Clock substitutes the time source. Tests use this; production
	// leaves it nil for time.Now.
	Clock func() time.Time
}

// Runner executes the manual-control pipeline once per control period:
// raw samples, scaling, conditioning, activity monitoring, flight-mode
// decoding, arming, and command dispatch.
type Runner struct {
	bus   *Bus
	rcvrs *receiver.GroupMap
	log   *logrus.Logger

	period   time.Duration
	watchdog func()
	now      func() time.Time

	arming     *Arming
	activity   *ActivityMonitor
	dispatcher *Dispatcher
	lpf        LowPassFilter

	settingsEvents <-chan struct{}

	cmd               Command
	connectedCount    int
	disconnectedCount int
	lastActivityTime  time.Time
	lastFilterTime    time.Time
	lastMode          FlightMode
	started           bool
}

// NewRunner wires a runner to its bus and receiver map. The bus
// arrives with safe defaults, so the runner starts disarmed and
// disconnected.
func NewRunner(bus *Bus, rcvrs *receiver.GroupMap, logger *logrus.Logger, opts Options) *Runner {
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Runner{
		bus:            bus,
		rcvrs:          rcvrs,
		log:            logger,
		period:         opts.Period,
		watchdog:       opts.Watchdog,
		now:            opts.Clock,
		arming:         NewArming(),
		activity:       NewActivityMonitor(),
		dispatcher:     NewDispatcher(bus),
		settingsEvents: bus.Settings.Subscribe(),
		lastMode:       bus.FlightStatus.Get().Mode,
	}
}

// Run executes the pipeline until the context is canceled. The loop is
// unconditional; there is no other way to stop it.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Step(r.now())
		}
	}
}

// Step runs one control cycle. Exposed so tests and the simulator can
// drive the pipeline with a synthetic clock.
func (r *Runner) Step(now time.Time) {
	if r.watchdog != nil {
		defer r.watchdog()
	}

	if !r.started {
		r.lastActivityTime = now
		r.lastFilterTime = now
		r.started = true
	}

	// A configuration change enqueues a reload event; it is consumed
	// here, at the top of the cycle, never mid-cycle.
	select {
	case <-r.settingsEvents:
		r.recheckSettings()
	default:
	}
	settings := r.bus.Settings.Get()

	r.updateActivity(now)

	// Ground-station override: if the ground link took over the
	// command object but telemetry has dropped, fall back to the
	// transmitter.
	if r.bus.Command.ReadOnly() && !r.bus.Telemetry.Get().Connected {
		r.bus.Command.SetReadOnly(false)
		if r.log != nil {
			r.log.Warn("ground link lost, reverting to transmitter control")
		}
	}

	if r.bus.Command.ReadOnly() {
		// Under ground-station control: dispatch whatever the ground
		// link last published.
		r.cmd = r.bus.Command.Get()
	} else if !r.processInput(now, &settings) {
		// Unsafe to continue this cycle.
		return
	}

	status := r.bus.FlightStatus.Get()
	changed := r.lastMode != status.Mode
	r.dispatcher.Dispatch(r.cmd, &settings, status.Mode, changed)
	r.lastMode = status.Mode
}

// recheckSettings re-validates the configuration after a change
// notification and reflects the result on the system-configuration
// alarm.
func (r *Runner) recheckSettings() {
	settings := r.bus.Settings.Get()
	if err := settings.Validate(); err != nil {
		r.bus.Alarms.Raise(alarms.SystemConfiguration, alarms.SeverityError)
		if r.log != nil {
			r.log.WithError(err).Error("configuration check failed")
		}
		return
	}
	r.bus.Alarms.Clear(alarms.SystemConfiguration)
}

// updateActivity steps the receiver activity monitor. Monitoring only
// runs while disarmed; the monitor starts over after a quiet spell or
// when the vehicle transitions out of disarmed.
func (r *Runner) updateActivity(now time.Time) {
	if r.bus.FlightStatus.Get().Armed != StatusDisarmed {
		r.activity.Reset()
		return
	}
	if act, detected := r.activity.Update(r.rcvrs); detected {
		r.bus.Activity.Set(act)
		r.lastActivityTime = now
	}
	if now.Sub(r.lastActivityTime) > ActivityResetAfter {
		r.activity.Reset()
		r.bus.Activity.Set(NoActivity())
		r.lastActivityTime = now
	}
}

// processInput reads, scales and conditions the channels, maintains
// the connection hysteresis, decodes the flight mode and steps the
// arming machine. It returns false when a configuration inconsistency
// makes the rest of the cycle unsafe.
func (r *Runner) processInput(now time.Time, settings *Settings) bool {
	validInput := true
	var scaled [NumChannels]float64

	// Read every channel fresh; a timed-out channel invalidates the
	// cycle's input but is not by itself a disconnect.
	for n := 0; n < NumChannels; n++ {
		cfg := settings.Channels[n]
		if !cfg.Assigned() {
			r.cmd.Channels[n] = receiver.Invalid()
		} else {
			r.cmd.Channels[n] = r.rcvrs.Read(cfg.Group, cfg.Number)
		}

		s := r.cmd.Channels[n]
		if s.Status == receiver.StatusTimeout {
			validInput = false
		} else if s.Valid() {
			scaled[n] = ScaleChannel(int(s.Value), cfg.Max, cfg.Min, cfg.Neutral)
		}
	}

	if !r.settingsConsistent(settings) {
		// Unsafe to continue: alarm, drop the connection flag, and
		// disarm immediately since arming is not processed this
		// cycle. This should only ever happen from a configuration
		// change, not in flight.
		r.bus.Alarms.Raise(alarms.ManualControl, alarms.SeverityCritical)
		r.cmd.Connected = false
		r.bus.Command.Set(r.cmd)
		r.arming.ForceDisarm()
		r.setArmedIfChanged(StatusDisarmed)
		return false
	}

	validInput = validInput &&
		ValidInputRange(settings.Channels[ChannelThrottle].Min, settings.Channels[ChannelThrottle].Max, r.cmd.Channels[ChannelThrottle].Value) &&
		ValidInputRange(settings.Channels[ChannelRoll].Min, settings.Channels[ChannelRoll].Max, r.cmd.Channels[ChannelRoll].Value) &&
		ValidInputRange(settings.Channels[ChannelYaw].Min, settings.Channels[ChannelYaw].Max, r.cmd.Channels[ChannelYaw].Value) &&
		ValidInputRange(settings.Channels[ChannelPitch].Min, settings.Channels[ChannelPitch].Max, r.cmd.Channels[ChannelPitch].Value)

	// Hysteresis on the connection status: one noisy sample must not
	// flap the failsafe.
	if validInput {
		r.connectedCount++
		if r.connectedCount > ConnectionHysteresis {
			r.cmd.Connected = true
			r.connectedCount = 0
			r.disconnectedCount = 0
		}
	} else {
		r.disconnectedCount++
		if r.disconnectedCount > ConnectionHysteresis {
			r.cmd.Connected = false
			r.connectedCount = 0
			r.disconnectedCount = 0
		}
	}

	armSwitch := 0

	if !r.cmd.Connected {
		r.applyFailsafe(settings)
	} else if validInput {
		armSwitch = r.conditionInput(now, settings, &scaled)
	}

	// Arming is processed even when disconnected so the vehicle can
	// still disarm.
	in := ArmInput{
		Roll:         r.cmd.Roll,
		Pitch:        r.cmd.Pitch,
		Yaw:          r.cmd.Yaw,
		Throttle:     r.cmd.Throttle,
		Connected:    r.cmd.Connected,
		ArmSwitch:    armSwitch,
		ForcedDisarm: r.bus.Alarms.Get(alarms.Guidance) == alarms.SeverityCritical,
		OKToArm:      r.okToArm(settings),
	}
	r.setArmedIfChanged(r.arming.Step(now, settings, in))

	r.bus.Command.Set(r.cmd)
	return true
}

// settingsConsistent runs the per-cycle configuration check: required
// axes mapped and readable, flight-mode table coherent.
func (r *Runner) settingsConsistent(settings *Settings) bool {
	if settings.Validate() != nil {
		return false
	}
	required := []Channel{ChannelRoll, ChannelPitch, ChannelYaw, ChannelThrottle}
	if settings.FlightModeCount > 1 {
		required = append(required, ChannelFlightMode)
	}
	for _, ch := range required {
		switch r.cmd.Channels[ch].Status {
		case receiver.StatusInvalid, receiver.StatusNoDriver:
			return false
		}
	}
	return true
}

// applyFailsafe centers the sticks, cuts the throttle, zeroes the
// accessories and forces the configured failsafe mode.
func (r *Runner) applyFailsafe(settings *Settings) {
	r.cmd.Throttle = -1
	r.cmd.Roll = 0
	r.cmd.Pitch = 0
	r.cmd.Yaw = 0
	r.cmd.Collective = 0

	if settings.FailsafeBehavior != FailsafeNone {
		r.cmd.FlightModeSwitchPosition = settings.FailsafeBehavior - 1
		r.setModeIfChanged(settings.FlightModes[settings.FailsafeBehavior-1])
	}
	r.bus.Alarms.Raise(alarms.ManualControl, alarms.SeverityWarning)

	for i := 0; i < NumAccessories; i++ {
		if settings.Channels[int(ChannelAccessory0)+i].Assigned() {
			r.bus.Accessories[i].Set(AccessoryDesired{})
		}
	}
}

// conditionInput applies deadband and smoothing to the scaled values,
// publishes the accessories, decodes the arming switch and the flight
// mode. Returns the accessory arm-switch result.
func (r *Runner) conditionInput(now time.Time, settings *Settings, scaled *[NumChannels]float64) int {
	r.bus.Alarms.Clear(alarms.ManualControl)

	r.cmd.Roll = scaled[ChannelRoll]
	r.cmd.Pitch = scaled[ChannelPitch]
	r.cmd.Yaw = scaled[ChannelYaw]
	r.cmd.Throttle = scaled[ChannelThrottle]

	if settings.Deadband > 0 {
		r.cmd.Roll = ApplyDeadband(r.cmd.Roll, settings.Deadband)
		r.cmd.Pitch = ApplyDeadband(r.cmd.Pitch, settings.Deadband)
		r.cmd.Yaw = ApplyDeadband(r.cmd.Yaw, settings.Deadband)
	}

	// The filter needs the real elapsed time, but a clock that has
	// not advanced must not produce a zero or negative dT.
	dT := now.Sub(r.lastFilterTime)
	if dT <= 0 {
		dT = r.period
	}
	r.lastFilterTime = now

	r.cmd.Roll = r.lpf.Apply(ChannelRoll, r.cmd.Roll, settings.ResponseTime[ChannelRoll], dT)
	r.cmd.Pitch = r.lpf.Apply(ChannelPitch, r.cmd.Pitch, settings.ResponseTime[ChannelPitch], dT)
	r.cmd.Yaw = r.lpf.Apply(ChannelYaw, r.cmd.Yaw, settings.ResponseTime[ChannelYaw], dT)

	// Collective is optional: only overwrite when the channel reads
	// cleanly.
	if r.cmd.Channels[ChannelCollective].Valid() {
		r.cmd.Collective = scaled[ChannelCollective]
	}

	armSwitch := 0
	for i := 0; i < NumAccessories; i++ {
		ch := Channel(int(ChannelAccessory0) + i)
		if !settings.Channels[ch].Assigned() {
			continue
		}
		v := r.lpf.Apply(ch, scaled[ch], settings.ResponseTime[ch], dT)

		// An accessory may double as the arming gesture source.
		if acc, ok := settings.Arming.Accessory(); ok && acc == ch {
			if v > ArmedThreshold {
				armSwitch = 1
			} else if v < -ArmedThreshold {
				armSwitch = -1
			}
		}
		r.bus.Accessories[i].Set(AccessoryDesired{Value: v})
	}

	r.processFlightMode(settings, scaled[ChannelFlightMode])
	return armSwitch
}

// processFlightMode decodes the switch position and publishes the new
// mode only when it differs from the current one.
func (r *Runner) processFlightMode(settings *Settings, value float64) {
	pos := DecodeSwitchPosition(value, settings.FlightModeCount)
	r.cmd.FlightModeSwitchPosition = pos
	r.setModeIfChanged(settings.FlightModes[pos])
}

// okToArm is the pre-arm safety check: configuration consistent, no
// alarm at error or worse (GPS and telemetry excepted), and the
// current mode one of the manual/stabilized modes.
func (r *Runner) okToArm(settings *Settings) bool {
	if settings.Validate() != nil {
		return false
	}
	if r.bus.Alarms.AnyAtOrAbove(alarms.SeverityError, alarms.GPS, alarms.Telemetry) {
		return false
	}
	switch r.bus.FlightStatus.Get().Mode.Category() {
	case CategoryManual, CategoryStabilized:
		return true
	default:
		return false
	}
}

// setArmedIfChanged publishes flight status only on a real change to
// avoid redundant downstream notifications.
func (r *Runner) setArmedIfChanged(armed ArmedStatus) {
	status := r.bus.FlightStatus.Get()
	if status.Armed == armed {
		return
	}
	if r.log != nil {
		r.log.WithFields(logrus.Fields{
			"from": status.Armed.String(),
			"to":   armed.String(),
		}).Info("arming state changed")
	}
	status.Armed = armed
	r.bus.FlightStatus.Set(status)
}

// setModeIfChanged publishes flight status only on a real change.
func (r *Runner) setModeIfChanged(mode FlightMode) {
	status := r.bus.FlightStatus.Get()
	if status.Mode == mode {
		return
	}
	if r.log != nil {
		r.log.WithFields(logrus.Fields{
			"from": status.Mode.String(),
			"to":   mode.String(),
		}).Info("flight mode changed")
	}
	status.Mode = mode
	r.bus.FlightStatus.Set(status)
}
