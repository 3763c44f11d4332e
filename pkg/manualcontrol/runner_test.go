package manualcontrol

import (
	"testing"
	"time"

	"github.com/openfcs/flightinput/pkg/alarms"
	"github.com/openfcs/flightinput/pkg/receiver"
	"github.com/openfcs/flightinput/pkg/receiver/sim"
)

// fixture wires a runner to a simulated iBus receiver using the
// default channel mapping (roll 1, pitch 2, throttle 3, yaw 4,
// mode 5, accessory0 6).
type fixture struct {
	bus    *Bus
	drv    *sim.Driver
	runner *Runner
	now    time.Time
}

func newFixture(t *testing.T, mutate func(*Settings)) *fixture {
	t.Helper()

	settings := DefaultSettings()
	if mutate != nil {
		mutate(&settings)
	}

	drv := sim.New(16)
	rcvrs := receiver.NewGroupMap()
	rcvrs.Bind(receiver.GroupIBus, drv)

	bus := NewBus()
	bus.Settings.Set(settings)

	f := &fixture{
		bus: bus,
		drv: drv,
		now: time.Unix(1000, 0),
	}
	f.runner = NewRunner(bus, rcvrs, nil, Options{Clock: func() time.Time { return f.now }})
	return f
}

// step runs n control cycles, 20ms apart.
func (f *fixture) step(n int) {
	for i := 0; i < n; i++ {
		f.now = f.now.Add(20 * time.Millisecond)
		f.runner.Step(f.now)
	}
}

func TestRunnerConnectionHysteresis(t *testing.T) {
	f := newFixture(t, nil)

	// The status must not flip until strictly more than
	// ConnectionHysteresis consecutive valid samples have been seen.
	f.step(ConnectionHysteresis)
	if f.bus.Command.Get().Connected {
		t.Fatalf("connected after only %d samples", ConnectionHysteresis)
	}
	f.step(1)
	if !f.bus.Command.Get().Connected {
		t.Fatalf("not connected after %d samples", ConnectionHysteresis+1)
	}
}

func TestRunnerDisconnectHysteresis(t *testing.T) {
	f := newFixture(t, nil)
	f.step(ConnectionHysteresis + 2)
	if !f.bus.Command.Get().Connected {
		t.Fatal("precondition: not connected")
	}

	// The link must ride through short dropouts: only a run of more
	// than ConnectionHysteresis bad samples disconnects.
	f.drv.SetTimedOut(true)
	f.step(ConnectionHysteresis)
	if !f.bus.Command.Get().Connected {
		t.Fatalf("disconnected after only %d bad samples", ConnectionHysteresis)
	}
	f.step(1)
	if f.bus.Command.Get().Connected {
		t.Fatalf("still connected after %d bad samples", ConnectionHysteresis+1)
	}
}

func TestRunnerScalesSticks(t *testing.T) {
	f := newFixture(t, func(s *Settings) {
		s.Deadband = 0
	})

	f.drv.Set(1, 1750) // roll +0.5
	f.drv.Set(2, 1250) // pitch -0.5
	f.drv.Set(3, 2000) // throttle full
	f.step(ConnectionHysteresis + 2)

	cmd := f.bus.Command.Get()
	if !cmd.Connected {
		t.Fatal("not connected")
	}
	if cmd.Roll != 0.5 {
		t.Errorf("roll = %v, want 0.5", cmd.Roll)
	}
	if cmd.Pitch != -0.5 {
		t.Errorf("pitch = %v, want -0.5", cmd.Pitch)
	}
	if cmd.Throttle != 1 {
		t.Errorf("throttle = %v, want 1", cmd.Throttle)
	}
}

func TestRunnerFailsafe(t *testing.T) {
	f := newFixture(t, func(s *Settings) {
		s.FailsafeBehavior = 2 // force Stabilized1 on link loss
	})

	f.drv.Set(3, 2000)
	f.step(ConnectionHysteresis + 2)
	if !f.bus.Command.Get().Connected {
		t.Fatal("precondition: not connected")
	}

	f.drv.SetTimedOut(true)
	f.step(ConnectionHysteresis + 2)

	cmd := f.bus.Command.Get()
	if cmd.Connected {
		t.Fatal("still connected after dead link")
	}
	if cmd.Throttle != -1 {
		t.Errorf("failsafe throttle = %v, want -1", cmd.Throttle)
	}
	if cmd.Roll != 0 || cmd.Pitch != 0 || cmd.Yaw != 0 {
		t.Errorf("failsafe sticks not centered: %+v", cmd)
	}
	if got := f.bus.FlightStatus.Get().Mode; got != FlightModeStabilized1 {
		t.Errorf("failsafe mode = %v, want Stabilized1", got)
	}
	if f.bus.Alarms.Get(alarms.ManualControl) != alarms.SeverityWarning {
		t.Errorf("alarm = %v, want Warning", f.bus.Alarms.Get(alarms.ManualControl))
	}
}

func TestRunnerFailsafeClearsOnReconnect(t *testing.T) {
	f := newFixture(t, nil)

	f.step(ConnectionHysteresis + 2)
	f.drv.SetTimedOut(true)
	f.step(ConnectionHysteresis + 2)
	f.drv.SetTimedOut(false)
	f.step(ConnectionHysteresis + 2)

	if !f.bus.Command.Get().Connected {
		t.Fatal("did not reconnect")
	}
	if f.bus.Alarms.Get(alarms.ManualControl) != alarms.SeverityClear {
		t.Errorf("alarm = %v, want Clear", f.bus.Alarms.Get(alarms.ManualControl))
	}
}

func TestRunnerFlightModeDecoding(t *testing.T) {
	f := newFixture(t, nil)

	// Default table: Manual, Stabilized1, Stabilized2 on channel 5.
	f.step(ConnectionHysteresis + 2)
	if got := f.bus.FlightStatus.Get().Mode; got != FlightModeStabilized1 {
		t.Fatalf("center switch: mode %v, want Stabilized1", got)
	}

	f.drv.Set(5, 1000)
	f.step(1)
	if got := f.bus.FlightStatus.Get().Mode; got != FlightModeManual {
		t.Fatalf("low switch: mode %v, want Manual", got)
	}

	f.drv.Set(5, 2000)
	f.step(1)
	if got := f.bus.FlightStatus.Get().Mode; got != FlightModeStabilized2 {
		t.Fatalf("high switch: mode %v, want Stabilized2", got)
	}
}

func TestRunnerArmsViaGesture(t *testing.T) {
	f := newFixture(t, func(s *Settings) {
		s.Arming = ArmYawRight
		s.ArmingSequenceTime = 200 * time.Millisecond
	})

	f.drv.Set(3, 1000) // throttle low
	f.drv.Set(4, 2000) // yaw full right
	f.step(ConnectionHysteresis + 2)

	if got := f.bus.FlightStatus.Get().Armed; got != StatusArming {
		t.Fatalf("during gesture: armed = %v, want Arming", got)
	}

	f.step(15) // 300ms more
	if got := f.bus.FlightStatus.Get().Armed; got != StatusArmed {
		t.Fatalf("after gesture held: armed = %v, want Armed", got)
	}
}

func TestRunnerGuidanceCriticalForcesDisarm(t *testing.T) {
	f := newFixture(t, func(s *Settings) {
		s.Arming = ArmYawRight
		s.ArmingSequenceTime = 200 * time.Millisecond
	})

	f.drv.Set(3, 1000)
	f.drv.Set(4, 2000)
	f.step(ConnectionHysteresis + 20)
	if f.bus.FlightStatus.Get().Armed != StatusArmed {
		t.Fatal("precondition: not armed")
	}

	f.bus.Alarms.Raise(alarms.Guidance, alarms.SeverityCritical)
	f.step(1)
	if got := f.bus.FlightStatus.Get().Armed; got != StatusDisarmed {
		t.Fatalf("guidance critical: armed = %v, want Disarmed", got)
	}
}

func TestRunnerConfigInconsistency(t *testing.T) {
	f := newFixture(t, nil)
	f.step(ConnectionHysteresis + 2)

	// Pull the throttle mapping out from under the runner.
	settings := f.bus.Settings.Get()
	settings.Channels[ChannelThrottle].Group = receiver.GroupNone
	f.bus.Settings.Set(settings)
	f.step(1)

	if f.bus.Alarms.Get(alarms.ManualControl) != alarms.SeverityCritical {
		t.Errorf("alarm = %v, want Critical", f.bus.Alarms.Get(alarms.ManualControl))
	}
	if f.bus.Command.Get().Connected {
		t.Error("still connected with unmapped throttle")
	}
	if f.bus.FlightStatus.Get().Armed != StatusDisarmed {
		t.Error("not disarmed on configuration inconsistency")
	}
	if f.bus.Alarms.Get(alarms.SystemConfiguration) != alarms.SeverityError {
		t.Errorf("configuration alarm = %v, want Error",
			f.bus.Alarms.Get(alarms.SystemConfiguration))
	}
}

func TestRunnerUnboundGroupIsInconsistent(t *testing.T) {
	f := newFixture(t, func(s *Settings) {
		// Roll mapped to a group with no driver on this build.
		s.Channels[ChannelRoll].Group = receiver.GroupSBus
	})
	f.step(1)

	if f.bus.Alarms.Get(alarms.ManualControl) != alarms.SeverityCritical {
		t.Errorf("alarm = %v, want Critical", f.bus.Alarms.Get(alarms.ManualControl))
	}
}

func TestRunnerGroundStationOverride(t *testing.T) {
	f := newFixture(t, nil)
	f.step(ConnectionHysteresis + 2)

	// Ground link takes over the command object.
	f.bus.Telemetry.Set(TelemetryStatus{Connected: true})
	f.bus.Command.SetReadOnly(true)
	override := Command{Roll: 0.25, Throttle: 0.5, Connected: true}
	f.bus.Command.Set(override)

	// Receiver moves, but the override must win.
	f.drv.Set(1, 2000)
	f.step(5)
	if got := f.bus.Command.Get().Roll; got != 0.25 {
		t.Fatalf("roll = %v, want override value 0.25", got)
	}

	// Telemetry drops: control reverts to the transmitter.
	f.bus.Telemetry.Set(TelemetryStatus{Connected: false})
	f.step(2)
	if f.bus.Command.ReadOnly() {
		t.Fatal("override not revoked after telemetry loss")
	}
	if got := f.bus.Command.Get().Roll; got == 0.25 {
		t.Fatal("transmitter input not restored after telemetry loss")
	}
}

func TestRunnerAccessoryOutputs(t *testing.T) {
	f := newFixture(t, func(s *Settings) {
		s.Channels[ChannelAccessory0] = ChannelConfig{
			Group: receiver.GroupIBus, Number: 6, Min: 1000, Max: 2000, Neutral: 1500,
		}
	})

	f.drv.Set(6, 2000)
	f.step(ConnectionHysteresis + 2)

	if got := f.bus.Accessories[0].Get().Value; got != 1 {
		t.Errorf("accessory 0 = %v, want 1", got)
	}
}

func TestRunnerWatchdogEveryCycle(t *testing.T) {
	kicks := 0
	settings := DefaultSettings()

	drv := sim.New(16)
	rcvrs := receiver.NewGroupMap()
	rcvrs.Bind(receiver.GroupIBus, drv)
	bus := NewBus()
	bus.Settings.Set(settings)

	r := NewRunner(bus, rcvrs, nil, Options{Watchdog: func() { kicks++ }})

	now := time.Unix(1000, 0)
	for i := 0; i < 25; i++ {
		now = now.Add(20 * time.Millisecond)
		r.Step(now)
	}
	if kicks != 25 {
		t.Errorf("watchdog kicked %d times over 25 cycles", kicks)
	}

	// The inconsistency path skips most of the cycle but must still
	// refresh the watchdog.
	settings.Channels[ChannelRoll].Group = receiver.GroupNone
	bus.Settings.Set(settings)
	now = now.Add(20 * time.Millisecond)
	r.Step(now)
	if kicks != 26 {
		t.Errorf("watchdog not kicked on the inconsistency path (%d)", kicks)
	}
}
