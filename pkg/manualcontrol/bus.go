package manualcontrol

import (
	"github.com/openfcs/flightinput/pkg/alarms"
	"github.com/openfcs/flightinput/pkg/objstore"
)

// NumAccessories is the number of independent accessory channels.
const NumAccessories = 3

// Bus holds the shared objects the pipeline reads and publishes. Every
// object supports atomic whole-object replacement; consumers run at
// their own rates and always see the last completed publish.
type Bus struct {
	// Settings is the persisted-configuration snapshot source. The
	// runner copies it at the top of each cycle.
	Settings *objstore.Obj[Settings]

	// Command is the normalized per-cycle command output. It may be
	// marked read-only by the ground link, which takes over command
	// production (the GCS override).
	Command *objstore.Obj[Command]

	// FlightStatus publishes arming state and active flight mode.
	FlightStatus *objstore.Obj[FlightStatus]

	// Outputs per dispatch category.
	Actuator      *objstore.Obj[ActuatorDesired]
	Stabilization *objstore.Obj[StabilizationDesired]
	AltitudeHold  *objstore.Obj[AltitudeHoldDesired]
	Path          *objstore.Obj[PathDesired]

	// Accessories are published every cycle regardless of flight
	// mode.
	Accessories [NumAccessories]*objstore.Obj[AccessoryDesired]

	// Position is the estimated position, produced by the fusion
	// pipeline and read by the guidance handlers.
	Position *objstore.Obj[PositionState]

	// Telemetry reports ground-link health; it gates the GCS
	// override.
	Telemetry *objstore.Obj[TelemetryStatus]

	// Activity is the receiver-activity diagnostic output.
	Activity *objstore.Obj[ReceiverActivity]

	// Alarms is the system alarm set.
	Alarms *alarms.Set
}

// NewBus returns a bus with safe defaults: disarmed, disconnected,
// zero commands, all alarms clear.
func NewBus() *Bus {
	b := &Bus{
		Settings:      objstore.New(DefaultSettings()),
		Command:       objstore.New(Command{}),
		FlightStatus:  objstore.New(FlightStatus{Armed: StatusDisarmed, Mode: FlightModeManual}),
		Actuator:      objstore.New(ActuatorDesired{Throttle: -1}),
		Stabilization: objstore.New(StabilizationDesired{Throttle: -1}),
		AltitudeHold:  objstore.New(AltitudeHoldDesired{}),
		Path:          objstore.New(PathDesired{}),
		Position:      objstore.New(PositionState{}),
		Telemetry:     objstore.New(TelemetryStatus{}),
		Activity:      objstore.New(NoActivity()),
		Alarms:        alarms.NewSet(),
	}
	for i := range b.Accessories {
		b.Accessories[i] = objstore.New(AccessoryDesired{})
	}
	return b
}
