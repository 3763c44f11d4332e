package config

import (
	"fmt"

	"github.com/openfcs/flightinput/pkg/manualcontrol"
	"github.com/openfcs/flightinput/pkg/receiver"
)

// Reverse lookups for the enumerated names used in settings files. The
// forward direction lives on the types' String methods; these tables
// are built from them so the two can never drift apart.

var channelsByName = func() map[string]manualcontrol.Channel {
	m := make(map[string]manualcontrol.Channel, manualcontrol.NumChannels)
	for ch := 0; ch < manualcontrol.NumChannels; ch++ {
		m[manualcontrol.Channel(ch).String()] = manualcontrol.Channel(ch)
	}
	return m
}()

func channelByName(name string) (manualcontrol.Channel, error) {
	if ch, ok := channelsByName[name]; ok {
		return ch, nil
	}
	return 0, fmt.Errorf("%w: channel %q", ErrUnknownName, name)
}

var groupsByName = func() map[string]receiver.Group {
	m := make(map[string]receiver.Group, receiver.GroupCount)
	for g := receiver.Group(0); g.Valid(); g++ {
		m[g.String()] = g
	}
	return m
}()

func groupByName(name string) (receiver.Group, error) {
	if g, ok := groupsByName[name]; ok {
		return g, nil
	}
	return receiver.GroupNone, fmt.Errorf("%w: group %q", ErrUnknownName, name)
}

var armingByNameTable = func() map[string]manualcontrol.ArmingMethod {
	m := make(map[string]manualcontrol.ArmingMethod)
	for a := manualcontrol.ArmAlwaysDisarmed; a <= manualcontrol.ArmAccessory2; a++ {
		m[a.String()] = a
	}
	return m
}()

func armingByName(name string) (manualcontrol.ArmingMethod, error) {
	if a, ok := armingByNameTable[name]; ok {
		return a, nil
	}
	return manualcontrol.ArmAlwaysDisarmed, fmt.Errorf("%w: arming method %q", ErrUnknownName, name)
}

var flightModesByName = func() map[string]manualcontrol.FlightMode {
	m := make(map[string]manualcontrol.FlightMode)
	for fm := manualcontrol.FlightModeManual; fm <= manualcontrol.FlightModePathPlanner; fm++ {
		m[fm.String()] = fm
	}
	return m
}()

func flightModeByName(name string) (manualcontrol.FlightMode, error) {
	if fm, ok := flightModesByName[name]; ok {
		return fm, nil
	}
	return manualcontrol.FlightModeManual, fmt.Errorf("%w: flight mode %q", ErrUnknownName, name)
}

var stabilizationModesByName = func() map[string]manualcontrol.StabilizationMode {
	m := make(map[string]manualcontrol.StabilizationMode)
	for sm := manualcontrol.StabNone; sm <= manualcontrol.StabRelayAttitude; sm++ {
		m[sm.String()] = sm
	}
	return m
}()

func stabilizationModeByName(name string) (manualcontrol.StabilizationMode, error) {
	if sm, ok := stabilizationModesByName[name]; ok {
		return sm, nil
	}
	return manualcontrol.StabNone, fmt.Errorf("%w: stabilization mode %q", ErrUnknownName, name)
}
