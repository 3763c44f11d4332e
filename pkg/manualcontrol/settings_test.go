package manualcontrol

import (
	"errors"
	"testing"

	"github.com/openfcs/flightinput/pkg/receiver"
)

func TestDefaultSettingsValid(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr error
	}{
		{"unmapped roll", func(s *Settings) {
			s.Channels[ChannelRoll].Group = receiver.GroupNone
		}, ErrBadChannelMapping},
		{"unmapped throttle", func(s *Settings) {
			s.Channels[ChannelThrottle].Group = receiver.GroupNone
		}, ErrBadChannelMapping},
		{"zero mode count", func(s *Settings) {
			s.FlightModeCount = 0
		}, ErrBadFlightModeCount},
		{"mode count too large", func(s *Settings) {
			s.FlightModeCount = MaxFlightModePositions + 1
		}, ErrBadFlightModeCount},
		{"multi-mode without switch", func(s *Settings) {
			s.FlightModeCount = 3
			s.Channels[ChannelFlightMode].Group = receiver.GroupNone
		}, ErrBadChannelMapping},
		{"failsafe slot past table", func(s *Settings) {
			s.FailsafeBehavior = s.FlightModeCount + 1
		}, ErrBadFailsafe},
		{"negative failsafe slot", func(s *Settings) {
			s.FailsafeBehavior = -2
		}, ErrBadFailsafe},
		{"negative deadband", func(s *Settings) {
			s.Deadband = -0.1
		}, ErrBadDeadband},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSingleModeNeedsNoSwitch(t *testing.T) {
	s := DefaultSettings()
	s.FlightModeCount = 1
	s.Channels[ChannelFlightMode].Group = receiver.GroupNone
	if err := s.Validate(); err != nil {
		t.Fatalf("single-mode settings invalid: %v", err)
	}
}

func TestArmingMethodAccessory(t *testing.T) {
	tests := []struct {
		method ArmingMethod
		ch     Channel
		ok     bool
	}{
		{ArmAccessory0, ChannelAccessory0, true},
		{ArmAccessory1, ChannelAccessory1, true},
		{ArmAccessory2, ChannelAccessory2, true},
		{ArmYawRight, 0, false},
		{ArmAlwaysDisarmed, 0, false},
	}
	for _, tt := range tests {
		ch, ok := tt.method.Accessory()
		if ok != tt.ok || (ok && ch != tt.ch) {
			t.Errorf("%v.Accessory() = (%v, %v), want (%v, %v)", tt.method, ch, ok, tt.ch, tt.ok)
		}
	}
}
