package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openfcs/flightinput/pkg/manualcontrol"
	"github.com/openfcs/flightinput/pkg/receiver"
)

func testFile() *File {
	return &File{
		Version: SupportedVersion,
		Channels: map[string]ChannelJSON{
			"Roll":       {Group: "IBus", Number: 1, Min: 1000, Max: 2000, Neutral: 1500},
			"Pitch":      {Group: "IBus", Number: 2, Min: 1000, Max: 2000, Neutral: 1500},
			"Throttle":   {Group: "IBus", Number: 3, Min: 1000, Max: 2000, Neutral: 1050},
			"Yaw":        {Group: "IBus", Number: 4, Min: 1000, Max: 2000, Neutral: 1500},
			"FlightMode": {Group: "IBus", Number: 5, Min: 1000, Max: 2000, Neutral: 1500},
		},
		Deadband:                0.02,
		ResponseTimeMs:          map[string]int{"Roll": 50},
		Arming:                  "YawRight",
		ArmingSequenceTimeMs:    1000,
		DisarmingSequenceTimeMs: 1000,
		ArmedTimeoutMs:          30000,
		FlightModes:             []string{"Manual", "Stabilized1", "AltitudeHold"},
		Stabilization: [3]StabilizationJSON{
			{Roll: "Attitude", Pitch: "Attitude", Yaw: "Rate"},
			{Roll: "Rate", Pitch: "Rate", Yaw: "Rate"},
			{Roll: "Attitude", Pitch: "Attitude", Yaw: "Rate"},
		},
		Limits: LimitsJSON{
			ManualRateRoll: 220, ManualRatePitch: 220, ManualRateYaw: 220,
			RollMax: 55, PitchMax: 55, YawMax: 55,
		},
		ReturnToBaseM: 10,
		AltitudeHold:  AltitudeHoldJSON{ThrottleRate: 2, ThrottleExp: 128, CutThrottleWhenZero: true},
	}
}

func TestToSettings(t *testing.T) {
	s, err := testFile().ToSettings()
	if err != nil {
		t.Fatalf("ToSettings: %v", err)
	}

	if got := s.Channels[manualcontrol.ChannelRoll]; got.Group != receiver.GroupIBus || got.Number != 1 {
		t.Errorf("roll mapping = %+v", got)
	}
	if got := s.Channels[manualcontrol.ChannelThrottle].Neutral; got != 1050 {
		t.Errorf("throttle neutral = %d, want 1050", got)
	}
	if s.Channels[manualcontrol.ChannelCollective].Assigned() {
		t.Error("unlisted collective channel came out assigned")
	}
	if s.Arming != manualcontrol.ArmYawRight {
		t.Errorf("arming = %v, want YawRight", s.Arming)
	}
	if got := s.ResponseTime[manualcontrol.ChannelRoll]; got != 50*time.Millisecond {
		t.Errorf("roll response time = %v, want 50ms", got)
	}
	if s.FlightModeCount != 3 || s.FlightModes[2] != manualcontrol.FlightModeAltitudeHold {
		t.Errorf("flight modes = %d %v", s.FlightModeCount, s.FlightModes)
	}
	if s.Stabilization[1].Roll != manualcontrol.StabRate {
		t.Errorf("bank 2 roll = %v, want Rate", s.Stabilization[1].Roll)
	}
	if !s.AltitudeHold.CutThrottleWhenZero || s.AltitudeHold.ThrottleExp != 128 {
		t.Errorf("altitude hold = %+v", s.AltitudeHold)
	}
}

func TestToSettingsErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*File)
		wantErr error
	}{
		{"bad version", func(f *File) { f.Version = "0.9" }, ErrConfigVersion},
		{"unknown channel", func(f *File) { f.Channels["Rudder"] = ChannelJSON{Group: "IBus"} }, ErrUnknownName},
		{"unknown group", func(f *File) {
			f.Channels["Roll"] = ChannelJSON{Group: "CAN", Number: 1}
		}, ErrUnknownName},
		{"unknown arming", func(f *File) { f.Arming = "Telepathy" }, ErrUnknownName},
		{"unknown flight mode", func(f *File) { f.FlightModes = []string{"Hover"} }, ErrUnknownName},
		{"unknown stab mode", func(f *File) { f.Stabilization[0].Roll = "Wobble" }, ErrUnknownName},
		{"too many modes", func(f *File) {
			f.FlightModes = []string{"Manual", "Manual", "Manual", "Manual", "Manual", "Manual", "Manual"}
		}, ErrBadValue},
		{"no modes", func(f *File) { f.FlightModes = nil }, ErrBadValue},
		{"negative deadband", func(f *File) { f.Deadband = -0.1 }, ErrBadValue},
		{"throttle exp range", func(f *File) { f.AltitudeHold.ThrottleExp = 300 }, ErrBadValue},
		{"missing required axis", func(f *File) { delete(f.Channels, "Throttle") }, manualcontrol.ErrBadChannelMapping},
		{"bad failsafe slot", func(f *File) { f.FailsafeMode = 9 }, manualcontrol.ErrBadFailsafe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testFile()
			tt.mutate(f)
			_, err := f.ToSettings()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	want, err := testFile().ToSettings()
	if err != nil {
		t.Fatalf("ToSettings: %v", err)
	}

	got, err := FromSettings(want).ToSettings()
	if err != nil {
		t.Fatalf("round trip ToSettings: %v", err)
	}
	if got != want {
		t.Errorf("round trip changed settings:\n got %+v\nwant %+v", got, want)
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"settings.json", "settings.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Save(path, testFile()); err != nil {
				t.Fatalf("Save: %v", err)
			}

			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			want, _ := testFile().ToSettings()
			got, err := loaded.ToSettings()
			if err != nil {
				t.Fatalf("loaded ToSettings: %v", err)
			}
			if got != want {
				t.Errorf("file round trip changed settings:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestLoadBadExtension(t *testing.T) {
	if _, err := Load("settings.toml"); !errors.Is(err, ErrBadExtension) {
		t.Errorf("error = %v, want ErrBadExtension", err)
	}
	if err := Save("settings.toml", testFile()); !errors.Is(err, ErrBadExtension) {
		t.Errorf("Save error = %v, want ErrBadExtension", err)
	}
}

func TestLoadRejectsUnknownYAMLKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	content := "version: \"1.0\"\nflight_modes: [Manual]\nbogus_key: 1\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("unknown YAML key accepted")
	}
}

func TestDefaultSettingsRoundTrip(t *testing.T) {
	want := manualcontrol.DefaultSettings()
	got, err := FromSettings(want).ToSettings()
	if err != nil {
		t.Fatalf("ToSettings: %v", err)
	}
	if got != want {
		t.Errorf("defaults round trip changed settings:\n got %+v\nwant %+v", got, want)
	}
}
