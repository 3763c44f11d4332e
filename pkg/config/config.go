// Package config loads and saves manual-control settings files. Files
// are JSON or YAML, selected by extension; the schema uses names for
// all enumerated values so files stay readable and diffable.
package config

import (
	"fmt"
	"time"

	"github.com/openfcs/flightinput/pkg/manualcontrol"
	"github.com/openfcs/flightinput/pkg/receiver"
)

// File is the settings file schema.
type File struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Version string `json:"version" yaml:"version"`

	// Channels maps logical channel names (Roll, Pitch, ...) onto
	// their source and calibration. Unlisted channels stay unmapped.
	Channels map[string]ChannelJSON `json:"channels" yaml:"channels"`

	Deadband float64 `json:"deadband" yaml:"deadband"`

	// ResponseTimeMs enables input smoothing per channel name; zero
	// or absent disables filtering for that channel.
	ResponseTimeMs map[string]int `json:"response_time_ms,omitempty" yaml:"response_time_ms,omitempty"`

	Arming                  string `json:"arming" yaml:"arming"`
	ArmingSequenceTimeMs    int    `json:"arming_sequence_time_ms" yaml:"arming_sequence_time_ms"`
	DisarmingSequenceTimeMs int    `json:"disarming_sequence_time_ms" yaml:"disarming_sequence_time_ms"`
	ArmedTimeoutMs          int    `json:"armed_timeout_ms" yaml:"armed_timeout_ms"`

	// FailsafeMode is the 1-based switch slot forced on
	// disconnection; zero disables the override.
	FailsafeMode int `json:"failsafe_mode,omitempty" yaml:"failsafe_mode,omitempty"`

	// FlightModes is the ordered mode-position table; its length is
	// the configured position count.
	FlightModes []string `json:"flight_modes" yaml:"flight_modes"`

	Stabilization [3]StabilizationJSON `json:"stabilization" yaml:"stabilization"`
	Limits        LimitsJSON           `json:"limits" yaml:"limits"`
	ReturnToBaseM float64              `json:"return_to_base_altitude_offset_m" yaml:"return_to_base_altitude_offset_m"`
	AltitudeHold  AltitudeHoldJSON     `json:"altitude_hold" yaml:"altitude_hold"`
}

// ChannelJSON is one channel mapping in the file schema.
type ChannelJSON struct {
	Group   string `json:"group" yaml:"group"`
	Number  int    `json:"number" yaml:"number"`
	Min     int    `json:"min" yaml:"min"`
	Max     int    `json:"max" yaml:"max"`
	Neutral int    `json:"neutral" yaml:"neutral"`
}

// StabilizationJSON is one bank's per-axis sub-modes.
type StabilizationJSON struct {
	Roll  string `json:"roll" yaml:"roll"`
	Pitch string `json:"pitch" yaml:"pitch"`
	Yaw   string `json:"yaw" yaml:"yaw"`
}

// LimitsJSON holds the stabilized-bank scale factors.
type LimitsJSON struct {
	ManualRateRoll  float64 `json:"manual_rate_roll" yaml:"manual_rate_roll"`
	ManualRatePitch float64 `json:"manual_rate_pitch" yaml:"manual_rate_pitch"`
	ManualRateYaw   float64 `json:"manual_rate_yaw" yaml:"manual_rate_yaw"`
	RollMax         float64 `json:"roll_max" yaml:"roll_max"`
	PitchMax        float64 `json:"pitch_max" yaml:"pitch_max"`
	YawMax          float64 `json:"yaw_max" yaml:"yaw_max"`
}

// AltitudeHoldJSON tunes the altitude-vario throttle response.
type AltitudeHoldJSON struct {
	ThrottleRate        float64 `json:"throttle_rate" yaml:"throttle_rate"`
	ThrottleExp         int     `json:"throttle_exp" yaml:"throttle_exp"`
	CutThrottleWhenZero bool    `json:"cut_throttle_when_zero" yaml:"cut_throttle_when_zero"`
}

// SupportedVersion is the only settings file version this build reads.
const SupportedVersion = "1.0"

// Validate checks the file for schema-level errors before conversion.
func (f *File) Validate() error {
	if f.Version != SupportedVersion {
		return fmt.Errorf("%w: %q", ErrConfigVersion, f.Version)
	}
	if len(f.FlightModes) < 1 || len(f.FlightModes) > manualcontrol.MaxFlightModePositions {
		return fmt.Errorf("%w: %d flight modes (must be 1..%d)",
			ErrBadValue, len(f.FlightModes), manualcontrol.MaxFlightModePositions)
	}
	for name := range f.Channels {
		if _, err := channelByName(name); err != nil {
			return err
		}
	}
	for name := range f.ResponseTimeMs {
		if _, err := channelByName(name); err != nil {
			return err
		}
	}
	if f.Deadband < 0 {
		return fmt.Errorf("%w: deadband %v", ErrBadValue, f.Deadband)
	}
	if f.AltitudeHold.ThrottleExp < 0 || f.AltitudeHold.ThrottleExp > 255 {
		return fmt.Errorf("%w: throttle_exp %d (must be 0..255)", ErrBadValue, f.AltitudeHold.ThrottleExp)
	}
	return nil
}

// ToSettings converts the file into runtime settings. The result also
// passes through the runtime validation so a loaded file can never
// produce an inconsistent Settings value.
func (f *File) ToSettings() (manualcontrol.Settings, error) {
	s := manualcontrol.DefaultSettings()

	if err := f.Validate(); err != nil {
		return s, err
	}

	// Start from unmapped channels; the file is the whole mapping.
	for ch := range s.Channels {
		s.Channels[ch] = manualcontrol.ChannelConfig{
			Group: receiver.GroupNone, Min: 1000, Max: 2000, Neutral: 1500,
		}
	}
	for name, cj := range f.Channels {
		ch, _ := channelByName(name)
		group, err := groupByName(cj.Group)
		if err != nil {
			return s, err
		}
		s.Channels[ch] = manualcontrol.ChannelConfig{
			Group:   group,
			Number:  cj.Number,
			Min:     cj.Min,
			Max:     cj.Max,
			Neutral: cj.Neutral,
		}
	}

	s.Deadband = f.Deadband

	s.ResponseTime = [manualcontrol.NumChannels]time.Duration{}
	for name, ms := range f.ResponseTimeMs {
		ch, _ := channelByName(name)
		s.ResponseTime[ch] = time.Duration(ms) * time.Millisecond
	}

	arming, err := armingByName(f.Arming)
	if err != nil {
		return s, err
	}
	s.Arming = arming
	s.ArmingSequenceTime = time.Duration(f.ArmingSequenceTimeMs) * time.Millisecond
	s.DisarmingSequenceTime = time.Duration(f.DisarmingSequenceTimeMs) * time.Millisecond
	s.ArmedTimeout = time.Duration(f.ArmedTimeoutMs) * time.Millisecond
	s.FailsafeBehavior = f.FailsafeMode

	s.FlightModeCount = len(f.FlightModes)
	s.FlightModes = [manualcontrol.MaxFlightModePositions]manualcontrol.FlightMode{}
	for i, name := range f.FlightModes {
		mode, err := flightModeByName(name)
		if err != nil {
			return s, err
		}
		s.FlightModes[i] = mode
	}

	for i, bank := range f.Stabilization {
		roll, err := stabilizationModeByName(bank.Roll)
		if err != nil {
			return s, err
		}
		pitch, err := stabilizationModeByName(bank.Pitch)
		if err != nil {
			return s, err
		}
		yaw, err := stabilizationModeByName(bank.Yaw)
		if err != nil {
			return s, err
		}
		s.Stabilization[i] = manualcontrol.StabilizationBank{Roll: roll, Pitch: pitch, Yaw: yaw}
	}

	if f.Limits != (LimitsJSON{}) {
		s.Limits = manualcontrol.BankLimits{
			ManualRateRoll:  f.Limits.ManualRateRoll,
			ManualRatePitch: f.Limits.ManualRatePitch,
			ManualRateYaw:   f.Limits.ManualRateYaw,
			RollMax:         f.Limits.RollMax,
			PitchMax:        f.Limits.PitchMax,
			YawMax:          f.Limits.YawMax,
		}
	}
	s.ReturnToBaseAltitudeOffset = f.ReturnToBaseM
	if f.AltitudeHold != (AltitudeHoldJSON{}) {
		s.AltitudeHold = manualcontrol.AltitudeHoldSettings{
			ThrottleRate:        f.AltitudeHold.ThrottleRate,
			ThrottleExp:         uint8(f.AltitudeHold.ThrottleExp),
			CutThrottleWhenZero: f.AltitudeHold.CutThrottleWhenZero,
		}
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// FromSettings renders runtime settings back into the file schema,
// used by the dump tool.
func FromSettings(s manualcontrol.Settings) *File {
	f := &File{
		Version:  SupportedVersion,
		Channels: make(map[string]ChannelJSON),
		Deadband: s.Deadband,
		Arming:   s.Arming.String(),

		ArmingSequenceTimeMs:    int(s.ArmingSequenceTime / time.Millisecond),
		DisarmingSequenceTimeMs: int(s.DisarmingSequenceTime / time.Millisecond),
		ArmedTimeoutMs:          int(s.ArmedTimeout / time.Millisecond),
		FailsafeMode:            s.FailsafeBehavior,

		ReturnToBaseM: s.ReturnToBaseAltitudeOffset,
		Limits: LimitsJSON{
			ManualRateRoll:  s.Limits.ManualRateRoll,
			ManualRatePitch: s.Limits.ManualRatePitch,
			ManualRateYaw:   s.Limits.ManualRateYaw,
			RollMax:         s.Limits.RollMax,
			PitchMax:        s.Limits.PitchMax,
			YawMax:          s.Limits.YawMax,
		},
		AltitudeHold: AltitudeHoldJSON{
			ThrottleRate:        s.AltitudeHold.ThrottleRate,
			ThrottleExp:         int(s.AltitudeHold.ThrottleExp),
			CutThrottleWhenZero: s.AltitudeHold.CutThrottleWhenZero,
		},
	}

	for ch := 0; ch < manualcontrol.NumChannels; ch++ {
		cfg := s.Channels[ch]
		if !cfg.Assigned() {
			continue
		}
		f.Channels[manualcontrol.Channel(ch).String()] = ChannelJSON{
			Group:   cfg.Group.String(),
			Number:  cfg.Number,
			Min:     cfg.Min,
			Max:     cfg.Max,
			Neutral: cfg.Neutral,
		}
	}

	for ch := 0; ch < manualcontrol.NumChannels; ch++ {
		if s.ResponseTime[ch] > 0 {
			if f.ResponseTimeMs == nil {
				f.ResponseTimeMs = make(map[string]int)
			}
			f.ResponseTimeMs[manualcontrol.Channel(ch).String()] = int(s.ResponseTime[ch] / time.Millisecond)
		}
	}

	for i := 0; i < s.FlightModeCount; i++ {
		f.FlightModes = append(f.FlightModes, s.FlightModes[i].String())
	}
	for i, bank := range s.Stabilization {
		f.Stabilization[i] = StabilizationJSON{
			Roll:  bank.Roll.String(),
			Pitch: bank.Pitch.String(),
			Yaw:   bank.Yaw.String(),
		}
	}
	return f
}
