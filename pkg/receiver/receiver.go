// Package receiver defines the interface between the manual-control
// pipeline and the physical receiver drivers, and the binding of
// logical channel groups to those drivers.
package receiver

// Group identifies a logical input source: a receiver bus providing
// multiple numbered channels.
type Group int

// Channel groups
const (
	GroupPWM Group = iota
	GroupPPM
	GroupIBus
	GroupSBus
	GroupDSM
	GroupUSB
	GroupGCS

	// GroupNone marks a channel as unassigned. It is not a valid
	// index into a GroupMap.
	GroupNone

	GroupCount = int(GroupNone)
)

var groupNames = [...]string{"PWM", "PPM", "IBus", "SBus", "DSM", "USB", "GCS", "None"}

// String returns the group name.
func (g Group) String() string {
	if g < 0 || int(g) >= len(groupNames) {
		return "Invalid"
	}
	return groupNames[g]
}

// Valid reports whether g names a real source group.
func (g Group) Valid() bool {
	return g >= 0 && int(g) < GroupCount
}

// Status classifies one raw channel reading.
type Status uint8

// Sample outcomes
const (
	// StatusOK means Value holds a fresh pulse reading.
	StatusOK Status = iota

	// StatusInvalid means the channel is not mapped to any source.
	StatusInvalid

	// StatusNoDriver means the channel's group has no bound driver.
	StatusNoDriver

	// StatusTimeout means the driver has not seen data recently
	// enough for the reading to be trusted.
	StatusTimeout
)

// Sample is one raw channel reading. Samples are read fresh every
// control cycle and never cached across cycles.
type Sample struct {
	Value  uint16
	Status Status
}

// Valid reports whether the sample carries a usable pulse value.
func (s Sample) Valid() bool {
	return s.Status == StatusOK
}

// Invalid is the sentinel sample for an unmapped channel.
func Invalid() Sample { return Sample{Status: StatusInvalid} }

// Driver produces raw channel readings on demand. Channel numbers are
// 1-indexed to match transmitter conventions.
type Driver interface {
	// NumChannels returns how many channels the driver provides.
	NumChannels() int

	// Read returns the most recent reading for a channel. Drivers
	// report staleness through the sample status rather than by
	// blocking.
	Read(channel int) Sample
}

// GroupMap binds channel groups to drivers. A nil entry means the
// group has no bound driver on this build.
type GroupMap struct {
	drivers [GroupCount]Driver
}

// NewGroupMap returns an empty GroupMap.
func NewGroupMap() *GroupMap {
	return &GroupMap{}
}

// Bind attaches a driver to a group, replacing any previous binding.
func (m *GroupMap) Bind(g Group, d Driver) {
	if g.Valid() {
		m.drivers[g] = d
	}
}

// Bound reports whether the group has a driver attached.
func (m *GroupMap) Bound(g Group) bool {
	return g.Valid() && m.drivers[g] != nil
}

// Driver returns the driver bound to a group, or nil.
func (m *GroupMap) Driver(g Group) Driver {
	if !g.Valid() {
		return nil
	}
	return m.drivers[g]
}

// Read reads one channel of one group, mapping unbound groups and
// out-of-range channels to the matching sentinel samples.
func (m *GroupMap) Read(g Group, channel int) Sample {
	if !g.Valid() {
		return Sample{Status: StatusInvalid}
	}
	d := m.drivers[g]
	if d == nil {
		return Sample{Status: StatusNoDriver}
	}
	if channel < 1 || channel > d.NumChannels() {
		return Sample{Status: StatusInvalid}
	}
	return d.Read(channel)
}
