// Package alarms tracks system health on a fixed taxonomy of alarm
// categories. Alarms are advisory: downstream layers decide what to do
// with them, except where they gate arming.
package alarms

import "sync"

// Alarm identifies one category in the system alarm taxonomy.
type Alarm int

// Alarm categories
const (
	ManualControl Alarm = iota
	Guidance
	GPS
	Telemetry
	Battery
	FlightTime
	Actuator
	Attitude
	Sensors
	SystemConfiguration

	alarmCount
)

var alarmNames = [alarmCount]string{
	"ManualControl",
	"Guidance",
	"GPS",
	"Telemetry",
	"Battery",
	"FlightTime",
	"Actuator",
	"Attitude",
	"Sensors",
	"SystemConfiguration",
}

// String returns the alarm category name.
func (a Alarm) String() string {
	if a < 0 || a >= alarmCount {
		return "Unknown"
	}
	return alarmNames[a]
}

// Count returns the number of alarm categories.
func Count() int { return int(alarmCount) }

// Severity is the reported severity of an alarm category.
type Severity uint8

// Severity levels, ordered so that comparisons are meaningful.
const (
	SeverityClear Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

var severityNames = [...]string{"Clear", "Warning", "Error", "Critical"}

// String returns the severity name.
func (s Severity) String() string {
	if int(s) >= len(severityNames) {
		return "Unknown"
	}
	return severityNames[s]
}

// Set holds the current severity of every alarm category. The zero
// severity is Clear, so a fresh Set reports all alarms clear.
type Set struct {
	mu  sync.RWMutex
	sev [alarmCount]Severity
}

// NewSet returns a Set with every alarm clear.
func NewSet() *Set {
	return &Set{}
}

// Raise sets the severity of an alarm category. Raising to
// SeverityClear is equivalent to Clear.
func (s *Set) Raise(a Alarm, sev Severity) {
	if a < 0 || a >= alarmCount {
		return
	}
	s.mu.Lock()
	s.sev[a] = sev
	s.mu.Unlock()
}

// Clear resets an alarm category to SeverityClear.
func (s *Set) Clear(a Alarm) {
	s.Raise(a, SeverityClear)
}

// Get returns the current severity of an alarm category.
func (s *Set) Get(a Alarm) Severity {
	if a < 0 || a >= alarmCount {
		return SeverityClear
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sev[a]
}

// Snapshot returns a copy of all current severities, indexed by Alarm.
func (s *Set) Snapshot() [alarmCount]Severity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sev
}

// AnyAtOrAbove reports whether any alarm is at the given severity or
// worse, skipping the listed categories.
func (s *Set) AnyAtOrAbove(sev Severity, skip ...Alarm) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
next:
	for a := Alarm(0); a < alarmCount; a++ {
		for _, sk := range skip {
			if a == sk {
				continue next
			}
		}
		if s.sev[a] >= sev {
			return true
		}
	}
	return false
}
