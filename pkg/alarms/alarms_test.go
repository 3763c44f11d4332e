package alarms

import "testing"

func TestRaiseGetClear(t *testing.T) {
	s := NewSet()

	if got := s.Get(GPS); got != SeverityClear {
		t.Fatalf("fresh set: GPS = %v, want Clear", got)
	}

	s.Raise(GPS, SeverityError)
	if got := s.Get(GPS); got != SeverityError {
		t.Fatalf("after Raise: GPS = %v, want Error", got)
	}
	if got := s.Get(Telemetry); got != SeverityClear {
		t.Fatalf("unrelated alarm affected: Telemetry = %v", got)
	}

	s.Clear(GPS)
	if got := s.Get(GPS); got != SeverityClear {
		t.Fatalf("after Clear: GPS = %v, want Clear", got)
	}
}

func TestAnyAtOrAbove(t *testing.T) {
	s := NewSet()
	s.Raise(Battery, SeverityWarning)

	if s.AnyAtOrAbove(SeverityError) {
		t.Fatal("warning counted as error")
	}
	if !s.AnyAtOrAbove(SeverityWarning) {
		t.Fatal("warning not found at its own level")
	}

	s.Raise(Attitude, SeverityCritical)
	if !s.AnyAtOrAbove(SeverityError) {
		t.Fatal("critical not found at error level")
	}
}

func TestAnyAtOrAboveSkips(t *testing.T) {
	s := NewSet()
	s.Raise(GPS, SeverityError)
	s.Raise(Telemetry, SeverityCritical)

	if s.AnyAtOrAbove(SeverityError, GPS, Telemetry) {
		t.Fatal("skipped alarms still counted")
	}

	s.Raise(Sensors, SeverityError)
	if !s.AnyAtOrAbove(SeverityError, GPS, Telemetry) {
		t.Fatal("non-skipped alarm not counted")
	}
}

func TestSnapshot(t *testing.T) {
	s := NewSet()
	s.Raise(ManualControl, SeverityWarning)

	snap := s.Snapshot()
	if snap[ManualControl] != SeverityWarning {
		t.Fatalf("snapshot[ManualControl] = %v, want Warning", snap[ManualControl])
	}

	// The snapshot is a copy: later changes must not show up in it.
	s.Raise(ManualControl, SeverityCritical)
	if snap[ManualControl] != SeverityWarning {
		t.Fatal("snapshot changed after a later Raise")
	}
}

func TestOutOfRangeAlarmIgnored(t *testing.T) {
	s := NewSet()
	s.Raise(Alarm(-1), SeverityCritical)
	s.Raise(Alarm(1000), SeverityCritical)
	if s.AnyAtOrAbove(SeverityWarning) {
		t.Fatal("out-of-range raise affected the set")
	}
	if got := s.Get(Alarm(1000)); got != SeverityClear {
		t.Fatalf("out-of-range Get = %v, want Clear", got)
	}
}
