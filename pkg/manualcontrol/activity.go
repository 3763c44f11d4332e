package manualcontrol

import "github.com/openfcs/flightinput/pkg/receiver"

// ActivityMonitor detects which input source is currently receiving
// operator input. It is a round-robin FSM that advances one source
// group per two cycles (baseline sample, then comparison), skipping
// unbound groups, so the per-cycle cost stays bounded no matter how
// many groups exist. It only runs while the vehicle is disarmed.
type ActivityMonitor struct {
	group        receiver.Group
	baseline     [ActivityChannelsPerGroup]uint16
	haveBaseline bool
}

// NewActivityMonitor returns a monitor positioned at the first group
// with no baseline taken.
func NewActivityMonitor() *ActivityMonitor {
	return &ActivityMonitor{}
}

// Reset rewinds the monitor to the first group and discards the
// baseline. Called when no activity has been seen for a while or when
// the vehicle leaves the disarmed state.
func (m *ActivityMonitor) Reset() {
	m.group = 0
	m.haveBaseline = false
}

// Update advances the FSM by at most one step and reports any detected
// activity. With no baseline yet it samples the current group and does
// not advance. Otherwise it compares against the baseline, then moves
// to the next bound group and samples it immediately so the next cycle
// can already compare.
func (m *ActivityMonitor) Update(rcvrs *receiver.GroupMap) (ReceiverActivity, bool) {
	activity := NoActivity()
	detected := false

	if !m.group.Valid() {
		m.Reset()
	}

	if rcvrs.Bound(m.group) {
		if !m.haveBaseline {
			m.sample(rcvrs, m.group)
			m.haveBaseline = true
			return activity, false
		}

		for ch := 1; ch <= ActivityChannelsPerGroup; ch++ {
			prev := m.baseline[ch-1]
			s := rcvrs.Read(m.group, ch)
			if !s.Valid() {
				continue
			}
			var delta uint16
			if s.Value > prev {
				delta = s.Value - prev
			} else {
				delta = prev - s.Value
			}
			if delta > ActivityMinRange {
				activity = ReceiverActivity{ActiveGroup: m.group, ActiveChannel: ch}
				detected = true
			}
		}
	}

	m.advance(rcvrs)
	return activity, detected
}

// advance moves to the next bound group, wrapping, and resamples its
// baseline immediately to avoid an extra idle cycle. The search is
// bounded so an empty map cannot loop forever.
func (m *ActivityMonitor) advance(rcvrs *receiver.GroupMap) {
	m.haveBaseline = false
	for i := 0; i < receiver.GroupCount; i++ {
		m.group++
		if !m.group.Valid() {
			m.group = 0
		}
		if rcvrs.Bound(m.group) {
			m.sample(rcvrs, m.group)
			m.haveBaseline = true
			return
		}
	}
}

func (m *ActivityMonitor) sample(rcvrs *receiver.GroupMap, g receiver.Group) {
	for ch := 1; ch <= ActivityChannelsPerGroup; ch++ {
		s := rcvrs.Read(g, ch)
		if s.Valid() {
			m.baseline[ch-1] = s.Value
		} else {
			m.baseline[ch-1] = 0
		}
	}
}
