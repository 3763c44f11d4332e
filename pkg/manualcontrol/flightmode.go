package manualcontrol

// DecodeSwitchPosition quantizes the normalized mode-switch value into
// one of positions buckets. The mapping is linear and deterministic:
// -1.0 lands exactly on bucket 0 and +1.0 on the last bucket.
func DecodeSwitchPosition(value float64, positions int) int {
	if positions < 1 {
		return 0
	}
	pos := ((int(value*256) + 256) * positions) >> 9
	if pos < 0 {
		pos = 0
	}
	if pos >= positions {
		pos = positions - 1
	}
	return pos
}
