package manualcontrol

// ScaleChannel converts a raw pulse reading to the normalized -1..+1
// range given the channel's calibration. The two sides of neutral are
// scaled independently so unequal upper/lower travel and non-centered
// trims stay continuous at neutral. Reversed channels (min > max) are
// supported.
func ScaleChannel(value, max, min, neutral int) float64 {
	var scaled float64

	if (max > min && value >= neutral) || (min > max && value <= neutral) {
		if max != neutral {
			scaled = float64(value-neutral) / float64(max-neutral)
		}
	} else {
		if min != neutral {
			scaled = float64(value-neutral) / float64(neutral-min)
		}
	}

	if scaled > 1.0 {
		scaled = 1.0
	} else if scaled < -1.0 {
		scaled = -1.0
	}
	return scaled
}

// ValidInputRange reports whether a pulse value is close enough to the
// configured channel range to be trusted, allowing ConnectionOffset
// microseconds of slack on both ends. Swapped min/max is tolerated.
func ValidInputRange(min, max int, value uint16) bool {
	if min > max {
		min, max = max, min
	}
	return int(value) >= min-ConnectionOffset && int(value) <= max+ConnectionOffset
}
