package manualcontrol

import "testing"

func TestDecodeSwitchPosition(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		positions int
		want      int
	}{
		{"three-pos bottom", -1.0, 3, 0},
		{"three-pos center", 0.0, 3, 1},
		{"three-pos top", 1.0, 3, 2},
		{"three-pos low mid", -0.5, 3, 0},
		{"three-pos high mid", 0.5, 3, 2},

		{"two-pos low", -1.0, 2, 0},
		{"two-pos high", 1.0, 2, 1},

		{"six-pos bottom", -1.0, 6, 0},
		{"six-pos top", 1.0, 6, 5},

		{"single position", 0.3, 1, 0},
		{"over-travel clamps high", 1.2, 3, 2},
		{"over-travel clamps low", -1.2, 3, 0},
		{"no positions", 0.0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeSwitchPosition(tt.value, tt.positions)
			if got != tt.want {
				t.Errorf("DecodeSwitchPosition(%v, %d) = %d, want %d",
					tt.value, tt.positions, got, tt.want)
			}
		})
	}
}

func TestDecodeSwitchPositionCoverage(t *testing.T) {
	// Sweeping the whole stick travel must hit every position of every
	// table size, in order, with no gaps.
	for positions := 1; positions <= MaxFlightModePositions; positions++ {
		prev := 0
		seen := make(map[int]bool)
		for v := -1.0; v <= 1.0; v += 0.001 {
			pos := DecodeSwitchPosition(v, positions)
			if pos < 0 || pos >= positions {
				t.Fatalf("positions=%d value=%v: out of range position %d", positions, v, pos)
			}
			if pos < prev {
				t.Fatalf("positions=%d value=%v: position went backwards %d -> %d", positions, v, prev, pos)
			}
			prev = pos
			seen[pos] = true
		}
		if len(seen) != positions {
			t.Errorf("positions=%d: sweep hit %d distinct positions", positions, len(seen))
		}
	}
}
