package trip

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var hhmmPattern = regexp.MustCompile(`^(\d{1,3}):(\d{2})$`)

// ParseHHMM converts duration text in H:MM or HH:MM form into total minutes.
// The hour part is 1-3 digits, the minute part exactly two; minutes of 60 or
// more are rejected. The error result is distinct from a legitimate zero.
func ParseHHMM(s string) (int, error) {
	m := hhmmPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("duration %q: want H:MM (e.g., 1:15, 02:30)", s)
	}
	mins, err := strconv.Atoi(m[2])
	if err != nil || mins >= 60 {
		return 0, fmt.Errorf("duration %q: minutes must be 00-59", s)
	}
	hours, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("duration %q: want H:MM (e.g., 1:15, 02:30)", s)
	}
	return hours*60 + mins, nil
}

// FormatHHMM is the lossless inverse of ParseHHMM, used to normalize input on
// field exit. Negative minutes clamp to zero.
func FormatHHMM(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// amount returns v when it is a usable non-negative quantity, zero otherwise.
// Malformed amounts are excluded from sums rather than failing the cycle.
func amount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
