package similarity

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOverlap scores how much two same-day time windows overlap. Times are
// "HH:MM" strings parsed as minutes since midnight; the result is
// overlap / max(duration1, duration2), so two identical windows score 1.0
// and disjoint windows score 0. Windows that cannot be parsed, or that are
// degenerate (end <= start), score 0. Overnight shifts are not supported.
func TimeOverlap(start1, end1, start2, end2 string) float64 {
	s1, err := ParseMinutes(start1)
	if err != nil {
		return 0.0
	}
	e1, err := ParseMinutes(end1)
	if err != nil {
		return 0.0
	}
	s2, err := ParseMinutes(start2)
	if err != nil {
		return 0.0
	}
	e2, err := ParseMinutes(end2)
	if err != nil {
		return 0.0
	}

	d1 := e1 - s1
	d2 := e2 - s2
	if d1 <= 0 || d2 <= 0 {
		return 0.0
	}

	overlap := min(e1, e2) - max(s1, s2)
	if overlap <= 0 {
		return 0.0
	}

	return float64(overlap) / float64(max(d1, d2))
}

// DateMatch scores two work dates: 1.0 on exact equality, 0 otherwise.
// There is no near-date credit.
func DateMatch(d1, d2 string) float64 {
	d1 = strings.TrimSpace(d1)
	d2 = strings.TrimSpace(d2)
	if d1 == "" || d2 == "" {
		return 0.0
	}
	if d1 == d2 {
		return 1.0
	}
	return 0.0
}

// ParseMinutes parses an "HH:MM" time of day into minutes since midnight.
func ParseMinutes(t string) (int, error) {
	parts := strings.Split(strings.TrimSpace(t), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time of day %q", t)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", t)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", t)
	}

	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time of day %q out of range", t)
	}

	return hours*60 + minutes, nil
}
