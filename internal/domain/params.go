package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rolling window limits in days, matching the dashboard input bounds.
const (
	MinWindowDays     = 1
	MaxWindowDays     = 365
	DefaultWindowDays = 30
)

// WindowDuration converts a day count to a rolling window duration.
func WindowDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

// ParseWindow parses a rolling window in days. An empty value yields def.
func ParseWindow(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	days, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number of days", ErrInvalidWindow, s)
	}
	if err := ValidateWindow(days); err != nil {
		return 0, err
	}
	return days, nil
}

// ValidateWindow checks a day count against the allowed range.
func ValidateWindow(days int) error {
	if days < MinWindowDays || days > MaxWindowDays {
		return fmt.Errorf("%w: %d days outside [%d, %d]", ErrInvalidWindow, days, MinWindowDays, MaxWindowDays)
	}
	return nil
}

// YearRange is an inclusive span of calendar years.
type YearRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Years lists every year of the range in order.
func (r YearRange) Years() []int {
	if r.From > r.To {
		return nil
	}
	out := make([]int, 0, r.To-r.From+1)
	for y := r.From; y <= r.To; y++ {
		out = append(out, y)
	}
	return out
}

// ResolveYearRange parses the requested bounds against the available data
// bounds. Empty values default to the data bounds and out-of-range years are
// clamped; an inverted range is rejected.
func ResolveYearRange(fromStr, toStr string, bounds YearRange) (YearRange, error) {
	from, err := parseYear(fromStr, bounds.From)
	if err != nil {
		return YearRange{}, err
	}
	to, err := parseYear(toStr, bounds.To)
	if err != nil {
		return YearRange{}, err
	}
	if from > to {
		return YearRange{}, fmt.Errorf("%w: from %d is after to %d", ErrInvalidRange, from, to)
	}

	r := YearRange{
		From: min(max(from, bounds.From), bounds.To),
		To:   max(min(to, bounds.To), bounds.From),
	}
	return r, nil
}

func parseYear(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a year", ErrInvalidRange, s)
	}
	return y, nil
}
