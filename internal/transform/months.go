// Package transform converts between the backend's month/source record shape
// and the editable UI row shape, and carries the small helpers that come with
// that: month arithmetic, numeric sanitization, and per-month aggregation.
package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseYM converts a YYYY-MM string into a linear month index
// (year*12 + month-1), which makes month-offset arithmetic trivial across
// year boundaries.
func ParseYM(ym string) (int, error) {
	parts := strings.SplitN(ym, "-", 2)
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid month %q: want YYYY-MM", ym)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid month %q: %w", ym, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid month %q: %w", ym, err)
	}
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("invalid month %q: month out of range", ym)
	}

	return year*12 + month - 1, nil
}

// FormatYM converts a linear month index back into a YYYY-MM string.
func FormatYM(index int) string {
	return fmt.Sprintf("%04d-%02d", index/12, index%12+1)
}

// AddMonths offsets a YYYY-MM string by delta months, handling year rollover
// in both directions. AddMonths(ym, d) and AddMonths(result, -d) are exact
// inverses.
func AddMonths(ym string, delta int) (string, error) {
	index, err := ParseYM(ym)
	if err != nil {
		return "", err
	}
	return FormatYM(index + delta), nil
}

// PreviousMonth returns the YYYY-MM string for the calendar month before t.
func PreviousMonth(t time.Time) string {
	index := t.Year()*12 + int(t.Month()) - 1
	return FormatYM(index - 1)
}
