package store

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var monthRegex = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// MonthKey returns the "YYYY-MM" label of t in loc. A nil loc means local time.
func MonthKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// RecentMonthKeys returns the month of now and the n-1 months before it,
// most recent first. It walks the month index rather than subtracting days,
// so year boundaries never skip or repeat a month.
func RecentMonthKeys(now time.Time, n int, loc *time.Location) []string {
	if n <= 0 {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	idx := now.Year()*12 + int(now.Month()) - 1

	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		k := idx - i
		keys = append(keys, fmt.Sprintf("%04d-%02d", k/12, k%12+1))
	}
	return keys
}

// ValidMonth reports whether label is a well-formed "YYYY-MM" with month 01-12.
func ValidMonth(label string) bool {
	m := monthRegex.FindStringSubmatch(label)
	if m == nil {
		return false
	}
	month, _ := strconv.Atoi(m[2])
	return month >= 1 && month <= 12
}

// ParseMonth parses a "YYYY-MM" label into the first instant of that month in loc.
func ParseMonth(label string, loc *time.Location) (time.Time, error) {
	if !ValidMonth(label) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, label)
	}
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation("2006-01", label, loc)
}
