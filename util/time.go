package util

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

const DateKeyLayout = "2006-01-02"

// DateKey - Calendar date of the timestamp as a sortable key.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// HourKey - Hour of day (00-23), zero padded so lexicographic order
// matches numeric order inside grouped results.
func HourKey(t time.Time) string {
	return fmt.Sprintf("%02d", t.Hour())
}

func BeginningOfDay(t time.Time) time.Time {
	return now.New(t).BeginningOfDay()
}

func EndOfDay(t time.Time) time.Time {
	return now.New(t).EndOfDay()
}

// WithinRange reports whether t falls inside [from, to]. A zero bound
// leaves that side of the range open.
func WithinRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

func ParseDate(dateStr string) (time.Time, error) {
	return time.Parse(DateKeyLayout, dateStr)
}
