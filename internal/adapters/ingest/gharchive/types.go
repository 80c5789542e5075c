package gharchive

import (
	"fmt"
	"path/filepath"
	"time"
)

// DefaultBaseURL is the public GH Archive host
const DefaultBaseURL = "https://data.gharchive.org"

const (
	gzSuffix   = ".json.gz"
	jsonSuffix = ".json"
	partSuffix = ".part"
)

// HourRef identifies a GH Archive hour bucket (UTC)
type HourRef struct {
	Year  int
	Month int
	Day   int
	Hour  int
}

// NewHourRef creates an HourRef from a time.Time, converting to UTC
func NewHourRef(t time.Time) HourRef {
	ut := t.UTC()
	return HourRef{Year: ut.Year(), Month: int(ut.Month()), Day: ut.Day(), Hour: ut.Hour()}
}

// String returns the bucket name: YYYY-MM-DD-H with the hour not zero padded
func (h HourRef) String() string {
	return fmt.Sprintf("%04d-%02d-%02d-%d", h.Year, h.Month, h.Day, h.Hour)
}

// Time returns the start of the hour in UTC
func (h HourRef) Time() time.Time {
	return time.Date(h.Year, time.Month(h.Month), h.Day, h.Hour, 0, 0, 0, time.UTC)
}

// DayStart returns midnight UTC of the bucket's day
func (h HourRef) DayStart() time.Time {
	return time.Date(h.Year, time.Month(h.Month), h.Day, 0, 0, 0, 0, time.UTC)
}

// DayString returns the bucket's day as YYYY-MM-DD
func (h HourRef) DayString() string {
	return fmt.Sprintf("%04d-%02d-%02d", h.Year, h.Month, h.Day)
}

// Before reports whether h is earlier than o
func (h HourRef) Before(o HourRef) bool { return h.Time().Before(o.Time()) }

// LastOfDay reports whether h is hour 23, the first bucket of its day in descending traversal
func (h HourRef) LastOfDay() bool { return h.Hour == 23 }

// FirstOfDay reports whether h is hour 0, the final bucket of its day in descending traversal
func (h HourRef) FirstOfDay() bool { return h.Hour == 0 }

// URL returns the download URL for the bucket under base
func (h HourRef) URL(base string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/" + h.String() + gzSuffix
}

// GzPath returns the compressed artifact path under dir
func (h HourRef) GzPath(dir string) string { return filepath.Join(dir, h.String()+gzSuffix) }

// JSONPath returns the expanded raw line file path under dir
func (h HourRef) JSONPath(dir string) string { return filepath.Join(dir, h.String()+jsonSuffix) }

// ParseHourRef parses a bucket name (YYYY-MM-DD-H) back into an HourRef
func ParseHourRef(s string) (HourRef, error) {
	t, err := time.ParseInLocation("2006-01-02-15", s, time.UTC)
	if err != nil {
		return HourRef{}, err
	}
	return NewHourRef(t), nil
}
