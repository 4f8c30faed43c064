package ui

import (
	"time"

	"github.com/docker/go-units"
)

// Size formats a byte count with decimal units ("1.2MB").
func Size(n int64) string {
	if n < 0 {
		return "?"
	}
	return units.HumanSize(float64(n))
}

// Rate formats a transfer rate.
func Rate(bytesPerSecond float64) string {
	if bytesPerSecond <= 0 {
		return "-"
	}
	return units.HumanSize(bytesPerSecond) + "/s"
}

// Ago formats how long before now t happened ("3 hours ago").
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return units.HumanDuration(now.Sub(t)) + " ago"
}
