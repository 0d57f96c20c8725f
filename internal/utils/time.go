package utils

import "time"

// IsStale reports whether a snapshot taken at refreshedAt is older than maxAge.
// A zero time is always stale.
func IsStale(refreshedAt time.Time, maxAge time.Duration) bool {
	if refreshedAt.IsZero() {
		return true
	}
	return time.Since(refreshedAt) > maxAge
}

// HumanizeAge renders the elapsed time since t in the coarsest useful unit
func HumanizeAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	elapsed := time.Since(t)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return elapsed.Truncate(time.Minute).String() + " ago"
	default:
		return elapsed.Truncate(time.Hour).String() + " ago"
	}
}
