// Package interval implements date-range arithmetic for reservations.
//
// A stay occupies the half-open range [check_in, check_out): the guest holds
// the night of check_in but not the night of check_out, so one booking ending
// and another starting on the same day never conflict.
package interval

import "time"

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share at least
// one night. Back-to-back ranges do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Nights returns the number of nights covered by [start, end), rounding
// partial days down. Non-positive ranges yield zero.
func Nights(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}
