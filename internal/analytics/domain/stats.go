// Package domain defines the analytics rollup types.
package domain

import "time"

// ConnectedThresholdSeconds is the minimum duration for a call to count
// as connected rather than a bounce.
const ConnectedThresholdSeconds = 10

// DailyStats is one tenant-day of call activity.
type DailyStats struct {
	Day                  time.Time
	CallsMade            int
	CallsConnected       int
	CallsCompleted       int
	CallsFailed          int
	MeetingsBooked       int
	TotalDurationSeconds int
}
