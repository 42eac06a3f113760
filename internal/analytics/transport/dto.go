// Package transport defines request and response DTOs for the analytics API.
package transport

import (
	"dialer_backend/internal/analytics/domain"
)

// DailyQuery bounds the rollup range. Dates are YYYY-MM-DD; both optional.
type DailyQuery struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

// DailyStatsResponse is one day of the tenant's call activity.
type DailyStatsResponse struct {
	Day                  string `json:"day"`
	CallsMade            int    `json:"callsMade"`
	CallsConnected       int    `json:"callsConnected"`
	CallsCompleted       int    `json:"callsCompleted"`
	CallsFailed          int    `json:"callsFailed"`
	MeetingsBooked       int    `json:"meetingsBooked"`
	TotalDurationSeconds int    `json:"totalDurationSeconds"`
}

// ToDailyStatsResponse maps a rollup row to its API shape.
func ToDailyStatsResponse(stats domain.DailyStats) DailyStatsResponse {
	return DailyStatsResponse{
		Day:                  stats.Day.Format("2006-01-02"),
		CallsMade:            stats.CallsMade,
		CallsConnected:       stats.CallsConnected,
		CallsCompleted:       stats.CallsCompleted,
		CallsFailed:          stats.CallsFailed,
		MeetingsBooked:       stats.MeetingsBooked,
		TotalDurationSeconds: stats.TotalDurationSeconds,
	}
}
