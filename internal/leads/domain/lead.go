// Package domain holds the lead model and its closed vocabularies.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead score buckets assigned by call analysis.
const (
	ScoreHot  = "hot"
	ScoreWarm = "warm"
	ScoreCold = "cold"
)

// Lead statuses. StatusNew and StatusNoAnswer mark a lead as callable by
// the auto-dialer; the rest take it out of the queue.
const (
	StatusNew              = "new"
	StatusContacted        = "contacted"
	StatusInterested       = "interested"
	StatusNotInterested    = "not_interested"
	StatusNoAnswer         = "no_answer"
	StatusMeetingScheduled = "meeting_scheduled"
	StatusInvalid          = "invalid"
)

var knownStatuses = map[string]struct{}{
	StatusNew:              {},
	StatusContacted:        {},
	StatusInterested:       {},
	StatusNotInterested:    {},
	StatusNoAnswer:         {},
	StatusMeetingScheduled: {},
	StatusInvalid:          {},
}

var knownScores = map[string]struct{}{
	ScoreHot:  {},
	ScoreWarm: {},
	ScoreCold: {},
}

// IsKnownStatus reports whether value is a recognized lead status.
func IsKnownStatus(value string) bool {
	_, ok := knownStatuses[value]
	return ok
}

// IsKnownScore reports whether value is a recognized lead score.
func IsKnownScore(value string) bool {
	_, ok := knownScores[value]
	return ok
}

// CallableStatuses are the statuses the dialer queue selects from.
func CallableStatuses() []string {
	return []string{StatusNew, StatusNoAnswer}
}

// Lead is a prospective customer owned by a tenant.
type Lead struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	BusinessName    string
	ContactName     string
	Phone           string
	PhoneMatchKey   string
	Email           string
	Address         string
	City            string
	Industry        string
	Score           string
	Status          string
	Notes           string
	LastContactedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
