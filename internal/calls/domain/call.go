package domain

import (
	"time"

	"dialer_backend/internal/voice"

	"github.com/google/uuid"
)

// Call directions.
const (
	DirectionOutbound = "outbound"
	DirectionInbound  = "inbound"
)

// Call is the record of one provider call, keyed by the provider call id.
type Call struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	ProviderCallID  string
	LeadID          *uuid.UUID
	CampaignID      string
	Direction       string
	Status          string
	FromNumber      string
	ToNumber        string
	DurationSeconds int
	Transcript      string
	Summary         string
	Sentiment       string
	MeetingBooked   bool
	RecordingURL    string
	RecordingKey    string
	Disposition     string
	DispositionedAt *time.Time
	StartedAt       *time.Time
	EndedAt         *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// State derives the lifecycle state from the stored record.
func (c Call) State() State {
	if c.DispositionedAt != nil {
		return StateDispositioned
	}
	if voice.IsTerminal(c.Status) {
		return StateEnded
	}
	if c.Status == voice.StatusInProgress {
		return StateConnected
	}
	return StateRinging
}
