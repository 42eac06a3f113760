// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"dialer_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Call Domain Events
// =============================================================================

// CallEnded is published when a call record reaches a terminal status.
type CallEnded struct {
	BaseEvent
	TenantID        uuid.UUID  `json:"tenantId"`
	ProviderCallID  string     `json:"providerCallId"`
	LeadID          *uuid.UUID `json:"leadId,omitempty"`
	Status          string     `json:"status"`
	DurationSeconds int        `json:"durationSeconds"`
}

func (e CallEnded) EventName() string { return "calls.call.ended" }

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadQualified is published when call analysis assigns a lead score.
type LeadQualified struct {
	BaseEvent
	TenantID uuid.UUID `json:"tenantId"`
	LeadID   uuid.UUID `json:"leadId"`
	Score    string    `json:"score"`
	Status   string    `json:"status"`
	Summary  string    `json:"summary,omitempty"`
}

func (e LeadQualified) EventName() string { return "leads.lead.qualified" }

// MeetingBooked is published when a call results in a scheduled meeting.
type MeetingBooked struct {
	BaseEvent
	TenantID       uuid.UUID `json:"tenantId"`
	LeadID         uuid.UUID `json:"leadId"`
	ProviderCallID string    `json:"providerCallId"`
	Summary        string    `json:"summary,omitempty"`
}

func (e MeetingBooked) EventName() string { return "leads.meeting.booked" }
