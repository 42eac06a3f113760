// Package transport defines request and response DTOs for the calls API.
package transport

import (
	"time"

	"dialer_backend/internal/calls/domain"
	"dialer_backend/internal/calls/service"

	"github.com/google/uuid"
)

// StartCallRequest asks for an outbound call. Either leadId or toNumber
// must be present.
type StartCallRequest struct {
	LeadID     *uuid.UUID `json:"leadId" validate:"omitempty"`
	ToNumber   string     `json:"toNumber" validate:"omitempty,min=7,max=20"`
	CampaignID string     `json:"campaignId" validate:"omitempty,max=100"`
}

// DispositionRequest records the agent-entered outcome of a call.
type DispositionRequest struct {
	Outcome string `json:"outcome" validate:"required,max=50"`
}

// CallResponse is the API shape of a call record.
type CallResponse struct {
	ID              uuid.UUID  `json:"id,omitempty"`
	ProviderCallID  string     `json:"providerCallId"`
	LeadID          *uuid.UUID `json:"leadId,omitempty"`
	CampaignID      string     `json:"campaignId,omitempty"`
	Direction       string     `json:"direction,omitempty"`
	Status          string     `json:"status"`
	State           string     `json:"state"`
	FromNumber      string     `json:"fromNumber,omitempty"`
	ToNumber        string     `json:"toNumber,omitempty"`
	DurationSeconds int        `json:"durationSeconds"`
	Transcript      string     `json:"transcript,omitempty"`
	Summary         string     `json:"summary,omitempty"`
	Sentiment       string     `json:"sentiment,omitempty"`
	MeetingBooked   bool       `json:"meetingBooked"`
	RecordingURL    string     `json:"recordingUrl,omitempty"`
	Disposition     string     `json:"disposition,omitempty"`
	DispositionedAt *time.Time `json:"dispositionedAt,omitempty"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt,omitzero"`
	Source          string     `json:"source,omitempty"`
}

// ToCallResponse maps a call record to its API shape.
func ToCallResponse(call domain.Call) CallResponse {
	return CallResponse{
		ID:              call.ID,
		ProviderCallID:  call.ProviderCallID,
		LeadID:          call.LeadID,
		CampaignID:      call.CampaignID,
		Direction:       call.Direction,
		Status:          call.Status,
		State:           string(call.State()),
		FromNumber:      call.FromNumber,
		ToNumber:        call.ToNumber,
		DurationSeconds: call.DurationSeconds,
		Transcript:      call.Transcript,
		Summary:         call.Summary,
		Sentiment:       call.Sentiment,
		MeetingBooked:   call.MeetingBooked,
		RecordingURL:    call.RecordingURL,
		Disposition:     call.Disposition,
		DispositionedAt: call.DispositionedAt,
		StartedAt:       call.StartedAt,
		EndedAt:         call.EndedAt,
		CreatedAt:       call.CreatedAt,
	}
}

// ToGetResponse maps a read result, annotating where it came from.
func ToGetResponse(result service.GetResult) CallResponse {
	resp := ToCallResponse(result.Call)
	resp.Source = result.Source
	return resp
}
