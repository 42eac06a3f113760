package service

import (
	"slices"

	leaddomain "dialer_backend/internal/leads/domain"
	"dialer_backend/internal/voice"
)

// dispositionOutcome maps an agent-entered outcome label onto the call
// record status and the lead status mutation it implies.
type dispositionOutcome struct {
	CallStatus    string
	LeadStatus    string
	MeetingBooked bool
}

var dispositionOutcomes = map[string]dispositionOutcome{
	"meeting_booked": {CallStatus: voice.StatusCompleted, LeadStatus: leaddomain.StatusMeetingScheduled, MeetingBooked: true},
	"interested":     {CallStatus: voice.StatusCompleted, LeadStatus: leaddomain.StatusInterested},
	"not_interested": {CallStatus: voice.StatusCompleted, LeadStatus: leaddomain.StatusNotInterested},
	"callback":       {CallStatus: voice.StatusCompleted, LeadStatus: leaddomain.StatusContacted},
	"no_answer":      {CallStatus: voice.StatusNoAnswer, LeadStatus: leaddomain.StatusNoAnswer},
	"voicemail":      {CallStatus: voice.StatusVoicemail, LeadStatus: leaddomain.StatusNoAnswer},
	"wrong_number":   {CallStatus: voice.StatusFailed, LeadStatus: leaddomain.StatusInvalid},
}

// DispositionLabels lists the accepted outcome labels, sorted.
func DispositionLabels() []string {
	labels := make([]string, 0, len(dispositionOutcomes))
	for label := range dispositionOutcomes {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}
