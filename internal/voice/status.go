package voice

// Canonical call statuses used on call records.
const (
	StatusPending    = "pending"
	StatusRinging    = "ringing"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusNoAnswer   = "no_answer"
	StatusVoicemail  = "voicemail"
	StatusFailed     = "failed"
)

var providerStatusMap = map[string]string{
	"registered":     StatusPending,
	"not_connected":  StatusPending,
	"ongoing":        StatusInProgress,
	"ended":          StatusCompleted,
	"error":          StatusFailed,
	"error_llm":      StatusFailed,
	"error_twilio":   StatusFailed,
	"error_no_audio": StatusFailed,
}

// MapStatus translates a provider call status into the canonical vocabulary.
// Unknown provider statuses map to pending so a new provider value never
// terminates a call prematurely.
func MapStatus(providerStatus string) string {
	if mapped, ok := providerStatusMap[providerStatus]; ok {
		return mapped
	}
	return StatusPending
}

// IsTerminal reports whether a canonical status ends the call lifecycle.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusNoAnswer, StatusVoicemail, StatusFailed:
		return true
	}
	return false
}
