package webhook

import (
	"time"
)

// Provider event types.
const (
	EventCallStarted  = "call_started"
	EventCallEnded    = "call_ended"
	EventCallAnalyzed = "call_analyzed"
	EventFunctionCall = "function_call"
)

// ProviderEvent is one webhook delivery from the voice provider.
type ProviderEvent struct {
	Event string       `json:"event"`
	Call  ProviderCall `json:"call"`
}

// ProviderCall is the call object embedded in every provider event.
// Fields fill in progressively: a started event carries little more than
// the ids, the analyzed event carries the transcript and analysis.
type ProviderCall struct {
	CallID           string            `json:"call_id"`
	AgentID          string            `json:"agent_id"`
	Direction        string            `json:"direction"`
	CallStatus       string            `json:"call_status"`
	FromNumber       string            `json:"from_number"`
	ToNumber         string            `json:"to_number"`
	DurationMS       int64             `json:"duration_ms"`
	StartTimestamp   int64             `json:"start_timestamp"`
	EndTimestamp     int64             `json:"end_timestamp"`
	Transcript       string            `json:"transcript"`
	RecordingURL     string            `json:"recording_url"`
	DynamicVariables map[string]string `json:"retell_llm_dynamic_variables"`
	Metadata         map[string]string `json:"metadata"`
	CallAnalysis     *CallAnalysis     `json:"call_analysis"`
}

// CallAnalysis is the provider's post-call analysis block, present on
// analyzed events only.
type CallAnalysis struct {
	CallSummary    string `json:"call_summary"`
	UserSentiment  string `json:"user_sentiment"`
	CallSuccessful bool   `json:"call_successful"`
}

// DurationSeconds derives the call duration, preferring the explicit
// field over the timestamp delta.
func (c ProviderCall) DurationSeconds() int {
	if c.DurationMS > 0 {
		return int(c.DurationMS / 1000)
	}
	if c.EndTimestamp > c.StartTimestamp && c.StartTimestamp > 0 {
		return int((c.EndTimestamp - c.StartTimestamp) / 1000)
	}
	return 0
}

// EndedAt derives the call end time from the millisecond timestamp.
func (c ProviderCall) EndedAt() *time.Time {
	if c.EndTimestamp == 0 {
		return nil
	}
	t := time.UnixMilli(c.EndTimestamp).UTC()
	return &t
}

// CallerNumber is the prospect-side number: the origin for inbound
// calls, the destination for outbound.
func (c ProviderCall) CallerNumber() string {
	if c.Direction == "inbound" {
		return c.FromNumber
	}
	return c.ToNumber
}

// Variable returns a dynamic variable by name, empty when absent.
func (c ProviderCall) Variable(name string) string {
	if c.DynamicVariables == nil {
		return ""
	}
	return c.DynamicVariables[name]
}

// Meta returns a metadata value by name, empty when absent.
func (c ProviderCall) Meta(name string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[name]
}
