// Package scoring infers a lead score and status from call analysis signals.
// The rules are ordered; the first matching rule wins.
package scoring

import (
	"strings"

	"dialer_backend/internal/leads/domain"
)

// Signals carries the call analysis fields that drive score and status
// inference. String fields may be empty when the provider omitted them.
type Signals struct {
	CallerName     string
	BusinessName   string
	Phone          string
	Email          string
	Urgency        string
	Sentiment      string
	CallSuccessful bool
	Summary        string
}

// InferScore assigns hot, warm or cold.
//
// Hot: the urgency signal is exactly "today" or "urgent" (a phrase like
// "not today" carries no urgency), or a positive sentiment on a successful
// call. Warm: enough identity captured to follow up (name+phone or
// business+email). Everything else is cold.
func InferScore(sig Signals) string {
	urgency := strings.ToLower(strings.TrimSpace(sig.Urgency))
	if urgency == "today" || urgency == "urgent" {
		return domain.ScoreHot
	}
	if isPositive(sig.Sentiment) && sig.CallSuccessful {
		return domain.ScoreHot
	}

	if sig.CallerName != "" && sig.Phone != "" {
		return domain.ScoreWarm
	}
	if sig.BusinessName != "" && sig.Email != "" {
		return domain.ScoreWarm
	}

	return domain.ScoreCold
}

// InferStatus assigns the post-call lead status.
//
// A summary that mentions a scheduled or booked appointment wins over
// everything; otherwise a positive or successful call marks the lead
// interested, and any other completed call marks it contacted.
func InferStatus(sig Signals) string {
	summary := strings.ToLower(sig.Summary)
	if strings.Contains(summary, "scheduled") || strings.Contains(summary, "booked") {
		return domain.StatusMeetingScheduled
	}

	if isPositive(sig.Sentiment) || sig.CallSuccessful {
		return domain.StatusInterested
	}

	return domain.StatusContacted
}

func isPositive(sentiment string) bool {
	return strings.EqualFold(strings.TrimSpace(sentiment), "positive")
}
