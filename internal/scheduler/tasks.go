package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskWebhookReconcile = "webhook.reconcile"

const TaskDialerRun = "dialer.run"

const TaskRecordingArchive = "calls.recording.archive"

type DialerRunPayload struct {
	TenantID string `json:"tenantId"`
}

type RecordingArchivePayload struct {
	ProviderCallID string `json:"providerCallId"`
	RecordingURL   string `json:"recordingUrl"`
}

// NewWebhookReconcileTask wraps a raw provider delivery. The payload is
// the unmodified webhook body so the worker parses exactly what the
// provider sent.
func NewWebhookReconcileTask(body []byte) *asynq.Task {
	return asynq.NewTask(TaskWebhookReconcile, body)
}

func NewDialerRunTask(payload DialerRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDialerRun, data), nil
}

func ParseDialerRunPayload(task *asynq.Task) (DialerRunPayload, error) {
	var payload DialerRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DialerRunPayload{}, err
	}
	return payload, nil
}

func NewRecordingArchiveTask(payload RecordingArchivePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecordingArchive, data), nil
}

func ParseRecordingArchivePayload(task *asynq.Task) (RecordingArchivePayload, error) {
	var payload RecordingArchivePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RecordingArchivePayload{}, err
	}
	return payload, nil
}
