package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dialer_backend/platform/logger"
)

// RecordingStore is the key writeback on the call record. Satisfied by
// the calls repository.
type RecordingStore interface {
	SetRecordingKey(ctx context.Context, providerCallID, recordingKey string) error
}

// RecordingArchiver copies provider recordings into our own bucket.
// Provider recording URLs expire; archived copies do not.
type RecordingArchiver struct {
	storage    *MinIOService
	calls      RecordingStore
	httpClient *http.Client
	log        *logger.Logger
}

// NewRecordingArchiver creates a new recording archiver.
func NewRecordingArchiver(storage *MinIOService, calls RecordingStore, log *logger.Logger) *RecordingArchiver {
	return &RecordingArchiver{
		storage:    storage,
		calls:      calls,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        log,
	}
}

// Archive downloads the recording and stores it under a key derived from
// the provider call id, then saves the key on the call record. Archiving
// the same call twice overwrites the same object, so replays are safe.
func (a *RecordingArchiver) Archive(ctx context.Context, providerCallID, recordingURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return fmt.Errorf("build recording request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download recording: unexpected status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/wav"
	}

	fileKey := fmt.Sprintf("recordings/%s.wav", providerCallID)
	if err := a.storage.Upload(ctx, fileKey, contentType, resp.Body, resp.ContentLength); err != nil {
		return err
	}

	if err := a.calls.SetRecordingKey(ctx, providerCallID, fileKey); err != nil {
		return fmt.Errorf("save recording key: %w", err)
	}

	a.log.Info("recording archived", "providerCallId", providerCallID, "fileKey", fileKey)
	return nil
}
