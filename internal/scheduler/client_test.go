package scheduler

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

type staticSchedulerConfig struct {
	redisURL string
}

func (c staticSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c staticSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c staticSchedulerConfig) GetAsynqQueue() string     { return "test" }
func (c staticSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewClient(staticSchedulerConfig{redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(staticSchedulerConfig{}); err == nil {
		t.Fatal("expected error without redis url")
	}
}

func TestEnqueueWebhookReconcile(t *testing.T) {
	client := newTestClient(t)

	err := client.EnqueueWebhookReconcile(context.Background(), []byte(`{"event":"call_ended"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnqueueDialerRun(t *testing.T) {
	client := newTestClient(t)

	if err := client.EnqueueDialerRun(context.Background(), uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnqueueRecordingArchive(t *testing.T) {
	client := newTestClient(t)

	err := client.EnqueueRecordingArchive(context.Background(), "call_1", "https://example.com/rec.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
