package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dialer_backend/platform/logger"
)

type staticConfig struct {
	baseURL    string
	apiKey     string
	fromNumber string
}

func (c staticConfig) GetVoiceAPIBaseURL() string { return c.baseURL }
func (c staticConfig) GetVoiceAPIKey() string     { return c.apiKey }
func (c staticConfig) GetVoiceAgentID() string    { return "agent_1" }
func (c staticConfig) GetVoiceFromNumber() string { return c.fromNumber }
func (c staticConfig) IsVoiceProviderEnabled() bool {
	return c.apiKey != "" && c.fromNumber != ""
}

func TestInitiateNotConfigured(t *testing.T) {
	client := NewClient(staticConfig{baseURL: "http://unused"}, logger.New("development"))

	_, err := client.Initiate(context.Background(), InitiateParams{ToNumber: "+14155552671"})
	if err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestInitiateSendsMetadata(t *testing.T) {
	var captured createCallRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/create-phone-call" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key_test" {
			t.Fatalf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(createCallResponse{CallID: "call_abc", CallStatus: "registered"})
	}))
	defer server.Close()

	client := NewClient(staticConfig{baseURL: server.URL, apiKey: "key_test", fromNumber: "+12025550100"}, logger.New("development"))

	result, err := client.Initiate(context.Background(), InitiateParams{
		ToNumber: "+14155552671",
		LeadID:   "lead-1",
		TenantID: "tenant-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProviderCallID != "call_abc" {
		t.Fatalf("expected call_abc, got %s", result.ProviderCallID)
	}
	if result.Status != StatusPending {
		t.Fatalf("expected pending, got %s", result.Status)
	}
	if captured.Metadata["lead_id"] != "lead-1" || captured.Metadata["tenant_id"] != "tenant-1" {
		t.Fatalf("metadata not forwarded: %#v", captured.Metadata)
	}
	if captured.FromNumber != "+12025550100" {
		t.Fatalf("expected configured from number, got %s", captured.FromNumber)
	}
}

func TestGetCallMapsDuration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(getCallResponse{
			CallID:     "call_abc",
			CallStatus: "ended",
			DurationMS: 42500,
		})
	}))
	defer server.Close()

	client := NewClient(staticConfig{baseURL: server.URL, apiKey: "key_test", fromNumber: "+12025550100"}, logger.New("development"))

	info, err := client.GetCall(context.Background(), "call_abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", info.Status)
	}
	if info.DurationSeconds != 42 {
		t.Fatalf("expected 42 seconds, got %d", info.DurationSeconds)
	}
}

func TestGetCallNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(staticConfig{baseURL: server.URL, apiKey: "key_test", fromNumber: "+12025550100"}, logger.New("development"))

	if _, err := client.GetCall(context.Background(), "missing"); err != ErrCallNotFound {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}
}

func TestMapStatusUnknownStaysPending(t *testing.T) {
	if status := MapStatus("some_future_status"); status != StatusPending {
		t.Fatalf("expected pending, got %s", status)
	}
}
