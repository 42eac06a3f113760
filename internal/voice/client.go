// Package voice provides the HTTP client for the outbound voice provider.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"dialer_backend/platform/config"
	"dialer_backend/platform/logger"
)

// ErrNotConfigured is returned when the provider credentials are absent.
// Callers surface this distinctly (503) so operators can tell a missing
// configuration apart from a provider failure.
var ErrNotConfigured = errors.New("voice provider not configured")

// Client calls the voice provider REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	agentID    string
	fromNumber string
	log        *logger.Logger
}

// NewClient creates a provider client from configuration.
func NewClient(cfg config.VoiceProviderConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.GetVoiceAPIBaseURL(),
		apiKey:     cfg.GetVoiceAPIKey(),
		agentID:    cfg.GetVoiceAgentID(),
		fromNumber: cfg.GetVoiceFromNumber(),
		log:        log,
	}
}

// IsConfigured reports whether the client can place calls.
func (c *Client) IsConfigured() bool {
	return c.apiKey != "" && c.fromNumber != ""
}

// InitiateParams describes an outbound call request.
type InitiateParams struct {
	ToNumber   string
	LeadID     string
	CampaignID string
	TenantID   string
	Variables  map[string]string
}

// InitiateResult is the provider's answer to a create-call request.
type InitiateResult struct {
	ProviderCallID string
	Status         string
}

type createCallRequest struct {
	FromNumber       string            `json:"from_number"`
	ToNumber         string            `json:"to_number"`
	OverrideAgentID  string            `json:"override_agent_id,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	DynamicVariables map[string]string `json:"retell_llm_dynamic_variables,omitempty"`
}

type createCallResponse struct {
	CallID     string `json:"call_id"`
	CallStatus string `json:"call_status"`
}

// Initiate places an outbound call. The lead, campaign and tenant ids travel
// as provider metadata so webhook events can be attributed later.
func (c *Client) Initiate(ctx context.Context, params InitiateParams) (InitiateResult, error) {
	if !c.IsConfigured() {
		return InitiateResult{}, ErrNotConfigured
	}

	metadata := map[string]string{"tenant_id": params.TenantID}
	if params.LeadID != "" {
		metadata["lead_id"] = params.LeadID
	}
	if params.CampaignID != "" {
		metadata["campaign_id"] = params.CampaignID
	}

	body := createCallRequest{
		FromNumber:       c.fromNumber,
		ToNumber:         params.ToNumber,
		OverrideAgentID:  c.agentID,
		Metadata:         metadata,
		DynamicVariables: params.Variables,
	}

	var resp createCallResponse
	if err := c.post(ctx, "/v2/create-phone-call", body, &resp); err != nil {
		return InitiateResult{}, err
	}

	return InitiateResult{
		ProviderCallID: resp.CallID,
		Status:         MapStatus(resp.CallStatus),
	}, nil
}

// CallInfo is the provider's view of a call, used as a fallback when the
// local record has not yet been reconciled.
type CallInfo struct {
	ProviderCallID  string
	Status          string
	DurationSeconds int
	Transcript      string
	RecordingURL    string
}

type getCallResponse struct {
	CallID       string `json:"call_id"`
	CallStatus   string `json:"call_status"`
	DurationMS   int64  `json:"duration_ms"`
	Transcript   string `json:"transcript"`
	RecordingURL string `json:"recording_url"`
}

// GetCall fetches the provider's current state for a call.
func (c *Client) GetCall(ctx context.Context, providerCallID string) (CallInfo, error) {
	if !c.IsConfigured() {
		return CallInfo{}, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/get-call/"+providerCallID, nil)
	if err != nil {
		return CallInfo{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return CallInfo{}, fmt.Errorf("voice provider request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusNotFound {
		return CallInfo{}, ErrCallNotFound
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return CallInfo{}, providerError(httpResp)
	}

	var resp getCallResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return CallInfo{}, fmt.Errorf("decode provider response: %w", err)
	}

	return CallInfo{
		ProviderCallID:  resp.CallID,
		Status:          MapStatus(resp.CallStatus),
		DurationSeconds: int(resp.DurationMS / 1000),
		Transcript:      resp.Transcript,
		RecordingURL:    resp.RecordingURL,
	}, nil
}

// ErrCallNotFound is returned when the provider has no record of the call.
var ErrCallNotFound = errors.New("call not found at voice provider")

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("voice provider request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return providerError(httpResp)
	}

	return json.NewDecoder(httpResp.Body).Decode(out)
}

func providerError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("voice provider returned %d: %s", resp.StatusCode, string(snippet))
}
