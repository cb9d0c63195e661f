// Package replicate implements the generation-provider client for the
// Replicate HTTP API.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jjoyayroo/alphathreads/internal/domain"
)

const defaultBaseURL = "https://api.replicate.com/v1"

// Client represents the Replicate API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a new Replicate API client
func NewClient(token string, timeout time.Duration) *Client {
	return NewClientWithBaseURL(token, defaultBaseURL, timeout)
}

// NewClientWithBaseURL creates a client against a non-default API endpoint
func NewClientWithBaseURL(token, baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// prediction is the subset of the Replicate prediction resource we consume.
type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Generate runs one synchronous prediction and returns the output reference.
// modelRef is either an "owner/name" model reference or a bare version id.
func (c *Client) Generate(ctx context.Context, modelRef string, input map[string]any) (string, error) {
	if c.token == "" {
		return "", domain.ErrMissingCredential
	}

	endpoint, payload := c.requestFor(modelRef, input)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal input: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	// Hold the connection open until the prediction finishes.
	httpReq.Header.Set("Prefer", "wait")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var result prediction
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Error != "" {
		return "", fmt.Errorf("prediction %s failed: %s", result.ID, result.Error)
	}
	if result.Status == "failed" || result.Status == "canceled" {
		return "", fmt.Errorf("prediction %s ended with status %s", result.ID, result.Status)
	}

	return outputRef(result.Output)
}

// requestFor picks the endpoint and payload shape for the model reference:
// official models run via /models/{owner}/{name}/predictions, pinned
// versions via /predictions.
func (c *Client) requestFor(modelRef string, input map[string]any) (string, map[string]any) {
	if strings.Contains(modelRef, "/") {
		return fmt.Sprintf("%s/models/%s/predictions", c.baseURL, modelRef),
			map[string]any{"input": input}
	}
	return c.baseURL + "/predictions",
		map[string]any{"version": modelRef, "input": input}
}

// outputRef normalizes the prediction output, which Replicate returns as
// either a single URI string or a list of URIs.
func outputRef(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", domain.ErrNoOutput
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return "", domain.ErrNoOutput
		}
		return single, nil
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		if len(many) == 0 || many[0] == "" {
			return "", domain.ErrNoOutput
		}
		return many[0], nil
	}

	return "", fmt.Errorf("unexpected output shape: %s", string(raw))
}
