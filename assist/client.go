// Package assist drafts a requirement-tree breakdown from a prose client
// requirement using a local Ollama instance.
//
// The subsystem is optional: when disabled by configuration the service
// reports unavailable and the API returns 503. Nothing here persists
// anything; drafts are previews the caller may turn into real entities.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"
)

// Config holds the assistant connection settings.
type Config struct {
	Enabled     bool
	Endpoint    string
	Model       string
	TimeoutMs   int
	MaxRetries  int
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns the assistant defaults. Disabled until configured.
func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		Endpoint:    "http://localhost:11434",
		Model:       "llama3.2",
		TimeoutMs:   30000,
		MaxRetries:  1,
		Temperature: 0.3,
		MaxTokens:   4096,
	}
}

// Client generates text from prompts.
type Client interface {
	// Generate sends a system + user prompt and returns the raw response
	// text.
	Generate(ctx context.Context, system, prompt string) (string, error)

	// Available checks whether the model server is reachable.
	Available(ctx context.Context) bool
}

// ollamaClient implements Client against the Ollama HTTP API.
type ollamaClient struct {
	cfg  Config
	http *http.Client
}

// NewOllamaClient creates a Client for a local Ollama instance.
func NewOllamaClient(cfg Config) Client {
	return &ollamaClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		},
	}
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	System  string        `json:"system,omitempty"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

func (c *ollamaClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	body := ollamaRequest{
		Model:  c.cfg.Model,
		System: system,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: c.cfg.Temperature,
			NumPredict:  c.cfg.MaxTokens,
		},
	}

	var lastErr error
	attempts := 1 + c.cfg.MaxRetries
	for i := 0; i < attempts; i++ {
		resp, err := c.doRequest(ctx, body)
		if err == nil {
			log.Printf("[Assist] generate ok model=%s latency_ms=%d", c.cfg.Model, time.Since(start).Milliseconds())
			return resp.Response, nil
		}
		lastErr = err

		// No point retrying once the deadline is gone.
		if ctx.Err() != nil {
			break
		}
	}

	log.Printf("[Assist] generate failed model=%s latency_ms=%d err=%v", c.cfg.Model, time.Since(start).Milliseconds(), lastErr)

	if ctx.Err() != nil {
		return "", ErrTimeout
	}
	if isConnectionError(lastErr) {
		return "", ErrUnavailable
	}
	return "", fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

func (c *ollamaClient) doRequest(ctx context.Context, body ollamaRequest) (*ollamaResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.cfg.Endpoint + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, nil
}

func (c *ollamaClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
