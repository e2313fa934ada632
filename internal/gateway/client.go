// Package gateway provides the single abstraction over the vision-language
// capability used by the extraction pipeline. The backend is a
// constructor-injected strategy; call sites depend only on domain.Gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/internal/observability"
)

const defaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"

// Message represents a chat message
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart represents a part of message content (text or image)
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents an image URL in the message
type ImageURL struct {
	URL string `json:"url"`
}

// Request represents the API request structure
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// Response represents the API response structure
type Response struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// Choice represents a single completion choice
type Choice struct {
	Message      ChatContent `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatContent represents the message body of a completion choice
type ChatContent struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// Client handles communication with an OpenRouter-compatible chat API. It is
// stateless between calls; all prior-page memory is passed in explicitly by
// the caller.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *observability.Logger
}

// ClientConfig holds backend connection settings.
type ClientConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	RequestTimeout time.Duration
}

// NewClient creates a new gateway client.
func NewClient(cfg ClientConfig, logger *observability.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, domain.ConfigError("API key is required", nil)
	}
	if cfg.Model == "" {
		return nil, domain.ConfigError("model is required", nil)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithComponent("gateway"),
	}, nil
}

// chat sends a single chat completion request and returns the model's text
// content. Transport and status failures are mapped onto the domain error
// taxonomy; retries are the caller's decision.
func (c *Client) chat(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(&Request{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", domain.ModelUnavailableError("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", domain.ModelUnavailableError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", "Exam Question Engine")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return "", domain.TimeoutError("request timed out", err)
		}
		return "", domain.ModelUnavailableError("failed to send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", statusError(resp.StatusCode, string(bodyBytes))
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.ModelUnavailableError("failed to read response body", err)
	}

	var apiResp Response
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", domain.MalformedResponseError("failed to parse API envelope", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", domain.MalformedResponseError("no choices in API response", nil)
	}

	return apiResp.Choices[0].Message.Content, nil
}

// statusError maps an HTTP status to the domain error taxonomy.
func statusError(status int, body string) error {
	msg := fmt.Sprintf("API returned status %d: %s", status, truncate(body, 200))
	switch {
	case status == http.StatusTooManyRequests:
		return domain.RateLimitedError(msg, nil)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return domain.TimeoutError(msg, nil)
	case status >= 500:
		return domain.ModelUnavailableError(msg, nil)
	default:
		return domain.ModelUnavailableError(msg, nil)
	}
}

// imagePart encodes page image bytes as a data URL content part.
func imagePart(image domain.PageImage) ContentPart {
	encoded := base64.StdEncoding.EncodeToString(image.Data)
	return ContentPart{
		Type:     "image_url",
		ImageURL: &ImageURL{URL: "data:image/jpeg;base64," + encoded},
	}
}

// visionMessage builds a single-user message with a prompt and page image.
func visionMessage(prompt string, image domain.PageImage) []Message {
	return []Message{{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: prompt},
			imagePart(image),
		},
	}}
}

// textMessage builds a single-user text-only message.
func textMessage(prompt string) []Message {
	return []Message{{
		Role:    "user",
		Content: []ContentPart{{Type: "text", Text: prompt}},
	}}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
