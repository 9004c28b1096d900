package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/researchbot/internal/domain"
	"github.com/timmy/researchbot/internal/prompts"
)

// promptFindingsCap bounds the number of findings injected into the
// synthesis prompt; more hurts quality without adding information.
const promptFindingsCap = 20

// MistralClient generates report narratives via the Mistral
// chat-completions API (OpenAI-compatible).
type MistralClient struct {
	client   *resty.Client
	model    string
	endpoint string
	retry    RetryPolicy
}

// MistralConfig holds configuration for the Mistral client.
type MistralConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// NewMistralClient creates a new Mistral chat-completions client.
// Parameters:
//   - cfg: API key, endpoint, model, timeout and retry configuration.
// Returns:
//   - *MistralClient: initialized client.
func NewMistralClient(cfg *MistralConfig) *MistralClient {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	} else {
		client.SetTimeout(45 * time.Second)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.mistral.ai/v1"
	}

	model := cfg.Model
	if model == "" {
		model = "mistral-large-latest"
	}

	return &MistralClient{
		client:   client,
		model:    model,
		endpoint: baseURL + "/chat/completions",
		retry:    DefaultRetryPolicy(cfg.MaxRetries),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate synthesizes a narrative report from findings.
// Parameters:
//   - ctx: bounds the whole call including retries.
//   - findings: deduplicated findings with source indices.
//   - topic: research topic.
//   - lang: report language code (ru, en).
// Returns:
//   - string: narrative text.
//   - error: non-nil if all attempts fail or the response is empty.
func (c *MistralClient) Generate(ctx context.Context, findings []domain.Finding, topic, lang string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.SynthesisSystemPrompt},
			{Role: "user", Content: prompts.SynthesisUserPrompt(topic, findings, lang, promptFindingsCap)},
		},
		Temperature: 0.3,
		MaxTokens:   4000,
	}

	var resp chatResponse
	err := c.retry.Do(ctx, func() error {
		httpResp, err := c.client.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&resp).
			Post(c.endpoint)
		if err != nil {
			return Transient(fmt.Errorf("mistral request failed: %w", err))
		}

		code := httpResp.StatusCode()
		switch {
		case code >= 200 && code < 300:
			return nil
		case code == 429 || code >= 500:
			return Transient(fmt.Errorf("mistral API status %d", code))
		default:
			if resp.Error != nil {
				return fmt.Errorf("mistral API status %d: %s", code, resp.Error.Message)
			}
			return fmt.Errorf("mistral API status %d: %s", code, string(httpResp.Body()))
		}
	})
	if err != nil {
		return "", err
	}

	if resp.Error != nil {
		return "", fmt.Errorf("mistral API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("mistral API returned no content")
	}

	return resp.Choices[0].Message.Content, nil
}
