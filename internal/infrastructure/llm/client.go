package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"TopicScanner/internal/config"
	"TopicScanner/internal/domain"
	"TopicScanner/internal/ports"
)

// Supported providers and their default endpoints.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	AnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	OpenAIEndpoint    = "https://api.openai.com/v1/chat/completions"

	anthropicVersion = "2023-06-01"
	defaultOpenAI    = "gpt-4o"

	webSearchTool    = "web_search_20250305"
	webSearchMaxUses = 5
)

// Client implements ports.DraftWriter against the Anthropic messages API or
// an OpenAI-compatible chat completions API.
type Client struct {
	provider     string
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	maxTokens    int
	webSearch    bool
	httpClient   *http.Client
}

var _ ports.DraftWriter = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.LLMConfig) *Client {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderAnthropic
	}

	endpoint, model := cfg.Endpoint, cfg.Model
	if provider == ProviderOpenAI {
		if endpoint == "" || endpoint == AnthropicEndpoint {
			endpoint = OpenAIEndpoint
		}
		if model == "" || strings.HasPrefix(model, "claude") {
			model = defaultOpenAI
		}
	} else if endpoint == "" {
		endpoint = AnthropicEndpoint
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	return &Client{
		provider:     provider,
		endpoint:     endpoint,
		model:        model,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    maxTokens,
		webSearch:    config.Enabled(cfg.WebSearch),
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != "" && c.endpoint != "" && c.model != ""
}

// WriteDraft asks the model for a post about the topic.
func (c *Client) WriteDraft(ctx context.Context, topic domain.Topic) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("%w: llm api key is not set", domain.ErrGenerationFailed)
	}

	prompt := BuildPrompt(topic)
	var (
		text string
		err  error
	)
	switch c.provider {
	case ProviderOpenAI:
		text, err = c.chatCompletion(ctx, prompt)
	case ProviderAnthropic:
		text, err = c.message(ctx, prompt)
	default:
		return "", fmt.Errorf("%w: unknown llm provider %q", domain.ErrGenerationFailed, c.provider)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response from %s", domain.ErrGenerationFailed, c.provider)
	}
	return text, nil
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *Client) message(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":      c.model,
		"max_tokens": c.maxTokens,
		"system":     safePrompt(c.systemPrompt),
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	if c.webSearch {
		body["tools"] = []map[string]any{
			{"type": webSearchTool, "name": "web_search", "max_uses": webSearchMaxUses},
		}
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := c.post(ctx, body, headers, &resp); err != nil {
		return "", err
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) chatCompletion(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":      c.model,
		"max_tokens": c.maxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": prompt},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	var resp chatResponse
	if err := c.post(ctx, body, headers, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, payload any, headers map[string]string, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", c.provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send %s request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s error %s: %s", c.provider, resp.Status, strings.TrimSpace(string(payload)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.provider, err)
	}
	return nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return config.DefaultSystemPrompt
	}
	return prompt
}
