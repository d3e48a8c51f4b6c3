package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/cgirard/profeval/internal/llm/prompts"
	"github.com/cgirard/profeval/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Default generation parameters applied when the caller omits them.
const (
	DefaultTemperature = 0.5
	DefaultMaxTokens   = 4000
)

// Validation errors returned by Compose before any network call.
var (
	ErrNoModel    = errors.New("model is required")
	ErrNoMessages = errors.New("messages are required")
)

// UpstreamError is a non-success status from the model provider. The status
// and body are preserved so the caller can forward them verbatim.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// ChatRequest is a fully composed generation request.
type ChatRequest struct {
	Model       string
	Messages    []model.ChatMessage
	Temperature float64
	MaxTokens   int
}

// Completion is the part of the upstream response the platform consumes:
// the first choice's content plus usage metadata.
type Completion struct {
	Content string
	Usage   openai.Usage
}

// Compose builds the final message sequence for a tool. If the tool resolves
// to an instruction, a system message is prepended to the user messages;
// an unknown or empty tool leaves them untouched. Validation failures are
// caller contract violations and are rejected before any network call.
func Compose(tool model.ToolKind, messages []model.ChatMessage, modelName string, temperature float64, maxTokens int) (ChatRequest, error) {
	if modelName == "" {
		return ChatRequest{}, ErrNoModel
	}
	if len(messages) == 0 {
		return ChatRequest{}, ErrNoMessages
	}

	final := messages
	if instruction, ok := prompts.InstructionFor(tool); ok {
		final = make([]model.ChatMessage, 0, len(messages)+1)
		final = append(final, model.ChatMessage{Role: model.RoleSystem, Content: instruction})
		final = append(final, messages...)
	}

	return ChatRequest{
		Model:       modelName,
		Messages:    final,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// RetryPolicy controls re-sends after transport failures. Upstream status
// errors and validation errors are never retried. The zero value means
// single-shot.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	retry RetryPolicy
}

// headerTransport injects the provider's customer header on every request.
type headerTransport struct {
	base       http.RoundTripper
	customerID string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.customerID != "" {
		req.Header.Set("customerId", t.customerID)
	}
	return t.base.RoundTrip(req)
}

// New creates a new gateway client. customerID is the provider's second auth
// header; empty disables it.
func New(baseURL, apiKey, customerID string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{
		Transport: &headerTransport{base: http.DefaultTransport, customerID: customerID},
	}
	return &Client{api: openai.NewClientWithConfig(config)}
}

// WithRetry sets the transport retry policy and returns the client.
func (c *Client) WithRetry(p RetryPolicy) *Client {
	c.retry = p
	return c
}

// Send issues a chat completion call. Transport failures are retried per the
// client's RetryPolicy with exponential backoff; upstream status errors are
// returned immediately so the caller can forward them. No streaming.
func (c *Client) Send(ctx context.Context, req ChatRequest) (*Completion, error) {
	attempts := c.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := c.retry.Backoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		completion, err := c.send(ctx, req)
		if err == nil {
			return completion, nil
		}
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			return nil, err
		}
		slog.Warn("LLM transport failure", "attempt", attempt, "error", err)
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) send(ctx context.Context, req ChatRequest) (*Completion, error) {
	chatMsgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	// go-openai marshals Temperature with omitempty, so an explicit 0 would
	// vanish from the wire request and the provider default would apply.
	// The library documents math.SmallestNonzeroFloat32 as the stand-in.
	temperature := float32(req.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    chatMsgs,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return nil, fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "model", req.Model, "raw", raw)

	return &Completion{Content: raw, Usage: resp.Usage}, nil
}
