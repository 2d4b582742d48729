package llm

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal interface needed by core logic to call a chat model.
// It mirrors CreateChatCompletion so any OpenAI-compatible backend, or a test
// fake, can be adapted.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider adapts *openai.Client to the Client interface.
type OpenAIProvider struct {
	Inner *openai.Client
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return p.Inner.CreateChatCompletion(ctx, request)
}

// Options configures NewOpenAI.
type Options struct {
	BaseURL string
	APIKey  string
	// MaxRetries is the number of extra attempts on transport errors and 5xx
	// responses. Zero means a single attempt.
	MaxRetries int
	Timeout    time.Duration
}

// NewOpenAI builds a provider for an OpenAI-compatible endpoint. Requests go
// through a retryable transport so transient upstream failures can be retried
// when MaxRetries is set.
func NewOpenAI(opts Options) (*OpenAIProvider, error) {
	if strings.TrimSpace(opts.BaseURL) == "" || strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("llm: base url and api key are required")
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = max(opts.MaxRetries, 0)
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	hc := rc.StandardClient()
	if opts.Timeout > 0 {
		hc.Timeout = opts.Timeout
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	cfg.HTTPClient = hc
	return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}, nil
}

// ZeroTemperature is the smallest temperature the wire encoding keeps. A plain
// 0 is dropped by the request's omitempty tag and the server default applies.
const ZeroTemperature = math.SmallestNonzeroFloat32

// Complete sends a two-message chat at zero temperature and returns the first
// choice's content.
func Complete(ctx context.Context, c Client, model, system, user string) (string, error) {
	resp, err := c.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: ZeroTemperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
