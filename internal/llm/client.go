package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/sqlassist/internal/utils"
)

const defaultHTTPTimeout = 30 * time.Second

var (
	ErrAPIKeyRequired  = errors.New("llm: api key is required")
	ErrPromptRequired  = errors.New("llm: prompt cannot be empty")
	ErrEmptyCompletion = errors.New("llm: completion contained no choices")
)

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// contentGenerator is the part of llms.Model the client relies on.
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Client sends single-turn prompts to an OpenAI-compatible chat endpoint
// (Groq by default).
type Client struct {
	model       contentGenerator
	modelName   string
	temperature float64
	maxTokens   int
	logger      *zap.SugaredLogger
}

func New(cfg utils.LLMConfig, logger *zap.SugaredLogger) (*Client, error) {
	return newClient(cfg, newHTTPClientWithTimeout(cfg.Timeout), logger)
}

func newClient(cfg utils.LLMConfig, doer httpDoer, logger *zap.SugaredLogger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(doer),
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		opts = append(opts, openai.WithBaseURL(base))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("llm: create client: %w", err)
	}

	return NewWithModel(model, cfg, logger), nil
}

// NewWithModel wraps an already constructed model.
func NewWithModel(model contentGenerator, cfg utils.LLMConfig, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{
		model:       model,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
}

func (c *Client) ModelName() string {
	return c.modelName
}

// Complete sends prompt as one human message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrPromptRequired
	}

	callOpts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(c.maxTokens))
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}, callOpts...)
	if err != nil {
		return "", fmt.Errorf("llm: generate content: %w", err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := resp.Choices[0].Content
	c.logger.Debugw("llm completion", "model", c.modelName, "latency", time.Since(start), "chars", len(content))

	return content, nil
}

func newHTTPClientWithTimeout(d time.Duration) *http.Client {
	if d <= 0 {
		d = defaultHTTPTimeout
	}
	return &http.Client{Timeout: d}
}
