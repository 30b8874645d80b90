package oracle

import (
	"context"
	"errors"
	"log"
	"time"

	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 800
	defaultTimeout   = 30 * time.Second
)

type client struct {
	api       *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	tracer    trace.Tracer
}

// Config holds configuration for the OpenAI backed oracle
type Config struct {
	APIKey    string        // Required
	BaseURL   string        // Optional: OpenAI compatible endpoint
	Model     string        // Optional
	MaxTokens int           // Optional
	Timeout   time.Duration // Optional: per call deadline

	// Options are appended to the request options, tests use them to disable retries
	Options []option.RequestOption
}

// New creates an oracle client over OpenAI chat completions
func New(cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, dnderr.InvalidArgument("oracle config is required")
	}
	if cfg.APIKey == "" {
		return nil, dnderr.InvalidArgument("oracle API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, cfg.Options...)

	api := openai.NewClient(opts...)

	c := &client{
		api:       &api,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		tracer:    otel.Tracer("oracle"),
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}

	return c, nil
}

func (c *client) Generate(ctx context.Context, messages []Message, systemPrompt string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "oracle.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.operation.name", "chat"),
			attribute.String("gen_ai.system", "openai"),
			attribute.String("gen_ai.request.model", c.model),
			attribute.Int("gen_ai.request.max_tokens", c.maxTokens),
			attribute.Int("oracle.message_count", len(messages)),
		),
	)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:               shared.ChatModel(c.model),
		Messages:            toParams(messages, systemPrompt),
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
	}

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(callCtx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", dnderr.WrapWithCode(err, dnderr.CodeOracleTimeout, "oracle did not answer in time").
				WithMeta("timeout", c.timeout.String())
		}
		return "", dnderr.WrapOracle(err, "oracle request failed")
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		err := dnderr.MalformedJudgment("oracle returned an empty completion")
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty completion")
		return "", err
	}

	content := resp.Choices[0].Message.Content
	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", resp.Usage.PromptTokens),
		attribute.Int64("gen_ai.usage.output_tokens", resp.Usage.CompletionTokens),
		attribute.Int64("response_time_ms", time.Since(start).Milliseconds()),
	)
	log.Printf("Oracle: %s answered in %s (%d/%d tokens)", c.model, time.Since(start).Round(time.Millisecond),
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return content, nil
}

func toParams(messages []Message, systemPrompt string) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemPrompt != "" {
		params = append(params, openai.SystemMessage(systemPrompt))
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params = append(params, openai.AssistantMessage(m.Content))
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}
	return params
}
