// Package anthropic implements toolapi.ModelProvider against Anthropic's
// Claude API. It owns message and tool format conversion, retryable-error
// classification, and the SSE-to-StreamEvent translation; everything else
// about the agentic loop is the caller's concern.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentcore/runtime/internal/retry"
	"github.com/agentcore/runtime/pkg/models"
	"github.com/agentcore/runtime/pkg/toolapi"
)

// defaultMaxOutputTokens bounds a single response when the caller doesn't
// override it through Config.
const defaultMaxOutputTokens = 4096

// contextWindowByModel records the context size of the models this
// provider is exercised against. Unlisted models fall back to 200000,
// which has been true of every Claude 3+ model to date.
var contextWindowByModel = map[string]int{
	"claude-opus-4-20250514":     200000,
	"claude-sonnet-4-20250514":   200000,
	"claude-3-5-sonnet-20241022": 200000,
	"claude-3-5-haiku-20241022":  200000,
	"claude-3-opus-20240229":     200000,
	"claude-3-haiku-20240307":    200000,
}

// Config configures a Provider. APIKey and Model are required; everything
// else has a sensible default.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxOutputTokens int
}

// Provider implements toolapi.ModelProvider using the Anthropic SDK.
type Provider struct {
	client          anthropic.Client
	model           string
	maxOutputTokens int

	toolapi.DefaultStreamer
}

// New constructs a Provider. It does not make a network call; the API key
// is validated lazily by the first request.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("anthropic: model is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxOutput := cfg.MaxOutputTokens
	if maxOutput <= 0 {
		maxOutput = defaultMaxOutputTokens
	}

	p := &Provider{
		client:          anthropic.NewClient(opts...),
		model:           cfg.Model,
		maxOutputTokens: maxOutput,
	}
	p.DefaultStreamer = toolapi.DefaultStreamer{Generate: p.Generate}
	return p, nil
}

// Name implements toolapi.ModelProvider.
func (p *Provider) Name() string { return "anthropic" }

// MaxContextTokens implements toolapi.ModelProvider.
func (p *Provider) MaxContextTokens() int {
	if n, ok := contextWindowByModel[p.model]; ok {
		return n
	}
	return 200000
}

// MaxOutputTokens implements toolapi.ModelProvider.
func (p *Provider) MaxOutputTokens() int { return p.maxOutputTokens }

// charsPerToken approximates Claude's tokenizer density: about 4
// characters per token of English text.
const charsPerToken = 4

// EstimateTokenCount implements toolapi.ModelProvider.
func (p *Provider) EstimateTokenCount(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// EstimateMessageTokens implements toolapi.ModelProvider.
func (p *Provider) EstimateMessageTokens(messages []models.Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Role) / charsPerToken
		for _, b := range m.Content {
			total += p.estimateBlock(b)
		}
	}
	return total
}

func (p *Provider) estimateBlock(b models.ContentBlock) int {
	switch b.Kind {
	case models.BlockText, models.BlockThinking:
		return p.EstimateTokenCount(b.Text)
	case models.BlockToolUse:
		return p.EstimateTokenCount(b.ToolName) + p.EstimateTokenCount(string(b.ToolInput))
	case models.BlockToolResult:
		return p.EstimateTokenCount(b.ToolResult.Text) + p.EstimateTokenCount(string(b.ToolResult.JSON)) + len(b.ToolResult.Bytes)/charsPerToken
	default:
		return 0
	}
}

// Generate implements toolapi.ModelProvider.
func (p *Provider) Generate(ctx context.Context, messages []models.Message, tools []toolapi.ToolDefinition, systemPrompt string) (toolapi.ModelResponse, error) {
	params, err := p.buildParams(messages, tools, systemPrompt)
	if err != nil {
		return toolapi.ModelResponse{}, err
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return toolapi.ModelResponse{}, p.wrapError(err)
	}

	return toolapi.ModelResponse{
		Message:      convertResponseMessage(msg),
		StopReason:   convertStopReason(msg.StopReason),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}

// Stream implements toolapi.ModelProvider using the SDK's native SSE
// streaming, translating Anthropic's event sequence into StreamEvents as
// they arrive.
func (p *Provider) Stream(ctx context.Context, messages []models.Message, tools []toolapi.ToolDefinition, systemPrompt string) (<-chan toolapi.StreamEvent, error) {
	params, err := p.buildParams(messages, tools, systemPrompt)
	if err != nil {
		return nil, err
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	events := make(chan toolapi.StreamEvent, 8)
	go p.consumeStream(stream, events)
	return events, nil
}

func (p *Provider) buildParams(messages []models.Message, tools []toolapi.ToolDefinition, systemPrompt string) (anthropic.MessageNewParams, error) {
	converted, err := convertMessages(messages)
	if err != nil {
		return anthropic.MessageNewParams{}, fmt.Errorf("anthropic: converting messages: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		Messages:  converted,
		MaxTokens: int64(p.maxOutputTokens),
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	if len(tools) > 0 {
		converted, err := convertTools(tools)
		if err != nil {
			return anthropic.MessageNewParams{}, fmt.Errorf("anthropic: converting tools: %w", err)
		}
		params.Tools = converted
	}

	return params, nil
}

func (p *Provider) wrapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		pe := retry.NewProviderError(p.Name(), err).WithStatus(int(apiErr.StatusCode))
		if code := anthropicErrorCode(apiErr); code != "" {
			pe = pe.WithCode(code)
		}
		pe.RequestID = apiErr.RequestID
		return pe
	}
	return retry.NewProviderError(p.Name(), err)
}

type anthropicErrorBody struct {
	Error struct {
		Type string `json:"type"`
	} `json:"error"`
}

func anthropicErrorCode(apiErr *anthropic.Error) string {
	raw := apiErr.RawJSON()
	if raw == "" {
		return ""
	}
	var body anthropicErrorBody
	if json.Unmarshal([]byte(raw), &body) != nil {
		return ""
	}
	return body.Error.Type
}
