package provider

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tradeforge/stratgen/internal/model"
	"github.com/tradeforge/stratgen/pkg/deepseek"
)

// deepseekProvider adapts the DeepSeek client to the Provider interface.
type deepseekProvider struct {
	client      deepseek.Client
	model       string
	maxTokens   int
	temperature float64
	limiter     *rate.Limiter
}

// NewDeepSeek creates the DeepSeek provider.
func NewDeepSeek(client deepseek.Client, modelID string, maxTokens int, temperature float64, limiter *rate.Limiter) Provider {
	return &deepseekProvider{
		client:      client,
		model:       modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		limiter:     limiter,
	}
}

func (p *deepseekProvider) Name() string { return "deepseek" }

func (p *deepseekProvider) VerifyConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	one := 1
	_, err := p.client.ChatCompletion(ctx, deepseek.ChatCompletionRequest{
		Model:     p.model,
		Messages:  []deepseek.Message{{Role: "user", Content: "ping"}},
		MaxTokens: &one,
	})
	if err != nil {
		zap.L().Debug("provider unreachable",
			zap.String("provider", p.Name()),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (p *deepseekProvider) Generate(ctx context.Context, req GenerationRequest) (*model.ModelResult, error) {
	if err := waitLimiter(ctx, p.limiter); err != nil {
		return nil, Classify(p.Name(), err)
	}

	temp := p.temperature
	maxTokens := p.maxTokens
	resp, err := p.client.ChatCompletion(ctx, deepseek.ChatCompletionRequest{
		Model: p.model,
		Messages: []deepseek.Message{
			{Role: "system", Content: BuildSystemPrompt(req.DialectRequired)},
			{Role: "user", Content: BuildUserPrompt(req)},
		},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, Classify(p.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return nil, NewError(p.Name(), KindMalformed, errNoChoices)
	}

	pl, err := parsePayload(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, NewError(p.Name(), KindMalformed, err)
	}

	return &model.ModelResult{
		Provider:    p.Name(),
		Code:        pl.Code,
		Description: pl.Description,
		Parameters:  pl.Parameters,
		RiskMetrics: pl.RiskMetrics,
		Confidence:  pl.Confidence,
		Metadata: map[string]any{
			"model":         resp.Model,
			"input_tokens":  int64(resp.Usage.PromptTokens),
			"output_tokens": int64(resp.Usage.CompletionTokens),
		},
	}, nil
}
