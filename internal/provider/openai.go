package provider

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tradeforge/stratgen/internal/model"
	"github.com/tradeforge/stratgen/pkg/openai"
)

// openaiProvider adapts the OpenAI client to the Provider interface.
type openaiProvider struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
	limiter     *rate.Limiter
}

// NewOpenAI creates the OpenAI provider.
func NewOpenAI(client openai.Client, modelID string, maxTokens int64, temperature float64, limiter *rate.Limiter) Provider {
	return &openaiProvider{
		client:      client,
		model:       modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		limiter:     limiter,
	}
}

func (p *openaiProvider) Name() string { return "openai" }

func (p *openaiProvider) VerifyConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	_, err := p.client.ChatCompletion(ctx, openai.ChatRequest{
		Model:     p.model,
		User:      "ping",
		MaxTokens: 1,
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

func (p *openaiProvider) Generate(ctx context.Context, req GenerationRequest) (*model.ModelResult, error) {
	if err := waitLimiter(ctx, p.limiter); err != nil {
		return nil, Classify(p.Name(), err)
	}

	temp := p.temperature
	resp, err := p.client.ChatCompletion(ctx, openai.ChatRequest{
		Model:       p.model,
		System:      BuildSystemPrompt(req.DialectRequired),
		User:        BuildUserPrompt(req),
		MaxTokens:   p.maxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return nil, Classify(p.Name(), err)
	}

	pl, err := parsePayload(resp.Text)
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
			"input_tokens":  resp.Usage.PromptTokens,
			"output_tokens": resp.Usage.CompletionTokens,
		},
	}, nil
}
