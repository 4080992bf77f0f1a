package provider

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tradeforge/stratgen/internal/model"
	"github.com/tradeforge/stratgen/pkg/claude"
)

// verifyTimeout caps the reachability probe regardless of the caller's
// context.
const verifyTimeout = 10 * time.Second

// claudeProvider adapts the Anthropic client to the Provider interface.
type claudeProvider struct {
	client      claude.Client
	model       string
	maxTokens   int64
	temperature float64
	limiter     *rate.Limiter
}

// NewClaude creates the Claude provider.
func NewClaude(client claude.Client, modelID string, maxTokens int64, temperature float64, limiter *rate.Limiter) Provider {
	return &claudeProvider{
		client:      client,
		model:       modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		limiter:     limiter,
	}
}

func (p *claudeProvider) Name() string { return "claude" }

func (p *claudeProvider) VerifyConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	_, err := p.client.CreateMessage(ctx, claude.MessageRequest{
		Model:     p.model,
		MaxTokens: 1,
		Messages:  []claude.Message{{Role: "user", Content: "ping"}},
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

func (p *claudeProvider) Generate(ctx context.Context, req GenerationRequest) (*model.ModelResult, error) {
	if err := waitLimiter(ctx, p.limiter); err != nil {
		return nil, Classify(p.Name(), err)
	}

	temp := p.temperature
	resp, err := p.client.CreateMessage(ctx, claude.MessageRequest{
		Model:       p.model,
		MaxTokens:   p.maxTokens,
		System:      BuildSystemPrompt(req.DialectRequired),
		Messages:    []claude.Message{{Role: "user", Content: BuildUserPrompt(req)}},
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
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
			"stop_reason":   resp.StopReason,
		},
	}, nil
}

// waitLimiter blocks until the provider's rate limiter admits the call.
func waitLimiter(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
