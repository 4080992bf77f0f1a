// Package cost estimates spend per provider call from token usage.
package cost

// ModelRate holds per-model token pricing in USD per million tokens.
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates holds pricing tables keyed by provider name, then model id.
type Rates map[string]map[string]ModelRate

// Calculator computes estimated costs for provider calls.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Estimate returns the estimated USD cost for one call. Unknown providers
// and models estimate to 0 rather than failing.
func (c *Calculator) Estimate(provider, model string, inputTokens, outputTokens int64) float64 {
	models, ok := c.rates[provider]
	if !ok {
		return 0
	}
	rate, ok := models[model]
	if !ok {
		return 0
	}

	inCost := (float64(inputTokens) / 1e6) * rate.Input
	outCost := (float64(outputTokens) / 1e6) * rate.Output
	return inCost + outCost
}

// DefaultRates returns the published token pricing for the supported
// providers and models.
func DefaultRates() Rates {
	return Rates{
		"claude": {
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		},
		"openai": {
			"gpt-4o":      {Input: 2.50, Output: 10.00},
			"gpt-4o-mini": {Input: 0.15, Output: 0.60},
		},
		"deepseek": {
			"deepseek-chat":     {Input: 0.27, Output: 1.10},
			"deepseek-reasoner": {Input: 0.55, Output: 2.19},
		},
	}
}
