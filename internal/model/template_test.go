package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseTemplateMap() map[string]any {
	return map[string]any{
		"id":           "tmpl-1",
		"name":         "Dual MA Crossover",
		"description":  "Buy when the fast average crosses above the slow one",
		"category":     "trend",
		"code":         "def initialize(ctx): pass\ndef generate_signals(ctx, data): pass\n",
		"parameters":   map[string]any{"fast": 10, "slow": 30},
		"market_types": []any{"stock", "etf"},
		"timeframes":   []any{"1d", "1h"},
		"tags":         []any{"moving-average", "trend"},
		"difficulty":   "beginner",
		"risk_level":   "medium",
		"author":       "system",
		"usage_count":  float64(12),
		"rating":       4.5,
		"builtin":      true,
	}
}

func TestTemplateFromMap_CanonicalNames(t *testing.T) {
	tmpl, err := TemplateFromMap(baseTemplateMap())
	require.NoError(t, err)

	assert.Equal(t, "tmpl-1", tmpl.ID)
	assert.Equal(t, "Dual MA Crossover", tmpl.Name)
	assert.Equal(t, []string{"stock", "etf"}, tmpl.MarketTypes)
	assert.Equal(t, []string{"1d", "1h"}, tmpl.Timeframes)
	assert.Equal(t, "beginner", tmpl.Difficulty)
	assert.Equal(t, "medium", tmpl.RiskLevel)
	assert.Equal(t, 12, tmpl.UsageCount)
	assert.InDelta(t, 4.5, tmpl.Rating, 1e-9)
	assert.True(t, tmpl.Builtin)
}

func TestTemplateFromMap_LegacyAliases(t *testing.T) {
	in := baseTemplateMap()
	in["difficulty_level"] = "advanced"
	delete(in, "difficulty")
	in["risk"] = "high"
	delete(in, "risk_level")
	in["markets"] = []any{"forex"}
	delete(in, "market_types")
	in["applicable_timeframes"] = []any{"5m"}
	delete(in, "timeframes")
	in["skeleton"] = "def initialize(ctx): pass\n"
	delete(in, "code")

	tmpl, err := TemplateFromMap(in)
	require.NoError(t, err)

	assert.Equal(t, "advanced", tmpl.Difficulty)
	assert.Equal(t, "high", tmpl.RiskLevel)
	assert.Equal(t, []string{"forex"}, tmpl.MarketTypes)
	assert.Equal(t, []string{"5m"}, tmpl.Timeframes)
	assert.Equal(t, "def initialize(ctx): pass\n", tmpl.Code)
}

func TestTemplate_RoundTrip(t *testing.T) {
	orig, err := TemplateFromMap(baseTemplateMap())
	require.NoError(t, err)

	again, err := TemplateFromMap(orig.ToMap())
	require.NoError(t, err)

	assert.Equal(t, orig, again)
}

func TestTemplateFromMap_RequiresName(t *testing.T) {
	_, err := TemplateFromMap(map[string]any{"id": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}
