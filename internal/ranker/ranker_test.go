package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/stratgen/internal/model"
)

func TestRank_ConfidenceThenLatency(t *testing.T) {
	results := []model.ModelResult{
		{Provider: "a", Confidence: 0.9, ExecutionTime: 2.0},
		{Provider: "b", Confidence: 0.9, ExecutionTime: 1.0},
		{Provider: "c", Confidence: 0.7, ExecutionTime: 0.5},
	}

	best, cmp := New().Rank(results)

	require.NotEqual(t, -1, best)
	assert.Equal(t, "b", results[best].Provider)
	assert.Equal(t, []string{"b", "a", "c"}, cmp.Ranking)
	assert.Equal(t, "b", cmp.BestProvider)
}

func TestRank_Deterministic(t *testing.T) {
	results := []model.ModelResult{
		{Provider: "a", Confidence: 0.8, ExecutionTime: 1.0},
		{Provider: "b", Confidence: 0.8, ExecutionTime: 1.0},
	}

	for i := 0; i < 10; i++ {
		best, cmp := New().Rank(results)
		// Equal keys: stable sort keeps request order.
		assert.Equal(t, "a", results[best].Provider)
		assert.Equal(t, []string{"a", "b"}, cmp.Ranking)
	}
}

func TestRank_SkipsErroredAndInvalid(t *testing.T) {
	results := []model.ModelResult{
		{Provider: "a", Confidence: 0.99, Error: "timeout after 30s"},
		{Provider: "b", Confidence: 0.95, Validation: &model.ValidationResult{Status: model.StatusInvalid}},
		{Provider: "c", Confidence: 0.5, Validation: &model.ValidationResult{Status: model.StatusWarning}},
	}

	best, cmp := New().Rank(results)

	require.NotEqual(t, -1, best)
	assert.Equal(t, "c", results[best].Provider)
	assert.Equal(t, []string{"c"}, cmp.Ranking)
}

func TestRank_NothingEligible(t *testing.T) {
	results := []model.ModelResult{
		{Provider: "a", Error: "auth failed"},
		{Provider: "b", Error: "timeout"},
	}

	best, cmp := New().Rank(results)

	assert.Equal(t, -1, best)
	assert.Empty(t, cmp.Ranking)
	assert.Empty(t, cmp.BestProvider)
	assert.Contains(t, cmp.Summary, "no provider")
}

func TestRank_RiskMetricsOmitMissing(t *testing.T) {
	results := []model.ModelResult{
		{Provider: "a", Confidence: 0.9, RiskMetrics: map[string]float64{"max_drawdown": 0.12, "sharpe": 1.4}},
		{Provider: "b", Confidence: 0.8, RiskMetrics: map[string]float64{"max_drawdown": 0.2}},
	}

	_, cmp := New().Rank(results)

	require.Contains(t, cmp.Metrics, "max_drawdown")
	require.Contains(t, cmp.Metrics, "sharpe")
	assert.Len(t, cmp.Metrics["max_drawdown"], 2)

	// b never reported sharpe: it must be absent, not zero.
	sharpe := cmp.Metrics["sharpe"]
	assert.Len(t, sharpe, 1)
	_, present := sharpe["b"]
	assert.False(t, present)

	assert.InDelta(t, 0.9, cmp.Metrics["confidence"]["a"], 1e-9)
	assert.InDelta(t, 0.8, cmp.Metrics["confidence"]["b"], 1e-9)
}
