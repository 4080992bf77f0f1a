package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/stratgen/internal/model"
)

func TestCatalog_SeededBuiltins(t *testing.T) {
	c := New()
	assert.Equal(t, 4, c.Len())

	tmpl := c.Get(BuiltinDualMACrossover)
	require.NotNil(t, tmpl)
	assert.True(t, tmpl.Builtin)
	assert.Contains(t, tmpl.Code, "def initialize")
	assert.Contains(t, tmpl.Code, "def generate_signals")
}

func TestCatalog_DeleteBuiltinReturnsFalse(t *testing.T) {
	c := New()

	assert.False(t, c.Delete(BuiltinDualMACrossover))
	assert.NotNil(t, c.Get(BuiltinDualMACrossover), "catalog must be unchanged")
	assert.Equal(t, 4, c.Len())
}

func TestCatalog_UserTemplateLifecycle(t *testing.T) {
	c := New()

	created, err := c.Create(&model.StrategyTemplate{
		Name:        "My Pairs Trade",
		Description: "cointegration spread reversion",
		Builtin:     true, // callers cannot mint built-ins
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Builtin)

	// Update succeeds for user templates.
	err = c.Update(created.ID, &model.StrategyTemplate{Name: "My Pairs Trade v2"})
	require.NoError(t, err)
	assert.Equal(t, "My Pairs Trade v2", c.Get(created.ID).Name)

	// Delete removes it; subsequent Get returns nil.
	assert.True(t, c.Delete(created.ID))
	assert.Nil(t, c.Get(created.ID))
	assert.False(t, c.Delete(created.ID), "second delete is a no-op")
}

func TestCatalog_UpdateBuiltinFails(t *testing.T) {
	c := New()
	err := c.Update(BuiltinRSIReversion, &model.StrategyTemplate{Name: "hijacked"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "immutable")
}

func TestCatalog_CreateDuplicateID(t *testing.T) {
	c := New()
	_, err := c.Create(&model.StrategyTemplate{ID: BuiltinBreakout, Name: "clash"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCatalog_SearchCaseInsensitive(t *testing.T) {
	c := New()

	hits := c.Search("MOVING-AVERAGE")
	require.Len(t, hits, 1)
	assert.Equal(t, BuiltinDualMACrossover, hits[0].ID)

	// Matches descriptions too.
	hits = c.Search("oversold")
	require.Len(t, hits, 1)
	assert.Equal(t, BuiltinRSIReversion, hits[0].ID)

	assert.Empty(t, c.Search("no such strategy"))
	assert.Len(t, c.Search(""), 4)
}

func TestCatalog_ListFilters(t *testing.T) {
	c := New()

	trend := c.List(Filter{Category: "trend"})
	require.Len(t, trend, 1)
	assert.Equal(t, BuiltinDualMACrossover, trend[0].ID)

	forex := c.List(Filter{MarketType: "forex"})
	require.Len(t, forex, 1)
	assert.Equal(t, BuiltinRSIReversion, forex[0].ID)

	assert.Len(t, c.List(Filter{}), 4)
	assert.Empty(t, c.List(Filter{Timeframe: "1w"}))
}

func TestCatalog_ReturnedTemplatesDoNotAliasStorage(t *testing.T) {
	c := New()

	got := c.Get(BuiltinDualMACrossover)
	require.NotNil(t, got)
	got.Parameters["fast_window"] = 999
	got.MarketTypes[0] = "hijacked"
	got.Tags = append(got.Tags[:0], "clobbered")

	fresh := c.Get(BuiltinDualMACrossover)
	assert.Equal(t, 10, fresh.Parameters["fast_window"])
	assert.Equal(t, "stock", fresh.MarketTypes[0])
	assert.Equal(t, []string{"moving-average", "trend", "crossover"}, fresh.Tags)

	// List and Search hand out the same isolation.
	c.List(Filter{})[0].MarketTypes[0] = "hijacked"
	c.Search("crossover")[0].Tags[0] = "clobbered"
	fresh = c.Get(BuiltinDualMACrossover)
	assert.Equal(t, "stock", fresh.MarketTypes[0])
	assert.Equal(t, "moving-average", fresh.Tags[0])
}

func TestCatalog_CreateDetachesFromCallerInput(t *testing.T) {
	c := New()
	in := &model.StrategyTemplate{
		Name:       "Gap Fade",
		Parameters: map[string]any{"gap_pct": 2.0},
	}
	created, err := c.Create(in)
	require.NoError(t, err)

	in.Parameters["gap_pct"] = -1.0
	created.Parameters["gap_pct"] = -2.0
	assert.Equal(t, 2.0, c.Get(created.ID).Parameters["gap_pct"])
}

func TestCatalog_IncrementUsage(t *testing.T) {
	c := New()
	c.IncrementUsage(BuiltinBreakout)
	c.IncrementUsage(BuiltinBreakout)
	assert.Equal(t, 2, c.Get(BuiltinBreakout).UsageCount)

	c.IncrementUsage("unknown") // ignored
}

func TestCatalog_LoadSeedFile(t *testing.T) {
	seed := `
- name: Volume Spike
  description: enters on unusual volume expansion
  category: momentum
  difficulty_level: advanced
  risk: high
  markets: [crypto]
  skeleton: |
    def initialize(context):
        pass
    def generate_signals(context, data):
        return "hold"
- description: missing name, skipped
`
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	c := New()
	n, err := c.LoadSeedFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tmpl := c.Get("seed-volume-spike")
	require.NotNil(t, tmpl)
	assert.True(t, tmpl.Builtin)
	assert.Equal(t, "advanced", tmpl.Difficulty)
	assert.Equal(t, "high", tmpl.RiskLevel)
	assert.Equal(t, []string{"crypto"}, tmpl.MarketTypes)
	assert.False(t, c.Delete("seed-volume-spike"), "seeded templates are built-in")
}
