package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/stratgen/internal/catalog"
	"github.com/tradeforge/stratgen/internal/config"
	"github.com/tradeforge/stratgen/internal/model"
	"github.com/tradeforge/stratgen/internal/orchestrator"
	"github.com/tradeforge/stratgen/internal/provider"
	"github.com/tradeforge/stratgen/internal/validator"
)

// stubProvider returns a fixed candidate for handler tests.
type stubProvider struct {
	name string
	code string
}

func (s *stubProvider) Name() string                          { return s.name }
func (s *stubProvider) VerifyConnection(context.Context) bool { return true }

func (s *stubProvider) Generate(context.Context, provider.GenerationRequest) (*model.ModelResult, error) {
	return &model.ModelResult{Provider: s.name, Code: s.code, Confidence: 0.8}, nil
}

func newTestEnv(t *testing.T) *appEnv {
	t.Helper()

	reg := provider.NewRegistry()
	reg.Register(&stubProvider{
		name: "claude",
		code: "def initialize(context):\n    pass\n\ndef generate_signals(context, data):\n    return []\n",
	})
	cat := catalog.New()
	orch := orchestrator.New(reg, validator.New(), cat, nil, "claude", config.OrchestratorConfig{TimeoutSecs: 5})

	return &appEnv{
		Catalog:      cat,
		Registry:     reg,
		Orchestrator: orch,
	}
}

func doRequest(t *testing.T, env *appEnv, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	newRouter(env).ServeHTTP(rec, req)
	return rec
}

func TestServe_Health(t *testing.T) {
	rec := doRequest(t, newTestEnv(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServe_Generate(t *testing.T) {
	body := `{"description":"buy when the 10 day average crosses the 30 day average","models":["claude"]}`
	rec := doRequest(t, newTestEnv(t), http.MethodPost, "/api/v1/strategies/generate", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.StrategyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "claude", resp.Results[0].Provider)
	require.NotNil(t, resp.BestResult)
	assert.NotEmpty(t, resp.StrategyID)
}

func TestServe_Generate_BadRequest(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/strategies/generate", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, env, http.MethodPost, "/api/v1/strategies/generate", `{"description":"short","models":["claude"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too short")
}

func TestServe_TemplateLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env, http.MethodGet, "/api/v1/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Templates []model.StrategyTemplate `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.GreaterOrEqual(t, len(listResp.Templates), 4)

	rec = doRequest(t, env, http.MethodPost, "/api/v1/templates",
		`{"name":"My Scalper","category":"momentum","code":"def initialize(context): pass"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.StrategyTemplate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.False(t, created.Builtin)

	rec = doRequest(t, env, http.MethodGet, "/api/v1/templates/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, env, http.MethodDelete, "/api/v1/templates/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, env, http.MethodGet, "/api/v1/templates/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_BuiltinTemplateImmutable(t *testing.T) {
	rec := doRequest(t, newTestEnv(t), http.MethodDelete, "/api/v1/templates/"+catalog.BuiltinDualMACrossover, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServe_TemplateSearch(t *testing.T) {
	rec := doRequest(t, newTestEnv(t), http.MethodGet, "/api/v1/templates?q=crossover", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), catalog.BuiltinDualMACrossover)
}

func TestServe_GenerationsDisabled(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env, http.MethodGet, "/api/v1/generations", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = doRequest(t, env, http.MethodGet, "/api/v1/generations/strat-1", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestServe_Providers(t *testing.T) {
	rec := doRequest(t, newTestEnv(t), http.MethodGet, "/api/v1/providers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"providers":{"claude":true}}`, rec.Body.String())
}
