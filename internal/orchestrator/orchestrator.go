// Package orchestrator fans a strategy request out to every requested
// provider, validates and ranks the candidates, and folds provider failures
// into the response as data.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tradeforge/stratgen/internal/catalog"
	"github.com/tradeforge/stratgen/internal/config"
	"github.com/tradeforge/stratgen/internal/cost"
	"github.com/tradeforge/stratgen/internal/model"
	"github.com/tradeforge/stratgen/internal/provider"
	"github.com/tradeforge/stratgen/internal/ranker"
	"github.com/tradeforge/stratgen/internal/resilience"
	"github.com/tradeforge/stratgen/internal/store"
	"github.com/tradeforge/stratgen/internal/validator"
)

// Orchestrator coordinates one generation request end to end.
type Orchestrator struct {
	registry  *provider.Registry
	validator *validator.Validator
	ranker    *ranker.Ranker
	catalog   *catalog.Catalog
	history   store.Store // nil disables history
	costs     *cost.Calculator

	primary string
	timeout time.Duration
	retries int
}

// New assembles an orchestrator. history may be nil.
func New(reg *provider.Registry, val *validator.Validator, cat *catalog.Catalog, history store.Store, primary string, cfg config.OrchestratorConfig) *Orchestrator {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.RetryAttempts
	if retries <= 0 {
		retries = 1
	}
	return &Orchestrator{
		registry:  reg,
		validator: val,
		ranker:    ranker.New(),
		catalog:   cat,
		history:   history,
		costs:     cost.NewCalculator(cost.DefaultRates()),
		primary:   primary,
		timeout:   timeout,
		retries:   retries,
	}
}

// Generate runs the full pipeline for one request. The only error it returns
// is a malformed request; provider failures come back embedded in the
// response's results.
func (o *Orchestrator) Generate(ctx context.Context, req model.StrategyRequest) (*model.StrategyResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	strategyID := model.NewStrategyID(req.UserID, start)
	log := zap.L().With(zap.String("strategy_id", strategyID))
	log.Info("request received",
		zap.String("state", string(model.StateReceived)),
		zap.Strings("models", req.Models),
	)

	provs, err := o.resolve(req.DedupedModels(), log)
	if err != nil {
		return nil, err
	}

	genReq := o.buildGenerationRequest(req, log)

	log.Info("dispatching to providers",
		zap.String("state", string(model.StateDispatched)),
		zap.Int("count", len(provs)),
	)
	results := o.fanOut(ctx, provs, genReq)
	log.Info("results collected",
		zap.String("state", string(model.StateCollecting)),
		zap.Int("results", len(results)),
	)

	log.Info("validating candidates", zap.String("state", string(model.StateValidating)))
	for i := range results {
		if results[i].Failed() {
			continue
		}
		v := o.validator.Validate(results[i].Code, req.DialectRequired)
		results[i].Validation = v
		results[i].Warnings = append(results[i].Warnings, v.Warnings...)
	}

	log.Info("ranking candidates", zap.String("state", string(model.StateRanking)))
	best, comparison := o.ranker.Rank(results)

	resp := &model.StrategyResponse{
		StrategyID:  strategyID,
		Description: req.Description,
		Results:     results,
		Comparison:  comparison,
		Metadata: model.ResponseMeta{
			TotalTime:     time.Since(start).Seconds(),
			ProvidersUsed: providerNames(provs),
		},
		CreatedAt: start.UTC(),
	}
	if best >= 0 {
		resp.BestResult = &resp.Results[best]
	}

	o.record(ctx, req, resp, log)

	log.Info("request completed",
		zap.String("state", string(model.StateCompleted)),
		zap.Float64("total_time", resp.Metadata.TotalTime),
		zap.String("best_provider", comparison.BestProvider),
	)
	return resp, nil
}

// resolve maps requested model names to registered providers. The wildcard
// expands to every provider, primary first. Unknown names are dropped with a
// warning; they never fail the request unless nothing remains.
func (o *Orchestrator) resolve(names []string, log *zap.Logger) ([]provider.Provider, error) {
	expanded := make([]string, 0, len(names))
	for _, name := range names {
		if name != model.WildcardModel {
			expanded = append(expanded, name)
			continue
		}
		if o.primary != "" && o.registry.Get(o.primary) != nil {
			expanded = append(expanded, o.primary)
		}
		expanded = append(expanded, o.registry.Names()...)
	}

	seen := make(map[string]bool, len(expanded))
	var provs []provider.Provider
	for _, name := range expanded {
		if seen[name] {
			continue
		}
		seen[name] = true

		p := o.registry.Get(name)
		if p == nil {
			log.Warn("unknown model requested, skipping", zap.String("model", name))
			continue
		}
		provs = append(provs, p)
	}

	if len(provs) == 0 {
		return nil, eris.New("orchestrator: no requested model matches a configured provider")
	}
	return provs, nil
}

func (o *Orchestrator) buildGenerationRequest(req model.StrategyRequest, log *zap.Logger) provider.GenerationRequest {
	genReq := provider.GenerationRequest{
		Description:     req.Description,
		MarketType:      req.MarketType,
		Timeframe:       req.Timeframe,
		RiskLevel:       req.RiskLevel,
		Parameters:      req.Parameters,
		DialectRequired: req.DialectRequired,
		Optimize:        req.Optimize,
	}

	if req.TemplateID == "" || o.catalog == nil {
		return genReq
	}
	tmpl := o.catalog.Get(req.TemplateID)
	if tmpl == nil {
		// A bad template reference degrades to template-free generation.
		log.Warn("template not found, generating without skeleton",
			zap.String("template_id", req.TemplateID),
		)
		return genReq
	}
	genReq.TemplateCode = tmpl.Code
	o.catalog.IncrementUsage(req.TemplateID)
	return genReq
}

// fanOut calls every provider concurrently. Each call gets its own timeout
// so one slow provider cannot stall the rest, and each slot in the returned
// slice matches the provider's position in provs.
func (o *Orchestrator) fanOut(ctx context.Context, provs []provider.Provider, genReq provider.GenerationRequest) []model.ModelResult {
	results := make([]model.ModelResult, len(provs))

	var wg sync.WaitGroup
	for i, p := range provs {
		wg.Add(1)
		go func(i int, p provider.Provider) {
			defer wg.Done()
			results[i] = o.callProvider(ctx, p, genReq)
		}(i, p)
	}
	wg.Wait()

	return results
}

func (o *Orchestrator) callProvider(ctx context.Context, p provider.Provider, genReq provider.GenerationRequest) model.ModelResult {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	retryCfg := resilience.Config{
		Attempts:  o.retries,
		Retryable: provider.Retryable,
		OnRetry:   resilience.RetryLogger(p.Name(), "generate"),
	}

	start := time.Now()
	res, err := resilience.DoVal(callCtx, retryCfg, func(ctx context.Context) (*model.ModelResult, error) {
		return p.Generate(ctx, genReq)
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		zap.L().Warn("provider call failed",
			zap.String("provider", p.Name()),
			zap.String("kind", string(provider.KindOf(err))),
			zap.Error(err),
		)
		return model.ModelResult{
			Provider:      p.Name(),
			Error:         err.Error(),
			ExecutionTime: elapsed,
			Metadata:      map[string]any{"error_kind": string(provider.KindOf(err))},
		}
	}

	res.ExecutionTime = elapsed
	o.attributeCost(p.Name(), res)
	return *res
}

// attributeCost estimates spend from the token counts the adapter recorded
// and attaches it to the result.
func (o *Orchestrator) attributeCost(providerName string, res *model.ModelResult) {
	modelID, _ := res.Metadata["model"].(string)
	in := asInt64(res.Metadata["input_tokens"])
	out := asInt64(res.Metadata["output_tokens"])
	if modelID == "" || (in == 0 && out == 0) {
		return
	}

	estimated := o.costs.Estimate(providerName, modelID, in, out)
	res.Metadata["estimated_cost_usd"] = estimated
	zap.L().Info("cost attribution",
		zap.String("provider", providerName),
		zap.String("model", modelID),
		zap.Int64("input_tokens", in),
		zap.Int64("output_tokens", out),
		zap.Float64("estimated_cost_usd", estimated),
	)
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// record saves the finished generation when history is enabled. A storage
// failure is logged and swallowed; it must never fail the generation.
func (o *Orchestrator) record(ctx context.Context, req model.StrategyRequest, resp *model.StrategyResponse, log *zap.Logger) {
	if o.history == nil {
		return
	}

	status := model.GenerationCompleted
	if resp.BestResult == nil {
		status = model.GenerationDegraded
	}

	err := o.history.SaveGeneration(ctx, model.Generation{
		ID:        resp.StrategyID,
		UserID:    req.UserID,
		Status:    status,
		Request:   req,
		Response:  resp,
		CreatedAt: resp.CreatedAt,
	})
	if err != nil {
		log.Warn("failed to persist generation", zap.Error(err))
	}
}

// VerifyAll probes every registered provider concurrently and reports
// reachability by provider name.
func (o *Orchestrator) VerifyAll(ctx context.Context) map[string]bool {
	names := o.registry.Names()
	status := make([]bool, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		p := o.registry.Get(name)
		g.Go(func() error {
			status[i] = p.VerifyConnection(ctx)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]bool, len(names))
	for i, name := range names {
		out[name] = status[i]
	}
	return out
}

func providerNames(provs []provider.Provider) []string {
	names := make([]string, len(provs))
	for i, p := range provs {
		names[i] = p.Name()
	}
	return names
}
