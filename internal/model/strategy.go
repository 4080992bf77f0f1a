package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// WildcardModel in a request's model list expands to every configured provider.
const WildcardModel = "all"

// Description length bounds for a strategy request, counted after trimming.
const (
	MinDescriptionLen = 10
	MaxDescriptionLen = 1000
)

// RequestState tracks a generation request through the orchestrator.
type RequestState string

const (
	StateReceived   RequestState = "received"
	StateDispatched RequestState = "dispatched"
	StateCollecting RequestState = "collecting"
	StateValidating RequestState = "validating"
	StateRanking    RequestState = "ranking"
	StateCompleted  RequestState = "completed"
)

// StrategyRequest describes one strategy-generation request.
type StrategyRequest struct {
	Description     string         `json:"description"`
	UserID          string         `json:"user_id"`
	Models          []string       `json:"models"`
	MarketType      string         `json:"market_type,omitempty"`
	Timeframe       string         `json:"timeframe,omitempty"`
	RiskLevel       string         `json:"risk_level,omitempty"`
	Parameters      map[string]any `json:"parameters,omitempty"`
	TemplateID      string         `json:"template_id,omitempty"`
	DialectRequired bool           `json:"dialect_required"`
	Optimize        bool           `json:"optimize"`
}

// Validate checks request shape. It is the only class of failure the
// orchestrator surfaces to its caller; everything downstream degrades into
// per-provider error results instead.
func (r *StrategyRequest) Validate() error {
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		return eris.New("request: description is empty")
	}
	// Bounds are in characters, not bytes, so multibyte text is measured
	// the way a user counts it.
	runes := utf8.RuneCountInString(desc)
	if runes < MinDescriptionLen {
		return eris.Errorf("request: description too short (%d chars, min %d)", runes, MinDescriptionLen)
	}
	if runes > MaxDescriptionLen {
		return eris.Errorf("request: description too long (%d chars, max %d)", runes, MaxDescriptionLen)
	}
	if len(r.Models) == 0 {
		return eris.New("request: no models requested")
	}
	return nil
}

// DedupedModels returns the requested model identifiers with duplicates
// removed, preserving first-occurrence order.
func (r *StrategyRequest) DedupedModels() []string {
	seen := make(map[string]bool, len(r.Models))
	out := make([]string, 0, len(r.Models))
	for _, m := range r.Models {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// ModelResult is the outcome of a single provider call attempt. It is
// created once per attempt and never mutated afterwards, except for the
// validation attachment the orchestrator adds before ranking.
type ModelResult struct {
	Provider      string             `json:"provider"`
	Code          string             `json:"code,omitempty"`
	Description   string             `json:"description,omitempty"`
	Parameters    map[string]any     `json:"parameters,omitempty"`
	RiskMetrics   map[string]float64 `json:"risk_metrics,omitempty"`
	Confidence    float64            `json:"confidence"`
	ExecutionTime float64            `json:"execution_time"` // seconds
	Error         string             `json:"error,omitempty"`
	Warnings      []string           `json:"warnings,omitempty"`
	Metadata      map[string]any     `json:"metadata,omitempty"`
	Validation    *ValidationResult  `json:"validation,omitempty"`
}

// Failed reports whether the provider call produced an error instead of a
// usable candidate.
func (m *ModelResult) Failed() bool {
	return m.Error != ""
}

// Eligible reports whether the result qualifies for ranking: it must not
// have errored and must not have failed hard validation.
func (m *ModelResult) Eligible() bool {
	if m.Failed() {
		return false
	}
	if m.Validation != nil && m.Validation.Status == StatusInvalid {
		return false
	}
	return true
}

// Comparison summarizes eligible candidates across providers.
type Comparison struct {
	// Metrics maps metric name to per-provider values. Providers that did
	// not report a metric are omitted from that metric's row rather than
	// zero-filled.
	Metrics      map[string]map[string]float64 `json:"metrics"`
	BestProvider string                        `json:"best_provider,omitempty"`
	Ranking      []string                      `json:"ranking"`
	Summary      string                        `json:"summary,omitempty"`
}

// ResponseMeta carries request-level measurements.
type ResponseMeta struct {
	TotalTime     float64  `json:"total_time"` // wall-clock seconds for dispatch through ranking
	ProvidersUsed []string `json:"providers_used"`
}

// StrategyResponse aggregates every provider's result for one request.
type StrategyResponse struct {
	StrategyID  string        `json:"strategy_id"`
	Description string        `json:"description"`
	Results     []ModelResult `json:"results"`
	// BestResult points into Results; nil only when every provider failed
	// or produced invalid code.
	BestResult *ModelResult `json:"best_result,omitempty"`
	Comparison *Comparison  `json:"comparison,omitempty"`
	Metadata   ResponseMeta `json:"metadata"`
	CreatedAt  time.Time    `json:"created_at"`
}

// NewStrategyID derives a unique strategy identifier from the requesting
// user and timestamp.
func NewStrategyID(userID string, ts time.Time) string {
	if userID == "" {
		userID = "anon"
	}
	return fmt.Sprintf("strat-%s-%s-%s", userID, ts.UTC().Format("20060102T150405"), uuid.NewString()[:8])
}
