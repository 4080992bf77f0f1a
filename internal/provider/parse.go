package provider

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// errNoChoices marks a well-formed API response carrying zero completions.
var errNoChoices = eris.New("reply contains no choices")

// payload is the JSON object providers are instructed to answer with.
type payload struct {
	Code        string             `json:"code"`
	Description string             `json:"description"`
	Parameters  map[string]any     `json:"parameters"`
	RiskMetrics map[string]float64 `json:"risk_metrics"`
	Confidence  float64            `json:"confidence"`
}

// parsePayload extracts the strategy payload from a raw model reply. Models
// wrap JSON in code fences or prose often enough that the parser hunts for
// the object instead of requiring a bare reply.
func parsePayload(raw string) (*payload, error) {
	text := extractJSON(raw)
	if text == "" {
		return nil, eris.New("reply contains no JSON object")
	}

	var p payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, eris.Wrap(err, "decode reply JSON")
	}
	if strings.TrimSpace(p.Code) == "" {
		return nil, eris.New("reply JSON has no code field")
	}

	// Self-reported confidence outside [0,1] is clamped, not rejected.
	if p.Confidence < 0 {
		p.Confidence = 0
	}
	if p.Confidence > 1 {
		p.Confidence = 1
	}

	return &p, nil
}

// extractJSON returns the most plausible JSON object embedded in text:
// fenced block content when present, otherwise the span from the first '{'
// to the last '}'.
func extractJSON(text string) string {
	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(text, fence)
		if start < 0 {
			continue
		}
		rest := text[start+len(fence):]
		end := strings.Index(rest, "```")
		if end < 0 {
			continue
		}
		candidate := strings.TrimSpace(rest[:end])
		if strings.HasPrefix(candidate, "{") {
			return candidate
		}
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first < 0 || last <= first {
		return ""
	}
	return text[first : last+1]
}
