package model

import (
	"github.com/rotisserie/eris"
)

// StrategyTemplate is a reusable strategy skeleton from the catalog.
// Built-in templates are immutable; user-created ones are fully mutable.
type StrategyTemplate struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category,omitempty"`
	Code        string         `json:"code"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	MarketTypes []string       `json:"market_types,omitempty"`
	Timeframes  []string       `json:"timeframes,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Difficulty  string         `json:"difficulty,omitempty"`
	RiskLevel   string         `json:"risk_level,omitempty"`
	Author      string         `json:"author,omitempty"`
	UsageCount  int            `json:"usage_count"`
	Rating      float64        `json:"rating"`
	Builtin     bool           `json:"builtin"`
}

// templateAliases maps legacy field names accepted on ingestion to their
// canonical keys. Callers predating the canonical schema still send the
// left-hand names.
var templateAliases = map[string]string{
	"difficulty_level":      "difficulty",
	"risk":                  "risk_level",
	"markets":               "market_types",
	"applicable_timeframes": "timeframes",
	"skeleton":              "code",
	"is_builtin":            "builtin",
}

// canonicalKey resolves a possibly-legacy field name to its canonical form.
func canonicalKey(k string) string {
	if c, ok := templateAliases[k]; ok {
		return c
	}
	return k
}

// TemplateFromMap builds a StrategyTemplate from a loosely-typed input map,
// normalizing legacy field-name aliases. Unknown keys are ignored.
func TemplateFromMap(in map[string]any) (*StrategyTemplate, error) {
	m := make(map[string]any, len(in))
	for k, v := range in {
		m[canonicalKey(k)] = v
	}

	t := &StrategyTemplate{
		ID:          asString(m["id"]),
		Name:        asString(m["name"]),
		Description: asString(m["description"]),
		Category:    asString(m["category"]),
		Code:        asString(m["code"]),
		Parameters:  asMap(m["parameters"]),
		MarketTypes: asStringSlice(m["market_types"]),
		Timeframes:  asStringSlice(m["timeframes"]),
		Tags:        asStringSlice(m["tags"]),
		Difficulty:  asString(m["difficulty"]),
		RiskLevel:   asString(m["risk_level"]),
		Author:      asString(m["author"]),
		UsageCount:  asInt(m["usage_count"]),
		Rating:      asFloat(m["rating"]),
		Builtin:     asBool(m["builtin"]),
	}

	if t.Name == "" {
		return nil, eris.New("template: name is required")
	}
	return t, nil
}

// ToMap serializes the template under canonical field names. The result
// round-trips through TemplateFromMap.
func (t *StrategyTemplate) ToMap() map[string]any {
	return map[string]any{
		"id":           t.ID,
		"name":         t.Name,
		"description":  t.Description,
		"category":     t.Category,
		"code":         t.Code,
		"parameters":   t.Parameters,
		"market_types": t.MarketTypes,
		"timeframes":   t.Timeframes,
		"tags":         t.Tags,
		"difficulty":   t.Difficulty,
		"risk_level":   t.RiskLevel,
		"author":       t.Author,
		"usage_count":  t.UsageCount,
		"rating":       t.Rating,
		"builtin":      t.Builtin,
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
