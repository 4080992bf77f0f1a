package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// systemPrompt frames every generation call. Providers answer with a single
// JSON object so the reply parses without provider-specific handling.
const systemPrompt = `You are a quantitative trading-strategy developer.
Generate Python strategy code with exactly two entry points:

    def initialize(context): ...
    def generate_signals(context, data): ...

Respond with a single JSON object and nothing else:

{
  "code": "<python source>",
  "description": "<one paragraph explaining the approach>",
  "parameters": {"<name>": <default>, ...},
  "risk_metrics": {"max_drawdown": <estimate>, "sharpe": <estimate>},
  "confidence": <your confidence in this strategy, 0.0-1.0>
}`

const dialectRules = `
The code must run on a restricted trading platform: no imports of os, sys,
subprocess, socket, requests, urllib or shutil, and no eval, exec, open or
__import__ calls.`

// BuildSystemPrompt returns the system prompt, with platform-dialect rules
// appended when the request demands compliance.
func BuildSystemPrompt(dialectRequired bool) string {
	if dialectRequired {
		return systemPrompt + dialectRules
	}
	return systemPrompt
}

// BuildUserPrompt renders the request into the user message.
func BuildUserPrompt(req GenerationRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Strategy description: %s\n", req.Description)
	if req.MarketType != "" {
		fmt.Fprintf(&b, "Market type: %s\n", req.MarketType)
	}
	if req.Timeframe != "" {
		fmt.Fprintf(&b, "Timeframe: %s\n", req.Timeframe)
	}
	if req.RiskLevel != "" {
		fmt.Fprintf(&b, "Risk level: %s\n", req.RiskLevel)
	}
	if len(req.Parameters) > 0 {
		if raw, err := json.Marshal(req.Parameters); err == nil {
			fmt.Fprintf(&b, "Requested parameters: %s\n", raw)
		}
	}
	if req.Optimize {
		b.WriteString("Optimize entry and exit thresholds for risk-adjusted return.\n")
	}
	if req.TemplateCode != "" {
		fmt.Fprintf(&b, "\nUse this skeleton as the structural starting point:\n```python\n%s\n```\n", req.TemplateCode)
	}

	return b.String()
}
