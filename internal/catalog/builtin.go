package catalog

import "github.com/tradeforge/stratgen/internal/model"

// Built-in template ids.
const (
	BuiltinDualMACrossover = "builtin-dual-ma-crossover"
	BuiltinRSIReversion    = "builtin-rsi-reversion"
	BuiltinBreakout        = "builtin-channel-breakout"
	BuiltinBollingerBands  = "builtin-bollinger-bands"
)

const dualMACode = `def initialize(context):
    context.fast_window = params.get("fast_window", 10)
    context.slow_window = params.get("slow_window", 30)
    context.stop_loss = params.get("stop_loss", 0.05)

def generate_signals(context, data):
    fast = data.close.rolling(context.fast_window).mean()
    slow = data.close.rolling(context.slow_window).mean()
    if fast.iloc[-1] > slow.iloc[-1] and fast.iloc[-2] <= slow.iloc[-2]:
        return "buy"
    if fast.iloc[-1] < slow.iloc[-1] and fast.iloc[-2] >= slow.iloc[-2]:
        return "sell"
    return "hold"
`

const rsiReversionCode = `def initialize(context):
    context.period = params.get("period", 14)
    context.oversold = params.get("oversold", 30)
    context.overbought = params.get("overbought", 70)
    context.stop_loss = params.get("stop_loss", 0.03)

def generate_signals(context, data):
    rsi = data.rsi(context.period)
    if rsi.iloc[-1] < context.oversold:
        return "buy"
    if rsi.iloc[-1] > context.overbought:
        return "sell"
    return "hold"
`

const breakoutCode = `def initialize(context):
    context.lookback = params.get("lookback", 20)
    context.stop_loss = params.get("stop_loss", 0.04)

def generate_signals(context, data):
    highs = data.high.rolling(context.lookback).max()
    lows = data.low.rolling(context.lookback).min()
    if data.close.iloc[-1] > highs.iloc[-2]:
        return "buy"
    if data.close.iloc[-1] < lows.iloc[-2]:
        return "sell"
    return "hold"
`

const bollingerCode = `def initialize(context):
    context.window = params.get("window", 20)
    context.num_std = params.get("num_std", 2)
    context.stop_loss = params.get("stop_loss", 0.04)

def generate_signals(context, data):
    mid = data.close.rolling(context.window).mean()
    std = data.close.rolling(context.window).std()
    upper = mid + context.num_std * std
    lower = mid - context.num_std * std
    if data.close.iloc[-1] < lower.iloc[-1]:
        return "buy"
    if data.close.iloc[-1] > upper.iloc[-1]:
        return "sell"
    return "hold"
`

// builtinTemplates returns the compiled-in seed catalog.
func builtinTemplates() []*model.StrategyTemplate {
	return []*model.StrategyTemplate{
		{
			ID:          BuiltinDualMACrossover,
			Name:        "Dual Moving-Average Crossover",
			Description: "Trend-following entry when a fast moving average crosses a slow one",
			Category:    "trend",
			Code:        dualMACode,
			Parameters:  map[string]any{"fast_window": 10, "slow_window": 30, "stop_loss": 0.05},
			MarketTypes: []string{"stock", "etf", "crypto"},
			Timeframes:  []string{"1d", "4h", "1h"},
			Tags:        []string{"moving-average", "trend", "crossover"},
			Difficulty:  "beginner",
			RiskLevel:   "medium",
			Author:      "system",
			Rating:      4.6,
			Builtin:     true,
		},
		{
			ID:          BuiltinRSIReversion,
			Name:        "RSI Mean Reversion",
			Description: "Buys oversold and sells overbought readings of the relative strength index",
			Category:    "mean-reversion",
			Code:        rsiReversionCode,
			Parameters:  map[string]any{"period": 14, "oversold": 30, "overbought": 70, "stop_loss": 0.03},
			MarketTypes: []string{"stock", "forex"},
			Timeframes:  []string{"1d", "1h", "15m"},
			Tags:        []string{"rsi", "oscillator", "mean-reversion"},
			Difficulty:  "beginner",
			RiskLevel:   "low",
			Author:      "system",
			Rating:      4.3,
			Builtin:     true,
		},
		{
			ID:          BuiltinBreakout,
			Name:        "Channel Breakout",
			Description: "Momentum entry on a close beyond the recent high-low channel",
			Category:    "momentum",
			Code:        breakoutCode,
			Parameters:  map[string]any{"lookback": 20, "stop_loss": 0.04},
			MarketTypes: []string{"stock", "futures", "crypto"},
			Timeframes:  []string{"1d", "4h"},
			Tags:        []string{"breakout", "momentum", "channel"},
			Difficulty:  "intermediate",
			RiskLevel:   "high",
			Author:      "system",
			Rating:      4.1,
			Builtin:     true,
		},
		{
			ID:          BuiltinBollingerBands,
			Name:        "Bollinger Band Reversion",
			Description: "Fades closes outside the Bollinger envelope back toward the mean",
			Category:    "mean-reversion",
			Code:        bollingerCode,
			Parameters:  map[string]any{"window": 20, "num_std": 2, "stop_loss": 0.04},
			MarketTypes: []string{"stock", "etf"},
			Timeframes:  []string{"1d", "1h"},
			Tags:        []string{"bollinger", "volatility", "mean-reversion"},
			Difficulty:  "intermediate",
			RiskLevel:   "medium",
			Author:      "system",
			Rating:      4.0,
			Builtin:     true,
		},
	}
}
