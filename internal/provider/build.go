package provider

import (
	"time"

	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	openaiopt "github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tradeforge/stratgen/internal/config"
	"github.com/tradeforge/stratgen/pkg/claude"
	"github.com/tradeforge/stratgen/pkg/deepseek"
	"github.com/tradeforge/stratgen/pkg/openai"
)

// FromConfig builds the process-wide provider registry. Providers are
// registered in config declaration order, which also fixes wildcard
// expansion order. Config validation has already rejected enabled providers
// without credentials.
func FromConfig(cfg config.ProvidersConfig) *Registry {
	reg := NewRegistry()

	for _, np := range cfg.ByName() {
		if !np.Config.Enabled {
			continue
		}

		limiter := newLimiter(np.Config.RequestsPerMin)

		switch np.Name {
		case "claude":
			var opts []anthropicopt.RequestOption
			if np.Config.BaseURL != "" {
				opts = append(opts, anthropicopt.WithBaseURL(np.Config.BaseURL))
			}
			client := claude.NewClient(np.Config.Key, opts...)
			reg.Register(NewClaude(client, np.Config.Model, int64(np.Config.MaxTokens), np.Config.Temperature, limiter))

		case "openai":
			var opts []openaiopt.RequestOption
			if np.Config.BaseURL != "" {
				opts = append(opts, openaiopt.WithBaseURL(np.Config.BaseURL))
			}
			client := openai.NewClient(np.Config.Key, opts...)
			reg.Register(NewOpenAI(client, np.Config.Model, int64(np.Config.MaxTokens), np.Config.Temperature, limiter))

		case "deepseek":
			var opts []deepseek.Option
			if np.Config.BaseURL != "" {
				opts = append(opts, deepseek.WithBaseURL(np.Config.BaseURL))
			}
			if np.Config.Model != "" {
				opts = append(opts, deepseek.WithModel(np.Config.Model))
			}
			client := deepseek.NewClient(np.Config.Key, opts...)
			reg.Register(NewDeepSeek(client, np.Config.Model, np.Config.MaxTokens, np.Config.Temperature, limiter))
		}
	}

	zap.L().Info("provider registry initialized",
		zap.Strings("providers", reg.Names()),
	)
	return reg
}

func newLimiter(requestsPerMin int) *rate.Limiter {
	if requestsPerMin <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMin)), requestsPerMin)
}
