package fetch

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pevans/newswire"
	"github.com/pevans/newswire/config"
)

// Chain tries acquisition strategies in order until one yields at least one
// item. Total failure is not an error: the source simply contributes zero
// items for the cycle.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewChain builds a chain from explicit strategies, mainly for tests.
func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, logger: logger}
}

// NewDefaultChain builds the production chain from configuration: direct
// retrieval, then the JSON conversion proxy, then the XML passthrough proxy
// when one is configured.
func NewDefaultChain(cfg config.Config, logger *slog.Logger) *Chain {
	client := &http.Client{}

	strategies := []Strategy{
		&DirectStrategy{Client: client, Timeout: DirectTimeout, Policy: cfg.DatePolicy},
	}
	if cfg.JSONProxyURL != "" {
		strategies = append(strategies, &JSONProxyStrategy{
			Client:  client,
			Base:    cfg.JSONProxyURL,
			Timeout: JSONProxyTimeout,
			Policy:  cfg.DatePolicy,
		})
	}
	if cfg.XMLProxyURL != "" {
		strategies = append(strategies, &XMLProxyStrategy{
			Client:  client,
			Base:    cfg.XMLProxyURL,
			Timeout: XMLProxyTimeout,
			Policy:  cfg.DatePolicy,
		})
	}
	return NewChain(logger, strategies...)
}

// Fetch runs the chain for one source. Success means "produced at least one
// item", not merely "request succeeded": an empty parse advances to the next
// strategy like any failure.
func (c *Chain) Fetch(ctx context.Context, src config.Source) []newswire.Item {
	for _, strat := range c.strategies {
		items, err := strat.Fetch(ctx, src)
		if err != nil {
			c.logger.Warn("fetch attempt failed",
				"source", src.Name, "strategy", strat.Name(), "error", err)
			continue
		}
		if len(items) == 0 {
			c.logger.Debug("fetch attempt yielded no items",
				"source", src.Name, "strategy", strat.Name())
			continue
		}
		c.logger.Debug("fetch attempt succeeded",
			"source", src.Name, "strategy", strat.Name(), "items", len(items))
		return items
	}

	c.logger.Warn("all fetch strategies exhausted", "source", src.Name)
	return nil
}
