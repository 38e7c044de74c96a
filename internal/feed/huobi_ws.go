// Package feed supervises streaming market-data connections and exposes the
// latest snapshot to the monitoring loop.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arbalab/cexdexarb/internal/domain"
	"github.com/arbalab/cexdexarb/internal/platform/huobi"
)

// HuobiDepthFeed keeps a live depth subscription and caches the most recent
// snapshot. It reconnects with a fixed backoff on disconnect. The monitor
// reads Latest between cycles instead of issuing a REST depth fetch.
type HuobiDepthFeed struct {
	wsHost string
	symbol string
	logger *slog.Logger

	mu   sync.RWMutex
	snap domain.DepthSnapshot
	seen bool
}

// NewHuobiDepthFeed creates a feed for the exchange-form symbol.
func NewHuobiDepthFeed(wsHost, symbol string, logger *slog.Logger) *HuobiDepthFeed {
	return &HuobiDepthFeed{
		wsHost: wsHost,
		symbol: symbol,
		logger: logger.With(slog.String("component", "huobi_depth_feed")),
	}
}

// Run connects, subscribes, and streams until ctx is cancelled. Reconnects
// with backoff on disconnect.
func (f *HuobiDepthFeed) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("depth stream disconnected, reconnecting",
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *HuobiDepthFeed) runConnection(ctx context.Context) error {
	client := huobi.NewWSClient(f.wsHost, f.symbol)
	defer client.Close()

	client.OnDepth(func(snap domain.DepthSnapshot) {
		f.mu.Lock()
		f.snap = snap
		f.seen = true
		f.mu.Unlock()
	})

	if err := client.Connect(ctx); err != nil {
		return err
	}
	if err := client.SubscribeDepth(ctx); err != nil {
		return err
	}
	f.logger.Info("depth stream subscribed", slog.String("symbol", f.symbol))

	return client.ReadLoop(ctx)
}

// Latest returns the most recent snapshot; ok is false until the first one
// arrives.
func (f *HuobiDepthFeed) Latest() (domain.DepthSnapshot, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snap, f.seen
}
