package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MonitorMode observes both venues and logs gated plans without executing
// them. It needs no credentials.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")
	return a.runLoop(ctx, deps)
}

// TradeMode runs the full observe/evaluate/execute cycle with live orders.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trade mode")
	return a.runLoop(ctx, deps)
}

// runLoop starts the depth stream when configured and blocks on the
// monitoring loop until the context is cancelled.
func (a *App) runLoop(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	if deps.Feed != nil {
		g.Go(func() error {
			return deps.Feed.Run(ctx)
		})
	}
	g.Go(func() error {
		return deps.Loop.Run(ctx)
	})

	return g.Wait()
}
