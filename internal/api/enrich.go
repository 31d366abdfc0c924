package api

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/EmpoweredVote/jobmarket/internal/logger"
)

// fanOut runs fn for every index in [0, n) with at most c.maxConcurrency
// calls in flight. The first error cancels the remaining calls and is
// returned; callers write results by index so no ordering is needed.
func (c *Client) fanOut(ctx context.Context, op string, n int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.LogEnrich(providerName, op, n, time.Since(start))
	return nil
}

// attachUploaders fills Uploader on every item. The whole batch fails if any
// lookup fails.
func (c *Client) attachUploaders(ctx context.Context, token string, items []MediaItem) error {
	return c.fanOut(ctx, "uploaders", len(items), func(ctx context.Context, i int) error {
		u, err := c.GetUser(ctx, token, items[i].UserID)
		if err != nil {
			return &EnrichmentError{Step: EnrichUploader, ID: items[i].ID, Err: err}
		}
		items[i].Uploader = u
		return nil
	})
}
