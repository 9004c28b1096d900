package service

import (
	"context"
	"time"

	"github.com/timmy/researchbot/internal/logger"
	"golang.org/x/sync/errgroup"
)

// QueryResult pairs a query with the items its gateway call produced.
// A failed or timed-out call yields an empty Items slice, never an error.
type QueryResult struct {
	Query string
	Items []SearchItem
}

// ExecutorConfig holds the fan-out knobs. The pauses are rate-limit
// policy, not correctness requirements; tests set them to zero.
type ExecutorConfig struct {
	Concurrency    int
	PerCallTimeout time.Duration
	CallPause      time.Duration
	BatchPause     time.Duration
}

// Executor runs a query plan through the search gateway in consecutive
// batches bounded by a fixed concurrency ceiling.
type Executor struct {
	gateway SearchGateway
	cfg     ExecutorConfig
}

// NewExecutor creates a bounded fan-out executor.
// Parameters:
//   - gateway: search gateway the queries are issued against.
//   - cfg: concurrency ceiling, per-call timeout and pacing pauses.
// Returns:
//   - *Executor: initialized executor.
func NewExecutor(gateway SearchGateway, cfg ExecutorConfig) *Executor {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.PerCallTimeout <= 0 {
		cfg.PerCallTimeout = 20 * time.Second
	}
	return &Executor{gateway: gateway, cfg: cfg}
}

// Run executes the queries in planner order, in batches of the configured
// concurrency. Calls within a batch run concurrently, each bounded by the
// per-call timeout measured from dispatch; a timeout or gateway error
// downgrades to an empty result for that query and never aborts siblings.
// Results are reassociated with queries by position. onProgress is invoked
// once per completed call, in plan order.
//
// Cancellation is cooperative: observed between calls and between batches,
// in which case Run returns ctx.Err() with the results gathered so far.
func (e *Executor) Run(ctx context.Context, queries []string, perQuery int, onProgress func(query string)) ([]QueryResult, error) {
	results := make([]QueryResult, len(queries))
	for i, q := range queries {
		results[i] = QueryResult{Query: q}
	}

	for start := 0; start < len(queries); start += e.cfg.Concurrency {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		end := start + e.cfg.Concurrency
		if end > len(queries) {
			end = len(queries)
		}

		g, _ := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			idx := i
			g.Go(func() error {
				results[idx].Items = e.searchOne(ctx, queries[idx], perQuery)
				return nil
			})
		}
		// Workers never return errors; faults are downgraded per query.
		_ = g.Wait()

		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			if onProgress != nil {
				onProgress(queries[i])
			}
			if e.cfg.CallPause > 0 && i < end-1 {
				if err := sleepCtx(ctx, e.cfg.CallPause); err != nil {
					return results, err
				}
			}
		}

		if e.cfg.BatchPause > 0 && end < len(queries) {
			if err := sleepCtx(ctx, e.cfg.BatchPause); err != nil {
				return results, err
			}
		}
	}

	return results, nil
}

// searchOne issues a single gateway call bounded by the per-call timeout.
// Any fault is logged and downgraded to an empty result.
func (e *Executor) searchOne(ctx context.Context, query string, perQuery int) []SearchItem {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.PerCallTimeout)
	defer cancel()

	items, err := e.gateway.Search(callCtx, query, perQuery)
	if err != nil {
		logger.FromContext(ctx).WithFields(logger.Fields{
			logger.FieldQuery: query,
		}).WithError(err).Warn("Search query failed, continuing with empty result")
		return nil
	}
	return items
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
