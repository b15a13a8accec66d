package marketdata

import (
	"context"
	"sync"
	"time"

	"TrendPulse/internal/domain/models"
	"TrendPulse/pkg/retry"
)

// runner fans a per-symbol fetch out across a bounded worker pool. Each
// worker retries its own symbol; a worker that exhausts its attempts just
// leaves its slot empty, it never fails the batch.
type runner struct {
	concurrency int
	timeout     time.Duration
	attempts    int
	backoffBase time.Duration
	backoffCap  time.Duration
}

func (r runner) policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: r.attempts,
		BaseDelay:   r.backoffBase,
		MaxDelay:    r.backoffCap,
		Timeout:     r.timeout,
	}
}

func (r runner) fanOut(ctx context.Context, symbols []string, fetch func(ctx context.Context, symbol string) (models.Quote, error)) []models.Quote {
	concurrency := r.concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]models.Quote, len(symbols))
	ok := make([]bool, len(symbols))
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	policy := r.policy()
	for i, symbol := range symbols {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return collect(results, ok)
		}

		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			q, err := retry.DoValue(ctx, policy, func(ctx context.Context) (models.Quote, error) {
				return fetch(ctx, symbol)
			})
			if err != nil {
				return
			}
			q.Symbol = symbol
			if !q.Finite() {
				return
			}
			results[i] = q
			ok[i] = true
		}(i, symbol)
	}

	wg.Wait()
	return collect(results, ok)
}

func collect(results []models.Quote, ok []bool) []models.Quote {
	out := make([]models.Quote, 0, len(results))
	for i, q := range results {
		if ok[i] {
			out = append(out, q)
		}
	}
	return out
}
