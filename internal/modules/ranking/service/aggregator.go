package ranking

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	communityDto "anoa.com/communitywealth/internal/modules/community/dto"
	"anoa.com/communitywealth/internal/modules/ranking/dto"
	status "anoa.com/communitywealth/internal/modules/status/service"
	wealth "anoa.com/communitywealth/internal/modules/wealth/service"
	"golang.org/x/sync/errgroup"
)

// Aggregator scores every member and orders them by wealth.
type Aggregator struct {
	estimator wealth.Estimator
	workers   int
}

// NewAggregator returns an aggregator that estimates members one at a time,
// or with up to workers concurrent estimates when workers > 1.
func NewAggregator(estimator wealth.Estimator, workers int) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	return &Aggregator{estimator: estimator, workers: workers}
}

// Rank returns one entry per member, sorted by wealth descending with ties
// in input order. A progress status follows every estimate. When ctx ends
// early the remaining members keep wealth 0 and ctx's error is returned.
func (a *Aggregator) Rank(ctx context.Context, members []communityDto.Member, sink status.Sink) ([]dto.RankedEntry, error) {
	if sink == nil {
		sink = status.Discard
	}

	entries := make([]dto.RankedEntry, len(members))
	for i, m := range members {
		entries[i] = dto.RankedEntry{Username: m.Username, UserID: m.UserID}
	}

	total := len(members)
	var mu sync.Mutex
	done := 0
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		sink.Publish(ctx, status.Status{
			Phase:   status.PhaseProgress,
			Message: status.ProgressMessage(done, total),
			Current: done,
			Total:   total,
			At:      time.Now(),
		})
	}

	if a.workers == 1 {
		for i, m := range members {
			if ctx.Err() != nil {
				break
			}
			entries[i].Wealth = a.estimator.EstimateWealth(ctx, m.UserID)
			report()
		}
	} else {
		var g errgroup.Group
		g.SetLimit(a.workers)
		for i, m := range members {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				// Each goroutine owns slot i.
				entries[i].Wealth = a.estimator.EstimateWealth(ctx, m.UserID)
				report()
				return nil
			})
		}
		_ = g.Wait()
	}

	SortByWealth(entries)
	return entries, ctx.Err()
}

// SortByWealth orders entries by wealth descending, keeping the order of equal entries.
func SortByWealth(entries []dto.RankedEntry) {
	slices.SortStableFunc(entries, func(a, b dto.RankedEntry) int {
		return cmp.Compare(b.Wealth, a.Wealth)
	})
}
