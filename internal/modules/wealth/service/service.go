package wealth

import (
	"context"
	"iter"
	"log"

	"anoa.com/communitywealth/pkg/roblox"
)

const (
	DefaultThreshold      int64 = 10000
	DefaultMaxWealthPages       = 50
)

type CollectibleSource interface {
	UserCollectibles(ctx context.Context, userID int64, maxPages int) iter.Seq2[roblox.Page[roblox.Collectible], error]
}

// Estimator scores a user by the value of their collectibles. It never fails.
type Estimator interface {
	EstimateWealth(ctx context.Context, userID int64) int64
}

type estimator struct {
	source    CollectibleSource
	threshold int64
	maxPages  int
}

func NewEstimator(source CollectibleSource, threshold int64, maxPages int) Estimator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxWealthPages
	}
	return &estimator{source: source, threshold: threshold, maxPages: maxPages}
}

// EstimateWealth sums the recent average price of every collectible at or
// above the threshold. A failed page ends the walk and keeps the partial sum.
func (e *estimator) EstimateWealth(ctx context.Context, userID int64) int64 {
	var total int64
	for page, err := range e.source.UserCollectibles(ctx, userID, e.maxPages) {
		if err != nil {
			log.Printf("[wealth] collectibles for user %d truncated: %v", userID, err)
			break
		}
		total += SumQualifying(page.Data, e.threshold)
	}
	return total
}

// SumQualifying adds the prices of items worth at least threshold. Items
// without a price count as 0.
func SumQualifying(items []roblox.Collectible, threshold int64) int64 {
	var sum int64
	for _, item := range items {
		if price := item.Price(); price >= threshold {
			sum += price
		}
	}
	return sum
}
