package roblox

import (
	"context"
	"fmt"
	"iter"
	"net/url"
)

// Collectible is a limited item in a user's inventory. RecentAveragePrice is
// nil when the API omits it or sends null.
type Collectible struct {
	UserAssetID        int64  `json:"userAssetId"`
	AssetID            int64  `json:"assetId"`
	Name               string `json:"name"`
	RecentAveragePrice *int64 `json:"recentAveragePrice"`
}

// Price returns the recent average price, or 0 when it is missing.
func (c Collectible) Price() int64 {
	if c.RecentAveragePrice == nil {
		return 0
	}
	return *c.RecentAveragePrice
}

// CollectiblesURL builds the collectibles page URL, newest first, 100 per page.
func (c *Client) CollectiblesURL(userID int64) URLBuilder {
	return func(cursor string) string {
		u := fmt.Sprintf("%s/v1/users/%d/assets/collectibles?limit=100&sortOrder=Desc", c.inventoryURL, userID)
		if cursor != "" {
			u += "&cursor=" + url.QueryEscape(cursor)
		}
		return u
	}
}

func (c *Client) UserCollectibles(ctx context.Context, userID int64, maxPages int) iter.Seq2[Page[Collectible], error] {
	return Paginate[Collectible](ctx, c, c.CollectiblesURL(userID), maxPages)
}
