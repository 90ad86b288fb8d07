package roblox

import (
	"context"
	"iter"
	"sync/atomic"
)

// Page is one response of a cursor-paginated endpoint.
// A nil NextPageCursor marks the last page.
type Page[T any] struct {
	Data           []T     `json:"data"`
	NextPageCursor *string `json:"nextPageCursor"`
}

// URLBuilder returns the request URL for a cursor. The first page uses "".
type URLBuilder func(cursor string) string

// Paginate walks a cursor-paginated collection lazily. Each page is fetched
// only when the consumer asks for the next element. The sequence ends when
// the server returns a null cursor, after maxPages pages, or after the first
// failed request, which is yielded as (zero Page, err).
//
// The returned sequence is single-use: ranging over it a second time yields
// nothing.
func Paginate[T any](ctx context.Context, c *Client, build URLBuilder, maxPages int) iter.Seq2[Page[T], error] {
	var used atomic.Bool
	return func(yield func(Page[T], error) bool) {
		if used.Swap(true) {
			return
		}

		cursor := ""
		for fetched := 0; fetched < maxPages; fetched++ {
			var page Page[T]
			if err := c.getJSON(ctx, build(cursor), &page); err != nil {
				yield(Page[T]{}, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			if page.NextPageCursor == nil {
				return
			}
			cursor = *page.NextPageCursor
		}
	}
}
