package shopify

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"blogsmith/internal/core"
)

// dedupSet tracks article IDs already seen within one fetch operation.
// It only grows, and it never outlives the call that created it.
type dedupSet map[int64]struct{}

// add appends the page's unseen records to out and reports how many were
// new. A page contributing zero new IDs is a stall: the endpoint made no
// forward progress, whatever the page length says.
func (s dedupSet) add(page []core.ArticleRecord, out *[]core.ArticleRecord) int {
	added := 0
	for _, rec := range page {
		if _, ok := s[rec.ID]; ok {
			continue
		}
		s[rec.ID] = struct{}{}
		*out = append(*out, rec)
		added++
	}
	return added
}

// FetchArticlesFrom walks the publish timeline in one direction from the
// reference timestamp, deduplicating across pages, until a page is empty
// or contributes nothing new. The cursor advances one second past the
// last record so the boundary record is not requested twice.
func (c *Client) FetchArticlesFrom(ctx context.Context, blogID int64, ref time.Time, dir core.Direction) ([]core.ArticleRecord, error) {
	seen := make(dedupSet)
	var result []core.ArticleRecord

	cursor := core.FetchCursor{Reference: ref, Direction: dir}
	for {
		page, err := c.ListArticlesPage(ctx, blogID, cursor, MaxPageSize)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		last := page[len(page)-1]
		added := seen.add(page, &result)
		c.log.Debug("fetched article page",
			"direction", dir.String(), "page_size", len(page), "new_records", added, "last_id", last.ID)

		// Repeated last ID is the cheap stall signal; zero new IDs also
		// catches shrinking pages of already-seen records.
		if added == 0 || last.ID == cursor.LastSeenID {
			break
		}
		cursor = cursor.Advance(last.PublishedAt, last.ID)
	}

	return result, nil
}

// FetchAllArticles reconstructs the complete article set by walking
// backward and forward from the reference timestamp against one shared
// dedup set. The endpoint has no "list all" operation; fetching both ways
// from a midpoint covers the timeline in roughly half the rounds of a
// single unbounded walk. On any remote failure the whole fetch aborts
// and partial results are discarded.
func (c *Client) FetchAllArticles(ctx context.Context, blogID int64, ref time.Time) ([]core.ArticleRecord, error) {
	result, err := c.fetchBidirectional(ctx, blogID, ref)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FetchAllArticlesBestEffort is FetchAllArticles for callers that would
// rather keep whatever was collected before a remote failure. The error
// is still returned alongside the partial result.
func (c *Client) FetchAllArticlesBestEffort(ctx context.Context, blogID int64, ref time.Time) ([]core.ArticleRecord, error) {
	return c.fetchBidirectional(ctx, blogID, ref)
}

// fetchBidirectional interleaves one page per direction per round. The
// two page requests of a round run concurrently and both complete before
// either cursor advances; dedup insertion happens only in this
// coordinating goroutine, so the set needs no locking. The per-request
// rate limiter inside the client paces each physical request.
func (c *Client) fetchBidirectional(ctx context.Context, blogID int64, ref time.Time) ([]core.ArticleRecord, error) {
	seen := make(dedupSet)
	var result []core.ArticleRecord

	cursors := [2]core.FetchCursor{
		{Reference: ref, Direction: core.Backward},
		{Reference: ref, Direction: core.Forward},
	}
	var stalled [2]bool

	for round := 1; !stalled[0] || !stalled[1]; round++ {
		var pages [2][]core.ArticleRecord

		g, gctx := errgroup.WithContext(ctx)
		for i := range cursors {
			if stalled[i] {
				continue
			}
			g.Go(func() error {
				page, err := c.ListArticlesPage(gctx, blogID, cursors[i], MaxPageSize)
				if err != nil {
					return err
				}
				pages[i] = page
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return result, err
		}

		for i := range cursors {
			if stalled[i] {
				continue
			}
			page := pages[i]
			if len(page) == 0 {
				stalled[i] = true
				continue
			}
			last := page[len(page)-1]
			added := seen.add(page, &result)
			if added == 0 || last.ID == cursors[i].LastSeenID {
				stalled[i] = true
				continue
			}
			cursors[i] = cursors[i].Advance(last.PublishedAt, last.ID)
		}

		c.log.Debug("bidirectional fetch round complete",
			"round", round, "total_records", len(result),
			"backward_stalled", stalled[0], "forward_stalled", stalled[1])
	}

	return result, nil
}
