// Package crawler discovers the follower ids of an athlete by walking the
// paginated follower listing.
//
// # Termination
//
// The listing has no explicit last page. Pages are requested in order from
// page 1 until two consecutive pages yield zero rows. A page of rows that
// were all seen before does not count as empty.
//
// # Caching
//
// The discovered set is written to the follower-id cache under the target
// athlete id with no expiry, overwriting any previous set. When a set is
// already cached the crawler returns it without any network traffic; use
// the cache clear command to force a fresh crawl.
//
// # Politeness
//
// A pacer spaces page requests (one second by default). The wait is taken
// between pages only, never after the final page.
//
// # Usage
//
//	c := crawler.NewCrawler(fetcher, extractor, idStore, crawler.WithDelay(time.Second))
//	ids, err := c.DiscoverFollowerIDs(ctx, "12345")
package crawler
