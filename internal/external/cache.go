package external

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// QuoteCache holds recently fetched quotes so a ticker held in several
// categories hits its provider once per TTL.
type QuoteCache struct {
	c   *ristretto.Cache
	ttl time.Duration
}

// NewQuoteCache creates a cache whose entries expire after ttl.
// A non-positive ttl returns a nil cache, which is valid and caches nothing.
func NewQuoteCache(ttl time.Duration) (*QuoteCache, error) {
	if ttl <= 0 {
		return nil, nil
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 12,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating quote cache: %w", err)
	}
	return &QuoteCache{c: c, ttl: ttl}, nil
}

func quoteKey(provider, ticker string) string {
	return provider + ":" + ticker
}

func (q *QuoteCache) get(provider, ticker string) (Quote, bool) {
	if q == nil {
		return Quote{}, false
	}
	v, ok := q.c.Get(quoteKey(provider, ticker))
	if !ok {
		return Quote{}, false
	}
	quote, ok := v.(Quote)
	return quote, ok
}

func (q *QuoteCache) set(provider, ticker string, quote Quote) {
	if q == nil {
		return
	}
	q.c.SetWithTTL(quoteKey(provider, ticker), quote, 1, q.ttl)
	// make the entry visible to the next lookup in the same bulk run
	q.c.Wait()
}

// Close releases the cache's background goroutines.
func (q *QuoteCache) Close() {
	if q == nil {
		return
	}
	q.c.Close()
}
