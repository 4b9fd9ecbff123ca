package embedding

import (
	"container/list"
	"context"
	"sync"
)

// DefaultCacheSize bounds the embedding cache. Entries beyond the
// bound evict least-recently-used first.
const DefaultCacheSize = 512

// CachedEmbedder wraps an Embedder with a bounded LRU cache keyed by
// the exact input text. It is safe for concurrent use and is injected
// rather than shared globally, so independent scorers do not contend
// on one cache.
type CachedEmbedder struct {
	inner Embedder

	mu      sync.Mutex
	maxSize int
	order   *list.List // front = most recent
	entries map[string]*list.Element

	hits   int64
	misses int64
}

type cacheEntry struct {
	key string
	vec []float64
}

// WithCache wraps an Embedder with an LRU cache of maxSize entries.
// A non-positive maxSize falls back to DefaultCacheSize.
func WithCache(inner Embedder, maxSize int) *CachedEmbedder {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &CachedEmbedder{
		inner:   inner,
		maxSize: maxSize,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Embed returns cached vectors where available and fetches the rest in
// a single provider call, preserving input order.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))

	var missing []string
	var missingIdx []int

	c.mu.Lock()
	for i, t := range texts {
		if vec, ok := c.get(t); ok {
			out[i] = vec
			c.hits++
			continue
		}
		c.misses++
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i, vec := range fetched {
		out[missingIdx[i]] = vec
		c.put(missing[i], vec)
	}
	c.mu.Unlock()

	return out, nil
}

// Stats returns cumulative hit and miss counts.
func (c *CachedEmbedder) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached entries.
func (c *CachedEmbedder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// get must be called with the mutex held.
func (c *CachedEmbedder) get(key string) ([]float64, bool) {
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).vec, true
}

// put must be called with the mutex held.
func (c *CachedEmbedder) put(key string, vec []float64) {
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).vec = vec
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, vec: vec})

	for c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
