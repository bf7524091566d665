package geocode

import (
	"context"

	"github.com/bastiangx/addrcomplete/pkg/cache"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// CachedSource answers repeated queries from a cache.Store and falls
// through to the wrapped Source otherwise. Only successful answers are stored.
// Concurrent misses for the same normalised query share one lookup.
type CachedSource struct {
	source Source
	store  *cache.Store
	group  singleflight.Group
}

// NewCachedSource wraps source with store.
func NewCachedSource(source Source, store *cache.Store) *CachedSource {
	return &CachedSource{source: source, store: store}
}

// Suggest implements Source.
func (c *CachedSource) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	if labels, ok := c.store.Get(query); ok {
		log.Debugf("Cache hit for '%s'", query)
		suggestions := make([]Suggestion, len(labels))
		for i, l := range labels {
			suggestions[i] = Suggestion{Label: l}
		}
		return suggestions, nil
	}

	v, err, shared := c.group.Do(cache.Key(query), func() (any, error) {
		suggestions, err := c.source.Suggest(ctx, query)
		if err != nil {
			return nil, err
		}
		labels := make([]string, len(suggestions))
		for i, s := range suggestions {
			labels[i] = s.Label
		}
		c.store.Put(query, labels)
		return suggestions, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debugf("Shared in-flight lookup for '%s'", query)
	}
	suggestions := v.([]Suggestion)
	return append([]Suggestion(nil), suggestions...), nil
}

// Store exposes the underlying cache, e.g. for persisting on shutdown.
func (c *CachedSource) Store() *cache.Store {
	return c.store
}
