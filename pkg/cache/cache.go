// Package cache keeps recent provider answers keyed by normalised query so
// retyping a query does not hit the network again.
package cache

import (
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

type entry struct {
	labels []string
	access int64
}

// Store is a size-bounded LRU of query -> labels held in a patricia trie.
type Store struct {
	trie        *patricia.Trie
	size        int
	maxEntries  int
	accessCount int64
	hits        int
	misses      int
	mu          sync.Mutex
}

// New creates an empty store. maxEntries < 1 means 1.
func New(maxEntries int) *Store {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Store{
		trie:       patricia.NewTrie(),
		maxEntries: maxEntries,
	}
}

// Key normalises a query: lower case, trimmed, inner whitespace collapsed.
func Key(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Get returns the labels cached for query.
func (s *Store) Get(query string) ([]string, bool) {
	key := Key(query)
	if key == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.trie.Get(patricia.Prefix(key))
	if item == nil {
		s.misses++
		return nil, false
	}
	e := item.(*entry)
	e.access = s.nextAccess()
	s.hits++

	out := make([]string, len(e.labels))
	copy(out, e.labels)
	return out, true
}

// Put stores labels for query, evicting the least recently used entry when full.
func (s *Store) Put(query string, labels []string) {
	key := Key(query)
	if key == "" {
		return
	}

	stored := make([]string, len(labels))
	copy(stored, labels)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(key, stored, s.nextAccess())
}

func (s *Store) put(key string, labels []string, access int64) {
	if item := s.trie.Get(patricia.Prefix(key)); item != nil {
		e := item.(*entry)
		e.labels = labels
		e.access = access
		return
	}
	if s.size >= s.maxEntries {
		s.evictLRU()
	}
	s.trie.Insert(patricia.Prefix(key), &entry{labels: labels, access: access})
	s.size++
}

// Queries lists cached queries starting with prefix.
func (s *Store) Queries(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	collect := func(p patricia.Prefix, _ patricia.Item) error {
		out = append(out, string(p))
		return nil
	}

	var err error
	if key := Key(prefix); key == "" {
		err = s.trie.Visit(collect)
	} else {
		err = s.trie.VisitSubtree(patricia.Prefix(key), collect)
	}
	if err != nil {
		log.Errorf("Error visiting cache subtree: %v", err)
	}
	return out
}

// Len reports the number of cached queries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Stats mirrors the counters other components report.
func (s *Store) Stats() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]int{
		"cacheEntries": s.size,
		"maxEntries":   s.maxEntries,
		"cacheHits":    s.hits,
		"cacheMisses":  s.misses,
	}
}

func (s *Store) nextAccess() int64 {
	s.accessCount++
	return s.accessCount
}

func (s *Store) evictLRU() {
	var oldestKey patricia.Prefix
	var oldestTime int64 = math.MaxInt64

	_ = s.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		if e := item.(*entry); e.access < oldestTime {
			oldestTime = e.access
			oldestKey = append(oldestKey[:0], p...)
		}
		return nil
	})

	if oldestKey != nil && s.trie.Delete(oldestKey) {
		s.size--
		log.Debugf("Evicted query '%s' from cache", string(oldestKey))
	}
}
