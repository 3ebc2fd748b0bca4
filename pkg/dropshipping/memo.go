package dropshipping

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

type memoEntry struct {
	products []Product
	err      error
}

// Memo deduplicates identical searches within one turn. Concurrent callers
// share one in-flight fetch and later callers reuse its outcome, errors included.
type Memo struct {
	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]memoEntry
}

func NewMemo() *Memo {
	return &Memo{entries: make(map[string]memoEntry)}
}

func memoKey(opts SearchOptions) string {
	return fmt.Sprintf("%q|%d|%s|%s", opts.Query, opts.Limit, opts.ShipTo, opts.SortBy)
}

func (m *Memo) Do(opts SearchOptions, fetch func() ([]Product, error)) ([]Product, error) {
	key := memoKey(opts)

	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		m.mu.Unlock()
		return e.products, e.err
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		m.mu.Lock()
		if e, ok := m.entries[key]; ok {
			m.mu.Unlock()
			return e.products, e.err
		}
		m.mu.Unlock()

		products, err := fetch()

		m.mu.Lock()
		m.entries[key] = memoEntry{products: products, err: err}
		m.mu.Unlock()
		return products, err
	})
	products, _ := v.([]Product)
	return products, err
}
