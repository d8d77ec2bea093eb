package catalog

import (
	"sync"

	"smartreader/internal/domain"
)

// Store holds the authoritative set of articles for one session. All
// mutation goes through ReplaceAll and Update; there is no deletion.
type Store struct {
	mu    sync.RWMutex
	order []int64
	byID  map[int64]domain.Article
}

// NewStore builds an empty catalog.
func NewStore() *Store {
	return &Store{byID: map[int64]domain.Article{}}
}

// ReplaceAll swaps in a full snapshot of the catalog, preserving the order
// the service returned. A later duplicate id overwrites an earlier one
// without occupying a second list position.
func (s *Store) ReplaceAll(articles []domain.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = make([]int64, 0, len(articles))
	s.byID = make(map[int64]domain.Article, len(articles))
	for _, a := range articles {
		if _, ok := s.byID[a.ID]; !ok {
			s.order = append(s.order, a.ID)
		}
		s.byID[a.ID] = a
	}
}

// Update applies patch to the record at id and stores the result. Unknown
// ids are a silent no-op; the boolean reports whether the patch applied.
func (s *Store) Update(id int64, patch func(*domain.Article)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return false
	}
	patch(&a)
	s.byID[id] = a
	return true
}

// Get returns a copy of the record at id.
func (s *Store) Get(id int64) (domain.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	return a, ok
}

// All returns the catalog in insertion order.
func (s *Store) All() []domain.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Article, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Len reports how many articles the catalog holds.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
