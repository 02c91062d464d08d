// Package catalog holds the in-memory title table and the filter routine
// applied to it.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrDuplicateID is returned by Replace when two items share an ID.
var ErrDuplicateID = errors.New("catalog: duplicate item id")

// Store is the in-memory catalog table keyed by item ID. The whole table is
// swapped on every refresh; there are no per-item updates.
type Store struct {
	mu        sync.RWMutex
	items     map[int]Item
	updatedAt time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{items: make(map[int]Item)}
}

// Replace discards the current table and installs items. On error the
// previous table is left untouched.
func (s *Store) Replace(items []Item) error {
	next := make(map[int]Item, len(items))
	for _, it := range items {
		if _, exists := next[it.ID]; exists {
			return fmt.Errorf("%w: %d", ErrDuplicateID, it.ID)
		}
		next[it.ID] = it
	}

	s.mu.Lock()
	s.items = next
	s.updatedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// All returns every item sorted by title.
func (s *Store) All() []Item {
	items := s.snapshot()
	SortByTitle(items)
	return items
}

// Get returns the item with the given ID.
func (s *Store) Get(id int) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	return it, ok
}

// Len returns the number of items in the table.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// UpdatedAt returns when the table was last replaced; zero if never.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Filter applies q to the current table.
func (s *Store) Filter(q Query) []Item {
	return Filter(s.snapshot(), q)
}

// ByRating returns the items carrying the given age rating.
func (s *Store) ByRating(rating string) []Item {
	return s.Filter(Query{Ratings: []string{rating}})
}

// Search returns the items whose title contains text, case-insensitively.
func (s *Store) Search(text string) []Item {
	return s.Filter(Query{Text: text})
}

// CountByKind returns the number of items per kind. Both kinds are always
// present.
func (s *Store) CountByKind() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]int{
		string(KindMovie):  0,
		string(KindSeries): 0,
	}
	for _, it := range s.items {
		out[string(it.Kind)]++
	}
	return out
}

// Facets lists the distinct filter values present in the table.
type Facets struct {
	Ratings   []string `json:"ratings"`
	Languages []string `json:"languages"`
	Genres    []string `json:"genres"`
}

// Facets returns the sorted distinct ratings, languages and genres.
func (s *Store) Facets() Facets {
	ratings := map[string]struct{}{}
	languages := map[string]struct{}{}
	genres := map[string]struct{}{}

	for _, it := range s.snapshot() {
		if it.Rating != "" {
			ratings[it.Rating] = struct{}{}
		}
		if it.Language != "" {
			languages[it.Language] = struct{}{}
		}
		if it.Genre != "" {
			genres[it.Genre] = struct{}{}
		}
	}
	return Facets{
		Ratings:   sortedKeys(ratings),
		Languages: sortedKeys(languages),
		Genres:    sortedKeys(genres),
	}
}

func (s *Store) snapshot() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
