package catalog

import (
	"sort"
	"strings"
)

// Query selects items from the catalog. Categories are combined with AND,
// values inside one category with OR. Empty categories do not constrain.
type Query struct {
	Ratings   []string `json:"ratings,omitempty"`
	Languages []string `json:"languages,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	Text      string   `json:"q,omitempty"`
}

// IsEmpty reports whether the query has no constraints at all.
func (q Query) IsEmpty() bool {
	return len(normalizeSet(q.Ratings)) == 0 &&
		len(normalizeSet(q.Languages)) == 0 &&
		len(normalizeSet(q.Genres)) == 0 &&
		strings.TrimSpace(q.Text) == ""
}

// Filter returns the items matching q, sorted by title. The input slice is
// not modified.
func Filter(items []Item, q Query) []Item {
	if q.IsEmpty() {
		out := append(make([]Item, 0, len(items)), items...)
		SortByTitle(out)
		return out
	}

	ratings := normalizeSet(q.Ratings)
	languages := normalizeSet(q.Languages)
	genres := normalizeSet(q.Genres)
	text := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]Item, 0, len(items))
	for _, it := range items {
		if !inSet(ratings, it.Rating) || !inSet(languages, it.Language) || !inSet(genres, it.Genre) {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(it.Title), text) {
			continue
		}
		out = append(out, it)
	}
	SortByTitle(out)
	return out
}

// SortByTitle sorts items lexicographically by title, then by ID.
func SortByTitle(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Title != items[j].Title {
			return items[i].Title < items[j].Title
		}
		return items[i].ID < items[j].ID
	})
}

// normalizeSet lower-cases and trims values, dropping blanks. A nil result
// means "no constraint".
func normalizeSet(values []string) map[string]struct{} {
	var set map[string]struct{}
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(values))
		}
		set[v] = struct{}{}
	}
	return set
}

func inSet(set map[string]struct{}, v string) bool {
	if set == nil {
		return true
	}
	_, ok := set[strings.ToLower(strings.TrimSpace(v))]
	return ok
}
