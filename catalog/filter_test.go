package catalog

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func sampleItems() []Item {
	return []Item{
		{ID: 1, Title: "Zodiac", Rating: "15", Language: "English", Genre: "Thriller", Kind: KindMovie},
		{ID: 2, Title: "Dark", Rating: "15", Language: "German", Genre: "Sci-Fi", Kind: KindSeries},
		{ID: 3, Title: "Coco", Rating: "U", Language: "English", Genre: "Animation", Kind: KindMovie},
		{ID: 4, Title: "Cidade de Deus", Rating: "18", Language: "Portuguese", Genre: "Drama", Kind: KindMovie},
		{ID: 5, Title: "Alice in Borderland", Rating: "15", Language: "Japanese", Genre: "Thriller", Kind: KindSeries},
		{ID: 6, Title: "3%", Rating: "15", Language: "Portuguese", Genre: "Sci-Fi", Kind: KindSeries},
		{ID: 7, Title: "Dark Waters", Rating: "12", Language: "English", Genre: "Drama", Kind: KindMovie},
	}
}

func titles(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestFilterEmptyQueryReturnsEverythingSorted(t *testing.T) {
	got := Filter(sampleItems(), Query{})

	want := []string{"3%", "Alice in Borderland", "Cidade de Deus", "Coco", "Dark", "Dark Waters", "Zodiac"}
	if diff := cmp.Diff(want, titles(got)); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterCases(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{
			name:  "single rating",
			query: Query{Ratings: []string{"18"}},
			want:  []string{"Cidade de Deus"},
		},
		{
			name:  "or within category",
			query: Query{Ratings: []string{"U", "12"}},
			want:  []string{"Coco", "Dark Waters"},
		},
		{
			name:  "and across categories",
			query: Query{Ratings: []string{"15"}, Languages: []string{"Portuguese"}},
			want:  []string{"3%"},
		},
		{
			name:  "case insensitive values",
			query: Query{Genres: []string{"thriller"}, Languages: []string{" ENGLISH "}},
			want:  []string{"Zodiac"},
		},
		{
			name:  "blank values ignored",
			query: Query{Genres: []string{"", "  "}},
			want:  []string{"3%", "Alice in Borderland", "Cidade de Deus", "Coco", "Dark", "Dark Waters", "Zodiac"},
		},
		{
			name:  "text substring",
			query: Query{Text: "dark"},
			want:  []string{"Dark", "Dark Waters"},
		},
		{
			name:  "text combined with category",
			query: Query{Text: "dark", Genres: []string{"Drama"}},
			want:  []string{"Dark Waters"},
		},
		{
			name:  "no match",
			query: Query{Ratings: []string{"PG"}},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sampleItems(), tt.query)
			if diff := cmp.Diff(tt.want, titles(got)); diff != "" {
				t.Errorf("titles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	q := Query{Ratings: []string{"15", "12"}, Genres: []string{"Drama", "Sci-Fi"}}
	once := Filter(sampleItems(), q)
	twice := Filter(once, q)
	assert.Equal(t, once, twice)
}

func TestFilterIsCommutativeAcrossCategories(t *testing.T) {
	items := sampleItems()
	ratings := Query{Ratings: []string{"15"}}
	languages := Query{Languages: []string{"English", "Japanese"}}
	genres := Query{Genres: []string{"Thriller"}}

	combined := Filter(items, Query{
		Ratings:   ratings.Ratings,
		Languages: languages.Languages,
		Genres:    genres.Genres,
	})

	orders := [][]Query{
		{ratings, languages, genres},
		{genres, ratings, languages},
		{languages, genres, ratings},
	}
	for _, order := range orders {
		got := items
		for _, q := range order {
			got = Filter(got, q)
		}
		assert.Equal(t, combined, got)
	}
	assert.Equal(t, []string{"Alice in Borderland", "Zodiac"}, titles(combined))
}

func TestFilterResultsAlwaysSorted(t *testing.T) {
	queries := []Query{
		{},
		{Ratings: []string{"15"}},
		{Languages: []string{"English"}},
		{Text: "a"},
	}
	for _, q := range queries {
		got := Filter(sampleItems(), q)
		assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool { return got[i].Title < got[j].Title }))
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	items := sampleItems()
	_ = Filter(items, Query{})
	assert.Equal(t, sampleItems(), items)
}

func TestQueryIsEmpty(t *testing.T) {
	assert.True(t, Query{}.IsEmpty())
	assert.True(t, Query{Ratings: []string{" "}, Text: "  "}.IsEmpty())
	assert.False(t, Query{Text: "x"}.IsEmpty())
	assert.False(t, Query{Genres: []string{"Drama"}}.IsEmpty())

	// blank-only constraints behave like no constraints
	got := Filter(sampleItems(), Query{Ratings: []string{" "}, Languages: []string{""}})
	assert.Equal(t, titles(Filter(sampleItems(), Query{})), titles(got))
}
