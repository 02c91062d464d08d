package catalog

// Kind is the media kind of a catalog item.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// Item is one film or series in the catalog.
type Item struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Year       int    `json:"year,omitempty"`
	Rating     string `json:"rating"`
	Genre      string `json:"genre"`
	Synopsis   string `json:"synopsis"`
	Image      string `json:"image"`
	Kind       Kind   `json:"kind"`
	Language   string `json:"language"`
	ExternalID string `json:"external_id"`
}
