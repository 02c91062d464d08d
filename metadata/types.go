package metadata

import "fmt"

// TitleSummary is one entry of a list page.
type TitleSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// TitleDetail is the full record returned by the detail endpoint.
type TitleDetail struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Year             int      `json:"year"`
	MaturityRating   string   `json:"maturity_rating"`
	Genres           []string `json:"genres"`
	Synopsis         string   `json:"synopsis"`
	Poster           string   `json:"poster"`
	Type             string   `json:"type"`
	OriginalLanguage string   `json:"original_language"`
	IMDbID           string   `json:"imdb_id"`
	PageURL          string   `json:"page_url"`
}

type listResponse struct {
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Results    []TitleSummary `json:"results"`
}

type apiError struct {
	Message string `json:"message"`
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("metadata api: %s returned %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("metadata api: %s returned %d", e.URL, e.StatusCode)
}
