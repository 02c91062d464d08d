package metadata

import (
	"strings"

	"cine-catalog/catalog"
)

// Target age ratings, as shown in the UK catalog (BBFC).
const (
	RatingU   = "U"
	RatingPG  = "PG"
	Rating12A = "12A"
	Rating12  = "12"
	Rating15  = "15"
	Rating18  = "18"
)

// Ratings is the target rating vocabulary in ascending order.
var Ratings = []string{RatingU, RatingPG, Rating12A, Rating12, Rating15, Rating18}

// ratingTable maps source maturity codes (US TV, MPA and streaming age
// labels) to the target vocabulary. Keys are upper-case.
var ratingTable = map[string]string{
	"TV-Y":     RatingU,
	"TV-G":     RatingU,
	"G":        RatingU,
	"ALL":      RatingU,
	"TV-Y7":    RatingPG,
	"TV-Y7-FV": RatingPG,
	"7+":       RatingPG,
	"PG":       RatingPG,
	"TV-PG":    RatingPG,
	"PG-13":    Rating12A,
	"12+":      Rating12,
	"13+":      Rating12,
	"TV-14":    Rating15,
	"16+":      Rating15,
	"R":        Rating15,
	"TV-MA":    Rating18,
	"NC-17":    Rating18,
	"18+":      Rating18,
	"A":        Rating18,
}

// languageTable maps ISO 639-1 codes to display names.
var languageTable = map[string]string{
	"ar": "Arabic",
	"da": "Danish",
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"hi": "Hindi",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"nl": "Dutch",
	"no": "Norwegian",
	"pl": "Polish",
	"pt": "Portuguese",
	"ru": "Russian",
	"sv": "Swedish",
	"th": "Thai",
	"tr": "Turkish",
	"zh": "Chinese",
}

// kindTable maps source type strings to catalog kinds.
var kindTable = map[string]catalog.Kind{
	"movie":  catalog.KindMovie,
	"film":   catalog.KindMovie,
	"series": catalog.KindSeries,
	"show":   catalog.KindSeries,
	"tv":     catalog.KindSeries,
}

// MapRating converts a source maturity code. Codes already in the target
// vocabulary pass through; unknown codes map to "".
func MapRating(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	for _, r := range Ratings {
		if code == r {
			return r
		}
	}
	return ratingTable[code]
}

// MapLanguage converts an ISO 639-1 code to its display name. Unknown codes
// are returned upper-cased.
func MapLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	// "pt-BR" and friends
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	if name, ok := languageTable[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}

// MapKind converts a source type. ok is false for unknown types.
func MapKind(t string) (kind catalog.Kind, ok bool) {
	kind, ok = kindTable[strings.ToLower(strings.TrimSpace(t))]
	return kind, ok
}
