package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PlaceRecord is one row of the postal dataset.
type PlaceRecord struct {
	Zip   string  `json:"zip"`
	City  string  `json:"city"`
	State string  `json:"state"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// DisplayName renders the place as "City, ST" with the city in title case.
func (p PlaceRecord) DisplayName() string {
	if p.State == "" {
		return TitleCase(p.City)
	}
	return fmt.Sprintf("%s, %s", TitleCase(p.City), p.State)
}

// Suggestion is a city completion offered for a partial query.
type Suggestion struct {
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// TitleCase lower-cases s and upper-cases the first letter of each
// space-delimited word. Hyphens and apostrophes do not start a new word.
func TitleCase(s string) string {
	words := strings.Split(strings.ToLower(s), " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
