package chat

import "strings"

// Category names a class of crisis the companion responds to with resources.
type Category string

const (
	CategorySuicide          Category = "suicide"
	CategoryDomesticViolence Category = "domestic_violence"
	CategoryMentalHealth     Category = "mental_health"
)

// Categories lists every category in the order resources are appended.
var Categories = []Category{CategorySuicide, CategoryDomesticViolence, CategoryMentalHealth}

var keywords = map[Category][]string{
	CategorySuicide: {
		"suicide", "kill myself", "end my life", "don't want to live",
		"better off dead", "want to die", "no reason to live",
	},
	CategoryDomesticViolence: {
		"abuse", "hitting me", "violent", "threatens me", "afraid of partner",
		"domestic violence", "physical abuse", "emotional abuse",
	},
	CategoryMentalHealth: {
		"severe depression", "panic attack", "anxiety attack",
		"hearing voices", "hallucinating", "mental breakdown",
	},
}

// Keywords returns the phrases that flag category.
func Keywords(category Category) []string {
	return append([]string(nil), keywords[category]...)
}

// Detection reports which crisis categories a message touches.
type Detection struct {
	Suicide          bool `json:"suicide"`
	DomesticViolence bool `json:"domestic_violence"`
	MentalHealth     bool `json:"mental_health"`
}

// Any reports whether at least one category was flagged.
func (d Detection) Any() bool {
	return d.Suicide || d.DomesticViolence || d.MentalHealth
}

// Has reports whether category was flagged.
func (d Detection) Has(category Category) bool {
	switch category {
	case CategorySuicide:
		return d.Suicide
	case CategoryDomesticViolence:
		return d.DomesticViolence
	case CategoryMentalHealth:
		return d.MentalHealth
	}
	return false
}

// Detect does case-insensitive substring matching against the keyword lists.
func Detect(message string) Detection {
	lower := strings.ToLower(message)
	return Detection{
		Suicide:          containsAny(lower, keywords[CategorySuicide]),
		DomesticViolence: containsAny(lower, keywords[CategoryDomesticViolence]),
		MentalHealth:     containsAny(lower, keywords[CategoryMentalHealth]),
	}
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
