package scan

import "strings"

// Candidate is an in-progress price/name/code guess for one capture.
// It is created the moment any detector produces a non-trivial result,
// enriched as slower detectors report in, and discarded once the
// capture reaches a terminal outcome.
type Candidate struct {
	Price       float64 `json:"price"`
	GuessedName string  `json:"guessedName"`
	ProductCode string  `json:"productCode,omitempty"`
}

// Placeholder names produced when no usable description could be
// assembled. They never count as a confident product name.
const (
	PlaceholderLocal   = "Item desconhecido"
	PlaceholderRemote  = "Item não identificado"
	PlaceholderScanned = "Item escaneado"
)

var placeholderNames = map[string]bool{
	strings.ToLower(PlaceholderLocal):   true,
	strings.ToLower(PlaceholderRemote):  true,
	strings.ToLower(PlaceholderScanned): true,
}

// IsPlaceholderName reports whether name is one of the known
// placeholder strings, ignoring case and surrounding whitespace.
func IsPlaceholderName(name string) bool {
	return placeholderNames[strings.ToLower(strings.TrimSpace(name))]
}
