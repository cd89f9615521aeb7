package scan

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tavini/pricecart/internal/detect"
)

// priceRe matches currency amounts as printed on shelf labels: an
// optional R$ prefix, then either a thousands-grouped integer part
// with a one or two digit comma decimal (1.299,90) or a plain number
// with exactly two fractional digits (12,50 / 12.50).
var priceRe = regexp.MustCompile(`(?:R\$?\s*)?(\d{1,3}(?:\.\d{3})*(?:,\d{1,2})|\d+[,.]\d{2})`)

// ParsePrice extracts the first currency amount found in text.
// Returns 0 when text contains no price.
func ParsePrice(text string) float64 {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return normalizeAmount(m[1])
}

// normalizeAmount converts a matched amount to a float. A comma marks
// the decimal separator and demotes any dots to thousands grouping.
func normalizeAmount(s string) float64 {
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// Parse converts raw detected text regions into a best-guess candidate.
// Among all amounts across all fragments the maximum is selected:
// secondary numbers on a tag (per-kg price, quantity) run smaller than
// the featured price. Returns nil when no fragment contains a price,
// since "no price found" is a distinct state from "price confirmed as
// zero".
func Parse(texts []detect.Text) *Candidate {
	if len(texts) == 0 {
		return nil
	}

	// Detector output has no guaranteed ordering; impose natural
	// reading order (top to bottom, then left to right) so the name
	// heuristic assembles fragments the way a shopper reads the tag.
	ordered := make([]detect.Text, len(texts))
	copy(ordered, texts)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Box.Y != ordered[j].Box.Y {
			return ordered[i].Box.Y < ordered[j].Box.Y
		}
		return ordered[i].Box.X < ordered[j].Box.X
	})

	var best float64
	parts := make([]string, 0, len(ordered))
	for _, t := range ordered {
		parts = append(parts, t.RawValue)
		if p := ParsePrice(t.RawValue); p > best {
			best = p
		}
	}
	if best == 0 {
		return nil
	}

	name := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	for _, m := range priceRe.FindAllString(name, -1) {
		if ParsePrice(m) == best {
			name = strings.ReplaceAll(name, m, "")
			break
		}
	}
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		name = PlaceholderLocal
	}

	return &Candidate{Price: best, GuessedName: name}
}
