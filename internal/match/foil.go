package match

import (
	"regexp"
	"strings"

	"github.com/optekal/fabprice/internal/model"
)

// FoilSignals carries whatever variant evidence a storefront exposes for
// one catalog entry. Adapters fill the fields they have; empty fields are
// simply never consulted.
type FoilSignals struct {
	Title       string   // display title, may carry 〈RF〉-style markers
	Handle      string   // URL slug, may carry _foilr_-style tokens
	SKU         string   // may carry -enn / -enf / -enc style suffixes
	Tags        []string // structured tags, e.g. "rarity_V"
	ProductType string   // Shopify product type, e.g. "Rainbow Foil"
	Printing    string   // explicit printing field, e.g. "1st Edition Rainbow Foil"
}

var foilTokenRe = regexp.MustCompile(`\b(rf|cf|nf)\b`)

func (s FoilSignals) joined() string {
	parts := []string{s.Title, s.Handle, s.SKU, s.ProductType, s.Printing}
	parts = append(parts, s.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

func (s FoilSignals) hasToken(tok string) bool {
	for _, m := range foilTokenRe.FindAllString(s.joined(), -1) {
		if m == tok {
			return true
		}
	}
	return false
}

// ClassifyFoil maps a candidate's signals onto the closed foil-type set.
// The rule table is evaluated top-down, rarest variant first, so a
// candidate matching several rules is classified by the most specific one.
// Returns ok=false when no rule fires and a foil keyword is present, i.e.
// the entry is foiled in some way this table does not know.
func ClassifyFoil(s FoilSignals) (model.FoilType, bool) {
	all := s.joined()
	title := strings.ToLower(s.Title)
	handle := strings.ToLower(s.Handle)
	sku := strings.ToLower(s.SKU)

	printing := strings.ToLower(s.Printing)
	// A bare "Foil" printing means rainbow foil in this market.
	bareFoilPrinting := strings.Contains(printing, "foil") &&
		!strings.Contains(printing, "non") && !strings.Contains(printing, "cold")

	rainbowMarker := strings.Contains(s.Title, "〈RF〉") ||
		strings.Contains(all, "rainbow") ||
		strings.Contains(handle, "_foilr_") ||
		strings.Contains(sku, "-enf") || strings.HasSuffix(sku, "f1") ||
		s.hasToken("rf") || bareFoilPrinting
	coldMarker := strings.Contains(s.Title, "〈CF〉") ||
		strings.Contains(all, "cold foil") ||
		strings.Contains(handle, "_foilc_") ||
		strings.Contains(sku, "-enc") || strings.HasSuffix(sku, "c1") ||
		s.hasToken("cf")
	extendedArt := strings.Contains(all, "extended art") ||
		strings.Contains(handle, "_artea_") ||
		strings.Contains(all, "extended")

	// Marvel first: marvels are also rainbow foils, so the rarity tag or
	// keyword must win over the rainbow rules below.
	if strings.Contains(all, "marvel") || hasTagPrefix(s.Tags, "rarity_v") {
		return model.FoilMarvel, true
	}

	if extendedArt && rainbowMarker {
		return model.FoilEARF, true
	}

	if rainbowMarker && !coldMarker {
		return model.FoilRF, true
	}

	if coldMarker {
		return model.FoilCF, true
	}

	// Explicit non-foil markers.
	if strings.Contains(handle, "_foils_") &&
		!strings.Contains(s.Title, "〈RF〉") && !strings.Contains(s.Title, "〈CF〉") {
		return model.FoilNF, true
	}
	if strings.Contains(sku, "-enn") || strings.HasSuffix(sku, "n1") ||
		strings.Contains(all, "non-foil") || strings.Contains(all, "normal") ||
		strings.Contains(all, "regular") || s.hasToken("nf") {
		return model.FoilNF, true
	}

	// No foil keyword at all: storefronts routinely leave plain printings
	// unmarked, so absence of evidence means non-foil.
	if !strings.Contains(all, "foil") && !strings.Contains(title, "foil") {
		return model.FoilNF, true
	}

	return "", false
}

func hasTagPrefix(tags []string, prefix string) bool {
	for _, t := range tags {
		if strings.HasPrefix(strings.ToLower(t), prefix) {
			return true
		}
	}
	return false
}
