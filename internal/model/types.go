package model

// FoilType identifies a physical print finish. The set is closed; catalog
// text that fits none of them is unclassifiable rather than coerced.
type FoilType string

const (
	FoilNF     FoilType = "NF"
	FoilRF     FoilType = "RF"
	FoilCF     FoilType = "CF"
	FoilEARF   FoilType = "EARF"
	FoilMarvel FoilType = "Marvel"
)

// FoilTypes lists all valid foil types, rarest first.
var FoilTypes = []FoilType{FoilMarvel, FoilEARF, FoilRF, FoilCF, FoilNF}

// Valid reports whether f is one of the closed set of foil types.
func (f FoilType) Valid() bool {
	switch f {
	case FoilNF, FoilRF, FoilCF, FoilEARF, FoilMarvel:
		return true
	}
	return false
}

// Specificity orders foil types for classification tie-breaking:
// Marvel > EARF > RF > CF > NF. Higher is rarer.
func (f FoilType) Specificity() int {
	switch f {
	case FoilMarvel:
		return 4
	case FoilEARF:
		return 3
	case FoilRF:
		return 2
	case FoilCF:
		return 1
	default:
		return 0
	}
}

// Language is the card print language. The zero value means unspecified,
// which callers treat as English.
type Language string

const (
	LangEN Language = "EN"
	LangJP Language = "JP"
)

// OrDefault resolves an unspecified language to English.
func (l Language) OrDefault() Language {
	if l == "" {
		return LangEN
	}
	return l
}

// CardQuery is one card the user wants priced. Immutable for the duration
// of a search. KnownSetCode, when present, comes from a prior successful
// source and lets later sources disambiguate identical names across
// printings.
type CardQuery struct {
	CardName     string
	FoilType     FoilType
	Quantity     int
	Language     Language
	KnownSetCode string
}

// SourceOffer is one storefront's answer for one query: either a priced,
// normalized offer or an explicit failure. Price is in the source's native
// currency; PriceJPY is the cross-source comparison value.
//
// Invariant: when Error is set, Price is nil and Available is false.
type SourceOffer struct {
	Source     string
	Currency   string
	Price      *float64
	PriceJPY   *int
	Available  bool
	ProductURL string
	SetCode    *string
	Error      string
}

// Candidate is a source-specific catalog entry produced while resolving a
// query. Only the fields a given source can populate are set; candidates
// are discarded after extraction.
type Candidate struct {
	Title       string
	Handle      string
	SKU         string
	URL         string
	Tags        []string
	ProductType string
	Printing    string
	Price       *float64
	Available   *bool
}

// AggregateResult is the per-query output: one offer per enabled source in
// the caller-supplied order, plus the cheapest eligible source.
// BestSource is "" when no offer is simultaneously available, error-free,
// and priced.
type AggregateResult struct {
	Query      CardQuery
	Offers     []SourceOffer
	BestSource string
}

// Float returns a pointer to v, for literal offer construction.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Str returns a pointer to v.
func Str(v string) *string { return &v }
