// Package currency converts native storefront prices into JPY, the common
// comparison unit, and ranks offers by it. Rates are a static table by
// design: they only need to be accurate enough to order offers, not to
// invoice anyone.
package currency

import (
	"fmt"
	"math"

	"github.com/optekal/fabprice/internal/model"
)

const (
	JPY = "JPY"
	SGD = "SGD"
	USD = "USD"
	NZD = "NZD"
)

// Approximate rates: 1 unit of the key currency in JPY.
var ratesToJPY = map[string]float64{
	JPY: 1,
	SGD: 113,
	USD: 155,
	NZD: 92,
}

// ToJPY converts an amount in the given currency to rounded JPY.
// Unknown currencies report ok=false rather than guessing a rate.
func ToJPY(amount float64, currency string) (int, bool) {
	rate, ok := ratesToJPY[currency]
	if !ok {
		return 0, false
	}
	return int(math.Round(amount * rate)), true
}

// Symbol returns the display symbol for a supported currency.
func Symbol(currency string) string {
	switch currency {
	case JPY:
		return "¥"
	case SGD:
		return "S$"
	case USD:
		return "$"
	case NZD:
		return "NZ$"
	}
	return ""
}

// Format renders a price with its currency symbol.
func Format(price float64, currency string) string {
	if currency == JPY {
		return fmt.Sprintf("%s%.0f", Symbol(currency), price)
	}
	return fmt.Sprintf("%s%.2f", Symbol(currency), price)
}

// BestSource picks the source with the lowest JPY price among offers that
// are available, error-free, and actually priced. Ties go to the earlier
// offer. Returns "" when nothing qualifies.
func BestSource(offers []model.SourceOffer) string {
	best := ""
	bestJPY := 0
	for _, o := range offers {
		if !o.Available || o.Error != "" || o.PriceJPY == nil {
			continue
		}
		if best == "" || *o.PriceJPY < bestJPY {
			best = o.Source
			bestJPY = *o.PriceJPY
		}
	}
	return best
}
