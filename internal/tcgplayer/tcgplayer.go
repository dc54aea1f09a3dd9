// Package tcgplayer prices cards through TCGplayer's internal search
// service, a POST API that returns structured products with per-listing
// printing, condition, price and quantity. Foil finishes appear as sibling
// listings of one product rather than separate products, so the adapter
// picks the listing matching the wanted finish instead of rejecting the
// product.
package tcgplayer

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/optekal/fabprice/internal/currency"
	"github.com/optekal/fabprice/internal/match"
	"github.com/optekal/fabprice/internal/model"
	"github.com/optekal/fabprice/internal/source"
)

const (
	defaultSearchURL = "https://mp-search-api.tcgplayer.com/v1/search/request"
	defaultSiteURL   = "https://www.tcgplayer.com"
	productLine      = "flesh-and-blood-tcg"
	pageSize         = 15
)

type Config struct {
	SearchURL      string
	SiteURL        string
	RequestTimeout time.Duration
}

type Adapter struct {
	searchURL string
	siteURL   string
	client    *source.Client
}

func New(cfg Config) *Adapter {
	searchURL := cfg.SearchURL
	if searchURL == "" {
		searchURL = defaultSearchURL
	}
	siteURL := cfg.SiteURL
	if siteURL == "" {
		siteURL = defaultSiteURL
	}
	return &Adapter{
		searchURL: searchURL,
		siteURL:   strings.TrimRight(siteURL, "/"),
		client:    source.NewClient(cfg.RequestTimeout),
	}
}

func (a *Adapter) Client() *source.Client { return a.client }

func (a *Adapter) Info() source.Info {
	return source.Info{
		ID:       "tcgplayer",
		Name:     "TCGplayer",
		Currency: currency.USD,
		Region:   "USA",
		Delay:    800 * time.Millisecond,
	}
}

type searchRequest struct {
	Algorithm string                 `json:"algorithm"`
	From      int                    `json:"from"`
	Size      int                    `json:"size"`
	Filters   searchFilters          `json:"filters"`
	Context   map[string]interface{} `json:"context"`
	Settings  map[string]interface{} `json:"settings"`
}

type searchFilters struct {
	Term map[string][]string `json:"term"`
}

type searchResponse struct {
	Results []struct {
		Results []product `json:"results"`
	} `json:"results"`
}

type product struct {
	ProductID        int               `json:"productId"`
	ProductName      string            `json:"productName"`
	SetName          string            `json:"setName"`
	MarketPrice      *float64          `json:"marketPrice"`
	LowestPrice      *float64          `json:"lowestPrice"`
	TotalListings    int               `json:"totalListings"`
	CustomAttributes map[string]string `json:"customAttributes"`
	Listings         []listing         `json:"listings"`
}

type listing struct {
	Printing  string  `json:"printing"`
	Condition string  `json:"condition"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

func (a *Adapter) Search(ctx context.Context, q model.CardQuery) model.SourceOffer {
	info := a.Info()

	base, _ := match.StripColorSuffix(q.CardName)
	req := searchRequest{
		Algorithm: "sales_synonym_v2",
		From:      0,
		Size:      pageSize,
		Filters: searchFilters{Term: map[string][]string{
			"productLineName": {productLine},
			"productName":     {base},
		}},
		Context:  map[string]interface{}{"shippingCountry": "US"},
		Settings: map[string]interface{}{"useFuzzySearch": true},
	}

	var resp searchResponse
	if err := a.client.PostJSON(ctx, a.searchURL+"?q="+url.QueryEscape(base), req, &resp, nil); err != nil {
		return source.ErrorOffer(info, fmt.Sprintf("search failed: %v", err))
	}

	var products []product
	if len(resp.Results) > 0 {
		products = resp.Results[0].Results
	}
	if len(products) == 0 {
		return source.ErrorOffer(info, source.ErrNoResults)
	}

	for _, p := range products {
		if !match.CardName(p.ProductName, q.CardName) {
			continue
		}

		l, ok := pickListing(p.Listings, q.FoilType)
		if !ok {
			// No listings in the payload: classify the product itself.
			foil, clsOK := match.ClassifyFoil(match.FoilSignals{Title: p.ProductName})
			if !clsOK || foil != q.FoilType {
				continue
			}
			return a.productOffer(p, q)
		}

		offer := model.SourceOffer{
			Source:     info.ID,
			Currency:   info.Currency,
			Price:      model.Float(l.Price),
			Available:  l.Quantity > 0,
			ProductURL: fmt.Sprintf("%s/product/%d", a.siteURL, p.ProductID),
			SetCode:    extractSetCode(p),
		}
		if jpy, ok := currency.ToJPY(l.Price, info.Currency); ok {
			offer.PriceJPY = model.Int(jpy)
		}
		return offer
	}

	return source.ErrorOffer(info, source.NoVariantError(q.FoilType))
}

// pickListing selects the listing whose printing classifies to the wanted
// foil type, preferring Near Mint condition.
func pickListing(listings []listing, foil model.FoilType) (listing, bool) {
	var fallback *listing
	for i := range listings {
		l := listings[i]
		got, ok := match.ClassifyFoil(match.FoilSignals{Printing: l.Printing})
		if !ok || got != foil {
			continue
		}
		if strings.Contains(strings.ToLower(l.Condition), "near mint") {
			return l, true
		}
		if fallback == nil {
			fallback = &listings[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return listing{}, false
}

// productOffer builds an offer from product-level pricing when the search
// payload carries no listings.
func (a *Adapter) productOffer(p product, q model.CardQuery) model.SourceOffer {
	info := a.Info()
	offer := model.SourceOffer{
		Source:     info.ID,
		Currency:   info.Currency,
		Available:  p.TotalListings > 0,
		ProductURL: fmt.Sprintf("%s/product/%d", a.siteURL, p.ProductID),
		SetCode:    extractSetCode(p),
	}

	price := p.MarketPrice
	if price == nil {
		price = p.LowestPrice
	}
	if price != nil {
		offer.Price = model.Float(*price)
		if jpy, ok := currency.ToJPY(*price, info.Currency); ok {
			offer.PriceJPY = model.Int(jpy)
		}
	}
	return offer
}

var titleCodeRe = regexp.MustCompile(`[\[(]([A-Za-z]{2,5}\d+)[\])]`)

// extractSetCode prefers the structured card number attribute and falls
// back to a bracketed code in the product name.
func extractSetCode(p product) *string {
	if num, ok := p.CustomAttributes["number"]; ok && num != "" {
		return model.Str(strings.ToUpper(num))
	}
	if m := titleCodeRe.FindStringSubmatch(p.ProductName); m != nil {
		return model.Str(strings.ToUpper(m[1]))
	}
	return nil
}
