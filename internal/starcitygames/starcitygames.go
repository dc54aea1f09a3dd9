// Package starcitygames prices cards on StarCityGames. The store runs on
// BigCommerce, whose GraphQL Storefront API is reachable at /graphql with
// a bearer token embedded in the homepage HTML. Search goes by name; when
// that finds nothing and the query carries a set-code hint, the adapter
// falls back to direct SKU lookups built from the hint
// (SGL-FAB-<set>-<num>-<lang><foil>).
package starcitygames

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/optekal/fabprice/internal/currency"
	"github.com/optekal/fabprice/internal/match"
	"github.com/optekal/fabprice/internal/model"
	"github.com/optekal/fabprice/internal/source"
)

const (
	defaultBaseURL = "https://starcitygames.com"
	maxCandidates  = 15

	// Titles on SCG bury the card name in condition and edition noise, so
	// containment alone misses real matches. This threshold is permissive
	// on purpose; see the matching notes in DESIGN.md.
	wordOverlapThreshold = 0.7
)

type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type Adapter struct {
	base   string
	client *source.Client
	tokens tokenCache
}

func New(cfg Config) *Adapter {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Adapter{
		base:   strings.TrimRight(base, "/"),
		client: source.NewClient(cfg.RequestTimeout),
	}
}

func (a *Adapter) Client() *source.Client { return a.client }

func (a *Adapter) Info() source.Info {
	return source.Info{
		ID:       "starcitygames",
		Name:     "StarCityGames",
		Currency: currency.USD,
		Region:   "USA",
		Delay:    300 * time.Millisecond,
	}
}

const searchQuery = `query SearchProducts($term: String!, $first: Int!) {
  site {
    search {
      searchProducts(filters: { searchTerm: $term }) {
        products(first: $first) {
          edges {
            node {
              name
              sku
              path
              prices { price { value currencyCode } }
              availabilityV2 { status }
            }
          }
        }
      }
    }
  }
}`

const skuQuery = `query ProductBySku($sku: String!) {
  site {
    product(sku: $sku) {
      name
      sku
      path
      prices { price { value currencyCode } }
      availabilityV2 { status }
    }
  }
}`

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type gqlProduct struct {
	Name   string `json:"name"`
	SKU    string `json:"sku"`
	Path   string `json:"path"`
	Prices struct {
		Price struct {
			Value        float64 `json:"value"`
			CurrencyCode string  `json:"currencyCode"`
		} `json:"price"`
	} `json:"prices"`
	AvailabilityV2 struct {
		Status string `json:"status"`
	} `json:"availabilityV2"`
}

type gqlResponse struct {
	Data struct {
		Site struct {
			Search struct {
				SearchProducts struct {
					Products struct {
						Edges []struct {
							Node gqlProduct `json:"node"`
						} `json:"edges"`
					} `json:"products"`
				} `json:"searchProducts"`
			} `json:"search"`
			Product *gqlProduct `json:"product"`
		} `json:"site"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (a *Adapter) Search(ctx context.Context, q model.CardQuery) model.SourceOffer {
	info := a.Info()

	token, err := a.bearerToken(ctx)
	if err != nil {
		return source.ErrorOffer(info, err.Error())
	}

	candidates, err := a.searchByName(ctx, token, q.CardName)
	if err != nil {
		return source.ErrorOffer(info, err.Error())
	}

	if len(candidates) == 0 && q.KnownSetCode != "" {
		candidates, err = a.lookupBySKU(ctx, token, q)
		if err != nil {
			return source.ErrorOffer(info, err.Error())
		}
	}
	if len(candidates) == 0 {
		if q.KnownSetCode == "" {
			return source.ErrorOffer(info, source.ErrNoResults)
		}
		return source.ErrorOffer(info, source.NoVariantError(q.FoilType))
	}

	for _, p := range candidates {
		if !a.nameMatches(p.Name, q.CardName) {
			continue
		}

		foil, ok := match.ClassifyFoil(match.FoilSignals{Title: p.Name, SKU: p.SKU})
		if !ok || foil != q.FoilType {
			continue
		}

		price := p.Prices.Price.Value
		offer := model.SourceOffer{
			Source:     info.ID,
			Currency:   info.Currency,
			Price:      model.Float(price),
			Available:  strings.EqualFold(p.AvailabilityV2.Status, "Available"),
			ProductURL: a.base + p.Path,
			SetCode:    extractSetCode(p.SKU, q.KnownSetCode),
		}
		if jpy, ok := currency.ToJPY(price, info.Currency); ok {
			offer.PriceJPY = model.Int(jpy)
		}
		return offer
	}

	return source.ErrorOffer(info, source.NoVariantError(q.FoilType))
}

// nameMatches accepts containment, then falls back to word overlap.
func (a *Adapter) nameMatches(title, queryName string) bool {
	if match.CardName(title, queryName) {
		return true
	}
	return match.WordOverlap(title, queryName) >= wordOverlapThreshold
}

func (a *Adapter) searchByName(ctx context.Context, token, cardName string) ([]gqlProduct, error) {
	base, _ := match.StripColorSuffix(cardName)

	var resp gqlResponse
	err := a.graphql(ctx, token, gqlRequest{
		Query:     searchQuery,
		Variables: map[string]interface{}{"term": base, "first": maxCandidates},
	}, &resp)
	if err != nil {
		return nil, err
	}

	edges := resp.Data.Site.Search.SearchProducts.Products.Edges
	products := make([]gqlProduct, 0, len(edges))
	for _, e := range edges {
		products = append(products, e.Node)
	}
	return products, nil
}

// lookupBySKU constructs the store's singles SKU from the set-code hint
// and asks for the product directly. Foil maps onto the SKU language+foil
// suffix; Marvel prints are sold under the plain foil SKU.
func (a *Adapter) lookupBySKU(ctx context.Context, token string, q model.CardQuery) ([]gqlProduct, error) {
	set, num, ok := splitSetCode(q.KnownSetCode)
	if !ok {
		return nil, errors.New(source.ErrSetCodeNeeded)
	}

	sku := fmt.Sprintf("SGL-FAB-%s-%s-%s", set, num, skuSuffix(q.FoilType))

	var resp gqlResponse
	err := a.graphql(ctx, token, gqlRequest{
		Query:     skuQuery,
		Variables: map[string]interface{}{"sku": sku},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if p := resp.Data.Site.Product; p != nil {
		return []gqlProduct{*p}, nil
	}
	return nil, nil
}

func (a *Adapter) graphql(ctx context.Context, token string, req gqlRequest, resp *gqlResponse) error {
	headers := map[string]string{"Authorization": "Bearer " + token}
	if err := a.client.PostJSON(ctx, a.base+"/graphql", req, resp, headers); err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("search failed: %s", resp.Errors[0].Message)
	}
	return nil
}

func skuSuffix(foil model.FoilType) string {
	switch foil {
	case model.FoilCF:
		return "ENC"
	case model.FoilRF, model.FoilEARF, model.FoilMarvel:
		return "ENF"
	default:
		return "ENN"
	}
}

var setCodeSplitRe = regexp.MustCompile(`^([A-Za-z]+)(\d+)$`)

// splitSetCode turns "SUP21" into ("SUP", "021"). SCG zero-pads the card
// number to three digits in its SKUs.
func splitSetCode(code string) (set, num string, ok bool) {
	m := setCodeSplitRe.FindStringSubmatch(code)
	if m == nil {
		return "", "", false
	}
	num = m[2]
	for len(num) < 3 {
		num = "0" + num
	}
	return strings.ToUpper(m[1]), num, true
}

var skuCodeRe = regexp.MustCompile(`(?i)FAB-([A-Z]+)-(\d+)`)

// extractSetCode recovers the printing code from the SKU, falling back to
// the hint the caller already had.
func extractSetCode(sku, hint string) *string {
	if m := skuCodeRe.FindStringSubmatch(sku); m != nil {
		return model.Str(strings.ToUpper(m[1] + m[2]))
	}
	if hint != "" {
		return model.Str(strings.ToUpper(hint))
	}
	return nil
}
