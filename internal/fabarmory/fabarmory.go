// Package fabarmory prices cards on FAB Armory, a New Zealand Shopify
// store. Its predictive-search endpoint already returns full product data
// (type, tags, price, stock), so no per-product detail fetch is needed.
// The store lists each foil finish as its own product, with the finish in
// the `type` field ("Regular", "Rainbow Foil", "Cold Foil").
package fabarmory

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/optekal/fabprice/internal/currency"
	"github.com/optekal/fabprice/internal/match"
	"github.com/optekal/fabprice/internal/model"
	"github.com/optekal/fabprice/internal/source"
)

const defaultBaseURL = "https://fabarmory.com"

type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type Adapter struct {
	base   string
	client *source.Client
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
		ID:       "fabarmory",
		Name:     "FAB Armory",
		Currency: currency.NZD,
		Region:   "New Zealand",
		Delay:    500 * time.Millisecond,
	}
}

type suggestResponse struct {
	Resources struct {
		Results struct {
			Products []searchProduct `json:"products"`
		} `json:"results"`
	} `json:"resources"`
}

type searchProduct struct {
	Title     string   `json:"title"`
	Handle    string   `json:"handle"`
	Price     string   `json:"price"`
	Available bool     `json:"available"`
	Type      string   `json:"type"`
	Tags      []string `json:"tags"`
}

func (a *Adapter) Search(ctx context.Context, q model.CardQuery) model.SourceOffer {
	info := a.Info()

	base, _ := match.StripColorSuffix(q.CardName)
	suggestURL := fmt.Sprintf("%s/search/suggest.json?q=%s&resources[type]=product&resources[limit]=10",
		a.base, url.QueryEscape(base))

	var sr suggestResponse
	if err := a.client.GetJSON(ctx, suggestURL, &sr); err != nil {
		return source.ErrorOffer(info, err.Error())
	}

	products := sr.Resources.Results.Products
	if len(products) == 0 {
		return source.ErrorOffer(info, source.ErrNoResults)
	}

	for _, p := range products {
		if !match.CardName(p.Title, q.CardName) {
			continue
		}

		foil, ok := match.ClassifyFoil(match.FoilSignals{
			Title:       p.Title,
			ProductType: p.Type,
			Tags:        p.Tags,
		})
		if !ok || foil != q.FoilType {
			continue
		}

		offer := model.SourceOffer{
			Source:     info.ID,
			Currency:   info.Currency,
			Available:  p.Available,
			ProductURL: a.base + "/products/" + p.Handle,
			SetCode:    extractSetCode(p.Handle),
		}
		if f, err := strconv.ParseFloat(p.Price, 64); err == nil {
			offer.Price = model.Float(f)
			if jpy, ok := currency.ToJPY(f, info.Currency); ok {
				offer.PriceJPY = model.Int(jpy)
			}
		}
		return offer
	}

	return source.ErrorOffer(info, source.NoVariantError(q.FoilType))
}

var (
	handleCodeRe = regexp.MustCompile(`(?i)([a-z0-9]{2,5}\d{2,4})`)
	setCodeRe    = regexp.MustCompile(`^[A-Z0-9]{2,5}\d{2,4}$`)
)

// extractSetCode digs the printing code out of handles like
// "unl-wtr159-m" or "1hp361".
func extractSetCode(handle string) *string {
	for _, m := range handleCodeRe.FindAllString(handle, -1) {
		code := strings.ToUpper(m)
		if len(code) >= 4 && setCodeRe.MatchString(code) {
			return model.Str(code)
		}
	}
	return nil
}
