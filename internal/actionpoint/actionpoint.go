// Package actionpoint prices cards on ActionPoint, a Singaporean Shopify
// store. It prefers the predictive-search JSON endpoint and falls back to
// scraping the HTML search page; product detail comes from the Shopify
// /products/<handle>.json endpoint.
package actionpoint

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/optekal/fabprice/internal/currency"
	"github.com/optekal/fabprice/internal/match"
	"github.com/optekal/fabprice/internal/model"
	"github.com/optekal/fabprice/internal/source"
)

const (
	defaultBaseURL = "https://actionpoint.sg"
	maxCandidates  = 15
)

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
		ID:       "actionpoint",
		Name:     "ActionPoint",
		Currency: currency.SGD,
		Region:   "Singapore",
		Delay:    500 * time.Millisecond,
	}
}

type suggestResponse struct {
	Resources struct {
		Results struct {
			Products []struct {
				Title  string `json:"title"`
				Handle string `json:"handle"`
			} `json:"products"`
		} `json:"results"`
	} `json:"resources"`
}

type productJSON struct {
	Product struct {
		Title    string    `json:"title"`
		Handle   string    `json:"handle"`
		Tags     string    `json:"tags"` // Shopify .json encodes tags comma-separated
		Variants []variant `json:"variants"`
	} `json:"product"`
}

type variant struct {
	Title     string  `json:"title"`
	Price     string  `json:"price"`
	Available bool    `json:"available"`
	Option1   *string `json:"option1"`
}

func (a *Adapter) Search(ctx context.Context, q model.CardQuery) model.SourceOffer {
	info := a.Info()

	handles, err := a.searchHandles(ctx, q.CardName)
	if err != nil {
		return source.ErrorOffer(info, err.Error())
	}
	if len(handles) == 0 {
		return source.ErrorOffer(info, source.ErrNoResults)
	}
	if len(handles) > maxCandidates {
		handles = handles[:maxCandidates]
	}

	for _, handle := range handles {
		var data productJSON
		if err := a.client.GetJSON(ctx, a.base+"/products/"+handle+".json", &data); err != nil {
			continue
		}
		p := data.Product

		if !match.CardName(p.Title, q.CardName) {
			continue
		}

		tags := splitTags(p.Tags)
		foil, ok := match.ClassifyFoil(match.FoilSignals{Title: p.Title, Tags: tags})
		if !ok || foil != q.FoilType {
			continue
		}

		price, available := extractNMPrice(p.Variants)
		offer := model.SourceOffer{
			Source:     info.ID,
			Currency:   info.Currency,
			Price:      price,
			Available:  available,
			ProductURL: a.base + "/products/" + p.Handle,
			SetCode:    extractSetCode(p.Title),
		}
		if price != nil {
			if jpy, ok := currency.ToJPY(*price, info.Currency); ok {
				offer.PriceJPY = model.Int(jpy)
			}
		}
		return offer
	}

	return source.ErrorOffer(info, source.NoVariantError(q.FoilType))
}

// searchHandles tries the predictive-search endpoint first and scrapes the
// HTML search page when it yields nothing.
func (a *Adapter) searchHandles(ctx context.Context, cardName string) ([]string, error) {
	base, _ := match.StripColorSuffix(cardName)
	query := url.QueryEscape(base)

	suggestURL := fmt.Sprintf("%s/search/suggest.json?q=%s&resources[type]=product&resources[limit]=10", a.base, query)
	var sr suggestResponse
	if err := a.client.GetJSON(ctx, suggestURL, &sr); err == nil {
		if products := sr.Resources.Results.Products; len(products) > 0 {
			handles := make([]string, 0, len(products))
			for _, p := range products {
				handles = append(handles, p.Handle)
			}
			return handles, nil
		}
	}

	searchURL := fmt.Sprintf("%s/search?q=%s&type=product", a.base, query)
	body, err := a.client.GetHTML(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var handles []string
	seen := make(map[string]bool)
	add := func(handle string) {
		if handle != "" && !seen[handle] {
			seen[handle] = true
			handles = append(handles, handle)
		}
	}

	doc.Find(`a[href*="/products/"]`).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			if m := productHrefRe.FindStringSubmatch(href); m != nil {
				add(m[1])
			}
		}
	})
	// Some themes render handles as data attributes instead of links.
	doc.Find(`[data-product-handle]`).Each(func(_ int, s *goquery.Selection) {
		if h, ok := s.Attr("data-product-handle"); ok {
			add(h)
		}
	})
	return handles, nil
}

var productHrefRe = regexp.MustCompile(`/products/([^?#"']+)`)

// nmTokenRe matches "nm" as its own word, not as a fragment of words like
// "consignment".
var nmTokenRe = regexp.MustCompile(`\bnm\b`)

// extractNMPrice prefers a Near Mint variant; single-variant products use
// Shopify's "Default Title" placeholder and count as NM.
func extractNMPrice(variants []variant) (*float64, bool) {
	parse := func(v variant) (*float64, bool) {
		f, err := strconv.ParseFloat(v.Price, 64)
		if err != nil {
			return nil, false
		}
		return model.Float(f), v.Available
	}

	for _, v := range variants {
		t := strings.ToLower(v.Title)
		if v.Option1 != nil {
			t += " " + strings.ToLower(*v.Option1)
		}
		if strings.Contains(t, "near mint") || nmTokenRe.MatchString(t) || strings.TrimSpace(t) == "default title" {
			return parse(v)
		}
	}
	if len(variants) > 0 {
		return parse(variants[0])
	}
	return nil, false
}

var setCodeRe = regexp.MustCompile(`[\[(]([A-Za-z]{2,5}\d+)[\])]`)

func extractSetCode(title string) *string {
	if m := setCodeRe.FindStringSubmatch(title); m != nil {
		return model.Str(strings.ToUpper(m[1]))
	}
	return nil
}

func splitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
