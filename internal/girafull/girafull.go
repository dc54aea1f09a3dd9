// Package girafull prices cards on Girafull, a Japanese Shopify store.
// Search goes through the server-rendered HTML search page (product links
// scraped out of the markup); product detail comes from the Shopify
// /products/<handle>.js endpoint, whose `available` flag is authoritative
// and whose prices are in minor units.
package girafull

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/optekal/fabprice/internal/currency"
	"github.com/optekal/fabprice/internal/match"
	"github.com/optekal/fabprice/internal/model"
	"github.com/optekal/fabprice/internal/source"
)

const (
	defaultBaseURL = "https://ec.girafull.co.jp"
	maxCandidates  = 10
)

// Config holds adapter settings. BaseURL is overridable for tests.
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

// Client exposes the HTTP client so tests can install a canned transport.
func (a *Adapter) Client() *source.Client { return a.client }

func (a *Adapter) Info() source.Info {
	return source.Info{
		ID:       "girafull",
		Name:     "Girafull",
		Currency: currency.JPY,
		Region:   "Japan",
		Delay:    300 * time.Millisecond,
	}
}

// productJS mirrors the fields we use from Shopify's product .js payload.
type productJS struct {
	Title    string    `json:"title"`
	Handle   string    `json:"handle"`
	Tags     []string  `json:"tags"`
	Variants []variant `json:"variants"`
}

type variant struct {
	Title     string  `json:"title"`
	Price     float64 `json:"price"` // minor units
	Available bool    `json:"available"`
}

func (a *Adapter) Search(ctx context.Context, q model.CardQuery) model.SourceOffer {
	info := a.Info()
	lang := q.Language.OrDefault()

	handles, err := a.searchHandles(ctx, q.CardName, lang)
	if err != nil {
		return source.ErrorOffer(info, err.Error())
	}

	var langHandles []string
	for _, h := range handles {
		if matchesLanguage(h, lang) {
			langHandles = append(langHandles, h)
		}
	}
	if len(langHandles) == 0 {
		return source.ErrorOffer(info, source.ErrNoResults)
	}
	if len(langHandles) > maxCandidates {
		langHandles = langHandles[:maxCandidates]
	}

	// Detail fetches are independent, so issue them together and keep the
	// search-result order for selection.
	products := a.fetchProducts(ctx, langHandles)

	for _, p := range products {
		if p == nil {
			continue
		}
		if !match.CardName(p.Title, q.CardName) {
			continue
		}

		foil, ok := match.ClassifyFoil(match.FoilSignals{
			Title:  p.Title,
			Handle: p.Handle,
			Tags:   p.Tags,
		})
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
			SetCode:    extractSetCode(p.Title, p.Handle),
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

// searchHandles scrapes product handles out of the HTML search page.
// Girafull titles EN printings 【EN】 and JP printings 【JP】, so the prefix
// narrows the search server-side before handle filtering.
func (a *Adapter) searchHandles(ctx context.Context, cardName string, lang model.Language) ([]string, error) {
	base, _ := match.StripColorSuffix(cardName)
	prefix := "【EN】"
	if lang == model.LangJP {
		prefix = "【JP】"
	}

	searchURL := fmt.Sprintf("%s/search?type=product&q=%s", a.base, url.QueryEscape(prefix+base))
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
	doc.Find(`a[href*="/products/"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		m := productHrefRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		if !seen[m[1]] {
			seen[m[1]] = true
			handles = append(handles, m[1])
		}
	})
	return handles, nil
}

var productHrefRe = regexp.MustCompile(`/products/([^?#"']+)`)

// matchesLanguage keeps handles tagged for the wanted language. Untagged
// handles pass: older listings carry no language token at all.
func matchesLanguage(handle string, lang model.Language) bool {
	h := strings.ToLower(handle)
	hasEN := strings.Contains(h, "_langen")
	hasJP := strings.Contains(h, "_langjp")

	if !hasEN && !hasJP {
		return true
	}
	if lang == model.LangEN {
		return hasEN
	}
	return hasJP
}

func (a *Adapter) fetchProducts(ctx context.Context, handles []string) []*productJS {
	products := make([]*productJS, len(handles))
	var wg sync.WaitGroup
	for i, h := range handles {
		wg.Add(1)
		go func(i int, handle string) {
			defer wg.Done()
			var p productJS
			if err := a.client.GetJSON(ctx, a.base+"/products/"+handle+".js", &p); err != nil {
				return // unusable candidate, skip it
			}
			products[i] = &p
		}(i, h)
	}
	wg.Wait()
	return products
}

// nmTokenRe matches "nm" as its own word so condition tokens don't collide
// with fragments of longer words.
var nmTokenRe = regexp.MustCompile(`\bnm\b`)

// extractNMPrice prefers the Near Mint variant and falls back to the first
// one. Prices arrive in minor units; ÷100 yields yen.
func extractNMPrice(variants []variant) (*float64, bool) {
	pick := func(v variant) (*float64, bool) {
		return model.Float(math.Round(v.Price / 100)), v.Available
	}

	for _, v := range variants {
		t := strings.ToLower(v.Title)
		if nmTokenRe.MatchString(t) || strings.Contains(t, "near mint") {
			return pick(v)
		}
	}
	if len(variants) > 0 {
		return pick(variants[0])
	}
	return nil, false
}

var (
	titleCodeRe  = regexp.MustCompile(`\[([A-Za-z]{2,5}\d+)\]`)
	handleCodeRe = regexp.MustCompile(`^([A-Za-z]{2,5}\d+)`)
)

// extractSetCode pulls the printing code from the title brackets, falling
// back to the handle prefix.
func extractSetCode(title, handle string) *string {
	if m := titleCodeRe.FindStringSubmatch(title); m != nil {
		return model.Str(strings.ToUpper(m[1]))
	}
	if m := handleCodeRe.FindStringSubmatch(handle); m != nil {
		return model.Str(strings.ToUpper(m[1]))
	}
	return nil
}
