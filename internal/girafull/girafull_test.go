package girafull

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/optekal/fabprice/internal/model"
)

const testProductJS = `{
	"title": "【EN】Take the Bait (Red) [SUP256]",
	"handle": "sup256-take-the-bait_foils_langen",
	"tags": ["fab", "single"],
	"variants": [
		{"title": "NM / EN", "price": 550000, "available": true},
		{"title": "PLD / EN", "price": 480000, "available": false}
	]
}`

const testRFProductJS = `{
	"title": "【EN】〈RF〉Take the Bait (Red) [SUP256]",
	"handle": "sup256-take-the-bait_foilr_langen",
	"tags": ["fab", "single"],
	"variants": [
		{"title": "NM / EN", "price": 880000, "available": true}
	]
}`

func searchHTML(handles ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for _, h := range handles {
		fmt.Fprintf(&b, `<li><a href="/products/%s">item</a></li>`, h)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

func newTestAdapter(t *testing.T, handler http.Handler) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL})
}

func TestSearchFindsNMVariant(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchHTML("sup256-take-the-bait_foils_langen"))
	})
	mux.HandleFunc("/products/sup256-take-the-bait_foils_langen.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testProductJS)
	})

	a := newTestAdapter(t, mux)
	offer := a.Search(context.Background(), model.CardQuery{
		CardName: "Take the Bait",
		FoilType: model.FoilNF,
		Quantity: 3,
		Language: model.LangEN,
	})

	if offer.Error != "" {
		t.Fatalf("unexpected error: %q", offer.Error)
	}
	if offer.Price == nil || *offer.Price != 5500 {
		t.Errorf("price = %v, want 5500", offer.Price)
	}
	if offer.PriceJPY == nil || *offer.PriceJPY != 5500 {
		t.Errorf("priceJPY = %v, want 5500", offer.PriceJPY)
	}
	if !offer.Available {
		t.Error("offer should be available")
	}
	if offer.SetCode == nil || *offer.SetCode != "SUP256" {
		t.Errorf("setCode = %v, want SUP256", offer.SetCode)
	}
	if !strings.HasSuffix(offer.ProductURL, "/products/sup256-take-the-bait_foils_langen") {
		t.Errorf("productURL = %q", offer.ProductURL)
	}
}

func TestSearchQueryCarriesLanguagePrefix(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, searchHTML())
	})

	a := newTestAdapter(t, mux)
	a.Search(context.Background(), model.CardQuery{
		CardName: "Take the Bait Red",
		FoilType: model.FoilNF,
		Quantity: 1,
		Language: model.LangJP,
	})

	// Color suffix is stripped before searching; JP queries use the JP
	// title prefix.
	if gotQuery != "【JP】Take the Bait" {
		t.Errorf("search query = %q, want %q", gotQuery, "【JP】Take the Bait")
	}
}

func TestSearchNoResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchHTML())
	})

	a := newTestAdapter(t, mux)
	offer := a.Search(context.Background(), model.CardQuery{
		CardName: "Take the Bait", FoilType: model.FoilNF, Quantity: 1,
	})

	if offer.Error != "No results found" {
		t.Errorf("error = %q, want %q", offer.Error, "No results found")
	}
	if offer.Price != nil || offer.Available {
		t.Errorf("error offer must be unpriced and unavailable, got %+v", offer)
	}
}

func TestSearchNoMatchingFoil(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchHTML("sup256-take-the-bait_foils_langen"))
	})
	mux.HandleFunc("/products/sup256-take-the-bait_foils_langen.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testProductJS)
	})

	a := newTestAdapter(t, mux)
	offer := a.Search(context.Background(), model.CardQuery{
		CardName: "Take the Bait", FoilType: model.FoilRF, Quantity: 1,
	})

	if offer.Error != "No RF version found" {
		t.Errorf("error = %q, want %q", offer.Error, "No RF version found")
	}
}

func TestSearchSelectsRequestedFoilAmongSiblings(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchHTML(
			"sup256-take-the-bait_foils_langen",
			"sup256-take-the-bait_foilr_langen",
		))
	})
	mux.HandleFunc("/products/sup256-take-the-bait_foils_langen.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testProductJS)
	})
	mux.HandleFunc("/products/sup256-take-the-bait_foilr_langen.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testRFProductJS)
	})

	a := newTestAdapter(t, mux)
	offer := a.Search(context.Background(), model.CardQuery{
		CardName: "Take the Bait", FoilType: model.FoilRF, Quantity: 1,
	})

	if offer.Error != "" {
		t.Fatalf("unexpected error: %q", offer.Error)
	}
	if offer.Price == nil || *offer.Price != 8800 {
		t.Errorf("price = %v, want 8800 (RF sibling)", offer.Price)
	}
}

func TestSearchNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	srv.Close() // refuse connections

	a := New(Config{BaseURL: srv.URL})
	offer := a.Search(context.Background(), model.CardQuery{
		CardName: "Take the Bait", FoilType: model.FoilNF, Quantity: 1,
	})

	if offer.Error == "" {
		t.Fatal("expected an error offer")
	}
	if offer.Price != nil || offer.Available {
		t.Errorf("error offer must be unpriced and unavailable, got %+v", offer)
	}
}

func TestSearchBothLanguages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Query().Get("q"), "【EN】") {
			fmt.Fprint(w, searchHTML("sup256-take-the-bait_foils_langen"))
			return
		}
		fmt.Fprint(w, searchHTML())
	})
	mux.HandleFunc("/products/sup256-take-the-bait_foils_langen.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testProductJS)
	})

	a := newTestAdapter(t, mux)
	dual := a.SearchBothLanguages(context.Background(), model.CardQuery{
		CardName: "Take the Bait", FoilType: model.FoilNF, Quantity: 1,
	})

	if dual.EN.Error != "" {
		t.Errorf("EN error = %q", dual.EN.Error)
	}
	if dual.JP.Error == "" {
		t.Error("JP search should have found nothing")
	}
	if dual.NeedsChoice() {
		t.Error("one-sided result must not need a choice")
	}

	resolved, ok := dual.Resolved()
	if !ok || resolved.Source != "girafull" || resolved.Price == nil {
		t.Errorf("Resolved() = (%+v, %v), want the EN offer", resolved, ok)
	}
}

func TestDualResultNeedsChoice(t *testing.T) {
	// An untagged handle passes the language filter for both EN and JP,
	// so both searches resolve and the user has to pick.
	const untagged = `{
		"title": "Take the Bait (Red) [SUP256]",
		"handle": "sup256-take-the-bait",
		"tags": [],
		"variants": [{"title": "NM", "price": 550000, "available": true}]
	}`

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchHTML("sup256-take-the-bait"))
	})
	mux.HandleFunc("/products/sup256-take-the-bait.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, untagged)
	})

	a := newTestAdapter(t, mux)
	dual := a.SearchBothLanguages(context.Background(), model.CardQuery{
		CardName: "Take the Bait", FoilType: model.FoilNF, Quantity: 1,
	})

	if !dual.NeedsChoice() {
		t.Error("both languages resolved, user must choose")
	}
	if _, ok := dual.Resolved(); ok {
		t.Error("Resolved() must refuse to auto-pick when both languages hit")
	}
}

func TestExtractNMPriceIgnoresLookalikeWords(t *testing.T) {
	// "Consignment" contains the letters "nm" but is not a condition token.
	price, available := extractNMPrice([]variant{
		{Title: "Consignment", Price: 100000, Available: false},
		{Title: "NM", Price: 550000, Available: true},
	})
	if price == nil || *price != 5500 || !available {
		t.Errorf("extractNMPrice = (%v, %v), want (5500, true) from the NM variant", price, available)
	}
}
