package match

import (
	"testing"

	"github.com/optekal/fabprice/internal/model"
)

func TestClassifyFoil(t *testing.T) {
	tests := []struct {
		name string
		sig  FoilSignals
		want model.FoilType
		ok   bool
	}{
		// Girafull-shaped signals: handle tokens plus 〈〉 title markers.
		{
			name: "girafull non-foil handle",
			sig:  FoilSignals{Title: "【EN】Take the Bait (Red) [SUP256]", Handle: "sup256-take-the-bait_foils_langen"},
			want: model.FoilNF, ok: true,
		},
		{
			name: "girafull rainbow foil",
			sig:  FoilSignals{Title: "【EN】〈RF〉Take the Bait (Red)", Handle: "sup256-take-the-bait_foilr_langen"},
			want: model.FoilRF, ok: true,
		},
		{
			name: "girafull cold foil",
			sig:  FoilSignals{Title: "【EN】〈CF〉Korshem", Handle: "arc213-korshem_foilc_langen"},
			want: model.FoilCF, ok: true,
		},
		{
			name: "girafull extended art rainbow",
			sig:  FoilSignals{Title: "【EN】〈RF〉Extended Art Oldhim", Handle: "eldhim_foilr_artea_langen"},
			want: model.FoilEARF, ok: true,
		},
		{
			name: "girafull marvel tag beats rainbow marker",
			sig:  FoilSignals{Title: "【EN】〈RF〉Enlightened Strike", Handle: "wtr159_foilr_", Tags: []string{"rarity_V"}},
			want: model.FoilMarvel, ok: true,
		},
		// SCG-shaped signals: SKU suffixes.
		{
			name: "scg sku normal",
			sig:  FoilSignals{Title: "Take the Bait (Red)", SKU: "SGL-FAB-SUP-021-ENN"},
			want: model.FoilNF, ok: true,
		},
		{
			name: "scg sku rainbow",
			sig:  FoilSignals{Title: "Take the Bait (Red)", SKU: "SGL-FAB-SUP-021-ENF"},
			want: model.FoilRF, ok: true,
		},
		{
			name: "scg sku cold",
			sig:  FoilSignals{Title: "Eye of Ophidia", SKU: "SGL-FAB-ARC-000-ENC"},
			want: model.FoilCF, ok: true,
		},
		// Shopify product-type signals.
		{
			name: "fabarmory regular type",
			sig:  FoilSignals{Title: "Take the Bait (Red)", ProductType: "Regular"},
			want: model.FoilNF, ok: true,
		},
		{
			name: "fabarmory rainbow type",
			sig:  FoilSignals{Title: "Take the Bait (Red)", ProductType: "Rainbow Foil"},
			want: model.FoilRF, ok: true,
		},
		{
			name: "fabarmory cold type",
			sig:  FoilSignals{Title: "Command and Conquer", ProductType: "Cold Foil"},
			want: model.FoilCF, ok: true,
		},
		// TCGplayer printing field.
		{
			name: "printing normal",
			sig:  FoilSignals{Printing: "Normal"},
			want: model.FoilNF, ok: true,
		},
		{
			name: "printing bare foil means rainbow",
			sig:  FoilSignals{Printing: "Foil"},
			want: model.FoilRF, ok: true,
		},
		{
			name: "printing cold foil",
			sig:  FoilSignals{Printing: "Cold Foil"},
			want: model.FoilCF, ok: true,
		},
		{
			name: "printing non-foil",
			sig:  FoilSignals{Printing: "Non-Foil"},
			want: model.FoilNF, ok: true,
		},
		// Keyword-only titles.
		{
			name: "marvel keyword",
			sig:  FoilSignals{Title: "Enlightened Strike (Marvel)"},
			want: model.FoilMarvel, ok: true,
		},
		{
			name: "extended art rainbow keywords",
			sig:  FoilSignals{Title: "Oldhim - Extended Art Rainbow Foil"},
			want: model.FoilEARF, ok: true,
		},
		{
			name: "no foil keyword defaults to NF",
			sig:  FoilSignals{Title: "Take the Bait (Red) [SUP256]"},
			want: model.FoilNF, ok: true,
		},
		{
			name: "unknown foil wording is unclassifiable",
			sig:  FoilSignals{Title: "Take the Bait - Gold Foil Promo"},
			want: "", ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyFoil(tt.sig)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ClassifyFoil(%+v) = (%q, %v), want (%q, %v)", tt.sig, got, ok, tt.want, tt.ok)
			}
		})
	}
}

// Identical signals must classify identically no matter how often they are
// evaluated.
func TestClassifyFoilDeterministic(t *testing.T) {
	sig := FoilSignals{Title: "【EN】〈RF〉Extended Art Oldhim", Handle: "eldhim_foilr_artea_langen"}
	first, firstOK := ClassifyFoil(sig)
	for i := 0; i < 100; i++ {
		got, ok := ClassifyFoil(sig)
		if got != first || ok != firstOK {
			t.Fatalf("run %d: ClassifyFoil changed from (%q, %v) to (%q, %v)", i, first, firstOK, got, ok)
		}
	}
}
