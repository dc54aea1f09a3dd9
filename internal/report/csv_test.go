package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/optekal/fabprice/internal/model"
)

func sampleResults() []model.AggregateResult {
	return []model.AggregateResult{
		{
			Query: model.CardQuery{CardName: "Take the Bait Red", FoilType: model.FoilNF, Quantity: 3},
			Offers: []model.SourceOffer{
				{
					Source: "girafull", Currency: "JPY",
					Price: model.Float(500), PriceJPY: model.Int(500),
					Available: true, ProductURL: "https://ec.girafull.co.jp/products/x",
					SetCode: model.Str("SUP256"),
				},
				{
					Source: "tcgplayer", Currency: "USD",
					Price: model.Float(5), PriceJPY: model.Int(775),
					Available: true, ProductURL: "https://www.tcgplayer.com/product/1",
				},
				{Source: "starcitygames", Currency: "USD", Error: "Timeout"},
			},
			BestSource: "girafull",
		},
		{
			Query: model.CardQuery{CardName: "Command and Conquer", FoilType: model.FoilRF, Quantity: 1},
			Offers: []model.SourceOffer{
				{Source: "girafull", Currency: "JPY", Error: "No results found"},
			},
			BestSource: "",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResults()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want header + 4 offers", len(rows))
	}
	if rows[0][0] != "Card" || rows[0][11] != "Error" {
		t.Errorf("header = %v", rows[0])
	}

	girafull := rows[1]
	if girafull[3] != "girafull" || girafull[6] != "500" || girafull[8] != "true" {
		t.Errorf("girafull row = %v", girafull)
	}
	tcg := rows[2]
	if tcg[8] != "false" {
		t.Errorf("non-best source flagged best: %v", tcg)
	}
	scg := rows[3]
	if scg[11] != "Timeout" || scg[4] != "" {
		t.Errorf("error row = %v", scg)
	}
	miss := rows[4]
	if miss[8] != "true" && miss[8] != "false" {
		t.Errorf("best column not boolean: %v", miss)
	}
	if miss[8] == "true" {
		t.Errorf("query with no best source must not flag any row best: %v", miss)
	}
}

func TestEscapeCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"=SUM(A1)", "'=SUM(A1)"},
		{"+1", "'+1"},
		{"-5", "'-5"},
		{"@cmd", "'@cmd"},
		{"|pipe", "'|pipe"},
		{"%env", "'%env"},
		{"\tlead", "'\tlead"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := EscapeCell(tt.in); got != tt.want {
			t.Errorf("EscapeCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteCSVEscapesInjection(t *testing.T) {
	results := []model.AggregateResult{{
		Query: model.CardQuery{CardName: "=HYPERLINK(\"evil\")", FoilType: model.FoilNF, Quantity: 1},
		Offers: []model.SourceOffer{
			{Source: "girafull", Currency: "JPY", Error: "No results found"},
		},
	}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, results); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(rows[1][0], "'=") {
		t.Errorf("formula cell not neutralized: %q", rows[1][0])
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sampleResults()); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"CARD", "girafull", "best", "Timeout", "No results found"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "\n") != 5 {
		t.Errorf("got %d lines, want header + 4 offers:\n%s", strings.Count(out, "\n"), out)
	}
}

func TestSummary(t *testing.T) {
	got := Summary(sampleResults())
	// 500 JPY x 3 copies from the single priced query.
	if got != "1/2 cards priced, best-offer total ¥1500" {
		t.Errorf("Summary = %q", got)
	}
}
