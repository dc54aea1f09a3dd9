// Package report renders aggregate search results for humans: a CSV
// export and a plain-text table. Cells are escaped against spreadsheet
// formula injection, since card names and error strings come from
// scraped, untrusted catalogs.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/optekal/fabprice/internal/currency"
	"github.com/optekal/fabprice/internal/model"
)

var csvHeader = []string{
	"Card", "Foil", "Qty", "Source", "Price", "Currency", "Price JPY",
	"Available", "Best", "Set Code", "URL", "Error",
}

// WriteCSV writes one row per (query, source) offer.
func WriteCSV(w io.Writer, results []model.AggregateResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, res := range results {
		for _, o := range res.Offers {
			row := []string{
				res.Query.CardName,
				string(res.Query.FoilType),
				fmt.Sprintf("%d", res.Query.Quantity),
				o.Source,
				formatPrice(o),
				o.Currency,
				formatJPY(o),
				fmt.Sprintf("%t", o.Available),
				fmt.Sprintf("%t", o.Source == res.BestSource && res.BestSource != ""),
				deref(o.SetCode),
				o.ProductURL,
				o.Error,
			}
			if err := cw.Write(EscapeRow(row)); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTable renders results as an aligned text table for the CLI.
func WriteTable(w io.Writer, results []model.AggregateResult) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CARD\tFOIL\tSOURCE\tPRICE\tJPY\tSTOCK\tNOTE")

	for _, res := range results {
		for _, o := range res.Offers {
			note := o.Error
			if note == "" && o.Source == res.BestSource {
				note = "best"
			}
			stock := "out"
			if o.Available {
				stock = "in"
			}
			if o.Error != "" {
				stock = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				res.Query.CardName, res.Query.FoilType, o.Source,
				formatPrice(o), formatJPY(o), stock, note)
		}
	}
	return tw.Flush()
}

func formatPrice(o model.SourceOffer) string {
	if o.Price == nil {
		return ""
	}
	return currency.Format(*o.Price, o.Currency)
}

func formatJPY(o model.SourceOffer) string {
	if o.PriceJPY == nil {
		return ""
	}
	return fmt.Sprintf("%d", *o.PriceJPY)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// EscapeCell neutralizes cells a spreadsheet would evaluate as a formula
// by prefixing them with a quote.
func EscapeCell(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@', '|', '%', '\t', '\r', '\n':
		return "'" + value
	}
	return value
}

// EscapeRow escapes every cell in a row.
func EscapeRow(row []string) []string {
	escaped := make([]string, len(row))
	for i, cell := range row {
		escaped[i] = EscapeCell(cell)
	}
	return escaped
}

// Summary is a short one-line batch summary for the CLI footer.
func Summary(results []model.AggregateResult) string {
	found := 0
	totalJPY := 0
	for _, res := range results {
		if res.BestSource == "" {
			continue
		}
		found++
		for _, o := range res.Offers {
			if o.Source == res.BestSource && o.PriceJPY != nil {
				totalJPY += *o.PriceJPY * res.Query.Quantity
			}
		}
	}
	return fmt.Sprintf("%d/%d cards priced, best-offer total %s%d",
		found, len(results), currency.Symbol(currency.JPY), totalJPY)
}
