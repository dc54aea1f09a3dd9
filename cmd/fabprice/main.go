// Command fabprice reads a card list and prices each card across the
// enabled storefronts, printing a table and optionally a CSV file.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/optekal/fabprice/internal/actionpoint"
	"github.com/optekal/fabprice/internal/aggregate"
	"github.com/optekal/fabprice/internal/cardlist"
	"github.com/optekal/fabprice/internal/config"
	"github.com/optekal/fabprice/internal/fabarmory"
	"github.com/optekal/fabprice/internal/girafull"
	"github.com/optekal/fabprice/internal/model"
	"github.com/optekal/fabprice/internal/report"
	"github.com/optekal/fabprice/internal/source"
	"github.com/optekal/fabprice/internal/starcitygames"
	"github.com/optekal/fabprice/internal/tcgplayer"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		listPath string
		sources  []string
		csvPath  string
		bothLang bool
	)

	cmd := &cobra.Command{
		Use:   "fabprice",
		Short: "Find the cheapest storefront for each card in a list",
		Long: `fabprice reads a card list (one "<name> [color] <FOIL> [qty]" per line),
searches every enabled storefront concurrently, and reports each source's
price alongside the cheapest available offer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if len(sources) > 0 {
				cfg.EnabledSources = sources
			}
			return run(cmd.Context(), cfg, listPath, csvPath, bothLang)
		},
	}

	cmd.Flags().StringVarP(&listPath, "list", "l", "", "card list file (defaults to stdin)")
	cmd.Flags().StringSliceVarP(&sources, "sources", "s", nil, "source IDs to search (overrides env)")
	cmd.Flags().StringVarP(&csvPath, "csv", "o", "", "also write results to this CSV file")
	cmd.Flags().BoolVar(&bothLang, "both-languages", false, "search Girafull in both EN and JP and show both")
	return cmd
}

func run(ctx context.Context, cfg config.Config, listPath, csvPath string, bothLang bool) error {
	input, err := readList(listPath)
	if err != nil {
		return err
	}

	parsed := cardlist.Parse(input)
	for _, pe := range parsed.Errors {
		log.Printf("skipping line %v", pe)
	}
	if len(parsed.Queries) == 0 {
		return fmt.Errorf("no parseable cards in input")
	}
	if len(parsed.Queries) > cfg.MaxCards {
		return fmt.Errorf("card list too long: %d cards, max %d", len(parsed.Queries), cfg.MaxCards)
	}

	gira := girafull.New(girafull.Config{})
	registry := source.NewRegistry(
		gira,
		actionpoint.New(actionpoint.Config{}),
		starcitygames.New(starcitygames.Config{}),
		tcgplayer.New(tcgplayer.Config{}),
		fabarmory.New(fabarmory.Config{}),
	)
	warnUnknownSources(registry, cfg.EnabledSources)

	orch := aggregate.New(registry, cfg.Timeout)

	if bothLang {
		printDualLanguage(ctx, gira, parsed.Queries)
	}

	results := orch.SearchCards(ctx, parsed.Queries, cfg.EnabledSources)

	if err := report.WriteTable(os.Stdout, results); err != nil {
		return err
	}
	fmt.Println(report.Summary(results))

	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		defer f.Close()
		if err := report.WriteCSV(f, results); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	return nil
}

// printDualLanguage surfaces cards that exist in both EN and JP printings
// on Girafull so the user can decide which one they meant.
func printDualLanguage(ctx context.Context, gira *girafull.Adapter, queries []model.CardQuery) {
	for _, q := range queries {
		dual := gira.SearchBothLanguages(ctx, q)
		if !dual.NeedsChoice() {
			continue
		}
		fmt.Printf("%s %s: found in both languages (EN %s / JP %s); defaulting to EN, rerun with [JP] prefix to force Japanese\n",
			q.CardName, q.FoilType, priceOf(dual.EN), priceOf(dual.JP))
	}
}

func priceOf(o model.SourceOffer) string {
	if o.Price == nil {
		return "unpriced"
	}
	return fmt.Sprintf("%.0f %s", *o.Price, o.Currency)
}

func readList(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read list: %w", err)
	}
	return string(data), nil
}

// warnUnknownSources flags typo'd source IDs up front. They still get
// their "Source not found" row in the results.
func warnUnknownSources(registry *source.Registry, enabled []string) {
	for _, id := range enabled {
		if _, ok := registry.Get(id); !ok {
			log.Printf("unknown source %q (known: %s)", id, strings.Join(registry.IDs(), ", "))
		}
	}
}
