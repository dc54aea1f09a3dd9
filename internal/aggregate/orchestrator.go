// Package aggregate fans a card query out across the enabled storefront
// adapters, bounds each call with a timeout, and assembles the per-source
// offers into a ranked result. One source failing, hanging, or not existing
// never affects another source's offer or the response shape.
package aggregate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/optekal/fabprice/internal/currency"
	"github.com/optekal/fabprice/internal/model"
	"github.com/optekal/fabprice/internal/source"
)

// DefaultTimeout bounds one adapter call. A source that cannot answer in
// this window yields a Timeout offer instead of stalling the query.
const DefaultTimeout = 5 * time.Second

// fallbackDelay paces batch queries for sources whose adapter is missing
// and therefore has no configured delay.
const fallbackDelay = 300 * time.Millisecond

type Orchestrator struct {
	registry *source.Registry
	timeout  time.Duration
}

func New(registry *source.Registry, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{registry: registry, timeout: timeout}
}

// SearchCard queries every enabled source concurrently and returns exactly
// one offer per source, in enabledSources order.
func (o *Orchestrator) SearchCard(ctx context.Context, q model.CardQuery, enabledSources []string) model.AggregateResult {
	offers := make([]model.SourceOffer, len(enabledSources))

	var wg sync.WaitGroup
	for i, id := range enabledSources {
		adapter, ok := o.registry.Get(id)
		if !ok {
			offers[i] = unregisteredOffer(id)
			continue
		}

		wg.Add(1)
		go func(i int, adapter source.Adapter) {
			defer wg.Done()
			offers[i] = o.searchWithTimeout(ctx, adapter, q)
		}(i, adapter)
	}
	wg.Wait()

	return model.AggregateResult{
		Query:      q,
		Offers:     offers,
		BestSource: currency.BestSource(offers),
	}
}

// SearchCards processes a batch sequentially, pacing queries at the
// largest per-source delay among the enabled sources. Sources within one
// query still run concurrently; the pacing protects each storefront from
// back-to-back queries, not from each other.
func (o *Orchestrator) SearchCards(ctx context.Context, queries []model.CardQuery, enabledSources []string) []model.AggregateResult {
	results := make([]model.AggregateResult, 0, len(queries))
	if len(queries) == 0 {
		return results
	}

	// The limiter starts with one free token; the first Wait consumes it
	// immediately, so every later query pays the full inter-query delay.
	limiter := rate.NewLimiter(rate.Every(o.batchDelay(enabledSources)), 1)
	for _, q := range queries {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		results = append(results, o.SearchCard(ctx, q, enabledSources))
	}
	return results
}

// searchWithTimeout races the adapter call against the per-call deadline.
// The result channel is buffered so a late adapter return is dropped, not
// leaked; the timeout is a terminal answer for this source and query.
func (o *Orchestrator) searchWithTimeout(ctx context.Context, adapter source.Adapter, q model.CardQuery) model.SourceOffer {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	ch := make(chan model.SourceOffer, 1)
	go func() {
		ch <- adapter.Search(callCtx, q)
	}()

	select {
	case offer := <-ch:
		return offer
	case <-callCtx.Done():
		return source.ErrorOffer(adapter.Info(), source.ErrTimeout)
	}
}

func (o *Orchestrator) batchDelay(enabledSources []string) time.Duration {
	delay := fallbackDelay
	for _, id := range enabledSources {
		if adapter, ok := o.registry.Get(id); ok {
			if d := adapter.Info().Delay; d > delay {
				delay = d
			}
		}
	}
	return delay
}

func unregisteredOffer(id string) model.SourceOffer {
	return model.SourceOffer{
		Source:   id,
		Currency: currency.JPY,
		Error:    source.ErrSourceNotFound,
	}
}
