// Package source defines the contract every storefront adapter implements
// and the registry the orchestrator resolves adapters from.
package source

import (
	"context"
	"time"

	"github.com/optekal/fabprice/internal/model"
)

// Info describes a storefront adapter: identity, display name, native
// currency, operating region, and how long to pause between successive
// queries against it.
type Info struct {
	ID       string
	Name     string
	Currency string
	Region   string
	Delay    time.Duration
}

// Adapter resolves one CardQuery against one storefront. Search always
// returns exactly one offer; every failure mode (no results, no matching
// variant, network error, malformed payload, timeout) is folded into the
// offer's Error field. Nothing escapes the adapter boundary as a Go error.
type Adapter interface {
	Info() Info
	Search(ctx context.Context, q model.CardQuery) model.SourceOffer
}

// ErrorOffer builds the canonical failure offer for an adapter: no price,
// not available, reason in Error.
func ErrorOffer(info Info, reason string) model.SourceOffer {
	return model.SourceOffer{
		Source:    info.ID,
		Currency:  info.Currency,
		Available: false,
		Error:     reason,
	}
}

// NoVariantError is the reason string for a search that found candidates
// but none in the requested foil type.
func NoVariantError(foil model.FoilType) string {
	return "No " + string(foil) + " version found"
}

// Reason strings shared across adapters. User-facing, so kept short.
const (
	ErrNoResults      = "No results found"
	ErrTimeout        = "Timeout"
	ErrSourceNotFound = "Source not found"
	ErrSetCodeNeeded  = "Set code required"
)

// Registry maps source IDs to adapters.
type Registry struct {
	order    []string
	adapters map[string]Adapter
}

// NewRegistry builds a registry from adapters, preserving their order for
// listing purposes.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		id := a.Info().ID
		if _, dup := r.adapters[id]; !dup {
			r.order = append(r.order, id)
		}
		r.adapters[id] = a
	}
	return r
}

// Get resolves an adapter by ID.
func (r *Registry) Get(id string) (Adapter, bool) {
	a, ok := r.adapters[id]
	return a, ok
}

// IDs lists registered source IDs in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
