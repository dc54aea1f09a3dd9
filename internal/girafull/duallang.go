package girafull

import (
	"context"
	"sync"

	"github.com/optekal/fabprice/internal/model"
)

// DualResult holds one offer per language for the same query. Both are
// always populated (possibly with error offers); which one the user wants
// is a presentation decision, not ours.
type DualResult struct {
	EN model.SourceOffer
	JP model.SourceOffer
}

// SearchBothLanguages runs the query once constrained to English printings
// and once to Japanese, concurrently, and returns both candidates without
// collapsing them.
func (a *Adapter) SearchBothLanguages(ctx context.Context, q model.CardQuery) DualResult {
	en := q
	en.Language = model.LangEN
	jp := q
	jp.Language = model.LangJP

	var res DualResult
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.EN = a.Search(ctx, en)
	}()
	go func() {
		defer wg.Done()
		res.JP = a.Search(ctx, jp)
	}()
	wg.Wait()
	return res
}

// NeedsChoice reports whether both languages resolved to a usable offer,
// meaning the caller has to ask the user which printing they meant.
func (d DualResult) NeedsChoice() bool {
	return d.EN.Error == "" && d.JP.Error == ""
}

// Resolved auto-picks when exactly one language found the card. ok is
// false when neither did, or when both did and a user choice is needed.
func (d DualResult) Resolved() (model.SourceOffer, bool) {
	enOK := d.EN.Error == ""
	jpOK := d.JP.Error == ""
	switch {
	case enOK && !jpOK:
		return d.EN, true
	case jpOK && !enOK:
		return d.JP, true
	default:
		return model.SourceOffer{}, false
	}
}
