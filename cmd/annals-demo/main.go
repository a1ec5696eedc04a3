// Demo program walking one location through the full claim lifecycle:
// conflicting ingestion, detection, suggestion, resolution, conversion,
// and budgeted timeline assembly. Runs entirely against the in-memory
// store.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/okhose/annals/internal/config"
	"github.com/okhose/annals/internal/engine"
	"github.com/okhose/annals/internal/model"
	"github.com/okhose/annals/internal/store"
)

func main() {
	fmt.Println("=== Annals Claim Lifecycle Demo ===")
	fmt.Println()

	ctx := context.Background()
	eng := engine.New(store.NewMemory(), config.Default())

	const loc = "mill-ruins-017"
	conf := func(v float64) *float64 { return &v }

	candidates := []model.Candidate{
		{LocationID: loc, Category: model.CategoryBuilt, RawText: "built in 1921",
			Confidence: conf(0.85), SourceType: model.SourceWeb, SourceRef: "archive-4411"},
		{LocationID: loc, Category: model.CategoryBuilt, RawText: "ca. 1950",
			Confidence: conf(0.55), SourceType: model.SourceDocument, SourceRef: "deed-scan-02"},
		{LocationID: loc, Category: model.CategoryAbandoned, RawText: "1980s",
			Confidence: conf(0.7), SourceType: model.SourceWeb, SourceRef: "archive-4411"},
	}

	fmt.Println("Ingesting candidates:")
	fmt.Println(strings.Repeat("-", 60))
	for _, cand := range candidates {
		claim, err := eng.Ingest(ctx, cand)
		if err != nil {
			fmt.Printf("  ✗ %q: %v\n", cand.RawText, err)
			continue
		}
		fmt.Printf("  ✓ %-16q %-10s -> %s (%s)\n",
			cand.RawText, claim.Category, claim.ParsedDate.Display, claim.ParsedDate.Precision)
	}

	conflicts, err := eng.ListConflicts(ctx, loc, false)
	if err != nil || len(conflicts) == 0 {
		fmt.Println("\nNo conflicts detected, nothing to resolve.")
		return
	}

	c := conflicts[0]
	fmt.Printf("\n⚠️  Conflict on %q: claim %s vs claim %s\n", c.FieldName, c.ClaimAID, c.ClaimBID)

	suggestion, err := eng.SuggestResolution(ctx, c.ID)
	if err == nil {
		fmt.Printf("   Suggested: %s (%s)\n", suggestion.Recommended, suggestion.Reason)
	}

	resolved, err := eng.ResolveConflict(ctx, c.ID, model.ResolutionSourceA, "demo", engine.ResolveOptions{
		Notes: "archive crawl corroborated by county records",
	})
	if err != nil {
		fmt.Printf("   Resolution failed: %v\n", err)
		return
	}
	fmt.Printf("   Resolved as %s, value %q\n", resolved.Resolution, resolved.ResolvedValue)

	winner, err := eng.GetClaim(ctx, resolved.ClaimAID)
	if err == nil && winner.Status.Approved() {
		if ev, err := eng.ConvertToTimeline(ctx, winner.ID, "demo"); err == nil {
			fmt.Printf("   Converted to timeline event %s at %s\n", ev.ID, ev.DateDisplay)
		}
	}

	fmt.Println("\nAssembled timeline:")
	fmt.Println(strings.Repeat("-", 60))
	events, err := eng.GetTimeline(ctx, loc, engine.TimelineOptions{MaxEntries: 10})
	if err != nil {
		fmt.Printf("  timeline failed: %v\n", err)
		return
	}
	for _, ev := range events {
		fmt.Printf("  %-14s  %s/%s\n", ev.DateDisplay, ev.EventType, ev.EventSubtype)
	}

	fmt.Println("\n=== Demo Complete ===")
}
