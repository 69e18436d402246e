// Package metrics turns raw slice rows into the headline snapshots that
// feed prompt metric lines. Every event-type family with a fixed sub-type
// vocabulary is zero-filled: a month with no "Mob violence" still reports
// the key with 0, because downstream prompt text references it either way.
package metrics

import (
	"context"
	"fmt"

	"argus/internal/event"
	"argus/internal/pipeline"
	"argus/internal/store"
)

// Snapshot is the per-slice aggregate for one event-type family.
type Snapshot struct {
	Type            event.Type
	TotalEvents     int
	TotalFatalities int
	TotalSeverity   float64
	CountBySub      map[string]int
	FatalBySub      map[string]int

	// TypeSeverity carries summed severity per type code, used only by
	// the Strategic developments metric line.
	TypeSeverity []store.SeverityBucket
}

// Aggregator computes snapshots against the event repository.
type Aggregator struct {
	st store.Store
}

// NewAggregator wraps a store.
func NewAggregator(st store.Store) *Aggregator {
	return &Aggregator{st: st}
}

// unavailable tags a repository failure so callers can tell "store down"
// apart from "zero events this month".
func unavailable(op string, err error) error {
	return fmt.Errorf("metrics: %s: %w: %v", op, pipeline.ErrDataUnavailable, err)
}

// Generic returns the slice totals with no sub-type breakdown.
func (a *Aggregator) Generic(ctx context.Context, sl event.Slice) (Snapshot, error) {
	h, err := a.st.Headline(ctx, sl)
	if err != nil {
		return Snapshot{}, unavailable("headline", err)
	}
	return Snapshot{
		TotalEvents:     h.Events,
		TotalFatalities: h.Fatalities,
		TotalSeverity:   h.Severity,
	}, nil
}

// ForType returns the snapshot for one event-type family, zero-filling the
// family's fixed sub-type vocabulary.
func (a *Aggregator) ForType(ctx context.Context, t event.Type, sl event.Slice) (Snapshot, error) {
	typed := sl
	typed.Type = t.String()

	snap := Snapshot{
		Type:       t,
		CountBySub: make(map[string]int),
		FatalBySub: make(map[string]int),
	}

	aggs, err := a.st.SubTypeBreakdown(ctx, typed)
	if err != nil {
		return Snapshot{}, unavailable("subtype breakdown", err)
	}
	for _, g := range aggs {
		snap.TotalEvents += g.Count
		snap.TotalFatalities += g.Fatalities
		snap.CountBySub[g.SubType] = g.Count
		snap.FatalBySub[g.SubType] = g.Fatalities
	}

	// Absence of data is not absence of the key.
	for _, sub := range t.SubTypes() {
		if _, ok := snap.CountBySub[sub]; !ok {
			snap.CountBySub[sub] = 0
		}
		if _, ok := snap.FatalBySub[sub]; !ok {
			snap.FatalBySub[sub] = 0
		}
	}

	if t == event.TypeStrategicDevelopments {
		buckets, err := a.st.SeverityByType(ctx, typed)
		if err != nil {
			return Snapshot{}, unavailable("severity by type", err)
		}
		snap.TypeSeverity = buckets
	}
	return snap, nil
}
