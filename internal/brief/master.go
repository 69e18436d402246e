package brief

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"argus/internal/event"
	"argus/internal/store"
)

// MasterRequest is one full monthly cycle: the five standard event-type
// briefs plus the country overview.
type MasterRequest struct {
	Country string
	Year    int
	Month   int
	// IncludeContext feeds each per-type call last month's brief of the
	// same type, and the overview last month's overview. When PrevBriefs
	// is nil the previous month's persisted bundle is used.
	IncludeContext bool
	CheckCitations bool
	PrevBriefs     map[string]string
	PrevOverview   string
	Temperature    float64
	MaxTokensType  int
	MaxTokensOver  int
	MaxResults     int
	// Concurrency bounds the parallel per-type generations. <= 1 runs
	// serially. Per-type briefs share no mutable state, only read-only
	// slice data, so they can safely overlap.
	Concurrency int
}

// prevMonth steps a (year, month) key one month back.
func prevMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// MonthlyBriefs runs the full cycle and returns the bundle. A failure in
// any single event type never aborts the others: the failure is recorded
// as an error marker for that type and the cycle continues. Only a
// failure of the overview call itself fails the run.
func (o *Orchestrator) MonthlyBriefs(ctx context.Context, req MasterRequest) (*store.Bundle, error) {
	sl := event.Slice{Year: req.Year, Month: req.Month, Country: req.Country}
	if err := sl.Validate(); err != nil {
		return nil, fmt.Errorf("brief: monthly cycle: %w", err)
	}

	prevBriefs := req.PrevBriefs
	prevOverview := req.PrevOverview
	if req.IncludeContext && prevBriefs == nil {
		py, pm := prevMonth(req.Year, req.Month)
		if prev, err := o.st.LatestBundle(ctx, req.Country, py, pm); err == nil && prev != nil {
			prevBriefs = make(map[string]string, len(prev.Briefs))
			for name, rec := range prev.Briefs {
				if rec.Err != "" {
					continue
				}
				if name == store.OverviewKey {
					if prevOverview == "" {
						prevOverview = rec.Text
					}
					continue
				}
				prevBriefs[name] = rec.Text
			}
		}
	}
	ctxFor := func(name string) string {
		if !req.IncludeContext {
			return ""
		}
		return prevBriefs[name]
	}

	records := make([]store.BriefRecord, len(event.StandardTypes))

	g, gctx := errgroup.Group{}, ctx
	if req.Concurrency > 1 {
		g.SetLimit(req.Concurrency)
	} else {
		g.SetLimit(1)
	}
	for i, t := range event.StandardTypes {
		g.Go(func() error {
			name := t.String()
			res, err := o.Summarize(gctx, Request{
				Slice:          event.Slice{Year: req.Year, Month: req.Month, Country: req.Country},
				Type:           t,
				Context:        ctxFor(name),
				CheckCitations: req.CheckCitations,
				MaxResults:     req.MaxResults,
				Temperature:    req.Temperature,
				MaxTokens:      req.MaxTokensType,
			})
			if err != nil {
				// Isolate: record the marker, keep the cycle going.
				o.logger.Warn("event-type brief failed", "type", name, "err", err)
				records[i] = store.BriefRecord{Err: err.Error()}
				return nil
			}
			records[i] = store.BriefRecord{Text: res.Brief, MissingIDs: res.MissingIDs}
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors; markers carry failures

	briefs := make(map[string]store.BriefRecord, len(event.StandardTypes)+1)
	subTexts := make(map[string]string)
	for i, t := range event.StandardTypes {
		name := t.String()
		briefs[name] = records[i]
		if records[i].Err == "" {
			subTexts[name] = records[i].Text
		}
	}

	ov, err := o.Overview(ctx, OverviewRequest{
		Country:        req.Country,
		Year:           req.Year,
		Month:          req.Month,
		SubBriefs:      subTexts,
		PrevOverview:   prevOverview,
		CheckCitations: req.CheckCitations,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokensOver,
	})
	if err != nil {
		return nil, fmt.Errorf("brief: overview: %w", err)
	}
	briefs[store.OverviewKey] = store.BriefRecord{Text: ov.Brief, MissingIDs: ov.MissingIDs}

	return &store.Bundle{
		RunID:   ulid.Make().String(),
		Country: req.Country,
		Year:    req.Year,
		Month:   req.Month,
		Briefs:  briefs,
	}, nil
}
