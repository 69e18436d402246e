package brief

import (
	"context"
	"fmt"

	"argus/internal/event"
	"argus/internal/pipeline"
	"argus/internal/store"
)

// SliceReport bundles the reporting views for one slice: the ordered event
// rows plus the breakdown aggregates the dashboard-facing surfaces render.
type SliceReport struct {
	Rows            []store.EventRow
	SeverityByState []store.SeverityBucket
	SeverityByType  []store.SeverityBucket
	TopBySeverity   []store.EventRow
	Regional        []store.RegionalSeverity
}

// Report fetches the reporting views for a slice in one pass.
func (o *Orchestrator) Report(ctx context.Context, sl event.Slice, maxResults int) (*SliceReport, error) {
	if err := sl.Validate(); err != nil {
		return nil, fmt.Errorf("brief: report: %w: %v", pipeline.ErrConfiguration, err)
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	rows, err := o.st.QueryEvents(ctx, sl, maxResults)
	if err != nil {
		return nil, fmt.Errorf("brief: report rows: %w: %v", pipeline.ErrDataUnavailable, err)
	}
	byState, err := o.st.SeverityByState(ctx, sl)
	if err != nil {
		return nil, fmt.Errorf("brief: report by state: %w: %v", pipeline.ErrDataUnavailable, err)
	}
	byType, err := o.st.SeverityByType(ctx, sl)
	if err != nil {
		return nil, fmt.Errorf("brief: report by type: %w: %v", pipeline.ErrDataUnavailable, err)
	}
	top, err := o.st.TopBySeverity(ctx, sl, 10)
	if err != nil {
		return nil, fmt.Errorf("brief: report top: %w: %v", pipeline.ErrDataUnavailable, err)
	}
	regional, err := o.st.RegionalSeverity(ctx, sl)
	if err != nil {
		return nil, fmt.Errorf("brief: report regional: %w: %v", pipeline.ErrDataUnavailable, err)
	}

	return &SliceReport{
		Rows:            rows,
		SeverityByState: byState,
		SeverityByType:  byType,
		TopBySeverity:   top,
		Regional:        regional,
	}, nil
}
