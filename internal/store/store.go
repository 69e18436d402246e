// Package store is the event repository: it owns the persisted event set
// and answers the slice queries the pipeline is built on. Two
// implementations: SqlStore (SQLite) and MemStore (tests).
package store

import (
	"context"

	"argus/internal/event"
)

// EventRow is one line of a slice query result: the fields a brief needs
// per event, in the shape the bullet builder and the verifier consume.
type EventRow struct {
	ID         string
	Date       string // YYYY-MM-DD
	State      string
	SubType    string
	Type       string
	Fatalities int
	Severity   float64
	Note       string
}

// SeverityBucket is an aggregate row: summed severity grouped by state or
// by event type, descending.
type SeverityBucket struct {
	Key           string
	TotalSeverity float64
}

// SubTypeAgg is the per-sub-event-type rollup for one slice.
type SubTypeAgg struct {
	SubType    string
	Count      int
	Fatalities int
}

// HeadlineMetrics are the slice totals used in prompt metric lines.
type HeadlineMetrics struct {
	Events     int
	Fatalities int
	Severity   float64
}

// RegionalSeverity is the mean severity per admin1 for a country window.
type RegionalSeverity struct {
	State    string
	Severity float64
}

// Store is the repository contract the pipeline depends on. All filters in
// a slice are conjunctive; absent optional filters widen the slice. Slice
// queries return rows ordered by fatalities descending, then date
// ascending, so truncated views are reproducible.
type Store interface {
	// UpsertEvents inserts or replaces events by ID. Re-ingesting the
	// same feed window is idempotent.
	UpsertEvents(ctx context.Context, events []event.Event) error

	// QueryEvents returns up to limit rows for the slice in the canonical
	// order (fatalities desc, date asc). limit <= 0 means no limit.
	QueryEvents(ctx context.Context, s event.Slice, limit int) ([]EventRow, error)

	// TopBySeverity returns the n most severe rows for the slice.
	TopBySeverity(ctx context.Context, s event.Slice, n int) ([]EventRow, error)

	// SeverityByState sums severity per admin1 for the slice, descending.
	SeverityByState(ctx context.Context, s event.Slice) ([]SeverityBucket, error)

	// SeverityByType sums severity per event type for the slice, descending.
	SeverityByType(ctx context.Context, s event.Slice) ([]SeverityBucket, error)

	// ValidIDs returns the slice's full identifier set, the ground truth
	// for citation verification.
	ValidIDs(ctx context.Context, s event.Slice) (map[string]bool, error)

	// SubTypeBreakdown returns count and fatality totals per sub-event
	// type for the slice. Only sub-types present in the data appear; the
	// metrics layer zero-fills the fixed vocabularies.
	SubTypeBreakdown(ctx context.Context, s event.Slice) ([]SubTypeAgg, error)

	// Headline returns the slice totals.
	Headline(ctx context.Context, s event.Slice) (HeadlineMetrics, error)

	// RegionalSeverity returns mean severity per admin1 for the slice.
	RegionalSeverity(ctx context.Context, s event.Slice) ([]RegionalSeverity, error)

	// SaveBundle persists a finished brief bundle.
	SaveBundle(ctx context.Context, b *Bundle) error

	// LatestBundle returns the most recent bundle for a country month, or
	// nil when none exists.
	LatestBundle(ctx context.Context, country string, year, month int) (*Bundle, error)

	Close() error
}

// Bundle is one persisted run of the monthly brief cycle: the five
// per-type briefs plus the overview, keyed by event-type name (the
// overview under OverviewKey). RunID is a ULID, so lexical order is
// creation order.
type Bundle struct {
	RunID   string
	Country string
	Year    int
	Month   int
	Briefs  map[string]BriefRecord
}

// OverviewKey is the reserved bundle key for the country overview.
const OverviewKey = "_overview"

// BriefRecord is one brief inside a bundle. Err marks a failed generation
// for that type; a failed brief is distinguishable from a legitimate
// "no events this month" brief, which is valid content.
type BriefRecord struct {
	Text       string   `json:"text"`
	MissingIDs []string `json:"missing_ids,omitempty"`
	Err        string   `json:"error,omitempty"`
}
