package store

import (
	"context"
	"sort"
	"sync"

	"argus/internal/event"
)

// MemStore is an in-memory Store for tests and demos. It mirrors the
// SqlStore ordering rules exactly so fixtures behave like the real thing.
type MemStore struct {
	mu      sync.RWMutex
	events  map[string]event.Event
	bundles []Bundle
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{events: make(map[string]event.Event)}
}

func (m *MemStore) Close() error { return nil }

func (m *MemStore) UpsertEvents(_ context.Context, events []event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range events {
		m.events[e.ID] = e
	}
	return nil
}

func matches(e event.Event, s event.Slice) bool {
	if e.Country != s.Country || e.Year != s.Year || e.Month != s.Month {
		return false
	}
	if s.Type != "" && e.Type != s.Type {
		return false
	}
	if s.State != "" && e.State != s.State {
		return false
	}
	return true
}

func (m *MemStore) sliceEvents(s event.Slice) []event.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []event.Event
	for _, e := range m.events {
		if matches(e, s) {
			out = append(out, e)
		}
	}
	return out
}

func toRow(e event.Event) EventRow {
	return EventRow{
		ID:         e.ID,
		Date:       e.Date.Format("2006-01-02"),
		State:      e.State,
		SubType:    e.SubType,
		Type:       e.Type,
		Fatalities: e.Fatalities,
		Severity:   e.Severity,
		Note:       e.Notes,
	}
}

func (m *MemStore) QueryEvents(_ context.Context, s event.Slice, limit int) ([]EventRow, error) {
	evs := m.sliceEvents(s)
	sort.Slice(evs, func(i, j int) bool {
		if evs[i].Fatalities != evs[j].Fatalities {
			return evs[i].Fatalities > evs[j].Fatalities
		}
		return evs[i].Date.Before(evs[j].Date)
	})
	if limit > 0 && len(evs) > limit {
		evs = evs[:limit]
	}
	rows := make([]EventRow, len(evs))
	for i, e := range evs {
		rows[i] = toRow(e)
	}
	return rows, nil
}

func (m *MemStore) TopBySeverity(_ context.Context, s event.Slice, n int) ([]EventRow, error) {
	evs := m.sliceEvents(s)
	sort.Slice(evs, func(i, j int) bool {
		if evs[i].Severity != evs[j].Severity {
			return evs[i].Severity > evs[j].Severity
		}
		return evs[i].Date.Before(evs[j].Date)
	})
	if n > 0 && len(evs) > n {
		evs = evs[:n]
	}
	rows := make([]EventRow, len(evs))
	for i, e := range evs {
		rows[i] = toRow(e)
	}
	return rows, nil
}

func (m *MemStore) severityBy(s event.Slice, key func(event.Event) string) []SeverityBucket {
	sums := make(map[string]float64)
	for _, e := range m.sliceEvents(s) {
		sums[key(e)] += e.Severity
	}
	out := make([]SeverityBucket, 0, len(sums))
	for k, v := range sums {
		out = append(out, SeverityBucket{Key: k, TotalSeverity: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalSeverity > out[j].TotalSeverity })
	return out
}

func (m *MemStore) SeverityByState(_ context.Context, s event.Slice) ([]SeverityBucket, error) {
	return m.severityBy(s, func(e event.Event) string { return e.State }), nil
}

func (m *MemStore) SeverityByType(_ context.Context, s event.Slice) ([]SeverityBucket, error) {
	return m.severityBy(s, func(e event.Event) string { return e.Type }), nil
}

func (m *MemStore) ValidIDs(_ context.Context, s event.Slice) (map[string]bool, error) {
	ids := make(map[string]bool)
	for _, e := range m.sliceEvents(s) {
		ids[e.ID] = true
	}
	return ids, nil
}

func (m *MemStore) SubTypeBreakdown(_ context.Context, s event.Slice) ([]SubTypeAgg, error) {
	counts := make(map[string]*SubTypeAgg)
	for _, e := range m.sliceEvents(s) {
		a, ok := counts[e.SubType]
		if !ok {
			a = &SubTypeAgg{SubType: e.SubType}
			counts[e.SubType] = a
		}
		a.Count++
		a.Fatalities += e.Fatalities
	}
	out := make([]SubTypeAgg, 0, len(counts))
	for _, a := range counts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubType < out[j].SubType })
	return out, nil
}

func (m *MemStore) Headline(_ context.Context, s event.Slice) (HeadlineMetrics, error) {
	var h HeadlineMetrics
	for _, e := range m.sliceEvents(s) {
		h.Events++
		h.Fatalities += e.Fatalities
		h.Severity += e.Severity
	}
	return h, nil
}

func (m *MemStore) RegionalSeverity(_ context.Context, s event.Slice) ([]RegionalSeverity, error) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, e := range m.sliceEvents(s) {
		sums[e.State] += e.Severity
		counts[e.State]++
	}
	out := make([]RegionalSeverity, 0, len(sums))
	for k, v := range sums {
		out = append(out, RegionalSeverity{State: k, Severity: v / float64(counts[k])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Severity > out[j].Severity })
	return out, nil
}

func (m *MemStore) SaveBundle(_ context.Context, b *Bundle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundles = append(m.bundles, *b)
	return nil
}

func (m *MemStore) LatestBundle(_ context.Context, country string, year, month int) (*Bundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *Bundle
	for i := range m.bundles {
		b := &m.bundles[i]
		if b.Country != country || b.Year != year || b.Month != month {
			continue
		}
		if latest == nil || b.RunID > latest.RunID {
			latest = b
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}
