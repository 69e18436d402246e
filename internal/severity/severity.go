// Package severity computes the derived 0-100 severity score attached to
// every event before persistence.
//
// Scoring is batch-relative: fatalities are normalised against the batch
// maximum, so re-scoring the same event inside a different batch can yield
// a different score. The score measures relative severity within one
// analysis window, not an absolute scale.
package severity

import "argus/internal/event"

// defaultWeight is the floor applied to disorder/event categories the
// tables do not know about.
const defaultWeight = 0.1

// Weights blends the four severity components. The components must sum to
// 1.0; that sum is what keeps the scaled score inside [0, 100].
type Weights struct {
	Fatalities        float64
	DisorderType      float64
	CivilianTargeting float64
	EventType         float64
}

// DefaultWeights is the canonical weight set.
var DefaultWeights = Weights{
	Fatalities:        0.1,
	DisorderType:      0.3,
	CivilianTargeting: 0.3,
	EventType:         0.3,
}

// DisorderTable maps disorder_type to a severity factor in [0, 1].
var DisorderTable = map[string]float64{
	"Political violence":                 0.7,
	"Violence against civilians":         0.9,
	"Strategic developments":             0.8,
	"Demonstrations":                     0.5,
	"Political violence; Demonstrations": 1.0,
	"Protests":                           0.3,
	"Riots":                              0.5,
}

// EventTable maps event_type to a severity factor in [0, 1].
var EventTable = map[string]float64{
	"Violence against civilians": 0.8,
	"Political violence":         0.7,
	"Battles":                    0.8,
	"Explosions/Remote violence": 1.0,
	"Protests":                   0.4,
	"Riots":                      0.6,
	"Strategic developments":     0.9,
	"Peaceful protest":           0.2,
	"Attack":                     0.9,
	"Arrests":                    0.3,
}

// Scorer computes batch-relative severity scores. The zero value is not
// usable; construct with NewScorer so the tables are injectable in tests.
type Scorer struct {
	weights  Weights
	disorder map[string]float64
	event    map[string]float64
}

// NewScorer returns a Scorer with the default weights and tables.
func NewScorer() *Scorer {
	return &Scorer{weights: DefaultWeights, disorder: DisorderTable, event: EventTable}
}

// NewScorerWith returns a Scorer with caller-supplied configuration.
// Passing nil tables falls back to the defaults.
func NewScorerWith(w Weights, disorder, eventTable map[string]float64) *Scorer {
	if disorder == nil {
		disorder = DisorderTable
	}
	if eventTable == nil {
		eventTable = EventTable
	}
	return &Scorer{weights: w, disorder: disorder, event: eventTable}
}

// Score recomputes Severity for every event in the batch, in place.
// Fatalities are normalised against the batch maximum; a batch whose
// maximum is zero normalises every event to zero rather than dividing by
// zero. Unknown disorder/event categories score the 0.1 floor instead of
// failing.
func (s *Scorer) Score(batch []event.Event) {
	maxFat := 0
	for i := range batch {
		if batch[i].Fatalities > maxFat {
			maxFat = batch[i].Fatalities
		}
	}

	for i := range batch {
		e := &batch[i]

		normFat := 0.0
		if maxFat > 0 {
			normFat = float64(e.Fatalities) / float64(maxFat)
		}

		disorder, ok := s.disorder[e.DisorderType]
		if !ok {
			disorder = defaultWeight
		}
		etype, ok := s.event[e.Type]
		if !ok {
			etype = defaultWeight
		}
		civilian := 0.0
		if e.CivilianTargeting {
			civilian = 1.0
		}

		e.Severity = 100 * (s.weights.Fatalities*normFat +
			s.weights.DisorderType*disorder +
			s.weights.CivilianTargeting*civilian +
			s.weights.EventType*etype)
	}
}
