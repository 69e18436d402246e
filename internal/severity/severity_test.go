package severity

import (
	"math"
	"testing"

	"argus/internal/event"
)

func TestScoreStaysInRange(t *testing.T) {
	batch := []event.Event{
		{ID: "A1", Type: "Explosions/Remote violence", DisorderType: "Political violence; Demonstrations", CivilianTargeting: true, Fatalities: 50},
		{ID: "A2", Type: "Unheard-of category", DisorderType: "Also unknown", Fatalities: 0},
		{ID: "A3", Type: "Protests", DisorderType: "Protests", Fatalities: 3},
	}
	NewScorer().Score(batch)

	for _, e := range batch {
		if e.Severity < 0 || e.Severity > 100 {
			t.Errorf("event %s: severity %v out of [0, 100]", e.ID, e.Severity)
		}
	}
	// Worst case: every component maxed.
	if got := batch[0].Severity; got != 100 {
		t.Errorf("maxed event severity = %v, want 100", got)
	}
}

func TestScoreZeroFatalityBatch(t *testing.T) {
	batch := []event.Event{
		{ID: "B1", Type: "Riots", DisorderType: "Riots", Fatalities: 0},
		{ID: "B2", Type: "Riots", DisorderType: "Riots", Fatalities: 0},
	}
	NewScorer().Score(batch)

	// maxFat == 0 normalises to zero instead of dividing by zero.
	want := 100 * (0.3*0.5 + 0.3*0 + 0.3*0.6)
	for _, e := range batch {
		if math.Abs(e.Severity-want) > 1e-9 {
			t.Errorf("event %s: severity = %v, want %v", e.ID, e.Severity, want)
		}
	}
}

func TestScoreIsBatchRelative(t *testing.T) {
	mk := func() event.Event {
		return event.Event{ID: "C1", Type: "Battles", DisorderType: "Political violence", Fatalities: 5}
	}

	small := []event.Event{mk(), {ID: "C2", Type: "Battles", DisorderType: "Political violence", Fatalities: 5}}
	large := []event.Event{mk(), {ID: "C3", Type: "Battles", DisorderType: "Political violence", Fatalities: 500}}

	s := NewScorer()
	s.Score(small)
	s.Score(large)

	if small[0].Severity <= large[0].Severity {
		t.Errorf("same event scored %v in small batch, %v next to a 500-fatality event; want higher in small batch",
			small[0].Severity, large[0].Severity)
	}
}

func TestScoreUnknownCategoriesUseFloor(t *testing.T) {
	batch := []event.Event{{ID: "D1", Type: "Novel type", DisorderType: "Novel disorder", Fatalities: 0}}
	NewScorer().Score(batch)

	want := 100 * (0.3*0.1 + 0.3*0.1)
	if math.Abs(batch[0].Severity-want) > 1e-9 {
		t.Errorf("unknown-category severity = %v, want %v", batch[0].Severity, want)
	}
}

func TestScoreCivilianTargetingComponent(t *testing.T) {
	batch := []event.Event{
		{ID: "E1", Type: "Attack", DisorderType: "Violence against civilians", CivilianTargeting: true},
		{ID: "E2", Type: "Attack", DisorderType: "Violence against civilians", CivilianTargeting: false},
	}
	NewScorer().Score(batch)

	if diff := batch[0].Severity - batch[1].Severity; math.Abs(diff-30) > 1e-9 {
		t.Errorf("civilian targeting delta = %v, want 30", diff)
	}
}

func TestScoreCustomWeights(t *testing.T) {
	w := Weights{Fatalities: 1.0}
	s := NewScorerWith(w, map[string]float64{}, map[string]float64{})

	batch := []event.Event{
		{ID: "F1", Fatalities: 10},
		{ID: "F2", Fatalities: 5},
	}
	s.Score(batch)

	// Table misses still contribute via the other components only when
	// weighted; here only fatalities carry weight.
	if batch[0].Severity != 100 {
		t.Errorf("max-fatality event severity = %v, want 100", batch[0].Severity)
	}
	if batch[1].Severity != 50 {
		t.Errorf("half-fatality event severity = %v, want 50", batch[1].Severity)
	}
}
