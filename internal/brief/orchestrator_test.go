package brief

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"argus/internal/event"
	"argus/internal/llm"
	"argus/internal/pipeline"
	"argus/internal/store"
)

// stubGateway echoes a canned brief and records the prompts it saw.
type stubGateway struct {
	reply   string
	err     error
	prompts []string
}

func (g *stubGateway) Generate(_ context.Context, req llm.Request) (string, error) {
	g.prompts = append(g.prompts, req.Prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func seedStore(t *testing.T) *store.MemStore {
	t.Helper()
	st := store.NewMemStore()
	date := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	err := st.UpsertEvents(context.Background(), []event.Event{
		{ID: "MEX1001", Country: "Mexico", Year: 2024, Month: 3, Date: date(2),
			State: "Oaxaca", Type: "Riots", SubType: "Mob violence", Fatalities: 4, Severity: 60, Notes: "crowd attack"},
		{ID: "MEX1002", Country: "Mexico", Year: 2024, Month: 3, Date: date(5),
			State: "Sonora", Type: "Riots", SubType: "Violent demonstration", Fatalities: 1, Severity: 40, Notes: "clash"},
		{ID: "MEX2001", Country: "Mexico", Year: 2024, Month: 3, Date: date(9),
			State: "Oaxaca", Type: "Protests", SubType: "Peaceful protest", Fatalities: 0, Severity: 20, Notes: "march"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return st
}

func TestSummarizeBuildsTypedPrompt(t *testing.T) {
	gw := &stubGateway{reply: "Riots rose (MEX1001)."}
	o, err := New(seedStore(t), gw)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := o.Summarize(context.Background(), Request{
		Slice: event.Slice{Country: "Mexico", Year: 2024, Month: 3},
		Type:  event.TypeRiots,
	})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if res.Brief != gw.reply {
		t.Errorf("Brief = %q", res.Brief)
	}
	if len(gw.prompts) != 1 {
		t.Fatalf("prompts = %d, want 1", len(gw.prompts))
	}

	prompt := gw.prompts[0]
	// Typed request narrows the event log to the family and embeds the
	// family metrics line; the protest event must not leak in.
	for _, want := range []string{"MEX1001", "MEX1002", "Total riots: 2"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "MEX2001") {
		t.Errorf("protest event leaked into riots prompt")
	}
	// Ordering: 4 fatalities before 1.
	if strings.Index(prompt, "MEX1001") > strings.Index(prompt, "MEX1002") {
		t.Errorf("event log not in fatalities-desc order")
	}
}

func TestSummarizeGenericWithoutType(t *testing.T) {
	gw := &stubGateway{reply: "A month in Mexico."}
	o, _ := New(seedStore(t), gw)

	res, err := o.Summarize(context.Background(), Request{
		Slice: event.Slice{Country: "Mexico", Year: 2024, Month: 3},
	})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if res.Brief == "" {
		t.Error("empty brief")
	}
	if !strings.Contains(gw.prompts[0], "all events") {
		t.Errorf("generic prompt should cover all events")
	}
	if !strings.Contains(gw.prompts[0], "MEX2001") {
		t.Errorf("generic prompt should include every type")
	}
}

func TestSummarizeContextSelectsVariant(t *testing.T) {
	gw := &stubGateway{reply: "ok"}
	o, _ := New(seedStore(t), gw)

	_, err := o.Summarize(context.Background(), Request{
		Slice:   event.Slice{Country: "Mexico", Year: 2024, Month: 3},
		Type:    event.TypeRiots,
		Context: "Last month riots were rare.",
	})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !strings.Contains(gw.prompts[0], "Last month riots were rare.") {
		t.Errorf("context not embedded in prompt")
	}
	if !strings.Contains(gw.prompts[0], "PREVIOUS-MONTH SUMMARY") {
		t.Errorf("context variant template not selected")
	}
}

func TestSummarizeVerifiesCitations(t *testing.T) {
	gw := &stubGateway{reply: "Violence grew (MEX1001) and also (MEX999999)."}
	o, _ := New(seedStore(t), gw)

	res, err := o.Summarize(context.Background(), Request{
		Slice:          event.Slice{Country: "Mexico", Year: 2024, Month: 3},
		Type:           event.TypeRiots,
		CheckCitations: true,
	})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(res.MissingIDs) != 1 || res.MissingIDs[0] != "MEX999999" {
		t.Errorf("MissingIDs = %v, want [MEX999999]", res.MissingIDs)
	}
	if res.VerifySkipped {
		t.Error("VerifySkipped must be false when ground truth was readable")
	}
}

type failingIDStore struct {
	*store.MemStore
}

func (f failingIDStore) ValidIDs(context.Context, event.Slice) (map[string]bool, error) {
	return nil, errors.New("db gone")
}

func TestSummarizeVerifySkippedOnStoreFailure(t *testing.T) {
	gw := &stubGateway{reply: "Cites MEX1001."}
	o, _ := New(failingIDStore{seedStore(t)}, gw)

	res, err := o.Summarize(context.Background(), Request{
		Slice:          event.Slice{Country: "Mexico", Year: 2024, Month: 3},
		Type:           event.TypeRiots,
		CheckCitations: true,
	})
	if err != nil {
		t.Fatalf("verification failure must not fail the pass: %v", err)
	}
	if !res.VerifySkipped {
		t.Error("VerifySkipped must be set")
	}
	if res.MissingIDs != nil {
		t.Errorf("MissingIDs = %v, skipped verification must not report missing IDs", res.MissingIDs)
	}
}

func TestSummarizeGatewayFailure(t *testing.T) {
	gw := &stubGateway{err: llm.ErrCapacity}
	o, _ := New(seedStore(t), gw)

	_, err := o.Summarize(context.Background(), Request{
		Slice: event.Slice{Country: "Mexico", Year: 2024, Month: 3},
		Type:  event.TypeRiots,
	})
	if !errors.Is(err, pipeline.ErrProvider) {
		t.Errorf("err = %v, want ErrProvider", err)
	}
}

func TestSummarizeRejectsBadSlice(t *testing.T) {
	o, _ := New(store.NewMemStore(), &stubGateway{reply: "x"})
	_, err := o.Summarize(context.Background(), Request{Slice: event.Slice{Country: "Mexico", Year: 2024, Month: 13}})
	if !errors.Is(err, pipeline.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestSummarizeStateScopedUsesRegionalTemplate(t *testing.T) {
	gw := &stubGateway{reply: "Oaxaca is tense."}
	o, _ := New(seedStore(t), gw)

	_, err := o.Summarize(context.Background(), Request{
		Slice: event.Slice{Country: "Mexico", Year: 2024, Month: 3, State: "Oaxaca"},
	})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	prompt := gw.prompts[0]
	if !strings.Contains(prompt, "Oaxaca, Mexico") {
		t.Errorf("regional template not selected:\n%s", prompt)
	}
	if strings.Contains(prompt, "MEX1002") {
		t.Errorf("other-state event leaked into state brief")
	}
}

func TestOverviewWeavesSubBriefs(t *testing.T) {
	gw := &stubGateway{reply: "Nationwide synthesis."}
	o, _ := New(seedStore(t), gw)

	res, err := o.Overview(context.Background(), OverviewRequest{
		Country: "Mexico", Year: 2024, Month: 3,
		SubBriefs: map[string]string{
			"Riots":    "riot text",
			"Protests": "protest text",
		},
	})
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if res.Brief != gw.reply {
		t.Errorf("Brief = %q", res.Brief)
	}
	prompt := gw.prompts[0]
	if !strings.Contains(prompt, "### Riots ###") || !strings.Contains(prompt, "### Protests ###") {
		t.Errorf("sub-brief sections missing:\n%s", prompt)
	}
	if strings.Index(prompt, "### Protests ###") > strings.Index(prompt, "### Riots ###") {
		t.Errorf("sections out of standard order")
	}
}

func TestOverviewRequiresSubBriefs(t *testing.T) {
	o, _ := New(seedStore(t), &stubGateway{reply: "x"})
	_, err := o.Overview(context.Background(), OverviewRequest{Country: "Mexico", Year: 2024, Month: 3})
	if !errors.Is(err, pipeline.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}
