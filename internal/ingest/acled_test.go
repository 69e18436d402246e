package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"argus/internal/event"
	"argus/internal/pipeline"
	"argus/internal/store"
)

func feedResponse(records ...map[string]string) string {
	body, _ := json.Marshal(map[string]any{
		"status":  200,
		"success": true,
		"count":   len(records),
		"data":    records,
	})
	return string(body)
}

func sampleRecord(id string, overrides map[string]string) map[string]string {
	rec := map[string]string{
		"event_id_cnty":      id,
		"event_date":         "2024-03-05",
		"year":               "2024",
		"country":            "Mexico",
		"admin1":             "Oaxaca",
		"event_type":         "Riots",
		"sub_event_type":     "Mob violence",
		"disorder_type":      "Riots",
		"fatalities":         "4",
		"civilian_targeting": "",
		"notes":              "crowd attack",
		"latitude":           "17.06",
		"longitude":          "-96.72",
		"actor1":             "Rioters (Mexico)",
		"inter1":             "5",
	}
	for k, v := range overrides {
		rec[k] = v
	}
	return rec
}

func TestFetchMonthParsesRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "k" || q.Get("email") != "e@example.com" {
			t.Errorf("credentials not forwarded: %v", q)
		}
		if got := q.Get("event_date"); got != "2024-03-01|2024-03-31" {
			t.Errorf("event_date = %q", got)
		}
		if got := q.Get("event_date_where"); got != "BETWEEN" {
			t.Errorf("event_date_where = %q", got)
		}
		if got := q.Get("country"); got != "Mexico" {
			t.Errorf("country = %q", got)
		}
		w.Write([]byte(feedResponse(
			sampleRecord("MEX1001", nil),
			sampleRecord("MEX1002", map[string]string{
				"civilian_targeting": "Civilian targeting",
				"fatalities":         "0",
			}),
		)))
	}))
	defer srv.Close()

	c, err := NewClient("k", "e@example.com", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	events, err := c.FetchMonth(context.Background(), "Mexico", 2024, 3)
	if err != nil {
		t.Fatalf("FetchMonth: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}

	e := events[0]
	if e.ID != "MEX1001" || e.Year != 2024 || e.Month != 3 || e.Day != 5 {
		t.Errorf("event = %+v", e)
	}
	if e.Fatalities != 4 || e.CivilianTargeting {
		t.Errorf("event = %+v", e)
	}
	if e.Latitude == nil || *e.Latitude != 17.06 {
		t.Errorf("latitude = %v", e.Latitude)
	}
	if !events[1].CivilianTargeting {
		t.Error("civilian targeting flag not parsed")
	}
}

func TestFetchMonthSkipsMalformedRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(feedResponse(
			sampleRecord("MEX1001", nil),
			sampleRecord("MEX1002", map[string]string{"event_date": "not-a-date"}),
			sampleRecord("", nil),
		)))
	}))
	defer srv.Close()

	c, _ := NewClient("k", "e@example.com", WithBaseURL(srv.URL))
	events, err := c.FetchMonth(context.Background(), "Mexico", 2024, 3)
	if err != nil {
		t.Fatalf("FetchMonth: %v", err)
	}
	if len(events) != 1 || events[0].ID != "MEX1001" {
		t.Errorf("events = %+v, want only MEX1001", events)
	}
}

func TestFetchMonthUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := NewClient("k", "e@example.com", WithBaseURL(srv.URL))
	_, err := c.FetchMonth(context.Background(), "Mexico", 2024, 3)
	if !errors.Is(err, pipeline.ErrDataUnavailable) {
		t.Errorf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestFetchMonthUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":403,"success":false,"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	c, _ := NewClient("k", "e@example.com", WithBaseURL(srv.URL))
	_, err := c.FetchMonth(context.Background(), "Mexico", 2024, 3)
	if !errors.Is(err, pipeline.ErrDataUnavailable) {
		t.Errorf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestFetchMonthValidatesInput(t *testing.T) {
	c, _ := NewClient("k", "e@example.com")
	if _, err := c.FetchMonth(context.Background(), "", 2024, 3); !errors.Is(err, pipeline.ErrConfiguration) {
		t.Errorf("empty country: err = %v, want ErrConfiguration", err)
	}
	if _, err := c.FetchMonth(context.Background(), "Mexico", 2024, 13); !errors.Is(err, pipeline.ErrConfiguration) {
		t.Errorf("month 13: err = %v, want ErrConfiguration", err)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient("", "e@example.com"); err == nil {
		t.Error("want error for empty key")
	}
	if _, err := NewClient("k", ""); err == nil {
		t.Error("want error for empty email")
	}
}

func TestIngestMonthScoresAndPersists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(feedResponse(
			sampleRecord("MEX1001", map[string]string{"fatalities": "10"}),
			sampleRecord("MEX1002", map[string]string{"fatalities": "5"}),
		)))
	}))
	defer srv.Close()

	c, _ := NewClient("k", "e@example.com", WithBaseURL(srv.URL))
	st := store.NewMemStore()
	ing := NewIngestor(c, st)

	n, err := ing.IngestMonth(context.Background(), "Mexico", 2024, 3)
	if err != nil {
		t.Fatalf("IngestMonth: %v", err)
	}
	if n != 2 {
		t.Errorf("ingested = %d, want 2", n)
	}

	rows, err := st.QueryEvents(context.Background(), event.Slice{Country: "Mexico", Year: 2024, Month: 3}, 0)
	if err != nil {
		t.Fatalf("QueryEvents: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("stored rows = %d, want 2", len(rows))
	}
	// Severity must be assigned before persistence, batch-relative.
	if rows[0].Severity <= 0 || rows[1].Severity <= 0 {
		t.Errorf("severity not scored: %+v", rows)
	}
	if rows[0].Severity <= rows[1].Severity {
		t.Errorf("10-fatality event should outscore the 5-fatality one: %+v", rows)
	}
}

func TestIngestMonthEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(feedResponse()))
	}))
	defer srv.Close()

	c, _ := NewClient("k", "e@example.com", WithBaseURL(srv.URL))
	ing := NewIngestor(c, store.NewMemStore())

	n, err := ing.IngestMonth(context.Background(), "Mexico", 2024, 3)
	if err != nil {
		t.Fatalf("IngestMonth: %v", err)
	}
	if n != 0 {
		t.Errorf("ingested = %d, want 0", n)
	}
}
