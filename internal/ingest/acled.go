// Package ingest pulls incident records from the upstream ACLED read API,
// scores them, and upserts them into the repository. Ingestion is
// idempotent per event ID, so re-running a month is safe.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"argus/internal/event"
	"argus/internal/logging"
	"argus/internal/pipeline"
	"argus/internal/severity"
	"argus/internal/store"
)

// DefaultBaseURL is the upstream read endpoint.
const DefaultBaseURL = "https://api.acleddata.com/acled/read"

// defaultPageSize is the upstream per-request record cap we ask for.
const defaultPageSize = 5000

// Client fetches incident records from the upstream feed.
type Client struct {
	baseURL    string
	apiKey     string
	email      string
	httpClient *http.Client
	logger     *slog.Logger
	pageSize   int
}

// ClientOption configures the client during construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBaseURL points the client at a different endpoint (tests).
func WithBaseURL(u string) ClientOption {
	return func(cl *Client) { cl.baseURL = strings.TrimSuffix(u, "/") }
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) ClientOption {
	return func(cl *Client) { cl.logger = l }
}

// WithPageSize overrides the per-request record cap.
func WithPageSize(n int) ClientOption {
	return func(cl *Client) { cl.pageSize = n }
}

// NewClient creates an upstream feed client. Key and email are both
// required by the upstream API.
func NewClient(apiKey, email string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" || email == "" {
		return nil, fmt.Errorf("ingest: %w: api key and email are required", pipeline.ErrConfiguration)
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		email:      email,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logging.Discard(),
		pageSize:   defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// record is the upstream wire shape. Every field arrives as a string.
type record struct {
	EventIDCnty       string `json:"event_id_cnty"`
	EventDate         string `json:"event_date"`
	Year              string `json:"year"`
	Country           string `json:"country"`
	Admin1            string `json:"admin1"`
	EventType         string `json:"event_type"`
	SubEventType      string `json:"sub_event_type"`
	DisorderType      string `json:"disorder_type"`
	Fatalities        string `json:"fatalities"`
	CivilianTargeting string `json:"civilian_targeting"`
	Notes             string `json:"notes"`
	Latitude          string `json:"latitude"`
	Longitude         string `json:"longitude"`
	Actor1            string `json:"actor1"`
	Inter1            string `json:"inter1"`
	Actor2            string `json:"actor2"`
	Inter2            string `json:"inter2"`
}

type readResponse struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Data    []record        `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// FetchMonth pulls every record for one country and calendar month.
func (c *Client) FetchMonth(ctx context.Context, country string, year, month int) ([]event.Event, error) {
	if country == "" {
		return nil, fmt.Errorf("ingest: %w: country is required", pipeline.ErrConfiguration)
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("ingest: %w: month %d out of range", pipeline.ErrConfiguration, month)
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("email", c.email)
	q.Set("country", country)
	q.Set("event_date", first.Format("2006-01-02")+"|"+last.Format("2006-01-02"))
	q.Set("event_date_where", "BETWEEN")
	q.Set("limit", strconv.Itoa(c.pageSize))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("ingest: create request: %w", err)
	}

	c.logger.DebugContext(ctx, "feed request", "country", country, "year", year, "month", month)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w: %v", pipeline.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ingest: %w: status %d: %s", pipeline.ErrDataUnavailable, resp.StatusCode, string(body))
	}

	var rr readResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("ingest: %w: decode: %v", pipeline.ErrDataUnavailable, err)
	}
	if !rr.Success {
		return nil, fmt.Errorf("ingest: %w: upstream error: %s", pipeline.ErrDataUnavailable, string(rr.Error))
	}

	events := make([]event.Event, 0, len(rr.Data))
	for _, rec := range rr.Data {
		ev, err := rec.toEvent()
		if err != nil {
			c.logger.Warn("skipping malformed record", "id", rec.EventIDCnty, "err", err)
			continue
		}
		events = append(events, ev)
	}
	c.logger.InfoContext(ctx, "feed fetch complete", "country", country, "records", len(events), "skipped", len(rr.Data)-len(events))
	return events, nil
}

func (r record) toEvent() (event.Event, error) {
	if r.EventIDCnty == "" {
		return event.Event{}, fmt.Errorf("ingest: record without id")
	}
	date, err := time.Parse("2006-01-02", r.EventDate)
	if err != nil {
		return event.Event{}, fmt.Errorf("ingest: event_date %q: %w", r.EventDate, err)
	}
	fat, err := strconv.Atoi(strings.TrimSpace(r.Fatalities))
	if err != nil {
		fat = 0
	}

	ev := event.Event{
		ID:                r.EventIDCnty,
		Date:              date,
		Year:              date.Year(),
		Month:             int(date.Month()),
		Day:               date.Day(),
		Country:           r.Country,
		State:             r.Admin1,
		Type:              r.EventType,
		SubType:           r.SubEventType,
		DisorderType:      r.DisorderType,
		Fatalities:        fat,
		CivilianTargeting: strings.TrimSpace(r.CivilianTargeting) != "",
		Notes:             r.Notes,
		Actor1:            r.Actor1,
		Inter1:            r.Inter1,
		Actor2:            r.Actor2,
		Inter2:            r.Inter2,
	}
	if lat, err := strconv.ParseFloat(r.Latitude, 64); err == nil {
		ev.Latitude = &lat
	}
	if lon, err := strconv.ParseFloat(r.Longitude, 64); err == nil {
		ev.Longitude = &lon
	}
	return ev, nil
}

// Ingestor fetches, scores, and persists one country-month at a time.
type Ingestor struct {
	client *Client
	scorer *severity.Scorer
	st     store.Store
	logger *slog.Logger
}

// NewIngestor wires a feed client, a severity scorer, and a repository.
func NewIngestor(client *Client, st store.Store, opts ...IngestorOption) *Ingestor {
	ing := &Ingestor{
		client: client,
		scorer: severity.NewScorer(),
		st:     st,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// IngestorOption configures the Ingestor.
type IngestorOption func(*Ingestor)

// WithIngestLogger configures structured logging.
func WithIngestLogger(l *slog.Logger) IngestorOption {
	return func(i *Ingestor) { i.logger = l }
}

// WithScorer substitutes the severity scorer.
func WithScorer(s *severity.Scorer) IngestorOption {
	return func(i *Ingestor) { i.scorer = s }
}

// IngestMonth pulls one country-month, scores the batch, and upserts it.
// Severity is batch-relative, so the whole month is scored in one pass
// before anything is written. Returns the number of records stored.
func (i *Ingestor) IngestMonth(ctx context.Context, country string, year, month int) (int, error) {
	events, err := i.client.FetchMonth(ctx, country, year, month)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		i.logger.Info("nothing to ingest", "country", country, "year", year, "month", month)
		return 0, nil
	}

	i.scorer.Score(events)

	if err := i.st.UpsertEvents(ctx, events); err != nil {
		return 0, fmt.Errorf("ingest: persist %d events: %w", len(events), err)
	}
	i.logger.Info("month ingested", "country", country, "year", year, "month", month, "events", len(events))
	return len(events), nil
}
