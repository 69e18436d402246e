// Package brief drives the generation pipeline: fetch a slice, compute
// metrics, compose the prompt, call the gateway, and optionally verify
// citations. One pass per (country, year, month, event-type) request.
package brief

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"argus/internal/compose"
	"argus/internal/event"
	"argus/internal/llm"
	"argus/internal/logging"
	"argus/internal/metrics"
	"argus/internal/pipeline"
	"argus/internal/store"
	"argus/internal/verify"
)

// Pipeline states. A request walks them in order; any failure drops into
// stateError and surfaces with the failing state attached.
type state string

const (
	stateFetchSlice     state = "FETCH_SLICE"
	stateComputeMetrics state = "COMPUTE_METRICS"
	stateComposePrompt  state = "COMPOSE_PROMPT"
	stateGenerate       state = "GENERATE"
	stateVerify         state = "VERIFY"
	stateDone           state = "DONE"
	stateError          state = "ERROR"
)

// DefaultMaxResults caps how many events one slice fetch feeds a prompt.
const DefaultMaxResults = 400

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	st       store.Store
	agg      *metrics.Aggregator
	comp     *compose.Composer
	gw       llm.Gateway
	verifier *verify.Verifier
	logger   *slog.Logger
}

// Option configures the Orchestrator during construction.
type Option func(*Orchestrator)

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithComposer substitutes the prompt composer (tests).
func WithComposer(c *compose.Composer) Option {
	return func(o *Orchestrator) { o.comp = c }
}

// New creates an Orchestrator over a repository and a gateway.
func New(st store.Store, gw llm.Gateway, opts ...Option) (*Orchestrator, error) {
	comp, err := compose.NewComposer()
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		st:       st,
		agg:      metrics.NewAggregator(st),
		comp:     comp,
		gw:       gw,
		verifier: verify.New(st),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Request is one brief-generation pass.
type Request struct {
	Slice event.Slice
	// Type selects the event-type family. TypeUnknown with an empty
	// slice type filter produces the generic "all events" brief.
	Type event.Type
	// Context is the previous-period summary, "" for none. Its presence
	// selects the context-aware template variant.
	Context string
	// CheckCitations gates the VERIFY stage.
	CheckCitations bool
	MaxResults     int
	Temperature    float64
	MaxTokens      int
}

// Result is a finished pass. VerifySkipped is set when verification was
// requested but its ground-truth query failed; that is "verification
// skipped", never "all citations invalid".
type Result struct {
	Brief         string
	Bullets       string
	MissingIDs    []string
	VerifySkipped bool
}

func (o *Orchestrator) fail(s state, sl event.Slice, err error) error {
	o.logger.Error("pipeline failed", "state", string(s), "slice", sl.String(), "err", err)
	return fmt.Errorf("brief: %s at %s: %w", sl, s, err)
}

// Summarize runs the full pipeline for one request.
func (o *Orchestrator) Summarize(ctx context.Context, req Request) (*Result, error) {
	if err := req.Slice.Validate(); err != nil {
		return nil, o.fail(stateError, req.Slice, fmt.Errorf("%w: %v", pipeline.ErrConfiguration, err))
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	sl := req.Slice
	if req.Type != event.TypeUnknown {
		sl.Type = req.Type.String()
	}

	// FETCH_SLICE
	o.logger.Debug("pipeline state", "state", string(stateFetchSlice), "slice", sl.String())
	rows, err := o.st.QueryEvents(ctx, sl, maxResults)
	if err != nil {
		return nil, o.fail(stateFetchSlice, sl, fmt.Errorf("%w: %v", pipeline.ErrDataUnavailable, err))
	}
	bullets := compose.BuildBullets(rows)

	// COMPUTE_METRICS
	o.logger.Debug("pipeline state", "state", string(stateComputeMetrics), "slice", sl.String())
	var snap metrics.Snapshot
	if req.Type != event.TypeUnknown {
		snap, err = o.agg.ForType(ctx, req.Type, req.Slice)
	} else {
		snap, err = o.agg.Generic(ctx, sl)
	}
	if err != nil {
		return nil, o.fail(stateComputeMetrics, sl, err)
	}

	// COMPOSE_PROMPT
	o.logger.Debug("pipeline state", "state", string(stateComposePrompt), "slice", sl.String())
	style := compose.StyleFor(req.Type, req.Context != "")
	if req.Type == event.TypeUnknown && sl.State != "" {
		// A state-scoped request without a type filter gets the regional
		// template instead of the generic country one.
		style = "state_general"
	}
	prompt, err := o.comp.Compose(style, compose.Slots{
		Country:      sl.Country,
		EventType:    sl.Type,
		Month:        sl.Month,
		Year:         sl.Year,
		EventsBlock:  bullets,
		MetricsBlock: snap.MetricsLine(),
		ContextBlock: req.Context,
		State:        sl.State,
	})
	if err != nil {
		return nil, o.fail(stateComposePrompt, sl, err)
	}

	// GENERATE. Provider retries live in the gateway, not here.
	o.logger.Debug("pipeline state", "state", string(stateGenerate), "slice", sl.String())
	text, err := o.gw.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, o.fail(stateGenerate, sl, err)
	}

	res := &Result{Brief: text, Bullets: bullets}

	// VERIFY is optional and diagnostic; it never blocks DONE.
	if req.CheckCitations {
		o.logger.Debug("pipeline state", "state", string(stateVerify), "slice", sl.String())
		missing, verr := o.verifier.Verify(ctx, text, sl)
		switch {
		case errors.Is(verr, pipeline.ErrDataUnavailable):
			o.logger.Warn("verification skipped", "slice", sl.String(), "err", verr)
			res.VerifySkipped = true
		case verr != nil:
			return nil, o.fail(stateVerify, sl, verr)
		default:
			res.MissingIDs = missing
		}
	}

	o.logger.Debug("pipeline state", "state", string(stateDone), "slice", sl.String())
	return res, nil
}

// OverviewRequest weaves already-generated per-type briefs into one
// country overview.
type OverviewRequest struct {
	Country string
	Year    int
	Month   int
	// SubBriefs maps event-type name to brief text. Missing entries are
	// omitted from the synthesis block, not errors.
	SubBriefs map[string]string
	// PrevOverview is last month's overview, "" for none.
	PrevOverview   string
	CheckCitations bool
	Temperature    float64
	MaxTokens      int
}

// Overview generates the nation-wide synthesis brief. The prompt instructs
// the model not to introduce facts beyond the five sections; that
// constraint is prompt-level only, so citation verification (against the
// full country slice, no type filter) is the mechanical backstop when
// enabled.
func (o *Orchestrator) Overview(ctx context.Context, req OverviewRequest) (*Result, error) {
	sl := event.Slice{Year: req.Year, Month: req.Month, Country: req.Country}
	if err := sl.Validate(); err != nil {
		return nil, o.fail(stateError, sl, fmt.Errorf("%w: %v", pipeline.ErrConfiguration, err))
	}

	prompt, err := o.comp.Compose("overview", compose.Slots{
		Country:        req.Country,
		Month:          req.Month,
		Year:           req.Year,
		SubBriefsBlock: compose.BuildSubBriefs(req.SubBriefs),
		ContextBlock:   req.PrevOverview,
	})
	if err != nil {
		return nil, o.fail(stateComposePrompt, sl, err)
	}

	text, err := o.gw.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, o.fail(stateGenerate, sl, err)
	}

	res := &Result{Brief: text}
	if req.CheckCitations {
		missing, verr := o.verifier.Verify(ctx, text, sl)
		switch {
		case errors.Is(verr, pipeline.ErrDataUnavailable):
			o.logger.Warn("verification skipped", "slice", sl.String(), "err", verr)
			res.VerifySkipped = true
		case verr != nil:
			return nil, o.fail(stateVerify, sl, verr)
		default:
			res.MissingIDs = missing
		}
	}
	return res, nil
}
