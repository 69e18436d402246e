// Package mcp exposes the pipeline to agent hosts over the Model Context
// Protocol: brief generation, citation verification, hallucination
// evaluation, and slice reporting as callable tools.
package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"argus/internal/brief"
	"argus/internal/event"
	"argus/internal/halluc"
	"argus/internal/logging"
	"argus/internal/store"
	"argus/internal/verify"
)

// Server wraps the MCP SDK server around the pipeline components.
type Server struct {
	MCPServer *sdkmcp.Server

	st       store.Store
	orch     *brief.Orchestrator
	verifier *verify.Verifier
	eval     *halluc.Evaluator
}

// NewServer creates an MCP server with the pipeline tools registered.
// The evaluator may be nil; evaluate_hallucination then reports an error
// instead of panicking.
func NewServer(st store.Store, orch *brief.Orchestrator, eval *halluc.Evaluator) *Server {
	s := &Server{
		st:       st,
		orch:     orch,
		verifier: verify.New(st),
		eval:     eval,
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "argus", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves the MCP protocol over the given transport until ctx ends.
func (s *Server) Run(ctx context.Context, t sdkmcp.Transport) error {
	return s.MCPServer.Run(ctx, t)
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "generate_brief",
		Description: "Generate one conflict brief for a country, month, and optional event type. Returns the brief text and any unverifiable citations.",
	}, s.handleGenerateBrief)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "monthly_briefs",
		Description: "Run the full monthly cycle: five event-type briefs plus the country overview. Persists and returns the bundle.",
	}, s.handleMonthlyBriefs)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "verify_citations",
		Description: "Check every event ID cited in a text against the stored events of a slice. Returns the IDs that do not exist.",
	}, s.handleVerifyCitations)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "evaluate_hallucination",
		Description: "Estimate the hallucination rate of a summary by quizzing a model against the trusted corpus.",
	}, s.handleEvaluateHallucination)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "slice_report",
		Description: "Fetch the reporting views for a slice: ordered events, severity breakdowns, and regional aggregates.",
	}, s.handleSliceReport)
}

// --- Tool input/output types ---

type generateBriefInput struct {
	Country        string  `json:"country" jsonschema:"country name as stored in the feed"`
	Year           int     `json:"year" jsonschema:"calendar year"`
	Month          int     `json:"month" jsonschema:"calendar month 1-12"`
	EventType      string  `json:"event_type,omitempty" jsonschema:"event type name (e.g. Riots); empty = all events"`
	Context        string  `json:"context,omitempty" jsonschema:"previous-period brief to chain from"`
	CheckCitations bool    `json:"check_citations,omitempty" jsonschema:"verify cited event IDs against the repository"`
	Temperature    float64 `json:"temperature,omitempty" jsonschema:"sampling temperature"`
}

type generateBriefOutput struct {
	Brief         string   `json:"brief"`
	MissingIDs    []string `json:"missing_ids,omitempty"`
	VerifySkipped bool     `json:"verify_skipped,omitempty"`
}

type monthlyBriefsInput struct {
	Country        string `json:"country" jsonschema:"country name as stored in the feed"`
	Year           int    `json:"year" jsonschema:"calendar year"`
	Month          int    `json:"month" jsonschema:"calendar month 1-12"`
	IncludeContext bool   `json:"include_context,omitempty" jsonschema:"chain from last month's persisted bundle"`
	CheckCitations bool   `json:"check_citations,omitempty" jsonschema:"verify cited event IDs against the repository"`
	Concurrency    int    `json:"concurrency,omitempty" jsonschema:"parallel per-type generations (default serial)"`
}

type monthlyBriefsOutput struct {
	RunID  string                       `json:"run_id"`
	Briefs map[string]store.BriefRecord `json:"briefs"`
}

type verifyCitationsInput struct {
	Text    string `json:"text" jsonschema:"generated text to scan for event IDs"`
	Country string `json:"country" jsonschema:"country name as stored in the feed"`
	Year    int    `json:"year" jsonschema:"calendar year"`
	Month   int    `json:"month" jsonschema:"calendar month 1-12"`
	Type    string `json:"event_type,omitempty" jsonschema:"optional event type filter"`
	State   string `json:"state,omitempty" jsonschema:"optional admin1 filter"`
}

type verifyCitationsOutput struct {
	Cited   []string `json:"cited"`
	Missing []string `json:"missing,omitempty"`
}

type evaluateInput struct {
	Summary     string `json:"summary" jsonschema:"the brief under test"`
	Corpus      string `json:"corpus" jsonschema:"trusted source text to answer from"`
	Questions   int    `json:"questions,omitempty" jsonschema:"question count override (0 = derive from summary length)"`
	Iterations  int    `json:"iterations,omitempty" jsonschema:"answer passes per batch (default 1)"`
	Concurrency int    `json:"concurrency,omitempty" jsonschema:"parallel answer calls (default 4)"`
}

type sliceReportInput struct {
	Country string `json:"country" jsonschema:"country name as stored in the feed"`
	Year    int    `json:"year" jsonschema:"calendar year"`
	Month   int    `json:"month" jsonschema:"calendar month 1-12"`
	Type    string `json:"event_type,omitempty" jsonschema:"optional event type filter"`
	State   string `json:"state,omitempty" jsonschema:"optional admin1 filter"`
	Limit   int    `json:"limit,omitempty" jsonschema:"max event rows (default 400)"`
}

// --- Tool handlers ---

func (s *Server) handleGenerateBrief(ctx context.Context, _ *sdkmcp.CallToolRequest, input generateBriefInput) (*sdkmcp.CallToolResult, generateBriefOutput, error) {
	res, err := s.orch.Summarize(ctx, brief.Request{
		Slice:          event.Slice{Country: input.Country, Year: input.Year, Month: input.Month},
		Type:           event.ParseType(input.EventType),
		Context:        input.Context,
		CheckCitations: input.CheckCitations,
		Temperature:    input.Temperature,
	})
	if err != nil {
		return nil, generateBriefOutput{}, fmt.Errorf("generate_brief: %w", err)
	}
	return nil, generateBriefOutput{
		Brief:         res.Brief,
		MissingIDs:    res.MissingIDs,
		VerifySkipped: res.VerifySkipped,
	}, nil
}

func (s *Server) handleMonthlyBriefs(ctx context.Context, _ *sdkmcp.CallToolRequest, input monthlyBriefsInput) (*sdkmcp.CallToolResult, monthlyBriefsOutput, error) {
	logger := logging.New("mcp-briefs")
	bundle, err := s.orch.MonthlyBriefs(ctx, brief.MasterRequest{
		Country:        input.Country,
		Year:           input.Year,
		Month:          input.Month,
		IncludeContext: input.IncludeContext,
		CheckCitations: input.CheckCitations,
		Concurrency:    input.Concurrency,
	})
	if err != nil {
		return nil, monthlyBriefsOutput{}, fmt.Errorf("monthly_briefs: %w", err)
	}
	if err := s.st.SaveBundle(ctx, bundle); err != nil {
		return nil, monthlyBriefsOutput{}, fmt.Errorf("monthly_briefs: persist: %w", err)
	}
	logger.Info("bundle persisted", "run_id", bundle.RunID, "country", bundle.Country)
	return nil, monthlyBriefsOutput{RunID: bundle.RunID, Briefs: bundle.Briefs}, nil
}

func (s *Server) handleVerifyCitations(ctx context.Context, _ *sdkmcp.CallToolRequest, input verifyCitationsInput) (*sdkmcp.CallToolResult, verifyCitationsOutput, error) {
	sl := event.Slice{
		Country: input.Country,
		Year:    input.Year,
		Month:   input.Month,
		Type:    input.Type,
		State:   input.State,
	}
	missing, err := s.verifier.Verify(ctx, input.Text, sl)
	if err != nil {
		return nil, verifyCitationsOutput{}, fmt.Errorf("verify_citations: %w", err)
	}
	return nil, verifyCitationsOutput{
		Cited:   verify.ExtractIDs(input.Text),
		Missing: missing,
	}, nil
}

func (s *Server) handleEvaluateHallucination(ctx context.Context, _ *sdkmcp.CallToolRequest, input evaluateInput) (*sdkmcp.CallToolResult, halluc.Result, error) {
	if s.eval == nil {
		return nil, halluc.Result{}, fmt.Errorf("evaluate_hallucination: no evaluator configured")
	}
	res, err := s.eval.Evaluate(ctx, halluc.Request{
		Summary:     input.Summary,
		Corpus:      input.Corpus,
		Questions:   input.Questions,
		Iterations:  input.Iterations,
		Concurrency: input.Concurrency,
	})
	if err != nil {
		return nil, halluc.Result{}, fmt.Errorf("evaluate_hallucination: %w", err)
	}
	return nil, *res, nil
}

func (s *Server) handleSliceReport(ctx context.Context, _ *sdkmcp.CallToolRequest, input sliceReportInput) (*sdkmcp.CallToolResult, brief.SliceReport, error) {
	sl := event.Slice{
		Country: input.Country,
		Year:    input.Year,
		Month:   input.Month,
		Type:    input.Type,
		State:   input.State,
	}
	report, err := s.orch.Report(ctx, sl, input.Limit)
	if err != nil {
		return nil, brief.SliceReport{}, fmt.Errorf("slice_report: %w", err)
	}
	return nil, *report, nil
}
