package halluc

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"argus/internal/llm"
	"argus/internal/logging"
	"argus/internal/pipeline"
)

// Evaluator measures how much of a generated brief a model can reproduce
// from the trusted corpus alone. Low agreement reads as hallucination.
type Evaluator struct {
	gw     llm.Gateway
	logger *slog.Logger
	// manual scores by exact string match against the answer key instead
	// of a grading model call.
	manual      bool
	temperature float64
	maxTokens   int
}

// EvalOption configures the Evaluator.
type EvalOption func(*Evaluator)

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) EvalOption {
	return func(e *Evaluator) { e.logger = l }
}

// WithManualScoring switches grading from a model pass to exact string
// comparison of answers against the key.
func WithManualScoring() EvalOption {
	return func(e *Evaluator) { e.manual = true }
}

// WithGenerationParams sets temperature and token budget for the model
// calls the evaluation makes.
func WithGenerationParams(temperature float64, maxTokens int) EvalOption {
	return func(e *Evaluator) {
		e.temperature = temperature
		e.maxTokens = maxTokens
	}
}

// NewEvaluator returns an Evaluator over the given gateway.
func NewEvaluator(gw llm.Gateway, opts ...EvalOption) *Evaluator {
	e := &Evaluator{
		gw:          gw,
		logger:      logging.Discard(),
		temperature: 0.2,
		maxTokens:   3000,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request is one evaluation run.
type Request struct {
	// Summary is the brief under test; questions are generated from it.
	Summary string
	// Corpus is the trusted source text the questions are answered from.
	Corpus string
	// Questions overrides the derived question count when > 0. It is
	// capped at the summary's sentence count before rounding.
	Questions int
	// Iterations is how many times each batch is answered. <= 0 means 1.
	Iterations int
	// Concurrency bounds the parallel answer calls. <= 0 means 4.
	Concurrency int
}

// Result is a finished evaluation. FailedBatches counts answer batches
// that errored in generation or scoring; their questions are excluded
// from the rate's denominator rather than counted as wrong.
type Result struct {
	HallucinationRate float64
	TotalQuestions    int
	CorrectAnswers    int
	IncorrectAnswers  int
	TotalBatches      int
	FailedBatches     int
	Iterations        int
}

// generateBatch asks for n fresh questions, retrying once on a malformed
// response. Questions already asked are passed along so the model does
// not repeat them.
func (e *Evaluator) generateBatch(ctx context.Context, summary string, n int, asked []Question) ([]Question, error) {
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		text, err := e.gw.Generate(ctx, llm.Request{
			Prompt:      generationPrompt(summary, n, asked),
			Temperature: e.temperature,
			MaxTokens:   e.maxTokens,
		})
		if err != nil {
			lastErr = err
			e.logger.Warn("question generation call failed", "attempt", attempt, "err", err)
			continue
		}
		var batch []Question
		if err := readTaggedJSON(text, &batch); err != nil {
			lastErr = err
			e.logger.Warn("question batch malformed", "attempt", attempt, "err", err)
			continue
		}
		if len(batch) == 0 {
			lastErr = fmt.Errorf("halluc: empty question batch: %w", pipeline.ErrGenerationFormat)
			continue
		}
		return batch, nil
	}
	return nil, lastErr
}

// GenerateQuestions builds the full question set in batches. A batch that
// fails both attempts is skipped; only a fully empty set is an error.
func (e *Evaluator) GenerateQuestions(ctx context.Context, summary string, total int) ([]Question, error) {
	var questions []Question
	for remaining := total; remaining > 0; {
		n := remaining
		if n > BatchSize {
			n = BatchSize
		}
		batch, err := e.generateBatch(ctx, summary, n, questions)
		if err != nil {
			e.logger.Warn("skipping question batch", "size", n, "err", err)
			remaining -= n
			continue
		}
		questions = append(questions, batch...)
		remaining -= len(batch)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("halluc: question generation produced nothing: %w", pipeline.ErrGenerationFormat)
	}
	return questions, nil
}

// answerBatch answers one batch against the corpus and returns how many
// answers match the key.
func (e *Evaluator) answerBatch(ctx context.Context, batch []Question, corpus string) (int, error) {
	text, err := e.gw.Generate(ctx, llm.Request{
		Prompt:      answerPrompt(batch, corpus),
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return 0, fmt.Errorf("halluc: answer call: %w", err)
	}
	var answers []Answer
	if err := readTaggedJSON(text, &answers); err != nil {
		return 0, err
	}
	if e.manual {
		return scoreManually(answers, batch), nil
	}
	return e.scoreWithModel(ctx, answers, batch)
}

// scoreManually counts answers whose text exactly matches the key for the
// same question.
func scoreManually(answers []Answer, key []Question) int {
	byQuestion := make(map[string]string, len(key))
	for _, q := range key {
		byQuestion[strings.TrimSpace(q.Question)] = strings.TrimSpace(q.CorrectAnswer)
	}
	correct := 0
	for _, a := range answers {
		if want, ok := byQuestion[strings.TrimSpace(a.Question)]; ok && want == strings.TrimSpace(a.Answer) {
			correct++
		}
	}
	return correct
}

// scoreWithModel hands answers and key to a grading call and parses the
// "result N" response.
func (e *Evaluator) scoreWithModel(ctx context.Context, answers []Answer, key []Question) (int, error) {
	text, err := e.gw.Generate(ctx, llm.Request{
		Prompt:      gradingPrompt(answers, key),
		Temperature: e.temperature,
		MaxTokens:   200,
	})
	if err != nil {
		return 0, fmt.Errorf("halluc: grading call: %w", err)
	}
	idx := strings.Index(text, "result")
	if idx < 0 {
		return 0, fmt.Errorf("halluc: no 'result' tag in grading response: %w", pipeline.ErrGenerationFormat)
	}
	fields := strings.Fields(text[idx+len("result"):])
	if len(fields) == 0 {
		return 0, fmt.Errorf("halluc: grading response has no count: %w", pipeline.ErrGenerationFormat)
	}
	n, err := strconv.Atoi(strings.Trim(fields[0], ".,"))
	if err != nil {
		return 0, fmt.Errorf("halluc: grading count %q: %w", fields[0], pipeline.ErrGenerationFormat)
	}
	if n < 0 || n > len(key) {
		return 0, fmt.Errorf("halluc: grading count %d out of range: %w", n, pipeline.ErrGenerationFormat)
	}
	return n, nil
}

// Evaluate runs the full cycle: derive the question count, generate the
// set, then answer every batch Iterations times in parallel. Failed
// batches are excluded from the denominator, so the rate reflects only
// questions that were actually answered.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*Result, error) {
	total := questionCount(req.Summary, req.Questions)
	if total == 0 {
		return nil, fmt.Errorf("halluc: summary too short to question: %w", pipeline.ErrGenerationFormat)
	}
	iterations := req.Iterations
	if iterations <= 0 {
		iterations = 1
	}
	workers := req.Concurrency
	if workers <= 0 {
		workers = 4
	}

	questions, err := e.GenerateQuestions(ctx, req.Summary, total)
	if err != nil {
		return nil, err
	}
	e.logger.Info("question set ready", "requested", total, "generated", len(questions))

	var batches [][]Question
	for i := 0; i < len(questions); i += BatchSize {
		end := i + BatchSize
		if end > len(questions) {
			end = len(questions)
		}
		batches = append(batches, questions[i:end])
	}

	var mu sync.Mutex
	var correct, answered, failed int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for iter := 0; iter < iterations; iter++ {
		for bi, batch := range batches {
			g.Go(func() error {
				n, err := e.answerBatch(gctx, batch, req.Corpus)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					e.logger.Warn("answer batch failed", "iteration", iter, "batch", bi, "err", err)
					failed++
					return nil
				}
				correct += n
				answered += len(batch)
				return nil
			})
		}
	}
	_ = g.Wait() // batch failures are tallied, never propagated

	if answered == 0 {
		return nil, fmt.Errorf("halluc: every answer batch failed: %w", pipeline.ErrProvider)
	}

	return &Result{
		HallucinationRate: 1 - float64(correct)/float64(answered),
		TotalQuestions:    answered,
		CorrectAnswers:    correct,
		IncorrectAnswers:  answered - correct,
		TotalBatches:      len(batches) * iterations,
		FailedBatches:     failed,
		Iterations:        iterations,
	}, nil
}
