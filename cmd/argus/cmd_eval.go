package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"argus/internal/halluc"
	"argus/internal/logging"
)

var evalFlags struct {
	summaryFile string
	corpusFile  string
	questions   int
	iterations  int
	concurrency int
	manual      bool
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Estimate the hallucination rate of a generated brief",
	Long: `Generates multiple-choice questions from the brief, answers them against
the trusted corpus, and reports the share of answers that disagree.`,
	RunE: runEval,
}

func init() {
	f := evalCmd.Flags()
	f.StringVar(&evalFlags.summaryFile, "summary", "", "File with the brief under test (required)")
	f.StringVar(&evalFlags.corpusFile, "corpus", "", "File with the trusted source text (required)")
	f.IntVar(&evalFlags.questions, "questions", 0, "Question count override (0 = derive from summary)")
	f.IntVar(&evalFlags.iterations, "iterations", 1, "Answer passes per question batch")
	f.IntVar(&evalFlags.concurrency, "concurrency", 4, "Parallel answer calls")
	f.BoolVar(&evalFlags.manual, "manual-scoring", false, "Score by exact match instead of a grading model call")

	_ = evalCmd.MarkFlagRequired("summary")
	_ = evalCmd.MarkFlagRequired("corpus")
}

func runEval(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gw, err := cfg.Gateway()
	if err != nil {
		return err
	}

	summary, err := os.ReadFile(evalFlags.summaryFile)
	if err != nil {
		return fmt.Errorf("read summary: %w", err)
	}
	corpus, err := os.ReadFile(evalFlags.corpusFile)
	if err != nil {
		return fmt.Errorf("read corpus: %w", err)
	}

	opts := []halluc.EvalOption{halluc.WithLogger(logging.New("halluc"))}
	if evalFlags.manual {
		opts = append(opts, halluc.WithManualScoring())
	}
	eval := halluc.NewEvaluator(gw, opts...)

	res, err := eval.Evaluate(cmd.Context(), halluc.Request{
		Summary:     string(summary),
		Corpus:      string(corpus),
		Questions:   evalFlags.questions,
		Iterations:  evalFlags.iterations,
		Concurrency: evalFlags.concurrency,
	})
	if err != nil {
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.AppendRows([]table.Row{
		{"Hallucination rate", fmt.Sprintf("%.1f%%", res.HallucinationRate*100)},
		{"Questions answered", res.TotalQuestions},
		{"Correct", res.CorrectAnswers},
		{"Incorrect", res.IncorrectAnswers},
		{"Iterations", res.Iterations},
		{"Failed batches", fmt.Sprintf("%d of %d", res.FailedBatches, res.TotalBatches)},
	})
	tw.Render()
	return nil
}
