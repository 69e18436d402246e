// Package halluc estimates a hallucination rate for a finished brief: it
// generates multiple-choice comprehension questions from the brief,
// answers them against a trusted corpus, and scores agreement.
package halluc

import (
	"encoding/json"
	"fmt"
	"strings"

	"argus/internal/pipeline"
)

// BatchSize is the fixed question-generation and answering batch size.
// Scoring is always per batch: a batch's answers are checked against that
// same batch's keys, never across batches.
const BatchSize = 10

// Question is one generated multiple-choice item. Options holds exactly 4
// distinct answer texts; CorrectAnswer is one of them.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// Answer mirrors Question on the answering side.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// questionCount derives how many questions a summary supports. With
// requested <= 0 the count comes from the summary's sentence-terminal
// punctuation; an explicit request is capped at that sentence count.
// Either way the result rounds to the nearest multiple of ten, half-up.
func questionCount(summary string, requested int) int {
	sentences := strings.Count(summary, ".") +
		strings.Count(summary, "!") +
		strings.Count(summary, "?")

	n := requested
	if n <= 0 || n > sentences {
		n = sentences
	}

	if rem := n % 10; rem != 0 {
		if rem >= 5 {
			n = (n/10 + 1) * 10
		} else {
			n = (n / 10) * 10
		}
	}
	return n
}

// readTaggedJSON extracts the JSON array from a model response of the
// form `json[...]` and unmarshals it into dst. Anything else is a
// GenerationFormatError.
func readTaggedJSON(response string, dst any) error {
	start := strings.Index(response, "json[")
	if start < 0 {
		return fmt.Errorf("halluc: no 'json[' tag in response: %w", pipeline.ErrGenerationFormat)
	}
	payload := strings.TrimSpace(response[start+len("json"):])
	end := strings.LastIndex(payload, "]")
	if !strings.HasPrefix(payload, "[") || end < 0 {
		return fmt.Errorf("halluc: JSON block not bracketed: %w", pipeline.ErrGenerationFormat)
	}
	if err := json.Unmarshal([]byte(payload[:end+1]), dst); err != nil {
		return fmt.Errorf("halluc: parse JSON block: %w: %v", pipeline.ErrGenerationFormat, err)
	}
	return nil
}

func generationPrompt(summary string, n int, asked []Question) string {
	var prev string
	if len(asked) > 0 {
		var lines []string
		for _, q := range asked {
			lines = append(lines, "- "+q.Question)
		}
		prev = fmt.Sprintf("The following questions have already been asked and MUST NOT be repeated:\n\n%s\n",
			strings.Join(lines, "\n"))
	}

	return fmt.Sprintf(`You are a multiple-choice question generation AI.

%s
Based on the following summary, generate exactly %d multiple choice questions in JSON format.
Each question should be clear, concise, and test comprehension of the summary content.

Each question object must include:
- "question": the question text
- "options": a list of 4 plausible answers (strings)
- "correct_answer": one of the 4 options, marked as the correct one

The output must be a valid JSON array preceded by a "json" tag.
Output format:
json[
  {
    "question": "...",
    "options": ["...", "...", "...", "..."],
    "correct_answer": "..."
  },
  ...
]

Summary:
%s`, prev, n, summary)
}

func answerPrompt(questions []Question, corpus string) string {
	stripped := make([]map[string]any, len(questions))
	for i, q := range questions {
		stripped[i] = map[string]any{"question": q.Question, "options": q.Options}
	}
	blob, _ := json.Marshal(stripped)

	return fmt.Sprintf(`You are taking a multiple-choice test based on a corpus of text.
Your task is to answer each of the questions to the best of your ability,
using ONLY the corpus text. Your output must be a valid JSON array preceded
by a "json" tag, with your answer to each question.

Output format:
json[
  {
    "question": "...",
    "answer": "..."
  },
  ...
]

Corpus text: %s
Questions: %s`, corpus, string(blob))
}

func gradingPrompt(answers []Answer, solutions []Question) string {
	ansBlob, _ := json.Marshal(answers)
	solStripped := make([]map[string]string, len(solutions))
	for i, q := range solutions {
		solStripped[i] = map[string]string{"question": q.Question, "correct_answer": q.CorrectAnswer}
	}
	solBlob, _ := json.Marshal(solStripped)

	return fmt.Sprintf(`You are evaluating multiple-choice test answers.
Your task is to assess the correctness of each answer based on the provided solutions.
Your output must be the total number of correct answers, preceded by a "result" tag.

Output format:
result <number_of_correct_answers>

Example of output format:
result 5

Answers: %s
Solutions: %s`, string(ansBlob), string(solBlob))
}
