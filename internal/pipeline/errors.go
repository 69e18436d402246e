// Package pipeline holds the error taxonomy shared by every stage of the
// brief-generation pipeline. Stages wrap these sentinels with %w so callers
// can classify failures with errors.Is regardless of which stage they
// surfaced from.
package pipeline

import "errors"

var (
	// ErrDataUnavailable means the event repository was unreachable or a
	// slice query failed. Never retried by the core; the slice is a hard
	// failure for the caller.
	ErrDataUnavailable = errors.New("pipeline: data unavailable")

	// ErrProvider is an LLM gateway failure: authentication, malformed
	// response, or transport. The capacity variant is retried inside the
	// gateway; by the time this surfaces the retries are spent.
	ErrProvider = errors.New("pipeline: provider error")

	// ErrGenerationFormat means model output failed to parse as the
	// expected structured format. Fatal for the batch that produced it,
	// not for the whole run.
	ErrGenerationFormat = errors.New("pipeline: generation format error")

	// ErrConfiguration is a caller-given bad argument: unknown style key,
	// out-of-range month, missing template slot. Never retried.
	ErrConfiguration = errors.New("pipeline: configuration error")
)
