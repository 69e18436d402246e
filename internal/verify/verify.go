// Package verify grounds generated briefs against the event repository:
// every identifier a brief cites must exist in the slice it was generated
// from. Verification is read-only and diagnostic; it never touches the
// brief text.
package verify

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"argus/internal/compose"
	"argus/internal/event"
	"argus/internal/pipeline"
	"argus/internal/store"
)

// idPattern matches event identifiers as whole words: two or more
// uppercase letters immediately followed by two or more digits,
// e.g. MEX102349.
var idPattern = regexp.MustCompile(`\b([A-Z]{2,}[0-9]{2,})\b`)

// Verifier checks cited identifiers against slice ground truth.
type Verifier struct {
	st store.Store
}

// New returns a Verifier over the given repository.
func New(st store.Store) *Verifier {
	return &Verifier{st: st}
}

// ExtractIDs returns the distinct identifier tokens cited in text, after
// stripping the previous-month context section. If the current-month data
// marker is present, only text at and after the marker is scanned, so IDs
// quoted from last month's summary are never flagged. Zero matches is a
// valid result, not an error.
func ExtractIDs(text string) []string {
	if idx := strings.Index(text, compose.MarkerThisMonth); idx >= 0 {
		text = text[idx:]
	}
	seen := make(map[string]bool)
	var out []string
	for _, m := range idPattern.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

// Verify returns the sorted set of identifiers cited in text that do not
// exist in the slice. An empty result means every citation is grounded.
// Safe to call repeatedly; same inputs give the same answer.
func (v *Verifier) Verify(ctx context.Context, text string, sl event.Slice) ([]string, error) {
	cited := ExtractIDs(text)
	if len(cited) == 0 {
		return nil, nil
	}

	valid, err := v.st.ValidIDs(ctx, sl)
	if err != nil {
		return nil, fmt.Errorf("verify: valid ids for %s: %w: %v", sl, pipeline.ErrDataUnavailable, err)
	}

	var missing []string
	for _, id := range cited {
		if !valid[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
