// Package compose assembles LLM prompts from templates and retrieved slice
// data. Template selection is deterministic: the event-type family picks
// the template, the presence of prior-month context picks the variant.
package compose

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"argus/internal/event"
	"argus/internal/pipeline"
	"argus/internal/store"
)

// MarkerThisMonth delimits the current-month data section inside a
// composed prompt. The citation verifier only scans text at and after
// this marker, so identifiers quoted from the previous-month context are
// never flagged.
const MarkerThisMonth = markerThisMonth

// Slots carries the named substitutions for one prompt.
type Slots struct {
	Country        string
	EventType      string // "" renders as "all events"
	Month          int    // 1-12
	Year           int
	EventsBlock    string // "" renders as "N/A"
	MetricsBlock   string // "" renders as "N/A"
	ContextBlock   string // "" renders as "N/A"
	State          string // required only by state-scoped templates
	SubBriefsBlock string // required only by the overview template
}

// templateData is what templates actually see: Slots after defaulting,
// with the resolved month name.
type templateData struct {
	Country        string
	EventType      string
	MonthName      string
	MonthNum       int
	Year           int
	EventsBlock    string
	MetricsBlock   string
	ContextBlock   string
	State          string
	SubBriefsBlock string
}

// Composer renders prompts from an immutable template set.
type Composer struct {
	templates map[string]*template.Template
	sources   map[string]string
}

// NewComposer returns a Composer over the default template set.
func NewComposer() (*Composer, error) {
	return NewComposerWith(defaultTemplates)
}

// NewComposerWith parses a caller-supplied template set, so tests can
// substitute alternates.
func NewComposerWith(sources map[string]string) (*Composer, error) {
	parsed := make(map[string]*template.Template, len(sources))
	for name, src := range sources {
		t, err := template.New(name).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("compose: parse template %s: %w", name, err)
		}
		parsed[name] = t
	}
	return &Composer{templates: parsed, sources: sources}, nil
}

// StyleFor picks the template key for an event-type family and context
// presence. Unknown families fall back to the generic pair.
func StyleFor(t event.Type, hasContext bool) string {
	base := ""
	switch t {
	case event.TypeViolenceAgainstCivilians:
		base = "vac"
	case event.TypeProtests:
		base = "protests"
	case event.TypeRiots:
		base = "riots"
	case event.TypeBattles:
		base = "battles"
	case event.TypeStrategicDevelopments:
		base = "strategic"
	default:
		if hasContext {
			return "etype"
		}
		return "etype_no_context"
	}
	if hasContext {
		return base + "_with_context"
	}
	return base
}

// requiredSlots maps each slot name a template may reference to the check
// that it was actually supplied. Slots with "N/A" defaults are always
// filled, so only the non-defaulting ones can fail.
func (c *Composer) checkRequired(style string, d templateData) error {
	src := c.sources[style]
	required := map[string]string{
		".Country":        d.Country,
		".State":          d.State,
		".SubBriefsBlock": d.SubBriefsBlock,
	}
	for slot, value := range required {
		if strings.Contains(src, slot) && value == "" {
			return fmt.Errorf("compose: style %s requires slot %s: %w",
				style, strings.TrimPrefix(slot, "."), pipeline.ErrConfiguration)
		}
	}
	return nil
}

// Compose renders the prompt for a style key. An unknown style or an
// out-of-range month is a ConfigurationError; retrying cannot fix either.
func (c *Composer) Compose(style string, sl Slots) (string, error) {
	tmpl, ok := c.templates[style]
	if !ok {
		return "", fmt.Errorf("compose: unknown style %q: %w", style, pipeline.ErrConfiguration)
	}

	monthName, err := event.MonthName(sl.Month)
	if err != nil {
		return "", fmt.Errorf("compose: %w: %v", pipeline.ErrConfiguration, err)
	}

	d := templateData{
		Country:        sl.Country,
		EventType:      sl.EventType,
		MonthName:      monthName,
		MonthNum:       sl.Month,
		Year:           sl.Year,
		EventsBlock:    sl.EventsBlock,
		MetricsBlock:   sl.MetricsBlock,
		ContextBlock:   sl.ContextBlock,
		State:          sl.State,
		SubBriefsBlock: sl.SubBriefsBlock,
	}
	if d.EventType == "" {
		d.EventType = "all events"
	}
	if d.EventsBlock == "" {
		d.EventsBlock = "N/A"
	}
	if d.MetricsBlock == "" {
		d.MetricsBlock = "N/A"
	}
	if d.ContextBlock == "" {
		d.ContextBlock = "N/A"
	}

	if err := c.checkRequired(style, d); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("compose: execute template %s: %w", style, err)
	}
	return buf.String(), nil
}

// BuildBullets renders slice rows as the event-log block, one line per
// event. Each line leads with the event's identifier in the exact form the
// citation verifier extracts, so every line is a checkable anchor.
func BuildBullets(rows []store.EventRow) string {
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- ID: %s | %s | %s | %s", r.ID, r.State, r.SubType, r.Note)
	}
	return b.String()
}

// BuildSubBriefs renders the overview synthesis block: the five per-type
// briefs with headings, in the fixed standard order. Types missing from
// the map are omitted, not errors.
func BuildSubBriefs(briefs map[string]string) string {
	var parts []string
	for _, t := range event.StandardTypes {
		name := t.String()
		text, ok := briefs[name]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("### %s ###\n%s", name, strings.TrimSpace(text)))
	}
	return strings.Join(parts, "\n\n")
}
