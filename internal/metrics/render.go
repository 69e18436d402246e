package metrics

import (
	"fmt"
	"strings"

	"argus/internal/event"
)

// MetricsLine renders the snapshot as the one-line headline block the
// prompt templates embed. Each family keeps its established layout so
// archived briefs stay comparable across runs.
func (s Snapshot) MetricsLine() string {
	switch s.Type {
	case event.TypeRiots:
		return fmt.Sprintf(
			"Total riots: %d  |  Violent demonstration: %d (%d fat.)  |  Mob violence: %d (%d fat.)",
			s.TotalEvents,
			s.CountBySub["Violent demonstration"], s.FatalBySub["Violent demonstration"],
			s.CountBySub["Mob violence"], s.FatalBySub["Mob violence"])

	case event.TypeProtests:
		return fmt.Sprintf(
			"Total protests: %d  |  Peaceful: %d  |  Intervention: %d  |  Excessive force: %d  |  Fatalities: %d",
			s.TotalEvents,
			s.CountBySub["Peaceful protest"],
			s.CountBySub["Protest with intervention"],
			s.CountBySub["Excessive force against protesters"],
			s.TotalFatalities)

	case event.TypeBattles:
		parts := make([]string, 0, len(s.CountBySub))
		for _, sub := range event.TypeBattles.SubTypes() {
			parts = append(parts, fmt.Sprintf("%s: %d (%d fat.)", sub, s.CountBySub[sub], s.FatalBySub[sub]))
		}
		return fmt.Sprintf("Total battles: %d  |  ", s.TotalEvents) + strings.Join(parts, "  |  ")

	case event.TypeViolenceAgainstCivilians:
		return fmt.Sprintf(
			"Total events: %d  |  Fatalities: %d  |  Sexual violence: %d  |  Attack: %d  |  Abduction/forced disappearance: %d",
			s.TotalEvents, s.TotalFatalities,
			s.CountBySub["Sexual violence"],
			s.CountBySub["Attack"],
			s.CountBySub["Abduction/forced disappearance"])

	case event.TypeStrategicDevelopments:
		parts := make([]string, 0, len(s.TypeSeverity))
		for _, b := range s.TypeSeverity {
			parts = append(parts, fmt.Sprintf("%s: %d", b.Key, int(b.TotalSeverity)))
		}
		line := fmt.Sprintf("Total events: %d", s.TotalEvents)
		if len(parts) > 0 {
			line += "  |  " + strings.Join(parts, "  |  ")
		}
		return line

	default:
		return fmt.Sprintf("Events %d | Fatalities %d | Severity %.1f",
			s.TotalEvents, s.TotalFatalities, s.TotalSeverity)
	}
}
