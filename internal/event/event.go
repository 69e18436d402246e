// Package event defines the incident record model and the closed event-type
// taxonomy used across the pipeline.
package event

import (
	"fmt"
	"time"
)

// Event is one incident record from the upstream feed, enriched with a
// derived severity score before persistence. Immutable after ingestion
// except for idempotent re-ingestion (same ID, upsert semantics).
type Event struct {
	ID                string    `json:"id"`
	Date              time.Time `json:"date"`
	Year              int       `json:"year"`
	Month             int       `json:"month"`
	Day               int       `json:"day"`
	Country           string    `json:"country"`
	State             string    `json:"state"` // admin1
	Type              string    `json:"type"`
	SubType           string    `json:"subtype"`
	DisorderType      string    `json:"disorder_type"`
	Fatalities        int       `json:"fatalities"`
	CivilianTargeting bool      `json:"civilian_targeting"`
	Notes             string    `json:"notes"`
	Latitude          *float64  `json:"latitude,omitempty"`
	Longitude         *float64  `json:"longitude,omitempty"`
	Actor1            string    `json:"actor1,omitempty"`
	Inter1            string    `json:"inter1,omitempty"`
	Actor2            string    `json:"actor2,omitempty"`
	Inter2            string    `json:"inter2,omitempty"`
	Severity          float64   `json:"severity_score"`
}

// Type is the coarse event-type taxonomy. The five standard types carry
// per-type brief templates and sub-type vocabularies; everything else maps
// to TypeUnknown and gets default handling.
type Type int

const (
	TypeUnknown Type = iota
	TypeViolenceAgainstCivilians
	TypeProtests
	TypeRiots
	TypeBattles
	TypeStrategicDevelopments
	TypeExplosions
)

// StandardTypes is the fixed order used for the five per-type briefs and
// for weaving the country overview. Missing entries are omitted from the
// overview synthesis block, not treated as errors.
var StandardTypes = []Type{
	TypeViolenceAgainstCivilians,
	TypeProtests,
	TypeRiots,
	TypeBattles,
	TypeStrategicDevelopments,
}

var typeNames = map[Type]string{
	TypeViolenceAgainstCivilians: "Violence against civilians",
	TypeProtests:                 "Protests",
	TypeRiots:                    "Riots",
	TypeBattles:                  "Battles",
	TypeStrategicDevelopments:    "Strategic developments",
	TypeExplosions:               "Explosions/Remote violence",
}

// String returns the upstream feed's name for the type, or "" for unknown.
func (t Type) String() string { return typeNames[t] }

// ParseType maps an upstream type name to the closed taxonomy.
// Unrecognised names map to TypeUnknown, never an error: the feed grows
// categories faster than we do.
func ParseType(name string) Type {
	for t, n := range typeNames {
		if n == name {
			return t
		}
	}
	return TypeUnknown
}

// SubTypes returns the fixed sub-event-type vocabulary for a type. Metric
// breakdowns zero-fill every key returned here even when the month has no
// such events. Types without a fixed vocabulary return nil.
func (t Type) SubTypes() []string {
	switch t {
	case TypeProtests:
		return []string{"Peaceful protest", "Protest with intervention", "Excessive force against protesters"}
	case TypeRiots:
		return []string{"Violent demonstration", "Mob violence"}
	case TypeBattles:
		return []string{"Armed clash", "Government regains territory", "Non-state actor overtakes territory"}
	case TypeViolenceAgainstCivilians:
		return []string{"Sexual violence", "Attack", "Abduction/forced disappearance"}
	default:
		return nil
	}
}

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName resolves a 1-12 month integer to its English name.
// An out-of-range month is a caller error.
func MonthName(month int) (string, error) {
	if month < 1 || month > 12 {
		return "", fmt.Errorf("event: month %d out of range 1-12", month)
	}
	return monthNames[month-1], nil
}
