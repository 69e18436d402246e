package event

import "fmt"

// Slice identifies the query unit for one brief: a year/month/country window
// with optional event-type and state filters. All filters are conjunctive;
// empty optional filters widen the slice. Two equal slices always yield the
// same event set modulo upstream data changes.
type Slice struct {
	Year    int
	Month   int
	Country string
	Type    string // optional event-type filter, "" = all types
	State   string // optional admin1 filter, "" = all states
}

// Validate rejects keys that can never match data.
func (s Slice) Validate() error {
	if s.Year == 0 {
		return fmt.Errorf("event: slice year is required")
	}
	if s.Month < 1 || s.Month > 12 {
		return fmt.Errorf("event: slice month %d out of range 1-12", s.Month)
	}
	if s.Country == "" {
		return fmt.Errorf("event: slice country is required")
	}
	return nil
}

func (s Slice) String() string {
	key := fmt.Sprintf("%s/%04d-%02d", s.Country, s.Year, s.Month)
	if s.Type != "" {
		key += "/" + s.Type
	}
	if s.State != "" {
		key += "/" + s.State
	}
	return key
}
