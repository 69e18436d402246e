package event

import "testing"

func TestParseTypeRoundTrip(t *testing.T) {
	for _, typ := range StandardTypes {
		if got := ParseType(typ.String()); got != typ {
			t.Errorf("ParseType(%q) = %v, want %v", typ.String(), got, typ)
		}
	}
}

func TestParseTypeUnknown(t *testing.T) {
	for _, name := range []string{"", "riots", "Something new"} {
		if got := ParseType(name); got != TypeUnknown {
			t.Errorf("ParseType(%q) = %v, want TypeUnknown", name, got)
		}
	}
}

func TestSubTypesVocabulary(t *testing.T) {
	cases := []struct {
		typ  Type
		want int
	}{
		{TypeProtests, 3},
		{TypeRiots, 2},
		{TypeBattles, 3},
		{TypeViolenceAgainstCivilians, 3},
		{TypeStrategicDevelopments, 0},
		{TypeUnknown, 0},
	}
	for _, tc := range cases {
		if got := len(tc.typ.SubTypes()); got != tc.want {
			t.Errorf("%v.SubTypes() has %d entries, want %d", tc.typ, got, tc.want)
		}
	}
}

func TestMonthName(t *testing.T) {
	got, err := MonthName(3)
	if err != nil {
		t.Fatalf("MonthName(3): %v", err)
	}
	if got != "March" {
		t.Errorf("MonthName(3) = %q, want March", got)
	}

	for _, m := range []int{0, 13, -1} {
		if _, err := MonthName(m); err == nil {
			t.Errorf("MonthName(%d): want error", m)
		}
	}
}

func TestSliceValidate(t *testing.T) {
	valid := Slice{Year: 2024, Month: 1, Country: "Mexico"}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid slice rejected: %v", err)
	}

	bad := []Slice{
		{Month: 1, Country: "Mexico"},
		{Year: 2024, Month: 0, Country: "Mexico"},
		{Year: 2024, Month: 13, Country: "Mexico"},
		{Year: 2024, Month: 1},
	}
	for _, s := range bad {
		if err := s.Validate(); err == nil {
			t.Errorf("slice %+v: want validation error", s)
		}
	}
}

func TestSliceString(t *testing.T) {
	s := Slice{Year: 2024, Month: 3, Country: "Mexico"}
	if got := s.String(); got != "Mexico/2024-03" {
		t.Errorf("String() = %q", got)
	}

	s.Type = "Riots"
	s.State = "Oaxaca"
	if got := s.String(); got != "Mexico/2024-03/Riots/Oaxaca" {
		t.Errorf("String() = %q", got)
	}
}
