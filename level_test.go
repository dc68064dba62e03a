package tricycle

import (
	"testing"

	json "github.com/goccy/go-json"
)

func TestLevelNextRatchet(t *testing.T) {
	cases := []struct{ in, want Level }{
		{L1, L2},
		{L2, L3},
		{L3, L3}, // never past the top
		{0, L1},  // invalid snaps to base
	}
	for _, tc := range cases {
		if got := tc.in.Next(); got != tc.want {
			t.Errorf("%v.Next() = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if L2.String() != "L2" {
		t.Errorf("L2.String() = %q", L2.String())
	}
	if got := Level(9).String(); got != "Level(9)" {
		t.Errorf("invalid String() = %q, want Level(9)", got)
	}
}

func TestLevelJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(L3)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"L3"` {
		t.Errorf("Marshal = %s, want \"L3\"", data)
	}
	var l Level
	if err := json.Unmarshal(data, &l); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if l != L3 {
		t.Errorf("round trip = %v, want L3", l)
	}
}

func TestLevelJSONInvalid(t *testing.T) {
	if _, err := json.Marshal(Level(0)); err == nil {
		t.Error("Marshal of invalid level should fail")
	}
	var l Level
	if err := json.Unmarshal([]byte(`"L9"`), &l); err == nil {
		t.Error("Unmarshal of unknown level should fail")
	}
	if err := json.Unmarshal([]byte(`42`), &l); err == nil {
		t.Error("Unmarshal of non-string should fail")
	}
}
