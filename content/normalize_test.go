package content

import (
	"errors"
	"testing"

	"github.com/tricycle-learn/tricycle"
)

func TestNormalizeCanonicalFields(t *testing.T) {
	st, err := Normalize("thread-A", map[string]any{
		"id":              "a1",
		"position":        2,
		"skipInterval":    5,
		"difficultyLevel": "L2",
		"completed":       true,
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if st.ID != "a1" || st.ThreadID != "thread-A" || st.Position != 2 {
		t.Errorf("identity fields: %+v", st)
	}
	if st.SkipInterval != 5 || st.Level != tricycle.L2 || !st.Completed {
		t.Errorf("scheduling fields: %+v", st)
	}
}

func TestNormalizeFieldVariants(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		want tricycle.Stitch
	}{
		{
			"snake case",
			map[string]any{"stitch_id": "s1", "skip_number": 10, "distractor_level": "L3", "order": 1},
			tricycle.Stitch{ID: "s1", SkipInterval: 10, Level: tricycle.L3, Position: 1},
		},
		{
			"camel aliases",
			map[string]any{"stitchId": "s2", "skipNumber": 3, "distractorLevel": 2},
			tricycle.Stitch{ID: "s2", SkipInterval: 3, Level: tricycle.L2, Position: 0},
		},
		{
			"level spellings",
			map[string]any{"id": "s3", "level": "level2"},
			tricycle.Stitch{ID: "s3", SkipInterval: 1, Level: tricycle.L2, Position: 0},
		},
		{
			"numeric strings",
			map[string]any{"id": "s4", "skipInterval": "25", "level": "3"},
			tricycle.Stitch{ID: "s4", SkipInterval: 25, Level: tricycle.L3, Position: 0},
		},
		{
			"json float numbers",
			map[string]any{"id": "s5", "skipInterval": float64(5), "position": float64(4)},
			tricycle.Stitch{ID: "s5", SkipInterval: 5, Level: tricycle.L1, Position: 4},
		},
		{
			"defaults when absent",
			map[string]any{"id": "s6"},
			tricycle.Stitch{ID: "s6", SkipInterval: 1, Level: tricycle.L1, Position: 0},
		},
		{
			"off-ladder skip snaps down",
			map[string]any{"id": "s7", "skipInterval": 30},
			tricycle.Stitch{ID: "s7", SkipInterval: 25, Level: tricycle.L1, Position: 0},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize("th", tc.raw)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got.ID != tc.want.ID || got.Position != tc.want.Position ||
				got.SkipInterval != tc.want.SkipInterval || got.Level != tc.want.Level {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestNormalizeRejectsBadEntries(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
	}{
		{"id wrong type", map[string]any{"id": 7}},
		{"negative position", map[string]any{"id": "x", "position": -1}},
		{"fractional skip", map[string]any{"id": "x", "skipInterval": 2.5}},
		{"level out of range", map[string]any{"id": "x", "level": 9}},
		{"level garbage", map[string]any{"id": "x", "level": "huge"}},
		{"completed wrong type", map[string]any{"id": "x", "completed": "yes"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Normalize("th", tc.raw); !errors.Is(err, ErrBadStitch) {
				t.Errorf("err = %v, want ErrBadStitch", err)
			}
		})
	}
}
