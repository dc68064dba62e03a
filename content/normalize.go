package content

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tricycle-learn/tricycle"
)

// Field-name variants seen in the wild. Normalization happens here, once,
// rather than as scattered field checks downstream.
var (
	idKeys       = []string{"id", "stitchId", "stitch_id"}
	positionKeys = []string{"position", "order"}
	skipKeys     = []string{"skipInterval", "skip_interval", "skipNumber", "skip_number"}
	levelKeys    = []string{"difficultyLevel", "difficulty_level", "distractorLevel", "distractor_level", "level"}
)

// Normalize maps one loosely-shaped stitch entry to the canonical Stitch.
// Missing fields take the entry-level defaults (skip interval 1, level L1);
// fields present under any accepted alias are converted, and values outside
// the stitch's domain are an error.
func Normalize(threadID string, raw map[string]any) (tricycle.Stitch, error) {
	st := tricycle.NewStitch("", threadID, 0)

	if v, ok := lookup(raw, idKeys); ok {
		s, ok := v.(string)
		if !ok {
			return tricycle.Stitch{}, fmt.Errorf("%w: id is %T, want string", ErrBadStitch, v)
		}
		st.ID = s
	}

	if v, ok := lookup(raw, positionKeys); ok {
		n, err := toInt(v)
		if err != nil {
			return tricycle.Stitch{}, fmt.Errorf("%w: position: %v", ErrBadStitch, err)
		}
		if n < 0 {
			return tricycle.Stitch{}, fmt.Errorf("%w: negative position %d", ErrBadStitch, n)
		}
		st.Position = n
	}

	if v, ok := lookup(raw, skipKeys); ok {
		n, err := toInt(v)
		if err != nil {
			return tricycle.Stitch{}, fmt.Errorf("%w: skip interval: %v", ErrBadStitch, err)
		}
		// Foreign values snap down to the nearest ladder value.
		st.SkipInterval = tricycle.NextSkipIntervalFloor(n)
	}

	if v, ok := lookup(raw, levelKeys); ok {
		lvl, err := toLevel(v)
		if err != nil {
			return tricycle.Stitch{}, fmt.Errorf("%w: %v", ErrBadStitch, err)
		}
		st.Level = lvl
	}

	if v, ok := raw["completed"]; ok {
		b, ok := v.(bool)
		if !ok {
			return tricycle.Stitch{}, fmt.Errorf("%w: completed is %T, want bool", ErrBadStitch, v)
		}
		st.Completed = b
	}

	return st, nil
}

func lookup(raw map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// toInt converts the numeric shapes YAML and JSON decoders produce.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("non-integer value %v", n)
		}
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("unparsable number %q", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported number type %T", v)
	}
}

// toLevel accepts the level spellings in circulation: "L2", "l2", "level2",
// bare 2, "2".
func toLevel(v any) (tricycle.Level, error) {
	var n int
	switch lv := v.(type) {
	case string:
		s := strings.ToLower(strings.TrimSpace(lv))
		s = strings.TrimPrefix(s, "level")
		s = strings.TrimPrefix(s, "l")
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("unrecognized level %q", lv)
		}
		n = parsed
	default:
		parsed, err := toInt(v)
		if err != nil {
			return 0, fmt.Errorf("unrecognized level %v", v)
		}
		n = parsed
	}
	lvl := tricycle.Level(n)
	if !lvl.IsValid() {
		return 0, fmt.Errorf("level %d out of range", n)
	}
	return lvl, nil
}
