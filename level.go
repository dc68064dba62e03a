package tricycle

import (
	"encoding"
	"fmt"

	json "github.com/goccy/go-json"
)

// Level represents the difficulty tier of a stitch's question variants.
// Levels only ever ratchet upward: a stitch at L3 stays at L3.
type Level int

const (
	L1 Level = iota + 1 // Base difficulty.
	L2                  // Harder distractors.
	L3                  // Hardest variant.
)

var (
	levelNames  = [...]string{L1: "L1", L2: "L2", L3: "L3"}
	levelByName = map[string]Level{
		"L1": L1,
		"L2": L2,
		"L3": L3,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Level(0)
	_ json.Marshaler           = Level(0)
	_ json.Unmarshaler         = (*Level)(nil)
	_ encoding.TextMarshaler   = Level(0)
	_ encoding.TextUnmarshaler = (*Level)(nil)
)

// IsValid reports whether l is a valid level (L1 through L3).
func (l Level) IsValid() bool {
	return l >= L1 && l <= L3
}

// Next returns the level one step up the ratchet. L3 stays L3.
func (l Level) Next() Level {
	if l < L1 {
		return L1
	}
	if l >= L3 {
		return L3
	}
	return l + 1
}

// String returns the name of the level ("L1", "L2", "L3").
// For invalid values it returns "Level(n)".
func (l Level) String() string {
	if l.IsValid() {
		return levelNames[l]
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("tricycle: invalid level: %d", int(l))
	}
	return []byte(levelNames[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	v, ok := levelByName[string(text)]
	if !ok {
		return fmt.Errorf("tricycle: invalid level: %q", text)
	}
	*l = v
	return nil
}

// MarshalJSON implements json.Marshaler. Level serializes as a JSON string.
func (l Level) MarshalJSON() ([]byte, error) {
	text, err := l.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tricycle: invalid level: %s", data)
	}
	return l.UnmarshalText([]byte(s))
}
