// Package content loads thread→stitch manifests and normalizes the field
// variants external content sources ship in to the one canonical shape the
// scheduler accepts.
package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/tricycle-learn/tricycle"
)

// Sentinel errors for the content package.
var (
	ErrEmptyManifest = errors.New("content: manifest has no threads")
	ErrBadStitch     = errors.New("content: malformed stitch entry")
)

// Manifest maps thread IDs to their ordered stitch lists, ready to seed a
// scheduler via tricycle.Config.Threads.
type Manifest map[string][]tricycle.Stitch

// rawManifest is the tolerant wire shape. Stitches decode as loose maps so
// Normalize can absorb field-name variants before anything reaches the
// scheduler.
type rawManifest struct {
	Threads map[string][]map[string]any `json:"threads" yaml:"threads"`
}

// LoadFile reads a manifest from a YAML (.yaml/.yml) or JSON (.json) file.
func LoadFile(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("content: unsupported manifest format %q", filepath.Ext(path))
	}
}

// ParseYAML parses a YAML manifest.
func ParseYAML(data []byte) (Manifest, error) {
	var raw rawManifest
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return raw.normalize()
}

// ParseJSON parses a JSON manifest.
func ParseJSON(data []byte) (Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return raw.normalize()
}

func (r rawManifest) normalize() (Manifest, error) {
	if len(r.Threads) == 0 {
		return nil, ErrEmptyManifest
	}
	m := make(Manifest, len(r.Threads))

	threadIDs := make([]string, 0, len(r.Threads))
	for tid := range r.Threads {
		threadIDs = append(threadIDs, tid)
	}
	sort.Strings(threadIDs)

	for _, tid := range threadIDs {
		entries := r.Threads[tid]
		stitches := make([]tricycle.Stitch, 0, len(entries))
		for i, entry := range entries {
			st, err := Normalize(tid, entry)
			if err != nil {
				return nil, fmt.Errorf("thread %q stitch %d: %w", tid, i, err)
			}
			if st.ID == "" {
				st.ID = fmt.Sprintf("%s-%03d", tid, i+1)
			}
			stitches = append(stitches, st)
		}
		m[tid] = stitches
	}
	return m, nil
}
