package policy

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadFile reads YAML org settings and merges them over the defaults. Nested
// maps are flattened into dotted keys, so both of these forms work:
//
//	work_hours:
//	  start: "09:00"
//	penalties.weekend: 40
//
// An empty path or a missing file yields the defaults.
func LoadFile(path string, logger *slog.Logger) (*Policy, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("org settings not found, using defaults", slog.String("path", path))
			return Default(), nil
		}
		return nil, err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse org settings %s: %w", path, err)
	}
	pol, err := New(Flatten(doc))
	if err != nil {
		return nil, fmt.Errorf("org settings %s: %w", path, err)
	}
	logger.Debug("org settings loaded", slog.String("path", path), slog.Int("keys", len(doc)))
	return pol, nil
}

// Flatten turns nested maps into dotted keys. Non-map leaves are kept as is.
func Flatten(doc map[string]any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", doc)
	return out
}

func flattenInto(out map[string]any, prefix string, doc map[string]any) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		switch v := doc[k].(type) {
		case map[string]any:
			flattenInto(out, full, v)
		case map[any]any:
			nested := make(map[string]any, len(v))
			for nk, nv := range v {
				nested[fmt.Sprint(nk)] = nv
			}
			flattenInto(out, full, nested)
		default:
			out[full] = v
		}
	}
}
