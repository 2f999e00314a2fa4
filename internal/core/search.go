package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// EmbeddingKey is never exposed through SearchMatch metadata.
const EmbeddingKey = "embedding"

// Metadata is a document attribute bag with deterministic key order.
type Metadata map[string]any

func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders a field as text. Lists are joined with spaces.
func (m Metadata) String(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, " ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(val)
	}
}

// Without returns a copy lacking the given keys.
func (m Metadata) Without(keys ...string) Metadata {
	out := m.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MarshalJSON writes keys in sorted order. encoding/json already sorts map
// keys; the explicit type keeps nil as {}.
func (m Metadata) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(m))
}

type SearchMatch struct {
	Text     string   `json:"text"`
	SourceID string   `json:"source"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

// WithScore returns a copy carrying score. Metadata is shared read-only.
func (s SearchMatch) WithScore(score float64) SearchMatch {
	s.Score = score
	return s
}
