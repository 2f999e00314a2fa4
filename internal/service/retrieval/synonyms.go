package retrieval

import "sort"

// SynonymTable maps a keyword to related terms. It is read-only after construction.
type SynonymTable struct {
	entries map[string][]string
}

// Domain vocabulary of the indexed documentation.
var defaultSynonymGroups = map[string][]string{
	"startup":    {"lifecycle", "boot"},
	"config":     {"configuration", "properties"},
	"db":         {"datasource", "database", "jdbc"},
	"datasource": {"database", "jdbc"},
	"rest":       {"resteasy", "jax-rs", "endpoint"},
	"orm":        {"hibernate", "panache", "jpa"},
	"test":       {"testing", "junit"},
	"native":     {"graalvm", "mandrel"},
	"security":   {"oidc", "auth", "authentication"},
	"messaging":  {"kafka", "amqp"},
	"reactive":   {"mutiny", "vertx"},
	"container":  {"docker", "kubernetes", "podman"},
	"cache":      {"caching", "redis"},
	"grpc":       {"protobuf"},
	"logging":    {"log", "logs"},
	"metrics":    {"micrometer", "prometheus"},
}

// NewSynonymTable builds a bidirectional table: every listed pair relates both ways.
func NewSynonymTable(groups map[string][]string) SynonymTable {
	sets := make(map[string]map[string]struct{})
	link := func(a, b string) {
		if a == b {
			return
		}
		if sets[a] == nil {
			sets[a] = make(map[string]struct{})
		}
		sets[a][b] = struct{}{}
	}

	for key, related := range groups {
		for _, r := range related {
			link(key, r)
			link(r, key)
		}
	}

	entries := make(map[string][]string, len(sets))
	for k, set := range sets {
		list := make([]string, 0, len(set))
		for v := range set {
			list = append(list, v)
		}
		sort.Strings(list)
		entries[k] = list
	}
	return SynonymTable{entries: entries}
}

func DefaultSynonyms() SynonymTable {
	return NewSynonymTable(defaultSynonymGroups)
}

// Lookup returns a copy so callers cannot mutate the table.
func (t SynonymTable) Lookup(word string) []string {
	list := t.entries[word]
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}
