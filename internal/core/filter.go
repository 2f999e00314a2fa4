package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterContainsSubstring
	FilterEquals
)

// ExtensionsField holds a comma padded list such as ",java,kt,".
const ExtensionsField = "extensions_csv_padded"

func (k FilterKind) String() string {
	switch k {
	case FilterNone:
		return "none"
	case FilterContainsSubstring:
		return "contains"
	case FilterEquals:
		return "equals"
	}
	return fmt.Sprintf("FilterKind(%d)", int(k))
}

func (k FilterKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *FilterKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "none":
		*k = FilterNone
	case "contains":
		*k = FilterContainsSubstring
	case "equals":
		*k = FilterEquals
	default:
		return fmt.Errorf("%w: unknown filter kind %q", ErrValidation, text)
	}
	return nil
}

// Filter restricts vector search by a metadata field.
type Filter struct {
	Kind  FilterKind `json:"kind"`
	Field string     `json:"field,omitempty"`
	Value string     `json:"value,omitempty"`
}

func NoFilter() Filter {
	return Filter{Kind: FilterNone}
}

func ContainsSubstring(field, value string) Filter {
	return Filter{Kind: FilterContainsSubstring, Field: field, Value: value}
}

func Equals(field, value string) Filter {
	return Filter{Kind: FilterEquals, Field: field, Value: value}
}

// ExtensionFilter scopes search to documents tagged with a file extension.
// Blank input means no filter; "Java", ".java" and "java" are equivalent.
func ExtensionFilter(ext string) Filter {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		return NoFilter()
	}
	return ContainsSubstring(ExtensionsField, ","+ext+",")
}

func (f Filter) IsNone() bool {
	return f.Kind == FilterNone
}

func (f Filter) Validate() error {
	switch f.Kind {
	case FilterNone:
		return nil
	case FilterContainsSubstring, FilterEquals:
		if strings.TrimSpace(f.Field) == "" {
			return fmt.Errorf("%w: filter field is required", ErrValidation)
		}
		if f.Kind == FilterContainsSubstring && f.Value == "" {
			return fmt.Errorf("%w: contains filter needs a value", ErrValidation)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown filter kind %d", ErrValidation, int(f.Kind))
}

// Match evaluates the filter against metadata. Used by stores that cannot
// push the predicate down.
func (f Filter) Match(md Metadata) bool {
	switch f.Kind {
	case FilterContainsSubstring:
		if _, ok := md[f.Field]; !ok {
			return false
		}
		return strings.Contains(md.String(f.Field), f.Value)
	case FilterEquals:
		if _, ok := md[f.Field]; !ok {
			return false
		}
		return md.String(f.Field) == f.Value
	}
	return true
}

func (f Filter) String() string {
	if f.IsNone() {
		return "none"
	}
	b, _ := json.Marshal(f)
	return string(b)
}
