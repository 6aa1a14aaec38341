package payload

import (
	"fmt"
	"sort"
)

// Filter is a flat set of equality constraints: dotted payload path -> expected value.
// A document matches when every listed path exists and equals its value exactly.
// A nil or empty filter matches every document.
type Filter map[string]interface{}

// Condition is one compiled filter entry.
type Condition struct {
	Path  Path
	Value interface{}
}

// Conditions returns the filter entries parsed and sorted by path, so that callers
// building SQL get a deterministic clause and argument order.
func (f Filter) Conditions() ([]Condition, error) {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Condition, 0, len(keys))
	for _, k := range keys {
		p, err := ParsePath(k)
		if err != nil {
			return nil, fmt.Errorf("invalid filter: %w", err)
		}
		v, err := Normalize(f[k])
		if err != nil {
			return nil, fmt.Errorf("invalid filter value for %s: %w", k, err)
		}
		out = append(out, Condition{Path: p, Value: v})
	}
	return out, nil
}

// Matches reports whether doc satisfies every condition.
func (f Filter) Matches(doc map[string]interface{}) bool {
	for k, want := range f {
		p, err := ParsePath(k)
		if err != nil {
			return false
		}
		got, ok := Get(doc, p)
		if !ok || !Equal(got, want) {
			return false
		}
	}
	return true
}

// Validate checks that every key is a well-formed path and every value is JSON-encodable.
func (f Filter) Validate() error {
	_, err := f.Conditions()
	return err
}
