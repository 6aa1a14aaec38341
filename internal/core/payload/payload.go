// Package payload provides path-based access, rewriting and equality filtering over
// schema-free event payload documents.
//
// A document is the decoded JSON object form used throughout kinlog:
// map[string]interface{} with nested maps, []interface{} slices and JSON scalars.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrMissingParent is returned by Set when an intermediate object on the path does not exist.
var ErrMissingParent = errors.New("parent object does not exist")

// Path addresses a (possibly nested) field inside a document, e.g. "relationship.type".
type Path []string

// ParsePath splits a dotted path. Empty segments are rejected.
func ParsePath(raw string) (Path, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty payload path")
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid payload path %q: empty segment", raw)
		}
	}
	return Path(parts), nil
}

// MustPath is ParsePath for package-level constants.
func MustPath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Get walks doc along path. The second result is false if any segment is missing
// or traverses a non-object value.
func Get(doc map[string]interface{}, path Path) (interface{}, bool) {
	if len(path) == 0 {
		return nil, false
	}
	var cur interface{} = doc
	for _, seg := range path {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// GetString returns the string at path, or "" when absent or not a string.
func GetString(doc map[string]interface{}, path Path) string {
	v, ok := Get(doc, path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Set returns a deep copy of doc with the value at path replaced; every other key is preserved.
// The leaf key may be new, but every intermediate object must already exist, matching
// Postgres jsonb_set.
func Set(doc map[string]interface{}, path Path, value interface{}) (map[string]interface{}, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("empty payload path")
	}
	out := Clone(doc)
	if out == nil {
		out = map[string]interface{}{}
	}
	cur := out
	for i, seg := range path[:len(path)-1] {
		next, exists := cur[seg]
		if !exists || next == nil {
			return nil, fmt.Errorf("cannot set %s: %s: %w", path, Path(path[:i+1]), ErrMissingParent)
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("cannot set %s: %s is not an object", path, Path(path[:i+1]))
		}
		cur = child
	}
	cur[path[len(path)-1]] = cloneValue(value)
	return out, nil
}

// Clone deep-copies a document so callers never alias stored maps.
func Clone(doc map[string]interface{}) map[string]interface{} {
	if doc == nil {
		return nil
	}
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return Clone(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	default:
		return v
	}
}

// Normalize round-trips a value through JSON so Go literals compare equal to decoded
// documents (int 3 and float64 3 are the same JSON number).
func Normalize(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize payload value: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("normalize payload value: %w", err)
	}
	return out, nil
}

// Equal reports JSON equality of two values.
func Equal(a, b interface{}) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}
