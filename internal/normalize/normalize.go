// Package normalize canonicalizes raw crawler field values before any
// entity logic runs.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/openhire/brokerd/internal/broker"
)

// Options declares per-record typing: which fields must coerce to float and
// which string lists are preserved instead of flattened.
type Options struct {
	FloatFields []string
	KeepLists   []string
}

// Record returns a canonicalized copy of a decoded record: whitespace runs
// in strings collapse to single spaces and ends are trimmed; homogeneous
// string lists get the same treatment per element and are then joined into
// one string (unless listed in KeepLists); declared float fields are coerced
// from string or number. Coercion failure is a validation error. The input
// map is never mutated.
func Record(in map[string]any, opts Options) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for key, value := range in {
		switch v := value.(type) {
		case string:
			out[key] = Collapse(v)
		case []any:
			if items, ok := stringItems(v); ok {
				for i, item := range items {
					items[i] = Collapse(item)
				}
				if keep(opts.KeepLists, key) {
					out[key] = items
				} else {
					out[key] = strings.Join(items, " ")
				}
			} else {
				out[key] = value
			}
		case []string:
			items := make([]string, len(v))
			for i, item := range v {
				items[i] = Collapse(item)
			}
			if keep(opts.KeepLists, key) {
				out[key] = items
			} else {
				out[key] = strings.Join(items, " ")
			}
		default:
			out[key] = value
		}
	}

	for _, field := range opts.FloatFields {
		value, present := out[field]
		if !present || value == nil {
			continue
		}
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		f, err := toFloat(value)
		if err != nil {
			return nil, &broker.ValidationError{Reason: fmt.Sprintf("field %s: %v", field, err)}
		}
		out[field] = f
	}
	return out, nil
}

// Collapse trims the string and replaces internal whitespace runs with
// single spaces.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func stringItems(list []any) ([]string, bool) {
	items := make([]string, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		items[i] = s
	}
	return items, true
}

func keep(lists []string, key string) bool {
	for _, name := range lists {
		if name == key {
			return true
		}
	}
	return false
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		if v == "" {
			return 0, fmt.Errorf("empty string is not a number")
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q to float", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to float", value)
	}
}
