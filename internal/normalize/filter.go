package normalize

import (
	"encoding/json"
	"slices"
	"sort"
	"strconv"

	"github.com/user/eventscope/internal/types"
)

// Filter admits events whose field Key stringifies to one of Values.
type Filter struct {
	Key    string
	Values []string
}

// Filters is a conjunction: every filter must match.
type Filters []Filter

// FiltersFromMap builds Filters ordered by key.
func FiltersFromMap(m map[string][]string) Filters {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(Filters, 0, len(keys))
	for _, k := range keys {
		out = append(out, Filter{Key: k, Values: m[k]})
	}
	return out
}

// Match reports whether raw satisfies every filter. Empty Filters match everything.
func (fs Filters) Match(raw types.RawEvent) bool {
	for _, f := range fs {
		v, ok := raw[f.Key]
		if !ok {
			return false
		}
		if !slices.Contains(f.Values, stringify(v)) {
			return false
		}
	}
	return true
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
