package store

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"instafeed/internal/core"
)

// Sort orders docs by the query order field in place. Documents without a usable value sort last, ties are
// broken by id.
func Sort(docs []core.Document, q core.Query) {
	slices.SortStableFunc(docs, func(a, b core.Document) int {
		ta, oka := OrderKey(a.Fields[q.OrderBy])
		tb, okb := OrderKey(b.Fields[q.OrderBy])

		switch {
		case oka && !okb:
			return -1
		case !oka && okb:
			return 1
		}

		c := ta.Compare(tb)
		if q.Direction == core.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// OrderKey converts a stored ordering value into a time.
func OrderKey(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	case float64:
		return time.UnixMilli(int64(t)), true
	case int64:
		return time.UnixMilli(t), true
	case int:
		return time.UnixMilli(int64(t)), true
	case map[string]any:
		seconds, ok := t["seconds"].(float64)
		if !ok {
			return time.Time{}, false
		}
		nanos, _ := t["nanoseconds"].(float64)
		return time.Unix(int64(seconds), int64(nanos)), true
	default:
		return time.Time{}, false
	}
}

// Key joins a collection and a document id into a flat key.
func Key(collection, id string) string {
	return collection + "." + id
}

// SplitKey is the inverse of Key.
func SplitKey(key string) (collection, id string, ok bool) {
	return strings.Cut(key, ".")
}
