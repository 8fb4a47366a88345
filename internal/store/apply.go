package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"

	"instafeed/internal/core"
)

var ErrInvalidPatch = fmt.Errorf("%w: invalid patch", core.ErrValidation)

// NewID returns a lexicographically sortable document id.
func NewID() string {
	return ulid.Make().String()
}

// Canonical round trips v through JSON so that values from callers compare equal to decoded stored values.
func Canonical(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CanonicalFields is Canonical for a whole document.
func CanonicalFields(fields map[string]any) (map[string]any, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Apply returns a copy of fields with patches applied in order. now resolves server timestamps.
func Apply(fields map[string]any, now time.Time, patches ...core.FieldPatch) (map[string]any, error) {
	out, err := CanonicalFields(fields)
	if err != nil {
		return nil, err
	}

	for _, patch := range patches {
		if patch.Field == "" {
			return nil, fmt.Errorf("%w: empty field name", ErrInvalidPatch)
		}

		if patch.Op == core.OpServerTimestamp || (patch.Op == core.OpSet && patch.Value == core.ServerTime) {
			out[patch.Field] = now.UTC().Format(time.RFC3339Nano)
			continue
		}

		value, err := Canonical(patch.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPatch, patch.Field, err)
		}

		if patch.Op == core.OpSet {
			out[patch.Field] = value
			continue
		}

		current, ok := out[patch.Field].([]any)
		if !ok && out[patch.Field] != nil {
			return nil, fmt.Errorf("%w: %s is not an array", ErrInvalidPatch, patch.Field)
		}

		switch patch.Op {
		case core.OpArrayUnion:
			if !lo.ContainsBy(current, func(item any) bool { return reflect.DeepEqual(item, value) }) {
				current = append(current, value)
			}
		case core.OpArrayRemove:
			current = lo.Reject(current, func(item any, _ int) bool { return reflect.DeepEqual(item, value) })
		case core.OpArrayAppend:
			current = append(current, value)
		default:
			return nil, fmt.Errorf("%w: unsupported op %s", ErrInvalidPatch, patch.Op)
		}

		if current == nil {
			current = []any{}
		}
		out[patch.Field] = current
	}

	return out, nil
}

// NewDocument prepares the fields of a document about to be created.
func NewDocument(fields map[string]any, now time.Time) (map[string]any, error) {
	patches := lo.MapToSlice(fields, func(field string, value any) core.FieldPatch {
		return core.Set(field, value)
	})
	return Apply(map[string]any{}, now, patches...)
}
