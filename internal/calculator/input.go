package calculator

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/iwvelando/calcsite/pkg/mathutil"
)

// Number returns the numeric value of an input. Floats, integers,
// json.Number and numeric strings are accepted; anything else, including
// NaN and infinities, counts as missing.
func (in Input) Number(id string) (float64, bool) {
	raw, ok := in.Values[id]
	if !ok || raw == nil {
		return 0, false
	}
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case int32:
		v = float64(n)
	case uint:
		v = float64(n)
	case uint64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if !mathutil.IsFinite(v) {
		return 0, false
	}
	return v, true
}

// Positive returns the numeric value of an input only when it is above zero.
func (in Input) Positive(id string) (float64, bool) {
	v, ok := in.Number(id)
	if !ok || !mathutil.IsPositive(v) {
		return 0, false
	}
	return v, true
}

// Option returns the string value of an input, trimmed. Numbers are
// rendered in their shortest form.
func (in Input) Option(id string) string {
	switch v := in.Values[id].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		if n, ok := in.Number(id); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		return ""
	}
}

// Unit returns the unit chosen for an input, or fallback when none is set.
func (in Input) Unit(id, fallback string) string {
	if u := strings.TrimSpace(in.FieldUnits[id]); u != "" {
		return u
	}
	return fallback
}

// Text looks up a translated string, returning key when it is missing.
func (in Input) Text(group, key string) string {
	if s := in.T[group][key]; s != "" {
		return s
	}
	return key
}

// Clone returns a copy whose maps can be modified without touching in.
func (in Input) Clone() Input {
	out := Input{Locale: in.Locale}
	out.Values = make(map[string]any, len(in.Values))
	for k, v := range in.Values {
		out.Values[k] = v
	}
	out.FieldUnits = make(map[string]string, len(in.FieldUnits))
	for k, v := range in.FieldUnits {
		out.FieldUnits[k] = v
	}
	if in.T != nil {
		out.T = make(map[string]map[string]string, len(in.T))
		for group, entries := range in.T {
			copied := make(map[string]string, len(entries))
			for k, v := range entries {
				copied[k] = v
			}
			out.T[group] = copied
		}
	}
	return out
}

// RequirePositive collects the named inputs, all of which must be positive.
// The second return is false as soon as one is missing or non-positive.
func RequirePositive(in Input, ids ...string) (map[string]float64, bool) {
	values := make(map[string]float64, len(ids))
	for _, id := range ids {
		v, ok := in.Positive(id)
		if !ok {
			return nil, false
		}
		values[id] = v
	}
	return values, true
}
