package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/user/conversion-relay/internal/domain"
)

// fieldReader pulls typed values out of a raw, untrusted custom-data map,
// accumulating human-readable errors instead of failing. Wrong types and
// missing required fields are reported, never panicked on.
type fieldReader struct {
	raw    map[string]any
	errors []string
}

func newFieldReader(raw map[string]any) *fieldReader {
	if raw == nil {
		raw = map[string]any{}
	}
	return &fieldReader{raw: raw}
}

func (r *fieldReader) errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

// str returns the trimmed string value of a field. Numeric values are
// stringified (IDs arrive as numbers from some trackers).
func (r *fieldReader) str(key string) (string, bool) {
	v, ok := r.raw[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := stringify(v)
	if !ok {
		r.errorf("field %q must be a string", key)
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

func (r *fieldReader) requireStr(key string) (string, bool) {
	s, ok := r.str(key)
	if !ok {
		r.errorf("required field %q is missing or empty", key)
		return "", false
	}
	return s, true
}

// num returns the numeric value of a field, coercing numeric strings.
func (r *fieldReader) num(key string) (float64, bool) {
	v, ok := r.raw[key]
	if !ok || v == nil {
		return 0, false
	}
	f, ok := numberify(v)
	if !ok {
		r.errorf("field %q must be a number", key)
		return 0, false
	}
	return f, true
}

func (r *fieldReader) requireNum(key string) (float64, bool) {
	v, ok := r.raw[key]
	if !ok || v == nil {
		r.errorf("required field %q is missing", key)
		return 0, false
	}
	f, ok := numberify(v)
	if !ok {
		r.errorf("field %q must be a number", key)
		return 0, false
	}
	return f, true
}

func (r *fieldReader) requirePositive(key string) (float64, bool) {
	f, ok := r.requireNum(key)
	if !ok {
		return 0, false
	}
	if f <= 0 {
		r.errorf("field %q must be positive, got %v", key, f)
		return 0, false
	}
	return f, true
}

func (r *fieldReader) requireNonNegative(key string) (float64, bool) {
	f, ok := r.requireNum(key)
	if !ok {
		return 0, false
	}
	if f < 0 {
		r.errorf("field %q must not be negative, got %v", key, f)
		return 0, false
	}
	return f, true
}

func (r *fieldReader) intField(key string) (int, bool) {
	f, ok := r.num(key)
	if !ok {
		return 0, false
	}
	if f != math.Trunc(f) {
		r.errorf("field %q must be an integer, got %v", key, f)
		return 0, false
	}
	return int(f), true
}

// enum validates an optional field against a closed value set and returns
// the lowercased member on success.
func (r *fieldReader) enum(key string, set domain.EnumSet) string {
	s, ok := r.str(key)
	if !ok {
		return ""
	}
	if !set.Contains(s) {
		r.errorf("field %q has unrecognized value %q (accepted: %s)",
			key, s, strings.Join(set.Values(), ", "))
		return ""
	}
	return strings.ToLower(s)
}

// currency returns the required uppercased ISO currency code.
func (r *fieldReader) currency() (string, bool) {
	s, ok := r.requireStr("currency")
	if !ok {
		return "", false
	}
	if len(s) != 3 {
		r.errorf("field \"currency\" must be a 3-letter code, got %q", s)
		return "", false
	}
	return strings.ToUpper(s), true
}

// strSlice returns a non-empty array of stringified IDs.
func (r *fieldReader) strSlice(key string) ([]string, bool) {
	v, ok := r.raw[key]
	if !ok || v == nil {
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok {
		if ss, isStrings := v.([]string); isStrings {
			if len(ss) == 0 {
				r.errorf("field %q must be a non-empty array", key)
				return nil, false
			}
			return ss, true
		}
		r.errorf("field %q must be an array", key)
		return nil, false
	}
	if len(arr) == 0 {
		r.errorf("field %q must be a non-empty array", key)
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for i, el := range arr {
		s, ok := stringify(el)
		if !ok || strings.TrimSpace(s) == "" {
			r.errorf("field %q element %d must be a non-empty string", key, i)
			continue
		}
		out = append(out, strings.TrimSpace(s))
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

func numberify(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
