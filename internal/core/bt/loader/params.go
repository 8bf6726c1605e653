package loader

import (
	"encoding/json"
	"math"
	"time"

	"github.com/cockroachdb/errors"
)

// Params are the free-form arguments of an Action or Condition call. Numbers may
// arrive as int (YAML), float64 or json.Number (JSON), so accessors normalize them.
type Params map[string]any

func (p Params) String(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

func (p Params) Bool(key string) (bool, bool) {
	v, ok := p[key].(bool)
	return v, ok
}

func (p Params) Int(key string) (int, bool) {
	return toInt(p[key])
}

func (p Params) Float(key string) (float64, bool) {
	return toFloat(p[key])
}

// Duration accepts a Go duration string or a number of milliseconds.
func (p Params) Duration(key string) (time.Duration, bool) {
	if s, ok := p[key].(string); ok {
		d, err := time.ParseDuration(s)
		return d, err == nil
	}
	if ms, ok := toInt(p[key]); ok {
		return time.Duration(ms) * time.Millisecond, true
	}
	return 0, false
}

// RequireString returns the string under key or an ErrMissingParam error naming call.
func (p Params) RequireString(call, key string) (string, error) {
	v, ok := p.String(key)
	if !ok || v == "" {
		return "", errors.Wrapf(ErrMissingParam, "%s requires string %q", call, key)
	}
	return v, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
