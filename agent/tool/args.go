package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
)

// Args are decoded tool-call arguments. JSON numbers arrive as float64.
type Args map[string]any

func (a Args) String(key string) (string, error) {
	raw, ok := a[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: %s is required", contractx.ErrInvalidArgument, key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", contractx.ErrInvalidArgument, key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %s is empty", contractx.ErrInvalidArgument, key)
	}
	return s, nil
}

func (a Args) OptionalString(key string) string {
	s, _ := a[key].(string)
	return strings.TrimSpace(s)
}

// Int reads a whole number in the int32 range, falling back to def when key
// is absent.
func (a Args) Int(key string, def int) (int, error) {
	raw, ok := a[key]
	if !ok || raw == nil {
		return def, nil
	}

	var n int64
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %s must be a whole number", contractx.ErrInvalidArgument, key)
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return 0, outOfRange(key)
		}
		n = int64(v)
	case int:
		n = int64(v)
	case int64:
		n = v
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", contractx.ErrInvalidArgument, key, err)
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", contractx.ErrInvalidArgument, key)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("%w: %s has type %T", contractx.ErrInvalidArgument, key, raw)
	}

	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, outOfRange(key)
	}
	return int(n), nil
}

func outOfRange(key string) error {
	return fmt.Errorf("%w: %s is out of range", contractx.ErrInvalidArgument, key)
}
