package util

import (
    "fmt"
    "strconv"
    "strings"
)

// Stringify renders scalar payload values the way upstream systems do.
func Stringify(v any) string {
    switch s := v.(type) {
    case nil:
        return ""
    case string:
        return s
    case fmt.Stringer:
        return s.String()
    default:
        return fmt.Sprintf("%v", v)
    }
}

// MaybeFloat coerces a payload value to *float64. Invalid or missing values
// yield nil rather than an error; source payloads are not trusted.
func MaybeFloat(v any) *float64 {
    switch n := v.(type) {
    case nil:
        return nil
    case float64:
        return &n
    case float32:
        f := float64(n)
        return &f
    case int:
        f := float64(n)
        return &f
    case int64:
        f := float64(n)
        return &f
    case string:
        f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
        if err != nil {
            return nil
        }
        return &f
    default:
        return nil
    }
}

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
    n, err := strconv.Atoi(strings.TrimSpace(s))
    if err != nil {
        return def
    }
    return n
}

// MaybeInt coerces to int, returning def when the value is absent or invalid.
func MaybeInt(v any, def int) int {
    if f := MaybeFloat(v); f != nil {
        return int(*f)
    }
    return def
}

// MaybeBool coerces truthy payload values, defaulting when absent.
func MaybeBool(v any, def bool) bool {
    switch b := v.(type) {
    case nil:
        return def
    case bool:
        return b
    case string:
        parsed, err := strconv.ParseBool(strings.TrimSpace(b))
        if err != nil {
            return def
        }
        return parsed
    case float64:
        return b != 0
    default:
        return def
    }
}

// FirstNonEmpty returns the first alias present in the payload with a
// non-empty string rendering.
func FirstNonEmpty(payload map[string]any, keys ...string) string {
    for _, k := range keys {
        if v, ok := payload[k]; ok {
            if s := strings.TrimSpace(Stringify(v)); s != "" {
                return s
            }
        }
    }
    return ""
}

// FirstPresent returns the first alias key holding any value, including
// non-string ones.
func FirstPresent(payload map[string]any, keys ...string) (any, bool) {
    for _, k := range keys {
        if v, ok := payload[k]; ok && v != nil {
            return v, true
        }
    }
    return nil, false
}
