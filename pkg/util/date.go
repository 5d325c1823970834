package util

import (
    "strconv"
    "strings"
    "time"
)

// Layouts accepted for source timestamps, tried in order. Upstream ecosystems
// emit a mix of ISO-8601 variants and space-separated datetimes.
var timeLayouts = []string{
    time.RFC3339Nano,
    time.RFC3339,
    "2006-01-02T15:04:05.999999",
    "2006-01-02T15:04:05",
    "2006-01-02 15:04:05",
    "2006-01-02",
}

// ParseTime tries the known layouts and unix seconds/millis. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    s = strings.TrimSpace(s)
    if s == "" {
        return time.Time{}, false
    }
    for _, layout := range timeLayouts {
        if t, err := time.Parse(layout, s); err == nil {
            return t, true
        }
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        if ts > 1e12 {
            return time.UnixMilli(ts), true
        }
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// CoerceTime accepts time.Time, textual timestamps, or epoch numbers and
// falls back to def when nothing parses.
func CoerceTime(v any, def time.Time) time.Time {
    switch t := v.(type) {
    case time.Time:
        return t
    case nil:
        return def
    case float64:
        if t <= 0 {
            return def
        }
        if t > 1e12 {
            return time.UnixMilli(int64(t))
        }
        return time.Unix(int64(t), 0)
    case int64:
        if t <= 0 {
            return def
        }
        return time.Unix(t, 0)
    default:
        return ParseTimeDefault(Stringify(t), def)
    }
}
