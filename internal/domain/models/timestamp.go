package models

import "time"

// timeConverter is implemented by store-native timestamp values.
type timeConverter interface {
	Time() time.Time
}

// ResolveTimestamp normalizes the encodings a collection timestamp may come
// in. Strings are parsed as RFC 3339, store-native values are converted,
// and createdAt is the fallback. ok is false when nothing resolves.
func ResolveTimestamp(value any, createdAt string) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t, true
		}
	case time.Time:
		if !v.IsZero() {
			return v, true
		}
	case *time.Time:
		if v != nil && !v.IsZero() {
			return *v, true
		}
	case timeConverter:
		if t := v.Time(); !t.IsZero() {
			return t, true
		}
	}

	if createdAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
