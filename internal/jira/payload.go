package jira

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Payload is a loosely-typed tracker document as decoded from JSON.
// Every accessor walks a path of object keys and returns the zero value
// (or the supplied default) when any step is missing or has the wrong shape.
type Payload map[string]any

// DecodePayload parses a JSON document into a Payload.
func DecodePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// DecodeIssues parses a saved tracker response into issues. It accepts a
// single issue object, an array of issue objects, or a search response
// ({"issues": [...], "names": {...}}) whose names apply to every issue.
func DecodeIssues(data []byte) ([]Issue, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var raw []Payload
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, err
		}
		issues := make([]Issue, 0, len(raw))
		for _, p := range raw {
			issues = append(issues, toIssue(p, namesOf(p)))
		}
		return issues, nil
	}

	p, err := DecodePayload(trimmed)
	if err != nil {
		return nil, err
	}
	if !p.Has("key") && !p.Has("id") && p.Has("issues") {
		names := namesOf(p)
		raw := p.Maps("issues")
		issues := make([]Issue, 0, len(raw))
		for _, item := range raw {
			issues = append(issues, toIssue(item, names))
		}
		return issues, nil
	}
	return []Issue{toIssue(p, namesOf(p))}, nil
}

// Get returns the raw value at path, or nil.
func (p Payload) Get(path ...string) any {
	var cur any = map[string]any(p)
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil
		}
		cur, ok = m[key]
		if !ok {
			return nil
		}
	}
	return cur
}

// Has reports whether a non-null value exists at path.
func (p Payload) Has(path ...string) bool {
	return p.Get(path...) != nil
}

// String returns the string at path. Numbers and booleans are formatted,
// anything else yields "".
func (p Payload) String(path ...string) string {
	return Stringify(p.Get(path...))
}

// StringOr returns the string at path or def when it is empty.
func (p Payload) StringOr(def string, path ...string) string {
	if s := p.String(path...); s != "" {
		return s
	}
	return def
}

// Float returns the number at path. Numeric strings are accepted.
func (p Payload) Float(path ...string) (float64, bool) {
	return toFloat(p.Get(path...))
}

// Int64 returns the number at path truncated to an integer.
func (p Payload) Int64(path ...string) (int64, bool) {
	f, ok := p.Float(path...)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// Bool returns the boolean at path.
func (p Payload) Bool(path ...string) bool {
	switch v := p.Get(path...).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// Map returns the object at path, or an empty Payload.
func (p Payload) Map(path ...string) Payload {
	if m, ok := asMap(p.Get(path...)); ok {
		return Payload(m)
	}
	return Payload{}
}

// Slice returns the array at path, or nil.
func (p Payload) Slice(path ...string) []any {
	if s, ok := p.Get(path...).([]any); ok {
		return s
	}
	return nil
}

// Maps returns the objects of the array at path. Non-object elements are skipped.
func (p Payload) Maps(path ...string) []Payload {
	raw := p.Slice(path...)
	if len(raw) == 0 {
		return nil
	}
	out := make([]Payload, 0, len(raw))
	for _, item := range raw {
		if m, ok := asMap(item); ok {
			out = append(out, Payload(m))
		}
	}
	return out
}

// Strings returns the string elements of the array at path.
func (p Payload) Strings(path ...string) []string {
	raw := p.Slice(path...)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s := Stringify(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Time parses the timestamp at path.
func (p Payload) Time(path ...string) (time.Time, bool) {
	return ParseTime(p.String(path...))
}

// TimePtr is Time returning nil when the value is absent or unparseable.
func (p Payload) TimePtr(path ...string) *time.Time {
	if t, ok := p.Time(path...); ok {
		return &t
	}
	return nil
}

// Stringify renders scalar JSON values as strings.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Payload:
		return m, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	}
	return 0, false
}
