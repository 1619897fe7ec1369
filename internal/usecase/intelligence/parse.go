package intelligence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Source tells which path produced a generator result
type Source string

const (
	SourceParsed   Source = "parsed"
	SourceFallback Source = "fallback_extracted"
)

// Extraction is a list result together with the path that produced it
type Extraction[T any] struct {
	Items  []T
	Source Source
}

var errNoJSON = errors.New("no JSON value in model response")

// ExtractJSON returns the first balanced JSON object or array found in raw.
// Content of a fenced code block is searched before the surrounding text.
func ExtractJSON(raw string) (string, bool) {
	for _, candidate := range []string{fencedBlock(raw), raw} {
		if candidate == "" {
			continue
		}
		if v, ok := firstJSONValue(candidate); ok {
			return v, true
		}
	}
	return "", false
}

func fencedBlock(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return ""
	}
	rest := s[start+3:]
	// skip the language tag line
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{[") {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func firstJSONValue(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		end := matchBrackets(s, i)
		if end < 0 {
			continue
		}
		if candidate := s[i : end+1]; json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// matchBrackets returns the index closing the bracket at start, honouring JSON strings
func matchBrackets(s string, start int) int {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// decodeJSON locates the JSON value in a model response and unmarshals it into v
func decodeJSON(raw string, v any) error {
	payload, ok := ExtractJSON(raw)
	if !ok {
		return errNoJSON
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	return nil
}

// decodeList accepts either a bare array or an object wrapping the array under one of keys
func decodeList[T any](raw string, keys ...string) ([]T, error) {
	payload, ok := ExtractJSON(raw)
	if !ok {
		return nil, errNoJSON
	}
	var items []T
	if strings.HasPrefix(payload, "[") {
		if err := json.Unmarshal([]byte(payload), &items); err != nil {
			return nil, fmt.Errorf("decode model response: %w", err)
		}
		return items, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &wrapper); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	for _, key := range keys {
		inner, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		return items, nil
	}
	return nil, fmt.Errorf("model response has none of %v", keys)
}

// optFloat accepts a number, a numeric string, or null
type optFloat struct {
	Value float64
	Valid bool
}

func (f *optFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = optFloat{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			// unparseable confidence is treated as absent
			*f = optFloat{}
			return nil
		}
		*f = optFloat{Value: v, Valid: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = optFloat{Value: v, Valid: true}
	return nil
}

// optTimestamp accepts seconds as a number, or "SS", "MM:SS", "HH:MM:SS" strings
type optTimestamp struct {
	Seconds float64
	Valid   bool
}

func (t *optTimestamp) UnmarshalJSON(b []byte) error {
	var n optFloat
	if err := n.UnmarshalJSON(b); err == nil && n.Valid {
		*t = optTimestamp{Seconds: n.Value, Valid: n.Value >= 0}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*t = optTimestamp{}
		return nil
	}
	secs, ok := ParseTimestamp(s)
	*t = optTimestamp{Seconds: secs, Valid: ok}
	return nil
}

func (t optTimestamp) ptr() *float64 {
	if !t.Valid {
		return nil
	}
	v := t.Seconds
	return &v
}

// ParseTimestamp reads "SS", "MM:SS" or "HH:MM:SS", optionally wrapped in brackets
func ParseTimestamp(s string) (float64, bool) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 {
			return 0, false
		}
		total = total*60 + v
	}
	return total, true
}

func parseDueDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// keepConfidence applies a stage threshold. A missing confidence counts as the threshold itself.
func keepConfidence(c optFloat, threshold float64) (float64, bool) {
	if !c.Valid {
		return threshold, true
	}
	v := c.Value
	// some models answer on a 0-100 scale
	if v > 1 && v <= 100 {
		v /= 100
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v, v >= threshold
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
