// Package extract recovers JSON objects from noisy LLM text output.
//
// Models asked to "respond with only JSON" still wrap the object in
// markdown fences, prose, or backticks often enough that every consumer
// needs the same recovery ladder: direct parse, balanced-brace scan,
// fenced-block scan, each preceded by sanitization.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Tag reports how the JSON object was obtained.
type Tag string

const (
	// TagDirect means the text parsed as-is (modulo sanitization).
	TagDirect Tag = "direct"
	// TagExtracted means the object had to be carved out of surrounding
	// noise before it parsed.
	TagExtracted Tag = "extracted"
	// TagFailed means no parseable object was found.
	TagFailed Tag = "failed"
)

// ErrNoObject is returned when no JSON object can be recovered at all.
var ErrNoObject = errors.New("no JSON object found in text")

// Parse recovers a JSON object from raw and unmarshals it into v.
func Parse(raw string, v interface{}) (Tag, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TagFailed, ErrNoObject
	}

	var lastErr error

	if strings.HasPrefix(trimmed, "{") {
		// Valid JSON goes through untouched; sanitization is a repair
		// step and must never get the chance to damage a clean parse.
		if err := json.Unmarshal([]byte(trimmed), v); err == nil {
			return TagDirect, nil
		}
		err := json.Unmarshal([]byte(Sanitize(trimmed)), v)
		if err == nil {
			return TagDirect, nil
		}
		lastErr = err
	}

	if obj := BalancedObject(trimmed); obj != "" {
		err := json.Unmarshal([]byte(Sanitize(obj)), v)
		if err == nil {
			return TagExtracted, nil
		}
		lastErr = err
	}

	if block := FencedBlock(trimmed); block != "" {
		err := json.Unmarshal([]byte(Sanitize(block)), v)
		if err == nil {
			return TagExtracted, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return TagFailed, fmt.Errorf("text contains no parseable JSON object: %w", lastErr)
	}
	return TagFailed, ErrNoObject
}

// BalancedObject returns the substring from the first '{' to its matching
// '}' using brace-depth counting, or "" when no balanced object exists.
func BalancedObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// FencedBlock returns the contents of the first markdown code fence,
// preferring a ```json fence over a bare ``` one.
func FencedBlock(s string) string {
	for _, marker := range []string{"```json", "```"} {
		start := strings.Index(s, marker)
		if start == -1 {
			continue
		}
		rest := s[start+len(marker):]
		end := strings.Index(rest, "```")
		if end == -1 {
			continue
		}
		return strings.TrimSpace(rest[:end])
	}
	return ""
}

// Sanitize removes residual fence markers and backticks so the text can be
// handed to the JSON parser. Field values written as raw backtick-delimited
// blocks (template-literal style) are rewritten into proper JSON strings
// first, since their content must survive escaping rather than deletion.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = rewriteBacktickValues(s)
	s = strings.ReplaceAll(s, "`", "")
	return strings.TrimSpace(s)
}

// rewriteBacktickValues replaces `...` field values with JSON-escaped
// strings. Models emit these for multi-line code payloads, where raw
// newlines and quotes would otherwise break the parse. Colons inside
// double-quoted strings are not value positions and are left alone.
func rewriteBacktickValues(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	for i := 0; i < len(s); {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				b.WriteByte(s[i+1])
				i += 2
				continue
			}
			if c == '"' {
				inString = false
			}
			i++
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			i++
			continue
		}
		if c != ':' {
			b.WriteByte(c)
			i++
			continue
		}
		// Look ahead past whitespace for an opening backtick.
		j := i + 1
		for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
			j++
		}
		if j >= len(s) || s[j] != '`' {
			b.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(s[j+1:], '`')
		if end == -1 {
			b.WriteByte(c)
			i++
			continue
		}
		value := s[j+1 : j+1+end]
		b.WriteString(": ")
		b.WriteString(strconv.Quote(value))
		i = j + 1 + end + 1
	}
	return b.String()
}
