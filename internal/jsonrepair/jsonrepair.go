// Package jsonrepair extracts a usable JSON value out of a raw LLM text
// response that is expected to contain JSON but may be wrapped in prose,
// fenced in Markdown, truncated mid-object, or otherwise malformed. It is
// the first stage of the Safe LLM Call contract.
package jsonrepair

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrUnrecoverable is returned when no stage could produce valid JSON.
var ErrUnrecoverable = errors.New("jsonrepair: no usable JSON could be recovered")

// Extract attempts, in order: a direct parse of the trimmed input; parsing
// the content of a fenced ```json code block; extracting the largest
// balanced {...} span; applying known-safe textual fixups to that span
// (trailing commas, an unterminated trailing string); and finally salvaging
// the longest valid JSON prefix of the balanced span. It returns the raw
// JSON bytes of the first stage that parses successfully.
func Extract(raw string) ([]byte, error) {
	candidates := []func(string) (string, bool){
		directCandidate,
		fencedCandidate,
		balancedObjectCandidate,
	}

	for _, find := range candidates {
		text, ok := find(raw)
		if !ok {
			continue
		}
		if json.Valid([]byte(text)) {
			return []byte(text), nil
		}
		if fixed, ok := applyFixups(text); ok {
			return []byte(fixed), nil
		}
		if salvaged, ok := longestValidPrefix(text); ok {
			return []byte(salvaged), nil
		}
	}

	return nil, ErrUnrecoverable
}

func directCandidate(raw string) (string, bool) {
	t := strings.TrimSpace(raw)
	if t == "" {
		return "", false
	}
	return t, true
}

func fencedCandidate(raw string) (string, bool) {
	const fenceJSON = "```json"
	const fence = "```"

	start := strings.Index(raw, fenceJSON)
	skip := len(fenceJSON)
	if start < 0 {
		start = strings.Index(raw, fence)
		skip = len(fence)
		if start < 0 {
			return "", false
		}
	}
	rest := raw[start+skip:]
	end := strings.Index(rest, fence)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// balancedObjectCandidate finds the largest substring starting at the first
// '{' and ending at its matching '}', tracking string state so braces inside
// quoted strings are ignored.
func balancedObjectCandidate(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	lastClose := -1

	for i := start; i < len(raw); i++ {
		c := raw[i]
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
			depth++
		case '}':
			depth--
			if depth == 0 {
				lastClose = i
			}
		}
	}

	if lastClose < 0 {
		// Unterminated: take everything from the first brace onward, the
		// fixup/salvage stages will attempt to close it.
		return raw[start:], true
	}
	return raw[start : lastClose+1], true
}

// applyFixups tries a small set of known-safe textual repairs: stripping
// trailing commas before a closing bracket/brace, and closing an
// unterminated trailing string.
func applyFixups(text string) (string, bool) {
	fixed := stripTrailingCommas(text)
	if json.Valid([]byte(fixed)) {
		return fixed, true
	}

	fixed = closeUnterminatedString(fixed)
	fixed = stripTrailingCommas(fixed)
	if json.Valid([]byte(fixed)) {
		return fixed, true
	}

	fixed = closeDanglingBrackets(fixed)
	if json.Valid([]byte(fixed)) {
		return fixed, true
	}

	return "", false
}

func stripTrailingCommas(s string) string {
	var out bytes.Buffer
	inString := false
	escaped := false
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if inString {
			out.WriteRune(c)
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
		if c == '"' {
			inString = true
			out.WriteRune(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(runes) && (runes[j] == ' ' || runes[j] == '\n' || runes[j] == '\t' || runes[j] == '\r') {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				continue
			}
		}
		out.WriteRune(c)
	}
	return out.String()
}

func closeUnterminatedString(s string) string {
	inString := false
	escaped := false
	for _, c := range s {
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
		if c == '"' {
			inString = true
		}
	}
	if inString {
		return s + `"`
	}
	return s
}

func closeDanglingBrackets(s string) string {
	var stack []byte
	inString := false
	escaped := false
	for _, c := range s {
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
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	var b strings.Builder
	b.WriteString(s)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

// longestValidPrefix binary-searches for the longest prefix of text that,
// once dangling brackets are closed, parses as valid JSON. This is the last
// resort for a response truncated mid-value.
func longestValidPrefix(text string) (string, bool) {
	lo, hi := 0, len(text)
	best := ""
	for lo <= hi {
		mid := (lo + hi) / 2
		candidate := closeDanglingBrackets(stripTrailingCommas(text[:mid]))
		if json.Valid([]byte(candidate)) {
			best = candidate
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}
