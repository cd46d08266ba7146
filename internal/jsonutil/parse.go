// Package jsonutil provides utilities for extracting and parsing JSON from
// LLM responses that may be wrapped in markdown code fences or embedded in prose.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const fence = "```"

// StripMarkdownFences removes ```json ... ``` or ``` ... ``` wrapping from text.
// Fence lines are dropped wherever they appear, so a response that opens with
// prose before the fenced block is handled too. Text without fences is
// returned trimmed and otherwise unchanged.
func StripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, fence) {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, fence) {
			// Single-line fenced payload: ```{"a":1}```
			inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, fence), fence)
			inner = strings.TrimPrefix(inner, "json")
			if strings.TrimSpace(inner) != "" && strings.HasSuffix(trimmed, fence) && len(trimmed) > 2*len(fence) {
				kept = append(kept, inner)
			}
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// ExtractJSON returns the first complete JSON object or array in text. The
// scan tracks string literals, so braces inside values and stray braces in
// trailing prose do not end the value early or late.
func ExtractJSON(text string) (string, error) {
	value, _, err := extractFrom(text)
	return value, err
}

// extractFrom is ExtractJSON that also reports where the value starts.
func extractFrom(text string) (string, int, error) {
	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return "", -1, errors.New("no JSON content found")
	}

	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := start; i < len(text); i++ {
		c := text[i]
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
				return "", start, fmt.Errorf("unbalanced %q at offset %d", c, i)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return text[start : i+1], start, nil
			}
		}
	}
	return "", start, fmt.Errorf("unterminated JSON value starting at offset %d", start)
}

// ParseJSON strips fences from a model response and decodes the first JSON
// value that fits T. Bracketed prose ahead of the payload, such as
// "[JSON]:", is skipped by retrying from the next opening brace or bracket.
// The error of the first candidate is reported when none decodes.
func ParseJSON[T any](raw string) (T, error) {
	text := StripMarkdownFences(raw)
	var firstErr error
	for offset := 0; offset < len(text); {
		body, start, err := extractFrom(text[offset:])
		if start == -1 {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w (raw length: %d)", err, len(raw))
			}
			break
		}
		if err == nil {
			var out T
			if err = json.Unmarshal([]byte(body), &out); err == nil {
				return out, nil
			}
			preview := body
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			err = fmt.Errorf("invalid JSON: %w (text: %s)", err, preview)
		} else {
			err = fmt.Errorf("%w (raw length: %d)", err, len(raw))
		}
		if firstErr == nil {
			firstErr = err
		}
		offset += start + 1
	}
	if firstErr == nil {
		firstErr = fmt.Errorf("no JSON content found (raw length: %d)", len(raw))
	}
	var zero T
	return zero, firstErr
}
