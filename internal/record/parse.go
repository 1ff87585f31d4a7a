package record

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// ParseTagInfo parses the serialized tag_info field of a dataset row into
// TagRecords. It accepts both strict JSON and Python literal syntax; the
// input is normalized to JSON before decoding. Empty lists and the literal
// placeholders "nan"/"None" yield an empty slice, not an error.
func ParseTagInfo(s string) ([]TagRecord, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "[]" || s == "nan" || s == "None" || s == "null" {
		return nil, nil
	}

	normalized, err := normalizeLiteral(s)
	if err != nil {
		return nil, fmt.Errorf("normalize tag_info: %w", err)
	}

	var records []TagRecord
	if err := json.Unmarshal([]byte(normalized), &records); err != nil {
		return nil, fmt.Errorf("decode tag_info: %w", err)
	}
	return records, nil
}

// normalizeLiteral rewrites Python-style literal structures into JSON:
// single-quoted strings become double-quoted (with escaping adjusted), and
// the bare constants True/False/None become true/false/null. Strict JSON
// input passes through unchanged.
func normalizeLiteral(s string) (string, error) {
	var out strings.Builder
	out.Grow(len(s))

	runes := []rune(s)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == '"':
			// Double-quoted string: copy verbatim including escapes.
			j, err := copyDoubleQuoted(&out, runes, i)
			if err != nil {
				return "", err
			}
			i = j

		case r == '\'':
			// Single-quoted string: re-quote as JSON.
			j, err := convertSingleQuoted(&out, runes, i)
			if err != nil {
				return "", err
			}
			i = j

		case unicode.IsLetter(r):
			// Bare word: may be a Python constant.
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			word := string(runes[i:j])
			switch word {
			case "True":
				out.WriteString("true")
			case "False":
				out.WriteString("false")
			case "None":
				out.WriteString("null")
			default:
				out.WriteString(word)
			}
			i = j

		default:
			out.WriteRune(r)
			i++
		}
	}
	return out.String(), nil
}

// copyDoubleQuoted copies a double-quoted string starting at runes[start]
// verbatim and returns the index just past the closing quote.
func copyDoubleQuoted(out *strings.Builder, runes []rune, start int) (int, error) {
	out.WriteRune('"')
	i := start + 1
	for i < len(runes) {
		r := runes[i]
		if r == '\\' && i+1 < len(runes) {
			out.WriteRune(r)
			out.WriteRune(runes[i+1])
			i += 2
			continue
		}
		out.WriteRune(r)
		i++
		if r == '"' {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unterminated string at offset %d", start)
}

// convertSingleQuoted converts a single-quoted string starting at
// runes[start] into a JSON double-quoted string and returns the index just
// past the closing quote. Escaped quotes inside the string are preserved;
// embedded double quotes gain an escape.
func convertSingleQuoted(out *strings.Builder, runes []rune, start int) (int, error) {
	out.WriteRune('"')
	i := start + 1
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes):
			next := runes[i+1]
			if next == '\'' {
				// \' is not a JSON escape; emit the bare quote.
				out.WriteRune('\'')
			} else {
				out.WriteRune('\\')
				out.WriteRune(next)
			}
			i += 2

		case r == '\'':
			out.WriteRune('"')
			return i + 1, nil

		case r == '"':
			out.WriteString(`\"`)
			i++

		default:
			out.WriteRune(r)
			i++
		}
	}
	return 0, fmt.Errorf("unterminated string at offset %d", start)
}
