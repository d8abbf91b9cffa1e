package runtime

import "unicode/utf16"

// JS strings are UTF-16 code-unit sequences (spec §4.1); we store them as
// Go UTF-8 strings and convert to/from UTF-16 code units at the handful of
// operations (length, charAt/charCodeAt, indexing, slicing) whose observable
// behavior depends on code-unit rather than rune counting.

// UTF16Length returns the string's length in UTF-16 code units.
func UTF16Length(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// UTF16CodeUnitAt returns the code unit at the given UTF-16 index and
// whether the index was in range.
func UTF16CodeUnitAt(s string, index int) (uint16, bool) {
	units := utf16.Encode([]rune(s))
	if index < 0 || index >= len(units) {
		return 0, false
	}
	return units[index], true
}

// UTF16Slice returns the substring spanning UTF-16 code units [start, end),
// clamped to the string's bounds, re-encoded to UTF-8.
func UTF16Slice(s string, start, end int) string {
	units := utf16.Encode([]rune(s))
	n := len(units)
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start >= end {
		return ""
	}
	return string(utf16.Decode(units[start:end]))
}

// UTF16At returns the one-code-unit string at index (ECMAScript's
// String.prototype.charAt semantics for indexing), or "" if out of range.
// A code unit that is half of a surrogate pair cannot be held in a Go
// UTF-8 string on its own; it comes back as U+FFFD.
func UTF16At(s string, index int) string {
	units := utf16.Encode([]rune(s))
	if index < 0 || index >= len(units) {
		return ""
	}
	return string(utf16.Decode(units[index : index+1]))
}
