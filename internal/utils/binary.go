package utils

import (
	"bytes"
	"unicode/utf8"
)

// sniffLength bounds the prefix scanned for NUL bytes.
const sniffLength = 8000

// IsBinary reports whether data should be treated as binary: a NUL byte in
// the leading sniff window, or content that is not valid UTF-8.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	window := data
	if len(window) > sniffLength {
		window = window[:sniffLength]
	}
	if bytes.IndexByte(window, 0) >= 0 {
		return true
	}
	return !utf8.Valid(data)
}
