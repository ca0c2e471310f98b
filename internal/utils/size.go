package utils

import (
	"fmt"
	"strings"
)

const bytesPerKilobyte = 1024

// FormatFileSize converts a byte length into a human-readable lower-case unit string.
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		return "0b"
	}
	units := []string{"b", "kb", "mb", "gb", "tb", "pb"}
	value := float64(bytes)
	unitIndex := 0
	for value >= bytesPerKilobyte && unitIndex < len(units)-1 {
		value /= bytesPerKilobyte
		unitIndex++
	}
	if unitIndex == 0 {
		return fmt.Sprintf("%db", bytes)
	}
	if value < 10 {
		formatted := strings.TrimSuffix(fmt.Sprintf("%.1f", value), ".0")
		return formatted + units[unitIndex]
	}
	return fmt.Sprintf("%.0f%s", value, units[unitIndex])
}

// FormatKilobytes renders bytes as kilobytes with one decimal, e.g. "12.5 KB".
func FormatKilobytes(bytes int64) string {
	return fmt.Sprintf("%.1f KB", float64(bytes)/bytesPerKilobyte)
}

// MegabytesToBytes converts a megabyte quantity to bytes. Non-positive input
// yields zero, which disables size limits downstream.
func MegabytesToBytes(megabytes float64) int64 {
	if megabytes <= 0 {
		return 0
	}
	return int64(megabytes * bytesPerKilobyte * bytesPerKilobyte)
}
