package tokenizer

import (
	"sort"
	"strings"
)

// TruncationMarker terminates content that was cut to fit a token ceiling.
const TruncationMarker = "[truncated]"

const lineSeparator = "\n"

// Bounded is text fitted to a token ceiling.
type Bounded struct {
	Text      string
	Tokens    int
	Truncated bool
}

// Bound fits cleanedText within maxTokens as measured by counter. A
// non-positive maxTokens disables the ceiling. Text over the ceiling is cut
// to the longest whole-line prefix that still fits once the marker line is
// appended; when not even the first line fits, the first line is cut by runes,
// and when nothing fits the marker is returned alone. Tokens is always the
// count of the returned Text.
func Bound(counter Counter, cleanedText string, maxTokens int) Bounded {
	if counter == nil {
		counter = EstimateCounter{}
	}
	tokens := counter.CountString(cleanedText)
	if maxTokens <= 0 || tokens <= maxTokens {
		return Bounded{Text: cleanedText, Tokens: tokens}
	}

	withMarker := func(prefix string) string {
		return prefix + lineSeparator + TruncationMarker
	}
	fits := func(prefix string) bool {
		return counter.CountString(withMarker(prefix)) <= maxTokens
	}

	lines := strings.Split(cleanedText, lineSeparator)
	keptLines := largestFitting(len(lines)-1, func(count int) bool {
		return fits(strings.Join(lines[:count], lineSeparator))
	})
	if keptLines > 0 {
		text := withMarker(strings.Join(lines[:keptLines], lineSeparator))
		return Bounded{Text: text, Tokens: counter.CountString(text), Truncated: true}
	}

	firstLine := []rune(lines[0])
	keptRunes := largestFitting(len(firstLine)-1, func(count int) bool {
		return fits(string(firstLine[:count]))
	})
	if keptRunes > 0 {
		text := withMarker(string(firstLine[:keptRunes]))
		return Bounded{Text: text, Tokens: counter.CountString(text), Truncated: true}
	}

	return Bounded{Text: TruncationMarker, Tokens: counter.CountString(TruncationMarker), Truncated: true}
}

// largestFitting returns the largest count in [1, upper] accepted by fits, or
// zero when none is. fits must be monotone: once false it stays false.
func largestFitting(upper int, fits func(count int) bool) int {
	if upper < 1 {
		return 0
	}
	firstRejected := sort.Search(upper, func(index int) bool {
		return !fits(index + 1)
	})
	return firstRejected
}
