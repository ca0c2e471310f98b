// Package cleaner strips comments and blank lines from source text.
//
// Comment removal is a textual scan driven by a language.Profile, not a lexer:
// a comment marker inside a string literal is treated like any other marker.
package cleaner

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/temirov/flatten/internal/language"
)

const (
	lineSeparator         = "\n"
	multilineFlag         = `(?m)`
	restOfLine            = `.*$`
	blockCommentInterior  = `[\s\S]*?`
	carriageReturnNewline = "\r\n"
	carriageReturn        = "\r"

	expressionCacheSize = 128
)

// expressionCache holds compiled comment expressions keyed by source.
var expressionCache = newExpressionCache()

func newExpressionCache() *lru.Cache[string, *regexp.Regexp] {
	cache, err := lru.New[string, *regexp.Regexp](expressionCacheSize)
	if err != nil {
		panic(err)
	}
	return cache
}

// Clean removes line comments, block comments and blank lines, in that order.
// Plain-text profiles only lose their blank lines. Surviving lines keep their
// content and indentation exactly.
func Clean(rawText string, profile language.Profile) string {
	text := rawText
	if !profile.IsPlainText() {
		text = RemoveLineComments(text, profile.LineCommentMarkers)
		text = RemoveBlockComments(text, profile.BlockCommentPairs)
	}
	return RemoveBlankLines(text)
}

// RemoveLineComments deletes everything from the first occurrence of each
// marker to the end of its physical line.
func RemoveLineComments(text string, markers []string) string {
	for _, marker := range markers {
		if marker == "" || !strings.Contains(text, marker) {
			continue
		}
		expression := cachedExpression(multilineFlag + regexp.QuoteMeta(marker) + restOfLine)
		text = expression.ReplaceAllLiteralString(text, "")
	}
	return text
}

// RemoveBlockComments deletes every minimal span from a start delimiter to the
// nearest following end delimiter, across line boundaries. An unterminated
// start delimiter is left in place.
func RemoveBlockComments(text string, pairs []language.Delimiters) string {
	for _, pair := range pairs {
		if pair.Start == "" || pair.End == "" || !strings.Contains(text, pair.Start) {
			continue
		}
		expression := cachedExpression(regexp.QuoteMeta(pair.Start) + blockCommentInterior + regexp.QuoteMeta(pair.End))
		text = expression.ReplaceAllLiteralString(text, "")
	}
	return text
}

// RemoveBlankLines drops whitespace-only lines and joins the rest with a
// single newline.
func RemoveBlankLines(text string) string {
	if text == "" {
		return ""
	}
	normalized := strings.ReplaceAll(text, carriageReturnNewline, lineSeparator)
	normalized = strings.ReplaceAll(normalized, carriageReturn, lineSeparator)
	physicalLines := strings.Split(normalized, lineSeparator)
	kept := physicalLines[:0]
	for _, line := range physicalLines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, lineSeparator)
}

// CountLines returns the number of newline-separated segments in cleaned text.
func CountLines(cleanedText string) int {
	if cleanedText == "" {
		return 0
	}
	return strings.Count(cleanedText, lineSeparator) + 1
}

func cachedExpression(source string) *regexp.Regexp {
	if cached, found := expressionCache.Get(source); found {
		return cached
	}
	compiled := regexp.MustCompile(source)
	expressionCache.Add(source, compiled)
	return compiled
}
