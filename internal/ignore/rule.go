// Package ignore translates gitignore-style glob patterns into anchored
// matchers and decides whether a path inside the processed tree is excluded.
package ignore

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	pathSeparator        = "/"
	negationPrefix       = "!"
	unanchoredPrefix     = `(?:^|/)`
	anchoredPrefix       = `^`
	patternSuffix        = `$`
	anySegmentsPattern   = `.*`
	leadingDoubleStar    = `(?:.*/)?`
	innerDoubleStar      = `/(?:.*/)?`
	trailingDoubleStar   = `/.*`
	singleSegmentPattern = `[^/]*`
	singleCharPattern    = `[^/]`
)

var (
	// ErrEmptyPattern is returned for patterns that are empty after trimming.
	ErrEmptyPattern = errors.New("empty ignore pattern")
	// ErrNegationUnsupported is returned for gitignore negation patterns.
	ErrNegationUnsupported = errors.New("negation patterns are not supported")
	// ErrMalformedPattern is wrapped by every error describing an invalid glob.
	ErrMalformedPattern = errors.New("malformed ignore pattern")
)

// Rule is one compiled ignore pattern. A Rule is immutable and safe for
// concurrent use.
type Rule struct {
	// Source is the pattern as written by the user.
	Source string
	// Base scopes the rule to a sub-directory of the root (forward slashes,
	// no trailing slash). Empty for root-level rules.
	Base string
	// DirectoryOnly is set when the pattern ended with a slash.
	DirectoryOnly bool
	// Anchored is set when the pattern started with a slash.
	Anchored bool

	matcher *regexp.Regexp
}

// Translate compiles a single glob pattern. A malformed or unsupported pattern
// yields a Rule that matches nothing together with a non-nil error, so callers
// can log the problem and keep the rule set intact.
func Translate(pattern string) (Rule, error) {
	rule := Rule{Source: pattern}
	body := strings.TrimSpace(pattern)
	if body == "" {
		return rule, ErrEmptyPattern
	}
	if strings.HasPrefix(body, negationPrefix) {
		return rule, fmt.Errorf("%q: %w", pattern, ErrNegationUnsupported)
	}

	if strings.HasSuffix(body, pathSeparator) && !strings.HasSuffix(body, `\/`) {
		rule.DirectoryOnly = true
		body = strings.TrimRight(body, pathSeparator)
	}
	if strings.HasPrefix(body, pathSeparator) {
		rule.Anchored = true
		body = strings.TrimLeft(body, pathSeparator)
	}
	if body == "" {
		return Rule{Source: pattern}, fmt.Errorf("%q: nothing left after slashes: %w", pattern, ErrMalformedPattern)
	}

	expression, translateError := globToExpression(body)
	if translateError != nil {
		return Rule{Source: pattern}, fmt.Errorf("%q: %w", pattern, translateError)
	}
	prefix := unanchoredPrefix
	if rule.Anchored {
		prefix = anchoredPrefix
	}
	compiled, compileError := regexp.Compile(prefix + expression + patternSuffix)
	if compileError != nil {
		return Rule{Source: pattern}, fmt.Errorf("%q: %v: %w", pattern, compileError, ErrMalformedPattern)
	}
	rule.matcher = compiled
	return rule, nil
}

// MustTranslate is like Translate but panics on error. Intended for constant
// patterns.
func MustTranslate(pattern string) Rule {
	rule, err := Translate(pattern)
	if err != nil {
		panic(err)
	}
	return rule
}

// Scoped returns a copy of the rule restricted to paths under base.
func (rule Rule) Scoped(base string) Rule {
	scoped := rule
	scoped.Base = strings.Trim(normalizePath(base), pathSeparator)
	if scoped.Base == "." {
		scoped.Base = ""
	}
	return scoped
}

// IsNoop reports whether the rule can never match (the result of a
// malformed or unsupported pattern).
func (rule Rule) IsNoop() bool {
	return rule.matcher == nil
}

// Expression returns the compiled regular expression, or an empty string for
// a no-op rule.
func (rule Rule) Expression() string {
	if rule.matcher == nil {
		return ""
	}
	return rule.matcher.String()
}

// MatchString reports whether the normalised path matches the rule body.
// Directory-only handling and ancestor expansion are the Matcher's concern.
func (rule Rule) MatchString(normalizedPath string) bool {
	if rule.matcher == nil {
		return false
	}
	return rule.matcher.MatchString(normalizedPath)
}

func (rule Rule) String() string {
	if rule.Base == "" {
		return rule.Source
	}
	return rule.Base + pathSeparator + rule.Source
}

// globToExpression converts a slash-trimmed glob body to a regular
// expression fragment without anchors.
func globToExpression(glob string) (string, error) {
	var builder strings.Builder
	runes := []rune(glob)
	for index := 0; index < len(runes); index++ {
		current := runes[index]
		switch current {
		case '\\':
			if index+1 >= len(runes) {
				return "", fmt.Errorf("trailing escape: %w", ErrMalformedPattern)
			}
			index++
			builder.WriteString(regexp.QuoteMeta(string(runes[index])))
		case '*':
			if index+1 < len(runes) && runes[index+1] == '*' {
				index = writeDoubleStar(&builder, runes, index)
				continue
			}
			builder.WriteString(singleSegmentPattern)
		case '?':
			builder.WriteString(singleCharPattern)
		case '[':
			closing, class, classError := bracketExpression(runes, index)
			if classError != nil {
				return "", classError
			}
			builder.WriteString(class)
			index = closing
		default:
			builder.WriteString(regexp.QuoteMeta(string(current)))
		}
	}
	return builder.String(), nil
}

// writeDoubleStar emits the expression for a run of two or more stars
// starting at index and returns the index of the last consumed rune.
func writeDoubleStar(builder *strings.Builder, runes []rune, index int) int {
	end := index
	for end+1 < len(runes) && runes[end+1] == '*' {
		end++
	}
	atStart := index == 0
	followedBySlash := end+1 < len(runes) && runes[end+1] == '/'
	precededBySlash := index > 0 && runes[index-1] == '/'
	atEnd := end+1 == len(runes)

	switch {
	case atStart && followedBySlash:
		builder.WriteString(leadingDoubleStar)
		return end + 1
	case precededBySlash && followedBySlash:
		trimmed := strings.TrimSuffix(builder.String(), pathSeparator)
		builder.Reset()
		builder.WriteString(trimmed)
		builder.WriteString(innerDoubleStar)
		return end + 1
	case precededBySlash && atEnd:
		trimmed := strings.TrimSuffix(builder.String(), pathSeparator)
		builder.Reset()
		builder.WriteString(trimmed)
		builder.WriteString(trailingDoubleStar)
		return end
	default:
		builder.WriteString(anySegmentsPattern)
		return end
	}
}

// bracketExpression translates the character class starting at openIndex and
// returns the index of its closing bracket.
func bracketExpression(runes []rune, openIndex int) (int, string, error) {
	index := openIndex + 1
	negated := false
	if index < len(runes) && (runes[index] == '!' || runes[index] == '^') {
		negated = true
		index++
	}
	var members strings.Builder
	first := true
	for ; index < len(runes); index++ {
		current := runes[index]
		if current == ']' && !first {
			if members.Len() == 0 {
				return 0, "", fmt.Errorf("empty bracket expression: %w", ErrMalformedPattern)
			}
			if negated {
				return index, "[^/" + members.String() + "]", nil
			}
			memberClass := "[" + members.String() + "]"
			compiledClass, compileError := regexp.Compile(memberClass)
			if compileError != nil {
				return 0, "", fmt.Errorf("bracket expression %s: %w", memberClass, ErrMalformedPattern)
			}
			if compiledClass.MatchString("/") {
				return 0, "", fmt.Errorf("bracket range spans the separator: %w", ErrMalformedPattern)
			}
			return index, "(?:" + memberClass + ")", nil
		}
		first = false
		switch current {
		case '\\':
			if index+1 >= len(runes) {
				return 0, "", fmt.Errorf("trailing escape in bracket expression: %w", ErrMalformedPattern)
			}
			index++
			members.WriteString(regexp.QuoteMeta(string(runes[index])))
		case '/':
			return 0, "", fmt.Errorf("separator inside bracket expression: %w", ErrMalformedPattern)
		case '-':
			members.WriteRune('-')
		case ']', '[', '^':
			members.WriteString(`\` + string(current))
		default:
			members.WriteString(regexp.QuoteMeta(string(current)))
		}
	}
	return 0, "", fmt.Errorf("unbalanced bracket expression: %w", ErrMalformedPattern)
}
