package tokenizer

import (
	"unicode"
)

// EstimateCounter approximates tokens as the number of word runs plus the
// number of punctuation or symbol characters. Word runs are maximal sequences
// of letters, digits and underscores.
type EstimateCounter struct{}

// Name implements Counter.
func (EstimateCounter) Name() string {
	return KindHeuristic
}

// CountString implements Counter.
func (EstimateCounter) CountString(input string) int {
	tokens := 0
	insideWord := false
	for _, character := range input {
		switch {
		case isWordCharacter(character):
			if !insideWord {
				tokens++
				insideWord = true
			}
		case unicode.IsSpace(character):
			insideWord = false
		default:
			tokens++
			insideWord = false
		}
	}
	return tokens
}

func isWordCharacter(character rune) bool {
	return character == '_' || unicode.IsLetter(character) || unicode.IsDigit(character) || unicode.IsMark(character)
}
