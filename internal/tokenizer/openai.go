package tokenizer

import (
	"github.com/pkoukk/tiktoken-go"
)

type openAICounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter openAICounter) Name() string {
	return counter.name
}

// CountString encodes input with special tokens treated as ordinary text.
func (counter openAICounter) CountString(input string) int {
	if counter.encoding == nil || input == "" {
		return 0
	}
	return len(counter.encoding.EncodeOrdinary(input))
}
