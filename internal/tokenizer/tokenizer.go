package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) int
}

// Config captures tokenizer selection parameters provided by the CLI.
type Config struct {
	Kind  string
	Model string
}

const (
	// KindHeuristic selects the word-and-symbol estimator.
	KindHeuristic = "heuristic"
	// KindTiktoken selects exact BPE counting through tiktoken.
	KindTiktoken = "tiktoken"

	defaultModel        = "gpt-4o"
	defaultEncodingName = "cl100k_base"
)

// Encodings are read from the files embedded in tiktoken-go-loader so that
// counting never reaches the network.
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// ErrUnknownTokenizer is returned for an unrecognised Config.Kind.
var ErrUnknownTokenizer = errors.New("unknown tokenizer")

// Kinds lists the accepted Config.Kind values.
func Kinds() []string {
	return []string{KindHeuristic, KindTiktoken}
}

// NewCounter returns a Counter for cfg together with the name of the encoding
// that will actually be used.
func NewCounter(cfg Config) (Counter, string, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	switch kind {
	case "", KindHeuristic:
		counter := EstimateCounter{}
		return counter, counter.Name(), nil
	case KindTiktoken:
		return newOpenAICounter(cfg.Model)
	default:
		return nil, "", fmt.Errorf("%w %q (expected one of %s)", ErrUnknownTokenizer, cfg.Kind, strings.Join(Kinds(), ", "))
	}
}

func newOpenAICounter(model string) (Counter, string, error) {
	resolvedModel := strings.ToLower(strings.TrimSpace(model))
	if resolvedModel == "" {
		resolvedModel = defaultModel
	}
	encoding, err := tiktoken.EncodingForModel(resolvedModel)
	if err == nil && encoding != nil {
		return openAICounter{encoding: encoding, name: resolvedModel}, resolvedModel, nil
	}
	fallback, fallbackErr := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackErr != nil {
		return nil, "", fmt.Errorf("initialize fallback tokenizer: %w", fallbackErr)
	}
	return openAICounter{encoding: fallback, name: defaultEncodingName}, defaultEncodingName, nil
}
