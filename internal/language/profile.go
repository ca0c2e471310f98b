// Package language maps file extensions to comment syntax profiles.
package language

import (
	"path/filepath"
	"sort"
	"strings"
)

// Kind tags a Profile variant.
type Kind int

const (
	// KindPlainText profiles only receive blank-line elimination.
	KindPlainText Kind = iota
	// KindCode profiles carry comment syntax.
	KindCode
)

// PlainTextName is the language name used for unregistered extensions.
const PlainTextName = "text"

// Delimiters is a block comment start/end pair.
type Delimiters struct {
	Start string
	End   string
}

// Profile describes the comment syntax of one file extension.
type Profile struct {
	Name               string
	Extension          string
	Kind               Kind
	LineCommentMarkers []string
	BlockCommentPairs  []Delimiters
}

// IsPlainText reports whether the profile has no comment syntax.
func (profile Profile) IsPlainText() bool {
	return profile.Kind == KindPlainText
}

var (
	hashLine            = []string{"#"}
	slashLine           = []string{"//"}
	cStyleBlock         = []Delimiters{{Start: "/*", End: "*/"}}
	pythonBlock         = []Delimiters{{Start: `"""`, End: `"""`}, {Start: "'''", End: "'''"}}
	rubyBlock           = []Delimiters{{Start: "=begin", End: "=end"}}
	profilesByExtension = map[string]Profile{}
)

func code(name string, lineMarkers []string, blockPairs []Delimiters, extensions ...string) {
	for _, extension := range extensions {
		profilesByExtension[extension] = Profile{
			Name:               name,
			Extension:          extension,
			Kind:               KindCode,
			LineCommentMarkers: lineMarkers,
			BlockCommentPairs:  blockPairs,
		}
	}
}

func plain(name string, extensions ...string) {
	for _, extension := range extensions {
		profilesByExtension[extension] = Profile{Name: name, Extension: extension, Kind: KindPlainText}
	}
}

func init() {
	code("python", hashLine, pythonBlock, ".py", ".pyi")
	code("javascript", slashLine, cStyleBlock, ".js", ".jsx", ".mjs", ".cjs")
	code("typescript", slashLine, cStyleBlock, ".ts", ".tsx")
	code("java", slashLine, cStyleBlock, ".java")
	code("go", slashLine, cStyleBlock, ".go")
	code("rust", slashLine, cStyleBlock, ".rs")
	code("c", slashLine, cStyleBlock, ".c")
	code("cpp", slashLine, cStyleBlock, ".cpp", ".cc", ".cxx", ".hpp", ".h")
	code("csharp", slashLine, cStyleBlock, ".cs")
	code("kotlin", slashLine, cStyleBlock, ".kt", ".kts")
	code("swift", slashLine, cStyleBlock, ".swift")
	code("scala", slashLine, cStyleBlock, ".scala")
	code("ruby", hashLine, rubyBlock, ".rb")

	plain("php", ".php")
	plain("bash", ".sh")
	plain("yaml", ".yaml", ".yml")
	plain("json", ".json")
	plain("toml", ".toml")
	plain("markdown", ".md")
	plain(PlainTextName, ".txt")
}

// ForExtension returns the profile registered for extension (with or without
// the leading dot, any case). Unregistered extensions resolve to the plain
// text profile.
func ForExtension(extension string) Profile {
	normalized := strings.ToLower(strings.TrimSpace(extension))
	if normalized != "" && !strings.HasPrefix(normalized, ".") {
		normalized = "." + normalized
	}
	if profile, registered := profilesByExtension[normalized]; registered {
		return profile
	}
	return Profile{Name: PlainTextName, Extension: normalized, Kind: KindPlainText}
}

// Lookup returns the profile for the extension of filePath.
func Lookup(filePath string) Profile {
	return ForExtension(filepath.Ext(filePath))
}

// IsSupported reports whether filePath has a registered extension.
func IsSupported(filePath string) bool {
	_, registered := profilesByExtension[strings.ToLower(filepath.Ext(filePath))]
	return registered
}

// Extensions lists every registered extension in lexical order.
func Extensions() []string {
	extensions := make([]string, 0, len(profilesByExtension))
	for extension := range profilesByExtension {
		extensions = append(extensions, extension)
	}
	sort.Strings(extensions)
	return extensions
}
