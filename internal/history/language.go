package history

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// LanguageForPath derives a display language from a file path's extension
// using chroma's lexer registry. Unknown extensions and empty paths map to
// "plaintext", never an error.
func LanguageForPath(path string) string {
	if path == "" {
		return "plaintext"
	}
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return "plaintext"
	}
	name := lexer.Config().Name
	if name == "" {
		return "plaintext"
	}
	return strings.ToLower(name)
}
