package extract

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/codegraph/internal/types"
)

// extensionLanguages is the closed extension-to-language lookup table.
// Unknown extensions map to LangUnknown and are still tracked as nodes so
// cross-references into non-code files stay representable.
var extensionLanguages = map[string]types.Language{
	".js":  types.LangJavaScript,
	".jsx": types.LangJavaScript,
	".mjs": types.LangJavaScript,
	".cjs": types.LangJavaScript,
	".ts":  types.LangTypeScript,
	".tsx": types.LangTypeScript,
	".mts": types.LangTypeScript,
	".cts": types.LangTypeScript,
	".py":  types.LangPython,
	".c":   types.LangCpp,
	".cc":  types.LangCpp,
	".cpp": types.LangCpp,
	".cxx": types.LangCpp,
	".h":   types.LangCpp,
	".hh":  types.LangCpp,
	".hpp": types.LangCpp,
	".hxx": types.LangCpp,
	".ino": types.LangArduino,
	".pde": types.LangArduino,
	".env": types.LangEnv,
}

// scriptExtensions are the specifier suffixes tried when a JS/TS import
// omits the extension. TypeScript files may import with a .js suffix
// that actually resolves to a .ts file, so both families share one list.
var scriptExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts"}

// cppExtensions are tried for extension-less quoted includes.
var cppExtensions = []string{".h", ".hpp", ".hh", ".hxx"}

// ClassifyLanguage maps a file path to its language by extension.
// Files named ".env", ".env.local" etc. classify as env regardless of
// how the extension splits.
func ClassifyLanguage(path string) types.Language {
	base := filepath.Base(path)
	if base == ".env" || strings.HasPrefix(base, ".env.") {
		return types.LangEnv
	}
	ext := strings.ToLower(filepath.Ext(base))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return types.LangUnknown
}

// ImportExtensions returns the extension variants the import resolver
// should try for a given source language.
func ImportExtensions(lang types.Language) []string {
	switch lang {
	case types.LangJavaScript, types.LangTypeScript:
		return scriptExtensions
	case types.LangPython:
		return []string{".py"}
	case types.LangCpp, types.LangArduino:
		return cppExtensions
	default:
		return nil
	}
}

// TriesIndexFile reports whether the language family resolves
// extension-less directory imports through an index file (JS/TS only).
func TriesIndexFile(lang types.Language) bool {
	return lang == types.LangJavaScript || lang == types.LangTypeScript
}
