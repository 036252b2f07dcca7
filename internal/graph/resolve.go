// Package graph builds the project dependency graph from scanned file
// records and answers queries over it: direct and transitive dependency
// lookups, bounded subgraphs, entry points, statistics, bridge detection,
// and connectivity clustering.
package graph

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/codegraph/internal/extract"
	"github.com/standardbeagle/codegraph/internal/types"
)

// resolveImport resolves a raw specifier written in fromFile against the
// set of discovered project paths. Bare module specifiers (npm packages,
// installed Python packages, system includes) return "" and never become
// edges. Unresolvable relative specifiers also return "": dynamically
// constructed paths are invisible to static extraction, so a miss is a
// documented limitation rather than an error.
func resolveImport(fromFile, specifier string, lang types.Language, known map[string]struct{}, rootDir string) string {
	switch lang {
	case types.LangJavaScript, types.LangTypeScript:
		return resolveScriptImport(fromFile, specifier, lang, known, rootDir)
	case types.LangPython:
		return resolvePythonImport(fromFile, specifier, known, rootDir)
	case types.LangCpp, types.LangArduino:
		return resolveIncludePath(fromFile, specifier, known)
	default:
		return ""
	}
}

func resolveScriptImport(fromFile, specifier string, lang types.Language, known map[string]struct{}, rootDir string) string {
	var base string
	switch {
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"), specifier == ".", specifier == "..":
		base = filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(specifier))
	case strings.HasPrefix(specifier, "/"):
		// Project-absolute specifier (bundler convention); anchor at root.
		base = filepath.Join(rootDir, filepath.FromSlash(specifier))
	default:
		return "" // bare module: external by definition
	}
	base = filepath.Clean(base)

	if hit := tryCandidates(base, extract.ImportExtensions(lang), known); hit != "" {
		return hit
	}
	if extract.TriesIndexFile(lang) {
		if hit := tryCandidates(filepath.Join(base, "index"), extract.ImportExtensions(lang), known); hit != "" {
			return hit
		}
	}
	return ""
}

func resolvePythonImport(fromFile, specifier string, known map[string]struct{}, rootDir string) string {
	fromDir := filepath.Dir(fromFile)

	if strings.HasPrefix(specifier, ".") {
		// from .mod import x  → sibling; each extra dot climbs one level.
		dots := 0
		for dots < len(specifier) && specifier[dots] == '.' {
			dots++
		}
		dir := fromDir
		for i := 1; i < dots; i++ {
			dir = filepath.Dir(dir)
		}
		rest := strings.ReplaceAll(specifier[dots:], ".", string(filepath.Separator))
		return tryPythonModule(filepath.Join(dir, rest), known)
	}

	// Absolute module path: only in-project files resolve; anything else
	// is an installed package and stays out of the graph.
	rel := strings.ReplaceAll(specifier, ".", string(filepath.Separator))
	if hit := tryPythonModule(filepath.Join(fromDir, rel), known); hit != "" {
		return hit
	}
	return tryPythonModule(filepath.Join(rootDir, rel), known)
}

func tryPythonModule(base string, known map[string]struct{}) string {
	base = filepath.Clean(base)
	if hit := base + ".py"; exists(hit, known) {
		return hit
	}
	if hit := filepath.Join(base, "__init__.py"); exists(hit, known) {
		return hit
	}
	return ""
}

func resolveIncludePath(fromFile, specifier string, known map[string]struct{}) string {
	// Quoted includes resolve relative to the including file, and the
	// specifier keeps its own extension in virtually all real code.
	base := filepath.Clean(filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(specifier)))
	if exists(base, known) {
		return base
	}
	if path.Ext(specifier) == "" {
		return tryCandidates(base, extract.ImportExtensions(types.LangCpp), known)
	}
	return ""
}

// tryCandidates checks the exact path, then each extension variant, and
// returns the first hit present in the known-path set.
func tryCandidates(base string, exts []string, known map[string]struct{}) string {
	if exists(base, known) {
		return base
	}
	for _, ext := range exts {
		if hit := base + ext; exists(hit, known) {
			return hit
		}
	}
	return ""
}

func exists(p string, known map[string]struct{}) bool {
	_, ok := known[p]
	return ok
}
