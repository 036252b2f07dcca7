package graph

import (
	"sort"
	"time"

	"github.com/standardbeagle/codegraph/internal/types"
)

// Build assembles the dependency graph from scanned nodes. It resolves
// every raw import specifier against the discovered file set, records the
// resulting edges, and maintains the dependent lists as the exact inverse
// of the dependency lists.
//
// Nodes arrive with Path, RelativePath, Language, file metadata, Signals,
// and RawImports populated; Build owns Dependencies and Dependents.
func Build(rootDir string, nodes map[string]*types.FileNode, parseErrors []types.ParseError) *types.Graph {
	known := make(map[string]struct{}, len(nodes))
	for p := range nodes {
		known[p] = struct{}{}
	}

	g := &types.Graph{
		RootDir:     rootDir,
		BuiltAt:     time.Now().UTC(),
		Nodes:       nodes,
		TotalFiles:  len(nodes),
		ParseErrors: parseErrors,
	}

	// Pass 1: resolve specifiers into forward edges.
	paths := sortedPaths(nodes)
	for _, p := range paths {
		node := nodes[p]
		seen := make(map[string]struct{})
		for _, spec := range node.RawImports {
			target := resolveImport(p, spec, node.Language, known, rootDir)
			if target == "" {
				if isRelativeSpecifier(spec, node.Language) {
					g.Unresolved = append(g.Unresolved, types.UnresolvedImport{File: p, Specifier: spec})
				}
				continue
			}
			if target == p {
				continue // self-import, seen in generated code; not an edge
			}
			if _, dup := seen[target]; dup {
				continue
			}
			seen[target] = struct{}{}
			node.Dependencies = append(node.Dependencies, target)
		}
	}

	// Pass 2: invert. Iterating sorted paths makes every dependent list
	// come out sorted without a separate pass.
	for _, p := range paths {
		for _, dep := range nodes[p].Dependencies {
			target := nodes[dep]
			target.Dependents = append(target.Dependents, p)
		}
	}

	g.Bridges = DetectBridges(nodes)
	return g
}

// isRelativeSpecifier reports whether a specifier that failed to resolve
// pointed inside the project and therefore deserves an unresolved-import
// diagnostic. Bare module names fail silently: they are external packages.
func isRelativeSpecifier(spec string, lang types.Language) bool {
	switch lang {
	case types.LangJavaScript, types.LangTypeScript:
		return len(spec) > 0 && (spec[0] == '.' || spec[0] == '/')
	case types.LangPython:
		return len(spec) > 0 && spec[0] == '.'
	case types.LangCpp, types.LangArduino:
		// Only quoted includes are extracted, and those are project-local
		// by convention.
		return true
	}
	return false
}

func sortedPaths(nodes map[string]*types.FileNode) []string {
	paths := make([]string, 0, len(nodes))
	for p := range nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
