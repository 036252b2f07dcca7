package graph

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/types"
)

const testRoot = "/proj"

// node builds a graph input node the way the scanner would.
func node(rel string, lang types.Language, imports []string) *types.FileNode {
	return &types.FileNode{
		Path:         filepath.Join(testRoot, filepath.FromSlash(rel)),
		RelativePath: rel,
		Language:     lang,
		RawImports:   imports,
	}
}

func buildGraph(t *testing.T, inputs ...*types.FileNode) *types.Graph {
	t.Helper()
	nodes := make(map[string]*types.FileNode, len(inputs))
	for _, n := range inputs {
		nodes[n.Path] = n
	}
	return Build(testRoot, nodes, nil)
}

func abs(rel string) string {
	return filepath.Join(testRoot, filepath.FromSlash(rel))
}

func TestBuildResolvesScriptImports(t *testing.T) {
	g := buildGraph(t,
		node("src/app.js", types.LangJavaScript, []string{"./api", "../shared/util", "express"}),
		node("src/api.js", types.LangJavaScript, []string{"./models/index"}),
		node("src/models/index.js", types.LangJavaScript, nil),
		node("shared/util.js", types.LangJavaScript, nil),
	)

	app := g.Nodes[abs("src/app.js")]
	require.NotNil(t, app)
	assert.Equal(t, []string{abs("src/api.js"), abs("shared/util.js")}, app.Dependencies)
	// bare module "express" never becomes an edge or a warning
	for _, u := range g.Unresolved {
		assert.NotEqual(t, "express", u.Specifier)
	}

	api := g.Nodes[abs("src/api.js")]
	assert.Equal(t, []string{abs("src/models/index.js")}, api.Dependencies)
}

func TestBuildResolvesDirectoryImportViaIndex(t *testing.T) {
	g := buildGraph(t,
		node("src/app.ts", types.LangTypeScript, []string{"./models"}),
		node("src/models/index.ts", types.LangTypeScript, nil),
	)
	assert.Equal(t, []string{abs("src/models/index.ts")}, g.Nodes[abs("src/app.ts")].Dependencies)
}

func TestBuildResolvesPythonImports(t *testing.T) {
	g := buildGraph(t,
		node("app/main.py", types.LangPython, []string{".models", "..shared.util", "app.services", "json"}),
		node("app/models.py", types.LangPython, nil),
		node("shared/util.py", types.LangPython, nil),
		node("app/services/__init__.py", types.LangPython, nil),
	)

	main := g.Nodes[abs("app/main.py")]
	assert.ElementsMatch(t, []string{
		abs("app/models.py"),
		abs("shared/util.py"),
		abs("app/services/__init__.py"),
	}, main.Dependencies)
}

func TestBuildResolvesQuotedIncludes(t *testing.T) {
	g := buildGraph(t,
		node("firmware/main.ino", types.LangArduino, []string{"config.h", "lib/sensor.h"}),
		node("firmware/config.h", types.LangCpp, nil),
		node("firmware/lib/sensor.h", types.LangCpp, nil),
	)
	assert.Equal(t, []string{
		abs("firmware/config.h"),
		abs("firmware/lib/sensor.h"),
	}, g.Nodes[abs("firmware/main.ino")].Dependencies)
}

func TestBuildRecordsUnresolvedRelativeImports(t *testing.T) {
	g := buildGraph(t,
		node("src/app.js", types.LangJavaScript, []string{"./missing", "react"}),
	)
	require.Len(t, g.Unresolved, 1)
	assert.Equal(t, "./missing", g.Unresolved[0].Specifier)
	assert.Equal(t, abs("src/app.js"), g.Unresolved[0].File)
	assert.Empty(t, g.Nodes[abs("src/app.js")].Dependencies)
}

func TestBuildEdgeSymmetry(t *testing.T) {
	g := buildGraph(t,
		node("a.js", types.LangJavaScript, nil),
		node("b.js", types.LangJavaScript, []string{"./a"}),
		node("c.js", types.LangJavaScript, []string{"./b", "./a"}),
	)

	for path, n := range g.Nodes {
		for _, dep := range n.Dependencies {
			target, ok := g.Nodes[dep]
			require.True(t, ok, "dangling dependency %s -> %s", path, dep)
			assert.Contains(t, target.Dependents, path)
		}
		for _, dependent := range n.Dependents {
			source, ok := g.Nodes[dependent]
			require.True(t, ok, "dangling dependent %s -> %s", path, dependent)
			assert.Contains(t, source.Dependencies, path)
		}
	}

	a := g.Nodes[abs("a.js")]
	assert.Equal(t, []string{abs("b.js"), abs("c.js")}, a.Dependents)
}

func TestBuildDeduplicatesRepeatedImports(t *testing.T) {
	g := buildGraph(t,
		node("a.js", types.LangJavaScript, nil),
		node("b.js", types.LangJavaScript, []string{"./a", "./a.js"}),
	)
	assert.Equal(t, []string{abs("a.js")}, g.Nodes[abs("b.js")].Dependencies)
	assert.Equal(t, []string{abs("b.js")}, g.Nodes[abs("a.js")].Dependents)
}

func TestBuildIgnoresSelfImport(t *testing.T) {
	g := buildGraph(t,
		node("gen.py", types.LangPython, []string{"gen"}),
	)
	assert.Empty(t, g.Nodes[abs("gen.py")].Dependencies)
	assert.Empty(t, g.Nodes[abs("gen.py")].Dependents)
}
