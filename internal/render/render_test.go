package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/types"
)

func sampleSubgraph() *types.Subgraph {
	return &types.Subgraph{
		Center: "b.js",
		Depth:  1,
		Nodes: []types.SubgraphNode{
			{FileRef: types.FileRef{RelativePath: "b.js", Language: types.LangJavaScript}, Distance: 0, Direction: "center"},
			{FileRef: types.FileRef{RelativePath: "a.js", Language: types.LangJavaScript}, Distance: 1, Direction: "dependency"},
		},
		Edges: []types.SubgraphEdge{{From: "b.js", To: "a.js"}},
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "markdown", "md", "mermaid", "dot", "JSON"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}

func TestJSONRoundTrips(t *testing.T) {
	out, err := JSON(sampleSubgraph())
	require.NoError(t, err)

	var decoded types.Subgraph
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "b.js", decoded.Center)
	assert.Len(t, decoded.Nodes, 2)
}

func TestSubgraphMermaid(t *testing.T) {
	out, err := Subgraph(sampleSubgraph(), FormatMermaid)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph LR\n"))
	assert.Contains(t, out, `b_js["b.js"]`)
	assert.Contains(t, out, "b_js --> a_js")
}

func TestSubgraphDOT(t *testing.T) {
	out, err := Subgraph(sampleSubgraph(), FormatDOT)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "digraph codegraph {"))
	assert.Contains(t, out, `"b.js" -> "a.js";`)
}

func TestSubgraphMarkdown(t *testing.T) {
	out, err := Subgraph(sampleSubgraph(), FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, out, "Subgraph around `b.js`")
	assert.Contains(t, out, "distance 1, dependency")
}

func TestImpactMarkdown(t *testing.T) {
	impact := &types.Impact{
		Changed:          []types.FileRef{{RelativePath: "a.js"}},
		DirectlyAffected: []types.FileRef{{RelativePath: "b.js"}},
		BlastRadius:      2,
		CoveragePercent:  66.7,
	}
	out, err := Impact(impact, FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, out, "Blast radius: 2 files (66.7% of project)")
	assert.Contains(t, out, "- `b.js`")
}

func TestImpactMarkdownMultipleChangedFilesOneHeading(t *testing.T) {
	impact := &types.Impact{
		Changed:     []types.FileRef{{RelativePath: "a.js"}, {RelativePath: "b.js"}},
		BlastRadius: 2,
	}
	out, err := Impact(impact, FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, out, "# Change impact: `a.js`, `b.js`")
	assert.Equal(t, 1, strings.Count(out, "# Change impact"))
}

func TestImpactRejectsDiagramFormats(t *testing.T) {
	_, err := Impact(&types.Impact{}, FormatMermaid)
	assert.Error(t, err)
}

func TestBridgesMarkdownFlagsAnomalies(t *testing.T) {
	bridges := []types.Bridge{
		{
			Kind:       types.BridgeHTTP,
			Identifier: "GET /api/orders",
			Consumers:  []types.FileRef{{RelativePath: "client.js"}},
		},
		{
			Kind:       types.BridgeMQTT,
			Identifier: "debug/heartbeat",
			Producers:  []types.FileRef{{RelativePath: "esp.ino"}},
		},
	}
	out, err := Bridges(bridges, FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, out, "unmatched (consumed, never produced)")
	assert.Contains(t, out, "dead (produced, never consumed)")
}

func TestGraphMarkdownReport(t *testing.T) {
	g := &types.Graph{
		RootDir: "/proj",
		BuiltAt: time.Now(),
		Nodes: map[string]*types.FileNode{
			"/proj/a.js": {Path: "/proj/a.js", RelativePath: "a.js", Language: types.LangJavaScript},
		},
		TotalFiles:  1,
		ParseErrors: []types.ParseError{{File: "/proj/bad.bin", Error: "binary content"}},
	}
	stats := &types.Stats{
		TotalFiles: 1,
		ByLanguage: map[types.Language]int{types.LangJavaScript: 1},
	}
	out, err := Graph(g, stats, FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, out, "javascript: 1")
	assert.Contains(t, out, "Parse errors (1)")
}

func TestGraphMermaidEmitsImportEdges(t *testing.T) {
	g := &types.Graph{
		RootDir: "/proj",
		Nodes: map[string]*types.FileNode{
			"/proj/a.js": {Path: "/proj/a.js", RelativePath: "a.js"},
			"/proj/b.js": {Path: "/proj/b.js", RelativePath: "b.js", Dependencies: []string{"/proj/a.js"}},
		},
		TotalFiles: 2,
	}
	out, err := Graph(g, &types.Stats{}, FormatMermaid)
	require.NoError(t, err)
	assert.Contains(t, out, "b_js --> a_js")
}

func TestFileListMarkdown(t *testing.T) {
	refs := []types.FileRef{{RelativePath: "a.js", Language: types.LangJavaScript}}
	out, err := FileList("Entry points", refs, FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, out, "# Entry points (1)")
	assert.Contains(t, out, "`a.js` (javascript)")
}
