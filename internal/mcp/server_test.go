package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/codegraph/internal/config"
	"github.com/standardbeagle/codegraph/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// callTool invokes a handler in-process, bypassing the stdio transport.
func callTool(t *testing.T, s *Server, name string, params map[string]interface{}) (*mcp.CallToolResult, map[string]interface{}) {
	t.Helper()

	args, err := json.Marshal(params)
	require.NoError(t, err)
	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      name,
			Arguments: args,
		},
	}

	handlers := map[string]func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"scan":              s.handleScan,
		"get_dependencies":  s.handleGetDependencies,
		"get_dependents":    s.handleGetDependents,
		"get_change_impact": s.handleGetChangeImpact,
		"get_subgraph":      s.handleGetSubgraph,
		"find_entry_points": s.handleFindEntryPoints,
		"get_stats":         s.handleGetStats,
		"get_clusters":      s.handleGetClusters,
		"get_bridges":       s.handleGetBridges,
		"list_files":        s.handleListFiles,
	}
	handler, ok := handlers[name]
	require.True(t, ok, "unknown tool %s", name)

	result, err := handler(context.Background(), req)
	require.NoError(t, err, "handlers report tool failures via IsError, never as transport errors")
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(text.Text), &decoded); err != nil {
		// some tools return top-level JSON arrays
		decoded = map[string]interface{}{"_raw": text.Text}
	}
	return result, decoded
}

func writeFixtureProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"a.js": "export const a = 1;\n",
		"b.js": "import { a } from './a';\nexport const b = a;\n",
		"c.js": "import { b } from './b';\nconsole.log(b);\n",
	}
	for rel, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644))
	}
	return root
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Workers = 2
	return NewServer(cfg)
}

func TestQueryBeforeScanReturnsToolError(t *testing.T) {
	s := newTestServer(t)

	result, decoded := callTool(t, s, "get_stats", nil)
	assert.True(t, result.IsError)
	assert.Contains(t, decoded["error"], "run scan first")
}

func TestScanThenQueryFlow(t *testing.T) {
	s := newTestServer(t)
	root := writeFixtureProject(t)

	result, decoded := callTool(t, s, "scan", map[string]interface{}{"root": root})
	require.False(t, result.IsError, "scan failed: %v", decoded)
	assert.EqualValues(t, 3, decoded["total_files"])
	assert.EqualValues(t, 2, decoded["total_edges"])

	result, decoded = callTool(t, s, "get_dependencies", map[string]interface{}{"file": "b.js"})
	require.False(t, result.IsError)
	deps := decoded["dependencies"].([]interface{})
	require.Len(t, deps, 1)
	assert.Equal(t, "a.js", deps[0].(map[string]interface{})["relative_path"])

	result, decoded = callTool(t, s, "get_change_impact", map[string]interface{}{"files": []string{"a.js"}})
	require.False(t, result.IsError)
	assert.EqualValues(t, 3, decoded["blast_radius"])
	assert.EqualValues(t, 100.0, decoded["coverage_percent"])

	result, decoded = callTool(t, s, "get_subgraph", map[string]interface{}{"file": "b.js", "depth": 1})
	require.False(t, result.IsError)
	assert.Len(t, decoded["nodes"], 3)

	result, decoded = callTool(t, s, "find_entry_points", nil)
	require.False(t, result.IsError)
	entries := decoded["entry_points"].([]interface{})
	require.Len(t, entries, 1)
	assert.Equal(t, "c.js", entries[0].(map[string]interface{})["relative_path"])

	result, decoded = callTool(t, s, "list_files", map[string]interface{}{"query": "b."})
	require.False(t, result.IsError)
	assert.EqualValues(t, 1, decoded["count"])
}

func TestQueryErrorKeepsHeldGraph(t *testing.T) {
	s := newTestServer(t)
	root := writeFixtureProject(t)
	callTool(t, s, "scan", map[string]interface{}{"root": root})

	result, decoded := callTool(t, s, "get_dependencies", map[string]interface{}{"file": "nope.js"})
	assert.True(t, result.IsError)
	assert.Contains(t, decoded["error"], "no file matches")

	// graph survives the failed query
	result, _ = callTool(t, s, "get_stats", nil)
	assert.False(t, result.IsError)
}

func TestScanBadRootDoesNotReplaceGraph(t *testing.T) {
	s := newTestServer(t)
	root := writeFixtureProject(t)
	callTool(t, s, "scan", map[string]interface{}{"root": root})

	result, _ := callTool(t, s, "scan", map[string]interface{}{
		"root": filepath.Join(root, "does-not-exist"),
	})
	assert.True(t, result.IsError)

	result, decoded := callTool(t, s, "get_stats", nil)
	require.False(t, result.IsError)
	assert.EqualValues(t, 3, decoded["total_files"])
}

func TestGetBridgesAnomaliesOnly(t *testing.T) {
	s := newTestServer(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "client.js"),
		[]byte("fetch('/api/orders');\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "server.js"),
		[]byte("app.get('/api/orders', h);\napp.post('/api/unused', h);\n"), 0o644))

	callTool(t, s, "scan", map[string]interface{}{"root": root})

	result, decoded := callTool(t, s, "get_bridges", map[string]interface{}{"anomalies_only": true})
	require.False(t, result.IsError)

	var bridges []types.Bridge
	require.NoError(t, json.Unmarshal([]byte(decoded["_raw"].(string)), &bridges))
	require.Len(t, bridges, 1)
	assert.Equal(t, "POST /api/unused", bridges[0].Identifier)
	assert.True(t, bridges[0].Dead())
}

func TestToolErrorPayloadShape(t *testing.T) {
	s := newTestServer(t)
	result, decoded := callTool(t, s, "get_clusters", nil)
	require.True(t, result.IsError)
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, "get_clusters", decoded["operation"])
	assert.NotEmpty(t, decoded["error"])
}

func TestConcurrentQueriesDoNotRace(t *testing.T) {
	s := newTestServer(t)
	root := writeFixtureProject(t)
	callTool(t, s, "scan", map[string]interface{}{"root": root})

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			req := &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{
				Name:      "get_stats",
				Arguments: []byte(`{}`),
			}}
			result, err := s.handleGetStats(context.Background(), req)
			if err == nil && result.IsError {
				err = fmt.Errorf("unexpected tool error")
			}
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-done)
	}
}
