// Package mcp exposes the dependency graph engine as an MCP server over
// stdio. The server holds at most one graph at a time; the scan tool
// builds a fresh one and swaps it in under an exclusive lock, while
// query tools take a read lock and never mutate.
package mcp

import (
	"context"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/codegraph/internal/config"
	"github.com/standardbeagle/codegraph/internal/types"
	"github.com/standardbeagle/codegraph/internal/version"
)

// Server wires the graph engine into MCP tool handlers.
type Server struct {
	cfg    *config.Config
	server *mcp.Server

	mu    sync.RWMutex
	graph *types.Graph
}

// NewServer creates the MCP server and registers every tool. No scan
// runs yet; the first graph arrives via the scan tool (or a caller
// seeding one through SetGraph before Run).
func NewServer(cfg *config.Config) *Server {
	s := &Server{cfg: cfg}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "codegraph",
		Version: version.Version,
	}, nil)
	s.registerTools()
	return s
}

// SetGraph seeds or replaces the held graph.
func (s *Server) SetGraph(g *types.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = g
}

// currentGraph returns the held graph, or nil before any scan.
func (s *Server) currentGraph() *types.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// Run serves MCP over stdio until the context is canceled or the client
// disconnects. Nothing may write to stdout while this runs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	fileProp := func(desc string) *jsonschema.Schema {
		return &jsonschema.Schema{Type: "string", Description: desc}
	}

	s.server.AddTool(&mcp.Tool{
		Name:        "scan",
		Description: "Scan a project directory and build a fresh dependency graph. Replaces any previously held graph.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"root": fileProp("Directory to scan (defaults to the configured root)"),
			},
		},
	}, s.handleScan)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_dependencies",
		Description: "List the files a given file imports (direct dependencies only).",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file": fileProp("File identifier: relative path, absolute path, or bare filename"),
			},
			Required: []string{"file"},
		},
	}, s.handleGetDependencies)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_dependents",
		Description: "List the files that import a given file (direct dependents only).",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file": fileProp("File identifier: relative path, absolute path, or bare filename"),
			},
			Required: []string{"file"},
		},
	}, s.handleGetDependents)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_change_impact",
		Description: "Compute what breaks if the given files change: direct and transitive dependents, blast radius, and project coverage.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"files": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "File identifiers of the changed files",
				},
			},
			Required: []string{"files"},
		},
	}, s.handleGetChangeImpact)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_subgraph",
		Description: "Extract the neighborhood around a file out to a given depth, following imports in both directions.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file": fileProp("File identifier for the subgraph center"),
				"depth": {
					Type:        "integer",
					Description: "Maximum BFS distance from the center (default 2)",
				},
			},
			Required: []string{"file"},
		},
	}, s.handleGetSubgraph)

	s.server.AddTool(&mcp.Tool{
		Name:        "find_entry_points",
		Description: "List files nothing imports: likely executables, scripts, and firmware sketches.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"language": fileProp("Restrict to one language (javascript, typescript, python, cpp, arduino, env)"),
			},
		},
	}, s.handleFindEntryPoints)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_stats",
		Description: "Graph-wide statistics: file and edge counts, per-language breakdown, most connected files, entry points.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleGetStats)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_clusters",
		Description: "Partition the project into connectivity clusters over imports and cross-language bridges.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleGetClusters)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_bridges",
		Description: "List cross-language bridges (HTTP routes, MQTT topics, WebSocket events, serial, env vars), including unmatched and dead channels.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"anomalies_only": {
					Type:        "boolean",
					Description: "Return only unmatched or dead bridges",
				},
			},
		},
	}, s.handleGetBridges)

	s.server.AddTool(&mcp.Tool{
		Name:        "list_files",
		Description: "List known files in the graph, optionally filtered by language or path substring. Useful after a not-found error.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"language": fileProp("Restrict to one language"),
				"query":    fileProp("Substring to match against relative paths"),
			},
		},
	}, s.handleListFiles)
}
