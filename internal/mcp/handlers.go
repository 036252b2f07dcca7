package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	cgerrors "github.com/standardbeagle/codegraph/internal/errors"
	"github.com/standardbeagle/codegraph/internal/graph"
	"github.com/standardbeagle/codegraph/internal/scanner"
	"github.com/standardbeagle/codegraph/internal/types"
)

const defaultSubgraphDepth = 2

type scanParams struct {
	Root string `json:"root"`
}

type fileParams struct {
	File string `json:"file"`
}

type impactParams struct {
	Files []string `json:"files"`
}

type subgraphParams struct {
	File  string `json:"file"`
	Depth *int   `json:"depth"`
}

type entryPointParams struct {
	Language string `json:"language"`
}

type bridgeParams struct {
	AnomaliesOnly bool `json:"anomalies_only"`
}

type listFilesParams struct {
	Language string `json:"language"`
	Query    string `json:"query"`
}

// scanSummary is the scan tool's result payload. The full node map can
// be huge; callers get counts here and drill in through query tools.
type scanSummary struct {
	Root            string `json:"root"`
	TotalFiles      int    `json:"total_files"`
	TotalEdges      int    `json:"total_edges"`
	TotalBridges    int    `json:"total_bridges"`
	ParseErrors     int    `json:"parse_errors"`
	UnresolvedCount int    `json:"unresolved_imports"`
}

func (s *Server) handleScan(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params scanParams
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return createErrorResponse("scan", err)
		}
	}

	cfg := *s.cfg
	if params.Root != "" {
		cfg.RootDir = params.Root
	}

	res, err := scanner.Scan(ctx, &cfg)
	if err != nil {
		return createErrorResponse("scan", err)
	}
	g := graph.Build(res.RootDir, res.Nodes, res.ParseErrors)

	s.SetGraph(g)

	edges := 0
	for _, node := range g.Nodes {
		edges += len(node.Dependencies)
	}
	return createJSONResponse(scanSummary{
		Root:            g.RootDir,
		TotalFiles:      g.TotalFiles,
		TotalEdges:      edges,
		TotalBridges:    len(g.Bridges),
		ParseErrors:     len(g.ParseErrors),
		UnresolvedCount: len(g.Unresolved),
	})
}

func (s *Server) handleGetDependencies(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := s.currentGraph()
	if g == nil {
		return createErrorResponse("get_dependencies", &cgerrors.NoGraphError{})
	}
	var params fileParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("get_dependencies", err)
	}
	refs, err := graph.Dependencies(g, params.File)
	if err != nil {
		return createErrorResponse("get_dependencies", err)
	}
	return createJSONResponse(map[string]interface{}{
		"file":         params.File,
		"dependencies": refs,
	})
}

func (s *Server) handleGetDependents(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := s.currentGraph()
	if g == nil {
		return createErrorResponse("get_dependents", &cgerrors.NoGraphError{})
	}
	var params fileParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("get_dependents", err)
	}
	refs, err := graph.Dependents(g, params.File)
	if err != nil {
		return createErrorResponse("get_dependents", err)
	}
	return createJSONResponse(map[string]interface{}{
		"file":       params.File,
		"dependents": refs,
	})
}

func (s *Server) handleGetChangeImpact(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := s.currentGraph()
	if g == nil {
		return createErrorResponse("get_change_impact", &cgerrors.NoGraphError{})
	}
	var params impactParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("get_change_impact", err)
	}
	impact, err := graph.ChangeImpact(g, params.Files)
	if err != nil {
		return createErrorResponse("get_change_impact", err)
	}
	return createJSONResponse(impact)
}

func (s *Server) handleGetSubgraph(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := s.currentGraph()
	if g == nil {
		return createErrorResponse("get_subgraph", &cgerrors.NoGraphError{})
	}
	var params subgraphParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("get_subgraph", err)
	}
	depth := defaultSubgraphDepth
	if params.Depth != nil {
		depth = *params.Depth
	}
	sub, err := graph.SubgraphAround(g, params.File, depth)
	if err != nil {
		return createErrorResponse("get_subgraph", err)
	}
	return createJSONResponse(sub)
}

func (s *Server) handleFindEntryPoints(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := s.currentGraph()
	if g == nil {
		return createErrorResponse("find_entry_points", &cgerrors.NoGraphError{})
	}
	var params entryPointParams
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return createErrorResponse("find_entry_points", err)
		}
	}
	refs := graph.FilterByLanguage(graph.EntryPoints(g), types.Language(params.Language))
	return createJSONResponse(map[string]interface{}{
		"entry_points": refs,
		"count":        len(refs),
	})
}

func (s *Server) handleGetStats(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := s.currentGraph()
	if g == nil {
		return createErrorResponse("get_stats", &cgerrors.NoGraphError{})
	}
	return createJSONResponse(graph.ComputeStats(g))
}

func (s *Server) handleGetClusters(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := s.currentGraph()
	if g == nil {
		return createErrorResponse("get_clusters", &cgerrors.NoGraphError{})
	}
	return createJSONResponse(graph.Clusters(g))
}

func (s *Server) handleGetBridges(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := s.currentGraph()
	if g == nil {
		return createErrorResponse("get_bridges", &cgerrors.NoGraphError{})
	}
	var params bridgeParams
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return createErrorResponse("get_bridges", err)
		}
	}
	bridges := g.Bridges
	if params.AnomaliesOnly {
		var anomalies []types.Bridge
		for _, b := range bridges {
			if b.Unmatched() || b.Dead() {
				anomalies = append(anomalies, b)
			}
		}
		bridges = anomalies
	}
	return createJSONResponse(bridges)
}

func (s *Server) handleListFiles(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := s.currentGraph()
	if g == nil {
		return createErrorResponse("list_files", &cgerrors.NoGraphError{})
	}
	var params listFilesParams
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return createErrorResponse("list_files", err)
		}
	}
	refs := graph.FilterByLanguage(graph.FindByQuery(g, params.Query), types.Language(params.Language))
	return createJSONResponse(map[string]interface{}{
		"files": refs,
		"count": len(refs),
	})
}
