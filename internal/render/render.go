// Package render turns query results into CLI output. JSON is the
// machine format and works for every result; markdown is the human
// report; mermaid and dot render graph-shaped results as diagrams.
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/codegraph/internal/types"
)

// Format selects an output renderer.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatMermaid  Format = "mermaid"
	FormatDOT      Format = "dot"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatMermaid:
		return FormatMermaid, nil
	case FormatDOT:
		return FormatDOT, nil
	}
	return "", fmt.Errorf("unknown format %q (want json, markdown, mermaid, or dot)", s)
}

// JSON renders any result as indented JSON.
func JSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(data), nil
}

// Graph renders the whole graph in the requested format. Markdown gives
// the per-file report; mermaid and dot emit the import edge diagram.
func Graph(g *types.Graph, stats *types.Stats, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return JSON(struct {
			*types.Graph
			Stats *types.Stats `json:"stats"`
		}{g, stats})
	case FormatMarkdown:
		return graphMarkdown(g, stats), nil
	case FormatMermaid:
		return edgesMermaid(graphEdges(g)), nil
	case FormatDOT:
		return edgesDOT(graphEdges(g)), nil
	}
	return "", fmt.Errorf("unknown format %q", format)
}

// Subgraph renders a neighborhood extraction.
func Subgraph(sub *types.Subgraph, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return JSON(sub)
	case FormatMarkdown:
		return subgraphMarkdown(sub), nil
	case FormatMermaid:
		return edgesMermaid(sub.Edges), nil
	case FormatDOT:
		return edgesDOT(sub.Edges), nil
	}
	return "", fmt.Errorf("unknown format %q", format)
}

// Impact renders a change-impact result. Diagram formats do not apply.
func Impact(impact *types.Impact, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return JSON(impact)
	case FormatMarkdown:
		return impactMarkdown(impact), nil
	}
	return "", fmt.Errorf("format %q not supported for impact reports", format)
}

// Bridges renders the cross-language bridge list with anomaly flags.
func Bridges(bridges []types.Bridge, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return JSON(bridges)
	case FormatMarkdown:
		return bridgesMarkdown(bridges), nil
	}
	return "", fmt.Errorf("format %q not supported for bridge reports", format)
}

// Clusters renders connectivity clusters.
func Clusters(clusters []types.Cluster, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return JSON(clusters)
	case FormatMarkdown:
		return clustersMarkdown(clusters), nil
	}
	return "", fmt.Errorf("format %q not supported for cluster reports", format)
}

// Stats renders graph statistics.
func Stats(stats *types.Stats, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return JSON(stats)
	case FormatMarkdown:
		return statsMarkdown(stats), nil
	}
	return "", fmt.Errorf("format %q not supported for stats", format)
}

// FileList renders a plain list of files.
func FileList(title string, refs []types.FileRef, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return JSON(refs)
	case FormatMarkdown:
		var b strings.Builder
		fmt.Fprintf(&b, "# %s (%d)\n\n", title, len(refs))
		for _, ref := range refs {
			fmt.Fprintf(&b, "- `%s` (%s)\n", ref.RelativePath, ref.Language)
		}
		return b.String(), nil
	}
	return "", fmt.Errorf("format %q not supported for file lists", format)
}

func graphEdges(g *types.Graph) []types.SubgraphEdge {
	var edges []types.SubgraphEdge
	paths := make([]string, 0, len(g.Nodes))
	for p := range g.Nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		node := g.Nodes[p]
		for _, dep := range node.Dependencies {
			edges = append(edges, types.SubgraphEdge{
				From: node.RelativePath,
				To:   g.Nodes[dep].RelativePath,
			})
		}
	}
	return edges
}

func graphMarkdown(g *types.Graph, stats *types.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Dependency Graph: %s\n\n", g.RootDir)
	fmt.Fprintf(&b, "%d files, %d import edges, %d bridges\n\n",
		stats.TotalFiles, stats.TotalEdges, stats.TotalBridges)

	b.WriteString("## Files by language\n\n")
	for _, lang := range types.Languages {
		if n := stats.ByLanguage[lang]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", lang, n)
		}
	}
	b.WriteString("\n")

	if len(stats.MostDependedOn) > 0 {
		b.WriteString("## Most depended on\n\n")
		for _, cc := range stats.MostDependedOn {
			fmt.Fprintf(&b, "- `%s` (%d dependents)\n", cc.File.RelativePath, cc.Count)
		}
		b.WriteString("\n")
	}

	if len(g.ParseErrors) > 0 {
		fmt.Fprintf(&b, "## Parse errors (%d)\n\n", len(g.ParseErrors))
		for _, pe := range g.ParseErrors {
			fmt.Fprintf(&b, "- `%s`: %s\n", pe.File, pe.Error)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func subgraphMarkdown(sub *types.Subgraph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Subgraph around `%s` (depth %d)\n\n", sub.Center, sub.Depth)
	for _, n := range sub.Nodes {
		fmt.Fprintf(&b, "- `%s` (distance %d, %s)\n", n.RelativePath, n.Distance, n.Direction)
	}
	if len(sub.Edges) > 0 {
		b.WriteString("\n## Edges\n\n")
		for _, e := range sub.Edges {
			fmt.Fprintf(&b, "- `%s` → `%s`\n", e.From, e.To)
		}
	}
	return b.String()
}

func impactMarkdown(impact *types.Impact) string {
	var b strings.Builder
	names := make([]string, len(impact.Changed))
	for i, ref := range impact.Changed {
		names[i] = "`" + ref.RelativePath + "`"
	}
	fmt.Fprintf(&b, "# Change impact: %s\n\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Blast radius: %d files (%.1f%% of project)\n\n",
		impact.BlastRadius, impact.CoveragePercent)
	if len(impact.DirectlyAffected) > 0 {
		b.WriteString("## Directly affected\n\n")
		for _, ref := range impact.DirectlyAffected {
			fmt.Fprintf(&b, "- `%s`\n", ref.RelativePath)
		}
		b.WriteString("\n")
	}
	if len(impact.TransitivelyAffected) > 0 {
		b.WriteString("## Transitively affected\n\n")
		for _, ref := range impact.TransitivelyAffected {
			fmt.Fprintf(&b, "- `%s`\n", ref.RelativePath)
		}
	}
	return b.String()
}

func bridgesMarkdown(bridges []types.Bridge) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Bridges (%d)\n\n", len(bridges))
	for _, br := range bridges {
		flag := ""
		switch {
		case br.Unmatched():
			flag = " ⚠ unmatched (consumed, never produced)"
		case br.Dead():
			flag = " ⚠ dead (produced, never consumed)"
		}
		fmt.Fprintf(&b, "## [%s] %s%s\n\n", br.Kind, br.Identifier, flag)
		for _, ref := range br.Producers {
			fmt.Fprintf(&b, "- produces: `%s`\n", ref.RelativePath)
		}
		for _, ref := range br.Consumers {
			fmt.Fprintf(&b, "- consumes: `%s`\n", ref.RelativePath)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func clustersMarkdown(clusters []types.Cluster) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Clusters (%d)\n\n", len(clusters))
	for _, c := range clusters {
		fmt.Fprintf(&b, "## Cluster %d (%d files)\n\n", c.ID, len(c.Files))
		for _, ref := range c.Files {
			fmt.Fprintf(&b, "- `%s`\n", ref.RelativePath)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func statsMarkdown(stats *types.Stats) string {
	var b strings.Builder
	b.WriteString("# Graph statistics\n\n")
	fmt.Fprintf(&b, "- Files: %d\n", stats.TotalFiles)
	fmt.Fprintf(&b, "- Import edges: %d\n", stats.TotalEdges)
	fmt.Fprintf(&b, "- Bridges: %d\n", stats.TotalBridges)
	fmt.Fprintf(&b, "- Avg dependencies per file: %.2f\n", stats.AvgDependencies)
	fmt.Fprintf(&b, "- Parse errors: %d\n", stats.ParseErrorCount)
	if len(stats.MostConnected) > 0 {
		b.WriteString("\n## Most connected\n\n")
		for _, cc := range stats.MostConnected {
			fmt.Fprintf(&b, "- `%s` (%d edges)\n", cc.File.RelativePath, cc.Count)
		}
	}
	if len(stats.EntryPoints) > 0 {
		b.WriteString("\n## Entry points\n\n")
		for _, ref := range stats.EntryPoints {
			fmt.Fprintf(&b, "- `%s`\n", ref.RelativePath)
		}
	}
	return b.String()
}

// edgesMermaid emits a left-to-right mermaid flowchart. Node identifiers
// are sanitized; labels keep the real relative path.
func edgesMermaid(edges []types.SubgraphEdge) string {
	var b strings.Builder
	b.WriteString("graph LR\n")
	ids := make(map[string]string)
	used := make(map[string]bool)
	declare := func(path string) string {
		if id, ok := ids[path]; ok {
			return id
		}
		id := mermaidID(path)
		for used[id] {
			id += "_"
		}
		used[id] = true
		ids[path] = id
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", id, path)
		return id
	}
	for _, e := range edges {
		from := declare(e.From)
		to := declare(e.To)
		fmt.Fprintf(&b, "    %s --> %s\n", from, to)
	}
	return b.String()
}

func mermaidID(path string) string {
	var b strings.Builder
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func edgesDOT(edges []types.SubgraphEdge) string {
	var b strings.Builder
	b.WriteString("digraph codegraph {\n    rankdir=LR;\n    node [shape=box];\n")
	for _, e := range edges {
		fmt.Fprintf(&b, "    %q -> %q;\n", e.From, e.To)
	}
	b.WriteString("}\n")
	return b.String()
}
