package graph

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	cgerrors "github.com/standardbeagle/codegraph/internal/errors"
	"github.com/standardbeagle/codegraph/internal/types"
)

const (
	topConnectedCount = 10
	entryPointCap     = 20
	suggestionCount   = 3
	suggestionFloor   = 0.6
)

// ResolveIdentifier maps a user-supplied file identifier onto exactly one
// graph node. Accepted forms, tried in order: an absolute path, a path
// relative to the scan root, and a bare filename matched against every
// node's basename. A bare filename that matches several nodes is an
// ambiguity error naming all candidates; zero matches is a not-found
// error carrying the closest known relative paths.
func ResolveIdentifier(g *types.Graph, identifier string) (*types.FileNode, error) {
	if filepath.IsAbs(identifier) {
		if node, ok := g.Nodes[filepath.Clean(identifier)]; ok {
			return node, nil
		}
	} else {
		joined := filepath.Clean(filepath.Join(g.RootDir, filepath.FromSlash(identifier)))
		if node, ok := g.Nodes[joined]; ok {
			return node, nil
		}
	}

	base := filepath.Base(filepath.FromSlash(identifier))
	var candidates []string
	for _, p := range sortedPaths(g.Nodes) {
		if filepath.Base(p) == base {
			candidates = append(candidates, g.Nodes[p].RelativePath)
		}
	}
	switch len(candidates) {
	case 1:
		return nodeByRelative(g, candidates[0]), nil
	case 0:
		return nil, cgerrors.NewNotFoundError(identifier, suggestPaths(g, identifier))
	default:
		return nil, cgerrors.NewAmbiguousIdentifierError(identifier, candidates)
	}
}

func nodeByRelative(g *types.Graph, rel string) *types.FileNode {
	for _, node := range g.Nodes {
		if node.RelativePath == rel {
			return node
		}
	}
	return nil
}

// suggestPaths ranks known relative paths by Jaro-Winkler similarity to
// the failed identifier and returns the closest few above a floor, so a
// typo gets a hint but a totally unknown name gets none.
func suggestPaths(g *types.Graph, identifier string) []string {
	type scored struct {
		rel   string
		score float32
	}
	var ranked []scored
	for _, p := range sortedPaths(g.Nodes) {
		rel := g.Nodes[p].RelativePath
		score, err := edlib.StringsSimilarity(identifier, rel, edlib.JaroWinkler)
		if err != nil || score < suggestionFloor {
			continue
		}
		ranked = append(ranked, scored{rel: rel, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > suggestionCount {
		ranked = ranked[:suggestionCount]
	}
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.rel
	}
	return out
}

// Dependencies returns the files the identified node imports, direct only.
func Dependencies(g *types.Graph, identifier string) ([]types.FileRef, error) {
	node, err := ResolveIdentifier(g, identifier)
	if err != nil {
		return nil, err
	}
	return refsFor(g, node.Dependencies), nil
}

// Dependents returns the files that import the identified node, direct only.
func Dependents(g *types.Graph, identifier string) ([]types.FileRef, error) {
	node, err := ResolveIdentifier(g, identifier)
	if err != nil {
		return nil, err
	}
	return refsFor(g, node.Dependents), nil
}

func refsFor(g *types.Graph, paths []string) []types.FileRef {
	refs := make([]types.FileRef, 0, len(paths))
	for _, p := range paths {
		refs = append(refs, g.Nodes[p].Ref())
	}
	return refs
}

// ChangeImpact computes what breaks if the identified files change.
// Direct dependents of any changed file form the first tier; everything
// reachable beyond them through the dependent relation forms the second.
// The tiers are disjoint and exclude the changed files themselves even
// when a cycle leads back to one. Blast radius counts the changed files
// plus both tiers; coverage is the blast radius as a percentage of the
// whole project, rounded to one decimal.
func ChangeImpact(g *types.Graph, identifiers []string) (*types.Impact, error) {
	if len(identifiers) == 0 {
		return nil, fmt.Errorf("at least one file identifier is required")
	}

	changed := make(map[string]struct{}, len(identifiers))
	var changedNodes []*types.FileNode
	for _, id := range identifiers {
		node, err := ResolveIdentifier(g, id)
		if err != nil {
			return nil, err
		}
		if _, dup := changed[node.Path]; dup {
			continue
		}
		changed[node.Path] = struct{}{}
		changedNodes = append(changedNodes, node)
	}

	direct := make(map[string]struct{})
	var frontier []string
	for _, node := range changedNodes {
		for _, p := range node.Dependents {
			if _, isChanged := changed[p]; isChanged {
				continue
			}
			if _, seen := direct[p]; seen {
				continue
			}
			direct[p] = struct{}{}
			frontier = append(frontier, p)
		}
	}

	visited := make(map[string]struct{}, len(changed)+len(direct))
	for p := range changed {
		visited[p] = struct{}{}
	}
	for p := range direct {
		visited[p] = struct{}{}
	}
	transitive := make(map[string]struct{})
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		for _, next := range g.Nodes[cur].Dependents {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			transitive[next] = struct{}{}
			frontier = append(frontier, next)
		}
	}

	impact := &types.Impact{
		Changed:              refsForSet(g, changed),
		DirectlyAffected:     refsForSet(g, direct),
		TransitivelyAffected: refsForSet(g, transitive),
	}
	impact.BlastRadius = len(changed) + len(direct) + len(transitive)
	if g.TotalFiles > 0 {
		pct := float64(impact.BlastRadius) / float64(g.TotalFiles) * 100
		impact.CoveragePercent = float64(int(pct*10+0.5)) / 10
	}
	return impact, nil
}

func refsForSet(g *types.Graph, set map[string]struct{}) []types.FileRef {
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return refsFor(g, paths)
}

// SubgraphAround extracts the neighborhood of the identified node out to
// the given depth, following both edge directions. Expansion is
// ring-by-ring, dependencies before dependents within each ring, so the
// direction tag on a node reached both ways at the same distance is
// deterministic. Edges are collected in a second pass: every import edge
// whose endpoints both landed in the subgraph is included, whichever
// direction discovered them.
func SubgraphAround(g *types.Graph, identifier string, depth int) (*types.Subgraph, error) {
	node, err := ResolveIdentifier(g, identifier)
	if err != nil {
		return nil, err
	}
	if depth < 0 {
		return nil, fmt.Errorf("depth must be >= 0, got %d", depth)
	}

	sub := &types.Subgraph{Center: node.RelativePath, Depth: depth}
	visited := map[string]struct{}{node.Path: {}}
	sub.Nodes = append(sub.Nodes, types.SubgraphNode{
		FileRef: node.Ref(), Distance: 0, Direction: "center",
	})

	frontier := []string{node.Path}
	for d := 1; d <= depth && len(frontier) > 0; d++ {
		var next []string
		expand := func(neighbors []string, direction string) {
			for _, p := range neighbors {
				if _, seen := visited[p]; seen {
					continue
				}
				visited[p] = struct{}{}
				sub.Nodes = append(sub.Nodes, types.SubgraphNode{
					FileRef: g.Nodes[p].Ref(), Distance: d, Direction: direction,
				})
				next = append(next, p)
			}
		}
		for _, cur := range frontier {
			expand(g.Nodes[cur].Dependencies, "dependency")
		}
		for _, cur := range frontier {
			expand(g.Nodes[cur].Dependents, "dependent")
		}
		frontier = next
	}

	for _, sn := range sub.Nodes {
		for _, dep := range g.Nodes[sn.Path].Dependencies {
			if _, in := visited[dep]; in {
				sub.Edges = append(sub.Edges, types.SubgraphEdge{
					From: g.Nodes[sn.Path].RelativePath,
					To:   g.Nodes[dep].RelativePath,
				})
			}
		}
	}
	return sub, nil
}

// EntryPoints returns every node with no dependents: nothing imports
// them, so they are where execution plausibly starts. Config-like files
// that nothing imports show up too; callers filter if they care.
func EntryPoints(g *types.Graph) []types.FileRef {
	var refs []types.FileRef
	for _, p := range sortedPaths(g.Nodes) {
		if len(g.Nodes[p].Dependents) == 0 {
			refs = append(refs, g.Nodes[p].Ref())
		}
	}
	return refs
}

// ComputeStats aggregates whole-graph counts and the top-N hotspot lists.
func ComputeStats(g *types.Graph) *types.Stats {
	stats := &types.Stats{
		TotalFiles:      g.TotalFiles,
		TotalBridges:    len(g.Bridges),
		ByLanguage:      make(map[types.Language]int),
		ParseErrorCount: len(g.ParseErrors),
	}

	totalDeps := 0
	var connected, dependedOn []types.ConnectionCount
	for _, p := range sortedPaths(g.Nodes) {
		node := g.Nodes[p]
		stats.ByLanguage[node.Language]++
		stats.TotalEdges += len(node.Dependencies)
		totalDeps += len(node.Dependencies)
		if n := len(node.Dependencies) + len(node.Dependents); n > 0 {
			connected = append(connected, types.ConnectionCount{File: node.Ref(), Count: n})
		}
		if n := len(node.Dependents); n > 0 {
			dependedOn = append(dependedOn, types.ConnectionCount{File: node.Ref(), Count: n})
		}
	}
	if g.TotalFiles > 0 {
		stats.AvgDependencies = float64(totalDeps) / float64(g.TotalFiles)
	}

	stats.MostConnected = topN(connected, topConnectedCount)
	stats.MostDependedOn = topN(dependedOn, topConnectedCount)

	entries := EntryPoints(g)
	if len(entries) > entryPointCap {
		entries = entries[:entryPointCap]
	}
	stats.EntryPoints = entries
	return stats
}

// topN sorts by descending count with path as tiebreak and truncates.
// The input is already in sorted path order, so the stable sort keeps
// ties deterministic.
func topN(counts []types.ConnectionCount, n int) []types.ConnectionCount {
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// Clusters partitions the graph into weakly-connected components over
// the union of import edges and bridge participation: two files sharing
// only an MQTT topic land in the same cluster. Components are returned
// largest first, files sorted within each.
func Clusters(g *types.Graph) []types.Cluster {
	paths := sortedPaths(g.Nodes)
	dsu := newUnionFind(paths)

	for _, p := range paths {
		for _, dep := range g.Nodes[p].Dependencies {
			dsu.union(p, dep)
		}
	}
	for _, b := range g.Bridges {
		var first string
		for _, ref := range b.Producers {
			if first == "" {
				first = ref.Path
			}
			dsu.union(first, ref.Path)
		}
		for _, ref := range b.Consumers {
			if first == "" {
				first = ref.Path
			}
			dsu.union(first, ref.Path)
		}
	}

	groups := make(map[string][]string)
	for _, p := range paths {
		root := dsu.find(p)
		groups[root] = append(groups[root], p)
	}

	clusters := make([]types.Cluster, 0, len(groups))
	for _, root := range sortedKeys(groups) {
		clusters = append(clusters, types.Cluster{Files: refsFor(g, groups[root])})
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i].Files) > len(clusters[j].Files)
	})
	for i := range clusters {
		clusters[i].ID = i + 1
	}
	return clusters
}

type unionFind struct {
	parent map[string]string
}

func newUnionFind(keys []string) *unionFind {
	parent := make(map[string]string, len(keys))
	for _, k := range keys {
		parent[k] = k
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(k string) string {
	for u.parent[k] != k {
		u.parent[k] = u.parent[u.parent[k]] // path halving
		k = u.parent[k]
	}
	return k
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	// Deterministic: smaller path string becomes the root.
	if ra > rb {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}

// FilterByLanguage keeps only refs of the given language. An empty
// language passes everything through.
func FilterByLanguage(refs []types.FileRef, lang types.Language) []types.FileRef {
	if lang == "" {
		return refs
	}
	out := refs[:0:0]
	for _, ref := range refs {
		if ref.Language == lang {
			out = append(out, ref)
		}
	}
	return out
}

// FindByQuery returns nodes whose relative path contains the given
// substring, for the list_files operation. Empty query lists everything.
func FindByQuery(g *types.Graph, query string) []types.FileRef {
	var refs []types.FileRef
	for _, p := range sortedPaths(g.Nodes) {
		node := g.Nodes[p]
		if query == "" || strings.Contains(node.RelativePath, query) {
			refs = append(refs, node.Ref())
		}
	}
	return refs
}
