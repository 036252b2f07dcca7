// Package types defines the shared data model for the codegraph engine:
// languages, file nodes, bridges, and the dependency graph container.
//
// Architecture Pattern:
// codegraph uses absolute, cleaned paths as node keys internally. All
// user-facing and cross-file string matching uses the forward-slash
// normalized RelativePath so graphs built on different operating systems
// compare identically.
package types

import "time"

// Language identifies the language family a file belongs to.
// The set is closed: extractors dispatch through a lookup table keyed by
// this value, so adding a language means adding one constant plus one
// rule set.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangCpp        Language = "cpp"
	LangArduino    Language = "arduino"
	LangEnv        Language = "env"
	LangUnknown    Language = "unknown"
)

// Languages lists every known language value, in a stable order for
// per-language reporting.
var Languages = []Language{
	LangJavaScript, LangTypeScript, LangPython, LangCpp, LangArduino, LangEnv, LangUnknown,
}

// Valid reports whether l is one of the closed enumeration values.
func (l Language) Valid() bool {
	switch l {
	case LangJavaScript, LangTypeScript, LangPython, LangCpp, LangArduino, LangEnv, LangUnknown:
		return true
	}
	return false
}

// FileRef is the lightweight node handle returned by query operations.
type FileRef struct {
	Path         string   `json:"path"`
	RelativePath string   `json:"relative_path"`
	Language     Language `json:"language"`
}

// Signals holds everything the per-language extractors pull out of a file
// beyond plain imports. All slices are empty by default; only the rules
// registered for the file's language populate them.
type Signals struct {
	Exports       []string `json:"exports,omitempty"`
	Definitions   []string `json:"definitions,omitempty"`
	APIEndpoints  []string `json:"api_endpoints,omitempty"`  // "POST /api/users"
	OutboundCalls []string `json:"outbound_calls,omitempty"` // "GET /api/users/42"
	MQTTPublish   []string `json:"mqtt_publish,omitempty"`
	MQTTSubscribe []string `json:"mqtt_subscribe,omitempty"`
	WSEmit        []string `json:"ws_emit,omitempty"`
	WSListen      []string `json:"ws_listen,omitempty"`
	SerialWrite   int      `json:"serial_write,omitempty"` // match count
	SerialRead    int      `json:"serial_read,omitempty"`
	EnvRead       []string `json:"env_read,omitempty"`
	EnvDefined    []string `json:"env_defined,omitempty"` // only for env-language files
}

// RawFileRecord is the extractor output for a single file: unresolved
// import specifiers exactly as written in source, plus all signals.
type RawFileRecord struct {
	Imports []string
	Signals Signals
}

// FileNode is one discovered source file and its resolved graph edges.
type FileNode struct {
	Path         string   `json:"path"`
	RelativePath string   `json:"relative_path"`
	Language     Language `json:"language"`

	// Dependencies holds absolute paths this file imports, in extraction
	// order, deduplicated. Dependents is maintained as the exact inverse
	// by the graph builder: for every edge A->B, B.Dependents contains A.
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`

	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
	ContentHash  uint64    `json:"content_hash"`

	Signals Signals `json:"signals"`

	// RawImports keeps the unresolved specifiers for verbose diagnostics.
	RawImports []string `json:"-"`
}

// Ref returns the FileRef view of the node.
func (n *FileNode) Ref() FileRef {
	return FileRef{Path: n.Path, RelativePath: n.RelativePath, Language: n.Language}
}

// BridgeKind classifies the channel a non-import connection runs over.
type BridgeKind string

const (
	BridgeHTTP      BridgeKind = "http"
	BridgeMQTT      BridgeKind = "mqtt"
	BridgeWebSocket BridgeKind = "websocket"
	BridgeSerial    BridgeKind = "serial"
	BridgeEnv       BridgeKind = "env"
)

// Bridge is a cross-file connection through a shared logical channel
// (route, topic, event, env var, serial line) rather than an import.
// A bridge with consumers but no producers is "unmatched"; one with
// producers but no consumers is "dead". Both are kept deliberately:
// broken connections are findings, not noise.
type Bridge struct {
	Kind       BridgeKind `json:"kind"`
	Identifier string     `json:"identifier"`
	Producers  []FileRef  `json:"producers"`
	Consumers  []FileRef  `json:"consumers"`
}

// Unmatched reports a channel that is consumed but never produced
// (endpoint called but not defined, env var read but never set).
func (b *Bridge) Unmatched() bool {
	return len(b.Producers) == 0 && len(b.Consumers) > 0
}

// Dead reports a channel that is produced but never consumed.
func (b *Bridge) Dead() bool {
	return len(b.Producers) > 0 && len(b.Consumers) == 0
}

// ParseError records a single file that failed to read or decode.
// Scanning never aborts on one bad file; it accumulates these.
type ParseError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// UnresolvedImport records a relative specifier that matched no known
// file. Dropped from the graph by design (dynamic paths are invisible to
// static extraction); surfaced only in verbose mode.
type UnresolvedImport struct {
	File      string `json:"file"`
	Specifier string `json:"specifier"`
}

// Graph is the whole-project dependency graph. Built fresh on every scan;
// no incremental update. Immutable once built, so concurrent queries need
// no locking.
type Graph struct {
	RootDir    string               `json:"root_dir"`
	BuiltAt    time.Time            `json:"built_at"`
	Nodes      map[string]*FileNode `json:"nodes"`
	TotalFiles int                  `json:"total_files"`

	Bridges     []Bridge           `json:"bridges"`
	ParseErrors []ParseError       `json:"parse_errors,omitempty"`
	Unresolved  []UnresolvedImport `json:"-"`
}

// ConnectionCount is a node paired with an edge count, used for the
// stats top-N lists.
type ConnectionCount struct {
	File  FileRef `json:"file"`
	Count int     `json:"count"`
}

// Stats aggregates graph-wide counts for reporting.
type Stats struct {
	TotalFiles      int               `json:"total_files"`
	TotalEdges      int               `json:"total_edges"`
	TotalBridges    int               `json:"total_bridges"`
	ByLanguage      map[Language]int  `json:"by_language"`
	MostConnected   []ConnectionCount `json:"most_connected"`
	MostDependedOn  []ConnectionCount `json:"most_depended_on"`
	AvgDependencies float64           `json:"avg_dependencies"`
	EntryPoints     []FileRef         `json:"entry_points"`
	ParseErrorCount int               `json:"parse_error_count"`
}

// Impact is the result of a change-impact query. DirectlyAffected and
// TransitivelyAffected are disjoint tiers: "what breaks immediately"
// versus "what breaks eventually".
type Impact struct {
	Changed              []FileRef `json:"changed"`
	DirectlyAffected     []FileRef `json:"directly_affected"`
	TransitivelyAffected []FileRef `json:"transitively_affected"`
	BlastRadius          int       `json:"blast_radius"`
	CoveragePercent      float64   `json:"coverage_percent"`
}

// SubgraphEdge is a directed import edge between two nodes of an
// extracted subgraph.
type SubgraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// SubgraphNode is a node in an extracted subgraph, annotated with its
// BFS distance from the center and the direction that first reached it.
type SubgraphNode struct {
	FileRef
	Distance  int    `json:"distance"`
	Direction string `json:"direction"` // "center", "dependency", "dependent"
}

// Subgraph is the bounded neighborhood around a center node.
type Subgraph struct {
	Center string         `json:"center"`
	Depth  int            `json:"depth"`
	Nodes  []SubgraphNode `json:"nodes"`
	Edges  []SubgraphEdge `json:"edges"`
}

// Cluster is one weakly-connected component over the combined
// import-plus-bridge edge set.
type Cluster struct {
	ID    int       `json:"id"`
	Files []FileRef `json:"files"`
}
