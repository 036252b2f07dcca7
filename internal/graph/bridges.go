package graph

import (
	"regexp"
	"sort"
	"strings"

	"github.com/standardbeagle/codegraph/internal/types"
)

// DetectBridges finds cross-file connections that flow through shared
// logical channels instead of imports: HTTP routes, MQTT topics,
// WebSocket events, serial lines, and environment variables. Bridges
// with a missing side are kept, not dropped: an endpoint nobody calls
// and a call nobody serves are both findings.
func DetectBridges(nodes map[string]*types.FileNode) []types.Bridge {
	var bridges []types.Bridge
	bridges = append(bridges, detectHTTPBridges(nodes)...)
	bridges = append(bridges, detectMQTTBridges(nodes)...)
	bridges = append(bridges, detectWSBridges(nodes)...)
	bridges = append(bridges, detectSerialBridges(nodes)...)
	bridges = append(bridges, detectEnvBridges(nodes)...)
	return bridges
}

var (
	pathParamRe = regexp.MustCompile(`^(:[\w-]+|\{[^{}]*\}|<[^<>]*>)$`)
	numericRe   = regexp.MustCompile(`^\d+$`)
	uuidRe      = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// NormalizeHTTPPath canonicalizes a "METHOD /path" identifier so that
// route definitions and outbound calls written in different framework
// dialects compare equal. Parameter segments in any dialect (:id, {id},
// <id>, ${expr}) and concrete values that are obviously parameters
// (numbers, UUIDs) all collapse to "*".
func NormalizeHTTPPath(endpoint string) string {
	method, rest, ok := strings.Cut(endpoint, " ")
	if !ok {
		rest = method
		method = "GET"
	}
	method = strings.ToUpper(method)

	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		rest = "/"
	}
	segs := strings.Split(rest, "/")
	for i, seg := range segs {
		switch {
		case seg == "":
		case pathParamRe.MatchString(seg),
			strings.Contains(seg, "${"),
			numericRe.MatchString(seg),
			uuidRe.MatchString(seg):
			segs[i] = "*"
		}
	}
	return method + " " + strings.Join(segs, "/")
}

func detectHTTPBridges(nodes map[string]*types.FileNode) []types.Bridge {
	producers := make(map[string][]types.FileRef)
	consumers := make(map[string][]types.FileRef)
	for _, p := range sortedPaths(nodes) {
		node := nodes[p]
		for _, ep := range node.Signals.APIEndpoints {
			key := NormalizeHTTPPath(ep)
			producers[key] = appendRef(producers[key], node.Ref())
		}
		for _, call := range node.Signals.OutboundCalls {
			key := NormalizeHTTPPath(call)
			consumers[key] = appendRef(consumers[key], node.Ref())
		}
	}

	// Routes registered with all() accept every verb. Fold their producers
	// into whichever methods the callers actually use; a wildcard route
	// nothing calls stays behind as a dead "ALL" bridge.
	matched := make(map[string]struct{})
	for key := range consumers {
		method, rest, ok := strings.Cut(key, " ")
		if !ok || method == "ALL" {
			continue
		}
		wild := "ALL " + rest
		if refs, found := producers[wild]; found {
			producers[key] = mergeRefs(producers[key], refs)
			matched[wild] = struct{}{}
		}
	}
	for wild := range matched {
		delete(producers, wild)
	}

	return collectBridges(types.BridgeHTTP, producers, consumers)
}

// TopicMatches reports whether an MQTT topic filter matches a concrete
// topic. "+" matches exactly one level, "#" matches any remaining levels
// and is only valid as the final level. A filter that uses wildcards
// illegally (a "#" before the end, or wildcard characters embedded in a
// level) is not a filter at all and matches only its literal self, which
// is what a broker would reject and what byte-equality gives us.
func TopicMatches(filter, topic string) bool {
	if !validTopicFilter(filter) {
		return filter == topic
	}
	fl := strings.Split(filter, "/")
	tl := strings.Split(topic, "/")
	for i, f := range fl {
		if f == "#" {
			return true
		}
		if i >= len(tl) {
			return false
		}
		if f != "+" && f != tl[i] {
			return false
		}
	}
	return len(fl) == len(tl)
}

func validTopicFilter(filter string) bool {
	levels := strings.Split(filter, "/")
	for i, l := range levels {
		if l == "#" && i != len(levels)-1 {
			return false
		}
		if l != "#" && l != "+" && strings.ContainsAny(l, "#+") {
			return false
		}
	}
	return true
}

func detectMQTTBridges(nodes map[string]*types.FileNode) []types.Bridge {
	pubs := make(map[string][]types.FileRef) // concrete topic -> publishers
	subs := make(map[string][]types.FileRef) // filter -> subscribers
	for _, p := range sortedPaths(nodes) {
		node := nodes[p]
		for _, t := range node.Signals.MQTTPublish {
			pubs[t] = appendRef(pubs[t], node.Ref())
		}
		for _, f := range node.Signals.MQTTSubscribe {
			subs[f] = appendRef(subs[f], node.Ref())
		}
	}

	var bridges []types.Bridge
	matchedTopic := make(map[string]bool)

	// One bridge per subscription filter, carrying every publisher whose
	// topic the filter matches. sensors/esp1/temp published against a
	// sensors/+/temp subscription is one bridge, not two.
	for _, filter := range sortedKeys(subs) {
		var producers []types.FileRef
		for _, topic := range sortedKeys(pubs) {
			if TopicMatches(filter, topic) {
				matchedTopic[topic] = true
				producers = mergeRefs(producers, pubs[topic])
			}
		}
		bridges = append(bridges, types.Bridge{
			Kind:       types.BridgeMQTT,
			Identifier: filter,
			Producers:  producers,
			Consumers:  subs[filter],
		})
	}
	// Topics nobody subscribes to are dead channels.
	for _, topic := range sortedKeys(pubs) {
		if !matchedTopic[topic] {
			bridges = append(bridges, types.Bridge{
				Kind:       types.BridgeMQTT,
				Identifier: topic,
				Producers:  pubs[topic],
			})
		}
	}
	return bridges
}

func detectWSBridges(nodes map[string]*types.FileNode) []types.Bridge {
	producers := make(map[string][]types.FileRef)
	consumers := make(map[string][]types.FileRef)
	for _, p := range sortedPaths(nodes) {
		node := nodes[p]
		for _, ev := range node.Signals.WSEmit {
			producers[ev] = appendRef(producers[ev], node.Ref())
		}
		for _, ev := range node.Signals.WSListen {
			consumers[ev] = appendRef(consumers[ev], node.Ref())
		}
	}
	return collectBridges(types.BridgeWebSocket, producers, consumers)
}

// detectSerialBridges links everything that writes a serial line with
// everything that reads one. There is no addressing in the signal, so
// this is a single coarse channel; it exists to connect firmware to the
// host script talking to it, which is the common repo shape.
func detectSerialBridges(nodes map[string]*types.FileNode) []types.Bridge {
	var producers, consumers []types.FileRef
	for _, p := range sortedPaths(nodes) {
		node := nodes[p]
		if node.Signals.SerialWrite > 0 {
			producers = append(producers, node.Ref())
		}
		if node.Signals.SerialRead > 0 {
			consumers = append(consumers, node.Ref())
		}
	}
	if len(producers) == 0 && len(consumers) == 0 {
		return nil
	}
	return []types.Bridge{{
		Kind:       types.BridgeSerial,
		Identifier: "serial",
		Producers:  producers,
		Consumers:  consumers,
	}}
}

func detectEnvBridges(nodes map[string]*types.FileNode) []types.Bridge {
	producers := make(map[string][]types.FileRef)
	consumers := make(map[string][]types.FileRef)
	for _, p := range sortedPaths(nodes) {
		node := nodes[p]
		for _, name := range node.Signals.EnvDefined {
			producers[name] = appendRef(producers[name], node.Ref())
		}
		for _, name := range node.Signals.EnvRead {
			consumers[name] = appendRef(consumers[name], node.Ref())
		}
	}
	return collectBridges(types.BridgeEnv, producers, consumers)
}

// collectBridges merges producer and consumer registries keyed by exact
// identifier into one bridge per identifier, in sorted identifier order.
func collectBridges(kind types.BridgeKind, producers, consumers map[string][]types.FileRef) []types.Bridge {
	ids := make(map[string]struct{}, len(producers)+len(consumers))
	for id := range producers {
		ids[id] = struct{}{}
	}
	for id := range consumers {
		ids[id] = struct{}{}
	}

	var bridges []types.Bridge
	for _, id := range sortedKeys(ids) {
		bridges = append(bridges, types.Bridge{
			Kind:       kind,
			Identifier: id,
			Producers:  producers[id],
			Consumers:  consumers[id],
		})
	}
	return bridges
}

func appendRef(refs []types.FileRef, ref types.FileRef) []types.FileRef {
	for _, r := range refs {
		if r.Path == ref.Path {
			return refs
		}
	}
	return append(refs, ref)
}

func mergeRefs(dst []types.FileRef, src []types.FileRef) []types.FileRef {
	for _, r := range src {
		dst = appendRef(dst, r)
	}
	return dst
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
