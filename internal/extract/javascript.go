package extract

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/codegraph/internal/types"
)

// Rule set for the JavaScript/TypeScript family. Ordered roughly by how
// often each signal occurs in practice; every rule collects all matches.
var (
	// import defaultExport from './x'; import { a, b } from './x'; import './x'
	jsImportRe = regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?(?:[\w$*{}\s,]+?\s+from\s+)?['"]([^'"]+)['"]`)
	// export { a } from './x'; export * from './x'
	jsReExportRe = regexp.MustCompile(`(?m)^\s*export\s+(?:[\w$*{}\s,]+?\s+)?from\s+['"]([^'"]+)['"]`)
	// const x = require('./x')
	jsRequireRe = regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`)
	// await import('./x') — only literal specifiers are visible
	jsDynImportRe = regexp.MustCompile(`\bimport\(\s*['"]([^'"]+)['"]\s*\)`)

	jsExportRe = regexp.MustCompile(`(?m)^\s*export\s+(?:default\s+)?(?:abstract\s+)?(?:async\s+)?(?:function\*?|class|const|let|var|interface|type|enum)\s+([A-Za-z_$][\w$]*)`)
	jsFuncRe   = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\*?\s+([A-Za-z_$][\w$]*)`)
	jsClassRe  = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`)

	// app.get('/path', ...), router.post("/path", ...), fastify.put(...)
	jsRouteRe = regexp.MustCompile(`\b(?:app|router|server|api|fastify)\.(get|post|put|delete|patch|head|options|all)\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`)
	// fetch('/api/x') — method defaults to GET; request options are opaque
	jsFetchRe = regexp.MustCompile(`\bfetch\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`)
	// axios.post('/api/x')
	jsAxiosRe = regexp.MustCompile(`\baxios\.(get|post|put|delete|patch|head)\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`)

	jsEmitRe   = regexp.MustCompile(`\.emit\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`)
	jsListenRe = regexp.MustCompile(`\.(?:on|once)\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`)

	jsPublishRe   = regexp.MustCompile(`\.publish\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`)
	jsSubscribeRe = regexp.MustCompile(`\.subscribe\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`)

	jsEnvDotRe   = regexp.MustCompile(`\bprocess\.env\.([A-Za-z_][A-Za-z0-9_]*)`)
	jsEnvIndexRe = regexp.MustCompile(`\bprocess\.env\[\s*['"]([A-Za-z_][A-Za-z0-9_]*)['"]\s*\]`)
)

// mqttLifecycleEvents are client lifecycle names that MQTT and WebSocket
// libraries both register through .on(); they are transport plumbing,
// not application events, and would bridge every client file together.
var mqttLifecycleEvents = map[string]struct{}{
	"connect": {}, "reconnect": {}, "close": {}, "disconnect": {},
	"offline": {}, "error": {}, "message": {}, "end": {}, "packetsend": {},
	"packetreceive": {},
}

func extractScript(content string, rec *types.RawFileRecord) {
	rec.Imports = appendUnique(rec.Imports, captureAll(jsImportRe, content, 1)...)
	rec.Imports = appendUnique(rec.Imports, captureAll(jsReExportRe, content, 1)...)
	rec.Imports = appendUnique(rec.Imports, captureAll(jsRequireRe, content, 1)...)
	rec.Imports = appendUnique(rec.Imports, captureAll(jsDynImportRe, content, 1)...)

	rec.Signals.Exports = captureAll(jsExportRe, content, 1)
	rec.Signals.Definitions = appendUnique(captureAll(jsFuncRe, content, 1), captureAll(jsClassRe, content, 1)...)

	// app.all(...) stays "ALL"; the bridge matcher pairs it with any verb.
	for _, m := range jsRouteRe.FindAllStringSubmatch(content, -1) {
		rec.Signals.APIEndpoints = appendUnique(rec.Signals.APIEndpoints, strings.ToUpper(m[1])+" "+m[2])
	}
	for _, path := range captureAll(jsFetchRe, content, 1) {
		if call, ok := outboundCall("GET", path); ok {
			rec.Signals.OutboundCalls = appendUnique(rec.Signals.OutboundCalls, call)
		}
	}
	for _, m := range jsAxiosRe.FindAllStringSubmatch(content, -1) {
		if call, ok := outboundCall(strings.ToUpper(m[1]), m[2]); ok {
			rec.Signals.OutboundCalls = appendUnique(rec.Signals.OutboundCalls, call)
		}
	}

	rec.Signals.WSEmit = captureAll(jsEmitRe, content, 1)
	for _, ev := range captureAll(jsListenRe, content, 1) {
		if _, lifecycle := mqttLifecycleEvents[ev]; lifecycle {
			continue
		}
		rec.Signals.WSListen = appendUnique(rec.Signals.WSListen, ev)
	}

	rec.Signals.MQTTPublish = captureAll(jsPublishRe, content, 1)
	rec.Signals.MQTTSubscribe = captureAll(jsSubscribeRe, content, 1)

	rec.Signals.EnvRead = appendUnique(captureAll(jsEnvDotRe, content, 1), captureAll(jsEnvIndexRe, content, 1)...)
}

// outboundCall normalizes a literal call target to "METHOD /path" form.
// Full URLs keep only the path component; targets without a path (bare
// hosts, template-only strings) are skipped.
func outboundCall(method, target string) (string, bool) {
	path := target
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		rest := target[strings.Index(target, "://")+3:]
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return "", false
		}
		path = rest[slash:]
	}
	if !strings.HasPrefix(path, "/") {
		return "", false
	}
	if q := strings.IndexAny(path, "?#"); q >= 0 {
		path = path[:q]
	}
	if path == "" {
		return "", false
	}
	return method + " " + path, true
}
