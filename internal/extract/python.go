package extract

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/codegraph/internal/types"
)

// Rule set for Python. Relative imports keep their leading dots; the
// resolver walks one directory up per dot past the first.
var (
	pyImportRe     = regexp.MustCompile(`(?m)^\s*import\s+([\w.]+(?:\s*,\s*[\w.]+)*)`)
	pyFromImportRe = regexp.MustCompile(`(?m)^\s*from\s+([.\w]+)\s+import\s+`)

	pyDefRe      = regexp.MustCompile(`(?m)^\s*def\s+(\w+)`)
	pyClassRe    = regexp.MustCompile(`(?m)^\s*class\s+(\w+)`)
	pyTopDefRe   = regexp.MustCompile(`(?m)^def\s+(\w+)`)
	pyTopClassRe = regexp.MustCompile(`(?m)^class\s+(\w+)`)

	// @app.route("/path", methods=["POST"]) — Flask
	pyFlaskRouteRe = regexp.MustCompile(`@\w+\.route\(\s*['"]([^'"]+)['"](?:[^)]*methods\s*=\s*\[([^\]]*)\])?`)
	// @app.get("/path") — FastAPI / Flask 2 shortcuts
	pyVerbRouteRe = regexp.MustCompile(`@\w+\.(get|post|put|delete|patch|head|options)\(\s*['"]([^'"]+)['"]`)
	// requests.post("...") / httpx.get("...") — f-string prefixes allowed,
	// interpolated segments survive as {placeholder} and normalize away
	pyHTTPCallRe = regexp.MustCompile(`\b(?:requests|httpx)\.(get|post|put|delete|patch|head)\(\s*f?['"]([^'"]+)['"]`)

	pyPublishRe   = regexp.MustCompile(`\.publish\(\s*f?['"]([^'"]+)['"]`)
	pySubscribeRe = regexp.MustCompile(`\.subscribe\(\s*f?['"]([^'"]+)['"]`)

	// @socketio.on("event") and socketio.emit("event") / emit("event")
	pyWSListenRe = regexp.MustCompile(`@\w+\.on\(\s*['"]([^'"]+)['"]`)
	pyWSEmitRe   = regexp.MustCompile(`\bemit\(\s*['"]([^'"]+)['"]`)

	pySerialOpenRe  = regexp.MustCompile(`\bserial\.Serial\(`)
	pySerialWriteRe = regexp.MustCompile(`\.write\(`)
	pySerialReadRe  = regexp.MustCompile(`\.(?:read|readline|read_until)\(`)

	pyEnvIndexRe = regexp.MustCompile(`os\.environ\[\s*['"](\w+)['"]\s*\]`)
	pyEnvGetRe   = regexp.MustCompile(`os\.environ\.get\(\s*['"](\w+)['"]`)
	pyGetenvRe   = regexp.MustCompile(`os\.getenv\(\s*['"](\w+)['"]`)
)

func extractPython(content string, rec *types.RawFileRecord) {
	for _, list := range captureAll(pyImportRe, content, 1) {
		for _, mod := range strings.Split(list, ",") {
			if mod = strings.TrimSpace(mod); mod != "" {
				rec.Imports = appendUnique(rec.Imports, mod)
			}
		}
	}
	rec.Imports = appendUnique(rec.Imports, captureAll(pyFromImportRe, content, 1)...)

	rec.Signals.Definitions = appendUnique(captureAll(pyDefRe, content, 1), captureAll(pyClassRe, content, 1)...)
	// Python has no export keyword; top-level definitions are the module's
	// public surface for matching purposes.
	rec.Signals.Exports = appendUnique(captureAll(pyTopDefRe, content, 1), captureAll(pyTopClassRe, content, 1)...)

	for _, m := range pyFlaskRouteRe.FindAllStringSubmatch(content, -1) {
		methods := []string{"GET"}
		if m[2] != "" {
			methods = methods[:0]
			for _, raw := range strings.Split(m[2], ",") {
				name := strings.ToUpper(strings.Trim(strings.TrimSpace(raw), `'"`))
				if name != "" {
					methods = append(methods, name)
				}
			}
		}
		for _, method := range methods {
			rec.Signals.APIEndpoints = appendUnique(rec.Signals.APIEndpoints, method+" "+m[1])
		}
	}
	for _, m := range pyVerbRouteRe.FindAllStringSubmatch(content, -1) {
		rec.Signals.APIEndpoints = appendUnique(rec.Signals.APIEndpoints, strings.ToUpper(m[1])+" "+m[2])
	}
	for _, m := range pyHTTPCallRe.FindAllStringSubmatch(content, -1) {
		if call, ok := outboundCall(strings.ToUpper(m[1]), m[2]); ok {
			rec.Signals.OutboundCalls = appendUnique(rec.Signals.OutboundCalls, call)
		}
	}

	rec.Signals.MQTTPublish = captureAll(pyPublishRe, content, 1)
	rec.Signals.MQTTSubscribe = captureAll(pySubscribeRe, content, 1)

	for _, ev := range captureAll(pyWSListenRe, content, 1) {
		if _, lifecycle := mqttLifecycleEvents[ev]; !lifecycle {
			rec.Signals.WSListen = appendUnique(rec.Signals.WSListen, ev)
		}
	}
	rec.Signals.WSEmit = captureAll(pyWSEmitRe, content, 1)

	// Generic .write()/.read() only count as serial I/O when the file
	// actually opens a serial port.
	if pySerialOpenRe.MatchString(content) {
		rec.Signals.SerialWrite = len(pySerialWriteRe.FindAllString(content, -1))
		rec.Signals.SerialRead = len(pySerialReadRe.FindAllString(content, -1))
	}

	rec.Signals.EnvRead = appendUnique(captureAll(pyEnvIndexRe, content, 1),
		append(captureAll(pyEnvGetRe, content, 1), captureAll(pyGetenvRe, content, 1)...)...)
}
