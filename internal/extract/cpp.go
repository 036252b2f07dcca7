package extract

import (
	"regexp"

	"github.com/standardbeagle/codegraph/internal/types"
)

// Rule set for the C/C++/Arduino family. Only quoted includes count as
// in-project edges; angle-bracket system includes are external by
// definition and never enter the graph.
var (
	cppIncludeRe = regexp.MustCompile(`(?m)^\s*#include\s+"([^"]+)"`)

	// Rough signature match: return type, name, parameter list, open brace.
	// Control-flow keywords slip through a naive pattern, so they are
	// filtered explicitly.
	cppFuncRe  = regexp.MustCompile(`(?m)^\s*(?:[\w:<>*&~]+\s+)+(\w+)\s*\([^;{}]*\)\s*(?:const\s*)?\{`)
	cppClassRe = regexp.MustCompile(`(?m)^\s*(?:class|struct)\s+(\w+)`)

	// PubSubClient and friends
	cppPublishRe   = regexp.MustCompile(`\.publish\(\s*"([^"]+)"`)
	cppSubscribeRe = regexp.MustCompile(`\.subscribe\(\s*"([^"]+)"`)

	cppSerialWriteRe = regexp.MustCompile(`\bSerial\d?\.(?:print|println|printf|write)\(`)
	cppSerialReadRe  = regexp.MustCompile(`\bSerial\d?\.(?:read|readString|readStringUntil|readBytes|available|parseInt|parseFloat)\(`)

	// ESP32 HTTPClient: http.begin("http://host/path") and literal URLs
	cppURLRe = regexp.MustCompile(`"(https?://[^"\s]+)"`)
	// Method hints appear as separate calls after begin()
	cppHTTPPostRe = regexp.MustCompile(`\.(?:POST|sendRequest)\(`)
)

var cppKeywordFilter = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {}, "return": {},
	"sizeof": {}, "defined": {},
}

func extractCpp(content string, rec *types.RawFileRecord) {
	rec.Imports = appendUnique(rec.Imports, captureAll(cppIncludeRe, content, 1)...)

	for _, name := range captureAll(cppFuncRe, content, 1) {
		if _, kw := cppKeywordFilter[name]; !kw {
			rec.Signals.Definitions = appendUnique(rec.Signals.Definitions, name)
		}
	}
	rec.Signals.Definitions = appendUnique(rec.Signals.Definitions, captureAll(cppClassRe, content, 1)...)

	rec.Signals.MQTTPublish = captureAll(cppPublishRe, content, 1)
	rec.Signals.MQTTSubscribe = captureAll(cppSubscribeRe, content, 1)

	rec.Signals.SerialWrite = len(cppSerialWriteRe.FindAllString(content, -1))
	rec.Signals.SerialRead = len(cppSerialReadRe.FindAllString(content, -1))

	// Literal URLs become outbound calls. Firmware typically issues one
	// method per endpoint; POST when the file posts anywhere, GET otherwise.
	method := "GET"
	if cppHTTPPostRe.MatchString(content) {
		method = "POST"
	}
	for _, url := range captureAll(cppURLRe, content, 1) {
		if call, ok := outboundCall(method, url); ok {
			rec.Signals.OutboundCalls = appendUnique(rec.Signals.OutboundCalls, call)
		}
	}
}

// extractArduino reuses the cpp rules; .ino sketches are the same family
// with the Arduino runtime implied. setup/loop are recorded as exports so
// sketches surface as recognizable entry files in reports.
func extractArduino(content string, rec *types.RawFileRecord) {
	extractCpp(content, rec)
	for _, name := range rec.Signals.Definitions {
		if name == "setup" || name == "loop" {
			rec.Signals.Exports = appendUnique(rec.Signals.Exports, name)
		}
	}
}
