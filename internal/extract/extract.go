// Package extract pulls imports and cross-language signals out of source
// files using per-language regular-expression rule sets.
//
// This is deliberately a heuristic, not a parse: regex extraction covers
// the overwhelming majority of real-world imports, route definitions, and
// pub/sub calls without dragging in a compiler front end per language.
// The cost is that dynamically constructed specifiers — import(computed()),
// client.publish(prefix + id) — are invisible. That limitation is part of
// the contract, documented here and in the CLI help, not a defect to fix.
package extract

import (
	"regexp"

	"github.com/standardbeagle/codegraph/internal/types"
)

// extractFunc applies one language family's rule set to file content.
type extractFunc func(content string, rec *types.RawFileRecord)

// ruleSets dispatches extraction by language. Closed table: unknown
// languages produce an empty record (the file still becomes a node).
var ruleSets = map[types.Language]extractFunc{
	types.LangJavaScript: extractScript,
	types.LangTypeScript: extractScript,
	types.LangPython:     extractPython,
	types.LangCpp:        extractCpp,
	types.LangArduino:    extractArduino,
	types.LangEnv:        extractEnv,
}

// Extract runs the rule set registered for lang over content and returns
// the raw per-file record. Import specifiers are returned exactly as
// written; resolution happens later against the full discovered path set.
func Extract(content string, lang types.Language) types.RawFileRecord {
	var rec types.RawFileRecord
	if fn, ok := ruleSets[lang]; ok {
		fn(content, &rec)
	}
	return rec
}

// captureAll returns the n-th capture group of every match of re in
// content, deduplicated in first-seen order. All matches of a rule are
// collected, never just the first.
func captureAll(re *regexp.Regexp, content string, group int) []string {
	matches := re.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if group >= len(m) || m[group] == "" {
			continue
		}
		if _, dup := seen[m[group]]; dup {
			continue
		}
		seen[m[group]] = struct{}{}
		out = append(out, m[group])
	}
	return out
}

// appendUnique appends items to dst skipping values already present.
func appendUnique(dst []string, items ...string) []string {
	for _, it := range items {
		dup := false
		for _, existing := range dst {
			if existing == it {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, it)
		}
	}
	return dst
}
