package extract

import (
	"regexp"

	"github.com/standardbeagle/codegraph/internal/types"
)

// envAssignRe matches KEY=value lines in dotenv files, with an optional
// shell-style export prefix. Comment lines never match.
var envAssignRe = regexp.MustCompile(`(?m)^\s*(?:export\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*=`)

// extractEnv populates EnvDefined for .env-like files. These files define
// the producer side of env bridges; code files only ever read.
func extractEnv(content string, rec *types.RawFileRecord) {
	rec.Signals.EnvDefined = captureAll(envAssignRe, content, 1)
}
