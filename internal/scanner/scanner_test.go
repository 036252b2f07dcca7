package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/config"
	cgerrors "github.com/standardbeagle/codegraph/internal/errors"
	"github.com/standardbeagle/codegraph/internal/types"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func testConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.RootDir = root
	return cfg
}

func TestScanDiscoversAndExtracts(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.js": "import { api } from './api';\n",
		"src/api.js": "export function api() {}\n",
		"monitor.py": "import json\n",
		"notes.md": "# not source\n",
		".env": "API_SECRET=x\n",
	})

	res, err := Scan(context.Background(), testConfig(root))
	require.NoError(t, err)

	assert.Len(t, res.Nodes, 5)
	assert.Empty(t, res.ParseErrors)

	notes := res.Nodes[filepath.Join(root, "notes.md")]
	require.NotNil(t, notes, "unrecognized extensions are still tracked")
	assert.Equal(t, types.LangUnknown, notes.Language)
	assert.Empty(t, notes.RawImports)
	assert.NotZero(t, notes.ContentHash)

	app := res.Nodes[filepath.Join(root, "src", "app.js")]
	require.NotNil(t, app)
	assert.Equal(t, "src/app.js", app.RelativePath)
	assert.Equal(t, types.LangJavaScript, app.Language)
	assert.Equal(t, []string{"./api"}, app.RawImports)
	assert.NotZero(t, app.ContentHash)
	assert.NotZero(t, app.SizeBytes)

	env := res.Nodes[filepath.Join(root, ".env")]
	require.NotNil(t, env)
	assert.Equal(t, []string{"API_SECRET"}, env.Signals.EnvDefined)
}

func TestScanHonorsExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.js": "ok\n",
		"node_modules/react/x.js": "skip\n",
		"dist/bundle.js": "skip\n",
		"src/vendor.min.js": "skip\n",
		"sub/node_modules/y/z.js": "skip\n",
	})

	res, err := Scan(context.Background(), testConfig(root))
	require.NoError(t, err)

	require.Len(t, res.Nodes, 1)
	_, ok := res.Nodes[filepath.Join(root, "src", "app.js")]
	assert.True(t, ok)
}

func TestScanUserExcludesExtendDefaults(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.js": "ok\n",
		"fixtures/sample.js": "skip\n",
	})

	cfg := testConfig(root)
	cfg.Exclude = append(cfg.Exclude, "fixtures/**")

	res, err := Scan(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Nodes, 1)
}

func TestScanIncludeRestricts(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.js": "ok\n",
		"tools/x.py": "ok\n",
	})

	cfg := testConfig(root)
	cfg.Include = []string{"src/**"}

	res, err := Scan(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Nodes, 1)
	_, ok := res.Nodes[filepath.Join(root, "src", "app.js")]
	assert.True(t, ok)
}

func TestScanMissingRootIsSetupError(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "does-not-exist"))
	_, err := Scan(context.Background(), cfg)
	var setupErr *cgerrors.SetupError
	require.ErrorAs(t, err, &setupErr)
}

func TestScanFileRootIsSetupError(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := Scan(context.Background(), testConfig(file))
	var setupErr *cgerrors.SetupError
	require.ErrorAs(t, err, &setupErr)
}

func TestScanEmptyRootIsSetupError(t *testing.T) {
	_, err := Scan(context.Background(), testConfig(t.TempDir()))
	var setupErr *cgerrors.SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Contains(t, err.Error(), "no files to scan")
}

func TestScanBinaryFileBecomesParseError(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/good.js": "ok\n"})
	bin := filepath.Join(root, "src", "blob.js")
	require.NoError(t, os.WriteFile(bin, []byte{0x00, 0x01, 0xff, 0xfe}, 0o644))

	res, err := Scan(context.Background(), testConfig(root))
	require.NoError(t, err, "one bad file must not abort the scan")

	require.Len(t, res.ParseErrors, 1)
	assert.Equal(t, bin, res.ParseErrors[0].File)
	assert.Len(t, res.Nodes, 1)
}

func TestScanOversizedFileSkipped(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"big.js": "console.log('too big for the limit');\n"})

	cfg := testConfig(root)
	cfg.MaxFileSize = 8

	res, err := Scan(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, res.Nodes)
	require.Len(t, res.ParseErrors, 1)
	assert.Contains(t, res.ParseErrors[0].Error, "max_file_size")
}

func TestScanIdempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.js": "import './b';\n",
		"b.js": "export const b = 1;\n",
	})
	cfg := testConfig(root)

	first, err := Scan(context.Background(), cfg)
	require.NoError(t, err)
	second, err := Scan(context.Background(), cfg)
	require.NoError(t, err)

	require.Equal(t, len(first.Nodes), len(second.Nodes))
	for path, n1 := range first.Nodes {
		n2, ok := second.Nodes[path]
		require.True(t, ok)
		assert.Equal(t, n1.ContentHash, n2.ContentHash)
		assert.Equal(t, n1.RawImports, n2.RawImports)
		assert.Equal(t, n1.Signals, n2.Signals)
	}
}

func TestScanCanceledContext(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.js": "x\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, testConfig(root))
	assert.ErrorIs(t, err, context.Canceled)
}
