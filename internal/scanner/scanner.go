// Package scanner walks the project tree, filters files by glob patterns,
// and runs the per-language extractors over the survivors with bounded
// concurrency. Files with unrecognized extensions are kept as unknown-language
// nodes so cross-references into non-code files stay representable. Its
// output is the node set the graph builder assembles edges from.
package scanner

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/codegraph/internal/config"
	cgerrors "github.com/standardbeagle/codegraph/internal/errors"
	"github.com/standardbeagle/codegraph/internal/extract"
	"github.com/standardbeagle/codegraph/internal/types"
)

// Result is everything one scan produced: extracted nodes keyed by
// absolute path, plus the per-file errors accumulated along the way.
type Result struct {
	RootDir     string
	Nodes       map[string]*types.FileNode
	ParseErrors []types.ParseError
}

// Scan discovers and extracts every file under the configured root that
// survives the exclude and include globs. The root must exist, be a
// readable directory, and yield at least one file; anything else is fatal.
// Individual unreadable or undecodable files are recorded as parse errors
// and skipped, never aborting the scan.
func Scan(ctx context.Context, cfg *config.Config) (*Result, error) {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, cgerrors.NewSetupError(cfg.RootDir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, cgerrors.NewSetupError(root, err)
	}
	if !info.IsDir() {
		return nil, cgerrors.NewSetupError(root, os.ErrInvalid)
	}

	paths, parseErrors, err := discover(root, cfg)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, cgerrors.NewSetupError(root, errors.New("no files to scan"))
	}

	res := &Result{
		RootDir:     root,
		Nodes:       make(map[string]*types.FileNode, len(paths)),
		ParseErrors: parseErrors,
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			node, perr := extractFile(root, path, cfg.MaxFileSize)
			mu.Lock()
			defer mu.Unlock()
			if perr != nil {
				res.ParseErrors = append(res.ParseErrors, *perr)
				return nil
			}
			res.Nodes[path] = node
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(res.ParseErrors, func(i, j int) bool {
		return res.ParseErrors[i].File < res.ParseErrors[j].File
	})
	return res, nil
}

// discover walks the tree collecting candidate paths. Excluded
// directories are pruned rather than descended; unreadable directories
// become parse errors, not fatal failures.
func discover(root string, cfg *config.Config) ([]string, []types.ParseError, error) {
	var paths []string
	var parseErrors []types.ParseError

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return cgerrors.NewSetupError(root, err)
			}
			parseErrors = append(parseErrors, types.ParseError{
				File: path, Error: err.Error(),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel := relSlash(root, path)
		if d.IsDir() {
			if path != root && matchesDir(cfg.Exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if matchesAny(cfg.Exclude, rel) {
			return nil
		}
		if len(cfg.Include) > 0 && !matchesAny(cfg.Include, rel) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return paths, parseErrors, nil
}

func extractFile(root, path string, maxSize int64) (*types.FileNode, *types.ParseError) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &types.ParseError{File: path, Error: err.Error()}
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, &types.ParseError{File: path, Error: "file exceeds max_file_size, skipped"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ParseError{File: path, Error: cgerrors.NewFileReadError("read", path, err).Error()}
	}
	if looksBinary(data) {
		return nil, &types.ParseError{File: path, Error: "binary or non-UTF-8 content, skipped"}
	}

	lang := extract.ClassifyLanguage(path)
	rec := extract.Extract(string(data), lang)

	return &types.FileNode{
		Path:         path,
		RelativePath: relSlash(root, path),
		Language:     lang,
		SizeBytes:    info.Size(),
		LastModified: info.ModTime().UTC(),
		ContentHash:  xxhash.Sum64(data),
		Signals:      rec.Signals,
		RawImports:   rec.Imports,
	}, nil
}

// looksBinary treats a NUL byte or invalid UTF-8 as binary. Checking the
// whole buffer is fine at the sizes max_file_size allows through.
func looksBinary(data []byte) bool {
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	return !utf8.Valid(data)
}

// matchesDir decides directory pruning. A pattern written for the files
// inside a directory ("**/node_modules/**") never matches the directory
// path itself, so the trailing "/**" is trimmed before matching.
func matchesDir(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if trimmed, ok := strings.CutSuffix(pattern, "/**"); ok {
			if matched, err := doublestar.Match(trimmed, rel); err == nil && matched {
				return true
			}
		}
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
