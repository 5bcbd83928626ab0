// Package discovery walks a Source's root directory, applies include and
// exclude globs, and computes a content hash per discovered file.
package discovery

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"github.com/contextkit/contextkit/internal/models"
)

// DefaultMaxFileBytes is the byte cap above which a file is skipped
// instead of yielded.
const DefaultMaxFileBytes = 1 << 20 // 1 MiB

// binarySniffWindow is how many leading bytes are checked for a NUL byte
// to decide whether a file is binary.
const binarySniffWindow = 8 << 10 // 8 KiB

// DiscoveredFile is a single file surviving include/exclude filtering.
type DiscoveredFile struct {
	SourceID    string
	RelPath     string
	AbsPath     string
	Content     []byte
	ContentHash string
}

// SkippedFile records a file that was seen but not yielded, with a reason.
type SkippedFile struct {
	RelPath string
	Reason  string
}

// Options configures a discovery run.
type Options struct {
	Include     []string
	Exclude     []string
	MaxFileSize int64
}

// Discover walks source.RootPath and returns discovered files in
// deterministic lexicographic order, plus any skipped files and a warning
// for each unreadable individual file (never fatal). A missing source
// root is a fatal error.
func Discover(source models.Source, opts Options) ([]DiscoveredFile, []SkippedFile, error) {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileBytes
	}

	info, err := os.Stat(source.RootPath)
	if err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("discovery: source root %q is missing or not a directory: %w", source.RootPath, err)
	}

	includes, err := compileGlobs(opts.Include)
	if err != nil {
		return nil, nil, fmt.Errorf("discovery: bad include pattern: %w", err)
	}
	excludes, err := compileGlobs(opts.Exclude)
	if err != nil {
		return nil, nil, fmt.Errorf("discovery: bad exclude pattern: %w", err)
	}

	var rels []string
	seen := map[string]os.FileInfo{}
	walkErr := filepath.Walk(source.RootPath, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable entry: skip, not fatal
		}
		if fi.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(source.RootPath, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		included := len(includes) == 0 || matchesAny(rel, includes)
		if !included || matchesAny(rel, excludes) {
			return nil
		}
		rels = append(rels, rel)
		seen[rel] = fi
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("discovery: walk failed: %w", walkErr)
	}

	sort.Strings(rels)

	var files []DiscoveredFile
	var skipped []SkippedFile
	for _, rel := range rels {
		abs := filepath.Join(source.RootPath, filepath.FromSlash(rel))
		fi := seen[rel]

		if fi.Size() > opts.MaxFileSize {
			skipped = append(skipped, SkippedFile{RelPath: rel, Reason: "exceeds max file size"})
			continue
		}

		content, readErr := os.ReadFile(abs) // #nosec G304 - path derived from validated walk
		if readErr != nil {
			skipped = append(skipped, SkippedFile{RelPath: rel, Reason: fmt.Sprintf("unreadable: %v", readErr)})
			continue
		}

		if looksBinary(content) {
			skipped = append(skipped, SkippedFile{RelPath: rel, Reason: "binary content"})
			continue
		}

		files = append(files, DiscoveredFile{
			SourceID:    source.ID,
			RelPath:     rel,
			AbsPath:     abs,
			Content:     content,
			ContentHash: hashContent(content),
		})
	}

	return files, skipped, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

func matchesAny(path string, patterns []glob.Glob) bool {
	if len(patterns) == 0 {
		return false
	}
	for _, p := range patterns {
		// "/"+path lets a leading "**/" also match files at the root
		if p.Match(path) || p.Match("/"+path) {
			return true
		}
	}
	return false
}

func looksBinary(content []byte) bool {
	window := content
	if len(window) > binarySniffWindow {
		window = window[:binarySniffWindow]
	}
	return bytes.IndexByte(window, 0) >= 0
}

func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
