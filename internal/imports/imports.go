// Package imports extracts import/require statements from file content,
// classifies each as relative, absolute, or an external package, resolves
// relative and absolute specifiers against a source's indexed file set,
// and assembles the resulting file-to-file dependency graph.
package imports

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/contextkit/contextkit/internal/models"
)

// Kind classifies an import specifier.
type Kind string

const (
	KindRelative Kind = "relative" // starts with "." or ".."
	KindAbsolute Kind = "absolute" // starts with "/", resolved against the source root
	KindPackage  Kind = "package"  // external module/crate/package name
)

// Raw is one extracted, not-yet-resolved import statement.
type Raw struct {
	Specifier string
	Kind      Kind
}

var (
	jsImportRe   = regexp.MustCompile(`import\s+(?:[\w*{}\s,]+from\s+)?['"]([^'"]+)['"]`)
	jsRequireRe  = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	jsDynamicRe  = regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]\s*\)`)
	pyFromRe     = regexp.MustCompile(`^\s*from\s+([.\w]+)\s+import\b`)
	pyImportRe   = regexp.MustCompile(`^\s*import\s+([.\w]+)`)
	goImportOneRe = regexp.MustCompile(`^\s*import\s+(?:\w+\s+)?"([^"]+)"`)
	goImportLineRe = regexp.MustCompile(`^\s*(?:\w+\s+)?"([^"]+)"`)
	rustUseRe    = regexp.MustCompile(`^\s*(?:pub\s+)?use\s+([\w:]+)`)
)

// Extract returns every import specifier found in content for files whose
// extension indicates a supported language. Unsupported extensions yield
// no specifiers, not an error.
func Extract(ext, content string) []Raw {
	switch ext {
	case ".ts", ".tsx", ".js", ".jsx", ".mjs":
		return extractJS(content)
	case ".py":
		return extractPython(content)
	case ".go":
		return extractGo(content)
	case ".rs":
		return extractRust(content)
	default:
		return nil
	}
}

func extractJS(content string) []Raw {
	var out []Raw
	for _, re := range []*regexp.Regexp{jsImportRe, jsRequireRe, jsDynamicRe} {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			out = append(out, classify(m[1], "."))
		}
	}
	return out
}

func extractPython(content string) []Raw {
	var out []Raw
	for _, line := range strings.Split(content, "\n") {
		if m := pyFromRe.FindStringSubmatch(line); m != nil {
			out = append(out, classifyPython(m[1]))
			continue
		}
		if m := pyImportRe.FindStringSubmatch(line); m != nil {
			out = append(out, classifyPython(m[1]))
		}
	}
	return out
}

func extractGo(content string) []Raw {
	var out []Raw
	inBlock := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "import (") {
			inBlock = true
			continue
		}
		if inBlock {
			if trimmed == ")" {
				inBlock = false
				continue
			}
			if m := goImportLineRe.FindStringSubmatch(line); m != nil {
				out = append(out, Raw{Specifier: m[1], Kind: KindPackage})
			}
			continue
		}
		if m := goImportOneRe.FindStringSubmatch(line); m != nil {
			out = append(out, Raw{Specifier: m[1], Kind: KindPackage})
		}
	}
	return out
}

func extractRust(content string) []Raw {
	var out []Raw
	for _, line := range strings.Split(content, "\n") {
		if m := rustUseRe.FindStringSubmatch(line); m != nil {
			spec := m[1]
			kind := KindPackage
			if strings.HasPrefix(spec, "self::") || strings.HasPrefix(spec, "super::") || strings.HasPrefix(spec, "crate::") {
				kind = KindRelative
			}
			out = append(out, Raw{Specifier: spec, Kind: kind})
		}
	}
	return out
}

func classify(specifier, relPrefix string) Raw {
	switch {
	case strings.HasPrefix(specifier, relPrefix+"/") || strings.HasPrefix(specifier, "../") || specifier == "." || specifier == "..":
		return Raw{Specifier: specifier, Kind: KindRelative}
	case strings.HasPrefix(specifier, "/"):
		return Raw{Specifier: specifier, Kind: KindAbsolute}
	default:
		return Raw{Specifier: specifier, Kind: KindPackage}
	}
}

func classifyPython(specifier string) Raw {
	if strings.HasPrefix(specifier, ".") {
		return Raw{Specifier: specifier, Kind: KindRelative}
	}
	return Raw{Specifier: specifier, Kind: KindPackage}
}

// candidateExts is tried, in order, when a resolved path has no extension
// of its own (e.g. a JS specifier naming a module, not a file).
var candidateExts = []string{"", ".ts", ".tsx", ".js", ".jsx", ".py", ".go", ".rs"}

// Resolve turns raw specifiers from fromFile into edges landing on files
// present in knownFiles (source-root-relative paths). Package imports and
// specifiers that resolve to nothing in knownFiles are dropped silently:
// the graph only ever contains edges between files that are both indexed.
func Resolve(fromFile string, raws []Raw, knownFiles map[string]bool) []models.ImportEdge {
	var edges []models.ImportEdge
	dir := path.Dir(fromFile)

	for _, r := range raws {
		var candidateBase string
		switch r.Kind {
		case KindRelative:
			candidateBase = path.Clean(path.Join(dir, r.Specifier))
		case KindAbsolute:
			candidateBase = path.Clean(strings.TrimPrefix(r.Specifier, "/"))
		default:
			candidateBase = path.Clean(strings.ReplaceAll(r.Specifier, "::", "/"))
		}

		if to, ok := resolveAgainstKnown(candidateBase, knownFiles); ok && to != fromFile {
			edges = append(edges, models.ImportEdge{From: fromFile, To: to})
		}
	}
	return edges
}

func resolveAgainstKnown(base string, knownFiles map[string]bool) (string, bool) {
	for _, ext := range candidateExts {
		candidate := base + ext
		if knownFiles[candidate] {
			return candidate, true
		}
		indexCandidate := path.Join(base, "index"+ext)
		if ext != "" && knownFiles[indexCandidate] {
			return indexCandidate, true
		}
	}
	return "", false
}

// Graph is a file-to-file adjacency list, forward (imports) direction.
type Graph map[string][]string

// BuildGraph assembles a deduplicated, sorted adjacency list from edges.
func BuildGraph(edges []models.ImportEdge) Graph {
	g := make(Graph)
	seen := map[string]map[string]bool{}
	for _, e := range edges {
		if seen[e.From] == nil {
			seen[e.From] = map[string]bool{}
		}
		if seen[e.From][e.To] {
			continue
		}
		seen[e.From][e.To] = true
		g[e.From] = append(g[e.From], e.To)
	}
	for k := range g {
		sort.Strings(g[k])
	}
	return g
}

// Reverse returns the "imported by" graph: for each file, the set of
// files that import it.
func Reverse(g Graph) Graph {
	rev := make(Graph)
	seen := map[string]map[string]bool{}
	for from, tos := range g {
		for _, to := range tos {
			if seen[to] == nil {
				seen[to] = map[string]bool{}
			}
			if seen[to][from] {
				continue
			}
			seen[to][from] = true
			rev[to] = append(rev[to], from)
		}
	}
	for k := range rev {
		sort.Strings(rev[k])
	}
	return rev
}
