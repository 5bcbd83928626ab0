// Package langscan recognizes top-level declarations in source text by
// line-scanning regex patterns, not full parsing. It is shared by the
// chunker's syntax-aware mode (C3) and the symbol extractor (C5): both
// need the same answer to "where does this declaration start and end".
package langscan

import (
	"regexp"
	"strings"
)

// EndMode selects how a declaration's closing line is located.
type EndMode int

const (
	EndBrace EndMode = iota // C-family/Go/Rust: count matching { }
	EndIndent                // Python: first dedented non-blank line
	EndSemicolon              // TS type aliases: first top-level ';'
)

// Kind mirrors models.SymbolKind / models.ChunkKind without importing
// either package, keeping langscan dependency-free and reusable by both.
type Kind string

const (
	KindFunction  Kind = "function"
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindType      Kind = "type"
	KindMethod    Kind = "method"
	KindConstant  Kind = "constant"
)

// Decl is one recognized top-level declaration.
type Decl struct {
	Name      string
	Kind      Kind
	Signature string
	StartLine int // 1-indexed, relative to the scanned slice
	EndLine   int // 1-indexed, inclusive
	Exported  bool
}

type pattern struct {
	re      *regexp.Regexp
	kind    Kind
	nameIdx int
	end     EndMode
	exported func(line string) bool
}

var patternsByExt = map[string][]pattern{
	".go": {
		{re: regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*\(`), kind: KindFunction, nameIdx: 1, end: EndBrace, exported: goExported},
		{re: regexp.MustCompile(`^type\s+([A-Za-z_][A-Za-z0-9_]*)\s+(?:struct|interface)\b`), kind: KindClass, nameIdx: 1, end: EndBrace, exported: goExported},
		{re: regexp.MustCompile(`^type\s+([A-Za-z_][A-Za-z0-9_]*)\s+\S`), kind: KindType, nameIdx: 1, end: EndSemicolon, exported: goExported},
		{re: regexp.MustCompile(`^(?:const|var)\s+([A-Za-z_][A-Za-z0-9_]*)\s*=\s*func\s*\(`), kind: KindFunction, nameIdx: 1, end: EndBrace, exported: goExported},
	},
	".ts": tsPatterns(), ".tsx": tsPatterns(), ".js": tsPatterns(), ".jsx": tsPatterns(), ".mjs": tsPatterns(),
	".py": {
		{re: regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`), kind: KindFunction, nameIdx: 1, end: EndIndent, exported: pyExported},
		{re: regexp.MustCompile(`^class\s+([A-Za-z_]\w*)\s*[:\(]`), kind: KindClass, nameIdx: 1, end: EndIndent, exported: pyExported},
	},
	".rs": {
		{re: regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+([A-Za-z_]\w*)`), kind: KindFunction, nameIdx: 1, end: EndBrace, exported: rustExported},
		{re: regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?struct\s+([A-Za-z_]\w*)`), kind: KindClass, nameIdx: 1, end: EndBrace, exported: rustExported},
		{re: regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?trait\s+([A-Za-z_]\w*)`), kind: KindInterface, nameIdx: 1, end: EndBrace, exported: rustExported},
		{re: regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?enum\s+([A-Za-z_]\w*)`), kind: KindType, nameIdx: 1, end: EndBrace, exported: rustExported},
		{re: regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?type\s+([A-Za-z_]\w*)\s*=`), kind: KindType, nameIdx: 1, end: EndSemicolon, exported: rustExported},
	},
}

func tsPatterns() []pattern {
	return []pattern{
		{re: regexp.MustCompile(`^export\s+default\s+class\s+([A-Za-z_$][\w$]*)`), kind: KindClass, nameIdx: 1, end: EndBrace, exported: alwaysExported},
		{re: regexp.MustCompile(`^(?:export\s+)?class\s+([A-Za-z_$][\w$]*)`), kind: KindClass, nameIdx: 1, end: EndBrace, exported: tsExported},
		{re: regexp.MustCompile(`^(?:export\s+)?interface\s+([A-Za-z_$][\w$]*)`), kind: KindInterface, nameIdx: 1, end: EndBrace, exported: tsExported},
		{re: regexp.MustCompile(`^(?:export\s+)?(?:async\s+)?function\s*\*?\s+([A-Za-z_$][\w$]*)\s*\(`), kind: KindFunction, nameIdx: 1, end: EndBrace, exported: tsExported},
		{re: regexp.MustCompile(`^(?:export\s+)?const\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?\([^)]*\)\s*(?::[^=]+)?=>`), kind: KindFunction, nameIdx: 1, end: EndBrace, exported: tsExported},
		{re: regexp.MustCompile(`^(?:export\s+)?const\s+([A-Za-z_$][\w$]*)\s*=\s*function\b`), kind: KindFunction, nameIdx: 1, end: EndBrace, exported: tsExported},
		{re: regexp.MustCompile(`^(?:export\s+)?type\s+([A-Za-z_$][\w$]*)\s*=`), kind: KindType, nameIdx: 1, end: EndSemicolon, exported: tsExported},
	}
}

func goExported(line string) bool   { return false } // caller derives from name capitalization
func pyExported(line string) bool   { return false }
func rustExported(line string) bool { return strings.HasPrefix(strings.TrimSpace(line), "pub ") || strings.HasPrefix(strings.TrimSpace(line), "pub(") }
func tsExported(line string) bool   { return strings.Contains(line, "export ") }
func alwaysExported(line string) bool { return true }

// Supported reports whether ext has a registered pattern table.
func Supported(ext string) bool {
	_, ok := patternsByExt[ext]
	return ok
}

// Scan finds all top-level declarations in lines (no leading indentation
// treated as "top-level" for Go/TS/Rust; for Python, column 0). It never
// returns an error: an unsupported extension yields a nil, false result
// so the caller can fall back to token-block chunking.
func Scan(ext string, lines []string) ([]Decl, bool) {
	patterns, ok := patternsByExt[ext]
	if !ok {
		return nil, false
	}

	var decls []Decl
	claimed := make([]bool, len(lines)+1) // 1-indexed guard

	for i := 0; i < len(lines); i++ {
		if claimed[i+1] {
			continue
		}
		trimmed := lines[i]
		indent := leadingWhitespace(trimmed)
		if ext == ".py" {
			if indent != "" {
				continue // only top-level (column 0) declarations
			}
		} else if indent != "" {
			continue
		}

		for _, p := range patterns {
			m := p.re.FindStringSubmatch(strings.TrimLeft(trimmed, " \t"))
			if m == nil {
				continue
			}
			name := m[p.nameIdx]
			endIdx := findEnd(lines, i, p.end)
			d := Decl{
				Name:      name,
				Kind:      p.kind,
				Signature: strings.TrimSpace(stripTrailingBraceOrColon(trimmed)),
				StartLine: i + 1,
				EndLine:   endIdx + 1,
				Exported:  exportedFor(ext, name, trimmed, p),
			}
			decls = append(decls, d)
			for j := i; j <= endIdx && j < len(claimed)-1; j++ {
				claimed[j+1] = true
			}
			break
		}
	}
	return decls, true
}

func exportedFor(ext, name, line string, p pattern) bool {
	switch ext {
	case ".go":
		return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
	default:
		return p.exported(line)
	}
}

func leadingWhitespace(s string) string {
	trimmed := strings.TrimLeft(s, " \t")
	return s[:len(s)-len(trimmed)]
}

func stripTrailingBraceOrColon(line string) string {
	line = strings.TrimRight(line, " \t")
	line = strings.TrimSuffix(line, "{")
	line = strings.TrimSuffix(line, ":")
	return strings.TrimRight(line, " \t")
}

func findEnd(lines []string, start int, mode EndMode) int {
	switch mode {
	case EndBrace:
		return findBraceEnd(lines, start)
	case EndIndent:
		return findIndentEnd(lines, start)
	case EndSemicolon:
		return findSemicolonEnd(lines, start)
	default:
		return start
	}
}

func findBraceEnd(lines []string, start int) int {
	depth := 0
	seenOpen := false
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				seenOpen = true
			case '}':
				depth--
			}
		}
		if seenOpen && depth <= 0 {
			return i
		}
	}
	if !seenOpen {
		return start // no body braces found (e.g. trait method decl without body); treat as single line
	}
	return len(lines) - 1
}

func findIndentEnd(lines []string, start int) int {
	baseIndent := len(leadingWhitespace(lines[start]))
	last := start
	for i := start + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(leadingWhitespace(line)) <= baseIndent {
			return last
		}
		last = i
	}
	return last
}

func findSemicolonEnd(lines []string, start int) int {
	depth := 0
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{', '(', '[':
				depth++
			case '}', ')', ']':
				depth--
			case ';':
				if depth <= 0 {
					return i
				}
			}
		}
		if depth <= 0 && strings.HasSuffix(strings.TrimSpace(lines[i]), "}") && i > start {
			return i
		}
	}
	return start
}
