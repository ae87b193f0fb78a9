package engine

import (
	"path/filepath"
	"strings"
)

// DefaultCommentPrefixes is used for files whose extension belongs to no
// configured language family.
var DefaultCommentPrefixes = []string{"//", "#", "/*", "'''", `"""`, "*"}

// LineFilter decides which deleted lines carry no attribution value:
// blank lines and lines starting with a comment or marker prefix of the
// file's language family. Any other prefix is significant.
type LineFilter struct {
	byExt    map[string][]string
	fallback []string
}

// NewLineFilter creates a filter using fallback for unknown extensions.
func NewLineFilter(fallback []string) *LineFilter {
	return &LineFilter{
		byExt:    make(map[string][]string),
		fallback: append([]string(nil), fallback...),
	}
}

// DefaultLineFilter returns the built-in language families.
func DefaultLineFilter() *LineFilter {
	f := NewLineFilter(DefaultCommentPrefixes)
	f.AddFamily([]string{"//", "/*", "*"},
		".c", ".h", ".cc", ".cpp", ".hpp", ".cs", ".go", ".java", ".js", ".jsx",
		".ts", ".tsx", ".kt", ".scala", ".swift", ".rs", ".php")
	f.AddFamily([]string{"#", `"""`, "'''"}, ".py", ".pyi")
	f.AddFamily([]string{"#"}, ".sh", ".bash", ".rb", ".pl", ".r", ".yaml", ".yml", ".toml")
	f.AddFamily([]string{"--"}, ".sql", ".lua", ".hs")
	return f
}

// AddFamily registers comment prefixes for the given extensions,
// replacing any earlier registration. Extensions match case-insensitively
// and may be given with or without the leading dot.
func (f *LineFilter) AddFamily(prefixes []string, exts ...string) {
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.byExt[ext] = append([]string(nil), prefixes...)
	}
}

// SetFallback replaces the prefixes used for unknown extensions.
func (f *LineFilter) SetFallback(prefixes []string) {
	f.fallback = append([]string(nil), prefixes...)
}

// Prefixes returns the prefixes applied to path.
func (f *LineFilter) Prefixes(path string) []string {
	if p, ok := f.byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return p
	}
	return f.fallback
}

// Useless reports whether text, a line of the file at path, should be
// skipped when looking for the change that introduced it.
func (f *LineFilter) Useless(path, text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return true
	}
	for _, p := range f.Prefixes(path) {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}
