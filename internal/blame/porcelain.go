package blame

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/hyperblame/internal/ir"
)

// KeyUnblamable is a header key marking every line of an origin as
// impossible to attribute. git does not emit it; sources that post-process
// blame output (ignore-revs aware tools, fixtures) may.
const KeyUnblamable = "unblamable"

// originInfo is the header block shared by all lines of one origin.
type originInfo struct {
	meta       ir.Meta
	previous   *ir.Origin
	filename   string
	unblamable bool
}

// Parse reads porcelain blame output.
//
// Lines are returned ordered by final line number, which must run 1..n
// without gaps.
func Parse(r io.Reader) ([]ir.AttributionLine, error) {
	br := bufio.NewReader(r)
	origins := make(map[string]*originInfo)

	var lines []ir.AttributionLine
	var cur *ir.AttributionLine
	var info *originInfo
	lineNo := 0

	for {
		raw, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("read porcelain: %w", readErr)
		}
		if raw == "" && readErr != nil {
			break
		}
		lineNo++
		text := strings.TrimSuffix(raw, "\n")

		switch {
		case strings.HasPrefix(text, "\t"):
			if cur == nil {
				return nil, fmt.Errorf("porcelain line %d: content before header", lineNo)
			}
			cur.Content = text[1:]
			cur.Path = info.filename
			cur.Meta = info.meta
			cur.Unblamable = info.unblamable || isNullID(cur.Change)
			if info.previous != nil {
				prev := *info.previous
				cur.Previous = &prev
			}
			lines = append(lines, *cur)
			cur = nil

		case cur == nil:
			hdr, err := parseGroupHeader(text)
			if err != nil {
				return nil, fmt.Errorf("porcelain line %d: %w", lineNo, err)
			}
			cur = &hdr
			info = origins[hdr.Change]
			if info == nil {
				info = &originInfo{}
				origins[hdr.Change] = info
			}

		default:
			if err := applyHeaderKey(info, text); err != nil {
				return nil, fmt.Errorf("porcelain line %d: %w", lineNo, err)
			}
		}

		if readErr != nil {
			break
		}
	}

	if cur != nil {
		return nil, fmt.Errorf("porcelain: truncated group for %s line %d", cur.Change, cur.FinalLine)
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].FinalLine < lines[j].FinalLine })
	for i, l := range lines {
		if l.FinalLine != i+1 {
			return nil, fmt.Errorf("porcelain: expected final line %d, got %d", i+1, l.FinalLine)
		}
	}

	if lines == nil {
		lines = []ir.AttributionLine{}
	}
	return lines, nil
}

// parseGroupHeader parses "<sha> <orig-line> <final-line> [<count>]".
func parseGroupHeader(text string) (ir.AttributionLine, error) {
	fields := strings.Fields(text)
	if len(fields) < 3 || len(fields) > 4 || !isObjectID(fields[0]) {
		return ir.AttributionLine{}, fmt.Errorf("malformed group header %q", text)
	}
	orig, err := strconv.Atoi(fields[1])
	if err != nil || orig < 1 {
		return ir.AttributionLine{}, fmt.Errorf("bad origin line in %q", text)
	}
	final, err := strconv.Atoi(fields[2])
	if err != nil || final < 1 {
		return ir.AttributionLine{}, fmt.Errorf("bad final line in %q", text)
	}
	return ir.AttributionLine{Change: fields[0], OriginLine: orig, FinalLine: final}, nil
}

func applyHeaderKey(info *originInfo, text string) error {
	key, value, _ := strings.Cut(text, " ")
	switch key {
	case "author":
		info.meta.Author = value
	case "author-mail":
		info.meta.AuthorMail = value
	case "author-time":
		info.meta.AuthorTime = parseInt64(value)
	case "author-tz":
		info.meta.AuthorTZ = value
	case "committer":
		info.meta.Committer = value
	case "committer-mail":
		info.meta.CommitterMail = value
	case "committer-time":
		info.meta.CommitterTime = parseInt64(value)
	case "committer-tz":
		info.meta.CommitterTZ = value
	case "summary":
		info.meta.Summary = value
	case "boundary":
		info.previous = nil
	case KeyUnblamable:
		info.unblamable = true
	case "previous":
		sha, path, ok := strings.Cut(value, " ")
		if !ok || !isObjectID(sha) {
			return fmt.Errorf("malformed previous %q", value)
		}
		info.previous = &ir.Origin{Change: sha, Path: unquotePath(path)}
	case "filename":
		info.filename = unquotePath(value)
	}
	return nil
}

// Write renders lines as porcelain blame output. Header blocks are emitted
// the first time each (origin, path) pair appears, as git does.
func Write(w io.Writer, lines []ir.AttributionLine) error {
	bw := bufio.NewWriter(w)
	seen := make(map[ir.Origin]bool)

	for _, l := range lines {
		fmt.Fprintf(bw, "%s %d %d 1\n", l.Change, l.OriginLine, l.FinalLine)
		if !seen[l.Origin()] {
			seen[l.Origin()] = true
			m := l.Meta
			fmt.Fprintf(bw, "author %s\n", m.Author)
			fmt.Fprintf(bw, "author-mail %s\n", m.AuthorMail)
			fmt.Fprintf(bw, "author-time %d\n", m.AuthorTime)
			fmt.Fprintf(bw, "author-tz %s\n", m.AuthorTZ)
			fmt.Fprintf(bw, "committer %s\n", m.Committer)
			fmt.Fprintf(bw, "committer-mail %s\n", m.CommitterMail)
			fmt.Fprintf(bw, "committer-time %d\n", m.CommitterTime)
			fmt.Fprintf(bw, "committer-tz %s\n", m.CommitterTZ)
			fmt.Fprintf(bw, "summary %s\n", m.Summary)
			if l.Unblamable {
				fmt.Fprintf(bw, "%s\n", KeyUnblamable)
			}
			if l.Previous != nil {
				fmt.Fprintf(bw, "previous %s %s\n", l.Previous.Change, quotePath(l.Previous.Path))
			} else {
				fmt.Fprintln(bw, "boundary")
			}
		}
		fmt.Fprintf(bw, "filename %s\n", quotePath(l.Path))
		fmt.Fprintf(bw, "\t%s\n", l.Content)
	}

	return bw.Flush()
}

// isObjectID accepts full SHA-1 or SHA-256 hex object names.
func isObjectID(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// isNullID reports the all-zero id git uses for uncommitted lines.
func isNullID(s string) bool {
	return strings.Trim(s, "0") == ""
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// unquotePath undoes git's C-style quoting of unusual path names.
func unquotePath(p string) string {
	if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
		if u, err := strconv.Unquote(p); err == nil {
			return u
		}
	}
	return p
}

func quotePath(p string) string {
	if strings.ContainsAny(p, "\"\\\t\n") || strings.HasPrefix(p, " ") {
		return strconv.Quote(p)
	}
	return p
}
