package diffparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/hyperblame/internal/ir"
)

// HunkMarker starts every hunk header line.
const HunkMarker = "@@"

// NoNewlineMarker is the line git emits after a line lacking a trailing
// newline. Any line starting with a backslash inside a hunk is treated as
// this marker, since the text after the backslash is localized.
const NoNewlineMarker = `\ No newline at end of file`

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ParseHunks returns the changed regions of a unified diff in diff order.
// Only hunk header lines are read; everything else is ignored.
// An omitted range length defaults to 1.
func ParseHunks(text string) ([]ir.Hunk, error) {
	var hunks []ir.Hunk
	for i, line := range splitLines(text) {
		if !strings.HasPrefix(line, HunkMarker) {
			continue
		}
		h, err := parseHeader(line, i+1)
		if err != nil {
			return nil, err
		}
		hunks = append(hunks, h)
	}
	return hunks, nil
}

// ParseAddedDeleted replays a unified diff and numbers every added and
// deleted line.
//
// Deleted lines carry their number in the old file, added lines their
// number in the new file. Context lines advance both counters. The
// no-newline marker advances nothing and is never recorded, so a last line
// that only gained or lost its newline shows up once as deleted and once as
// added at the same number.
//
// File header lines (---, +++) are recognized only outside hunk bodies;
// inside a body the declared ranges decide how many lines belong to the
// hunk, so a deleted "-- comment" line is not mistaken for a header.
func ParseAddedDeleted(text string) (ir.ParsedDiff, error) {
	parsed := ir.ParsedDiff{
		Added:   []ir.DiffLine{},
		Deleted: []ir.DiffLine{},
	}

	var oldNext, newNext int
	var oldLeft, newLeft int

	for i, line := range splitLines(text) {
		if strings.HasPrefix(line, HunkMarker) {
			h, err := parseHeader(line, i+1)
			if err != nil {
				return ir.ParsedDiff{}, err
			}
			oldNext, newNext = h.Old.Start, h.New.Start
			oldLeft, newLeft = h.Old.Length, h.New.Length
			continue
		}

		if strings.HasPrefix(line, `\`) {
			continue
		}

		if oldLeft <= 0 && newLeft <= 0 {
			// Between hunks: file headers, extended headers, trailing text.
			continue
		}

		switch {
		case strings.HasPrefix(line, "-"):
			parsed.Deleted = append(parsed.Deleted, ir.DiffLine{Line: oldNext, Text: line[1:]})
			oldNext++
			oldLeft--
		case strings.HasPrefix(line, "+"):
			parsed.Added = append(parsed.Added, ir.DiffLine{Line: newNext, Text: line[1:]})
			newNext++
			newLeft--
		default:
			// Context line, possibly with its leading space stripped.
			oldNext++
			newNext++
			oldLeft--
			newLeft--
		}
	}

	return parsed, nil
}

// parseHeader parses "@@ -a[,b] +c[,d] @@". lineNo is used for errors only.
func parseHeader(line string, lineNo int) (ir.Hunk, error) {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return ir.Hunk{}, &MalformedDiffError{Line: lineNo, Header: line}
	}

	nums := [4]int{0, 1, 0, 1}
	for idx, group := range m[1:] {
		if group == "" {
			continue
		}
		n, err := strconv.Atoi(group)
		if err != nil {
			return ir.Hunk{}, &MalformedDiffError{Line: lineNo, Header: line, Err: err}
		}
		nums[idx] = n
	}

	return ir.Hunk{
		Old: ir.HunkRange{Start: nums[0], Length: nums[1]},
		New: ir.HunkRange{Start: nums[2], Length: nums[3]},
	}, nil
}

// splitLines splits on \n and drops a trailing \r from each line.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
