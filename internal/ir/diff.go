package ir

import "fmt"

// HunkRange is one side of a unified diff hunk header.
//
// Start is 1-based. A Length of 0 marks a pure insertion or deletion
// boundary; Start then points at the line before the hunk.
type HunkRange struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// End returns the first line after the range.
func (r HunkRange) End() int {
	return r.Start + r.Length
}

// Contains reports whether line lies inside the range.
// An empty range contains nothing.
func (r HunkRange) Contains(line int) bool {
	return r.Length > 0 && line >= r.Start && line < r.End()
}

// String renders the range the way a hunk header spells it.
func (r HunkRange) String() string {
	return fmt.Sprintf("%d,%d", r.Start, r.Length)
}

// Hunk pairs the old and new ranges of one changed region.
type Hunk struct {
	Old HunkRange `json:"old"`
	New HunkRange `json:"new"`
}

// Delta is the net change in line count introduced by the hunk.
func (h Hunk) Delta() int {
	return h.New.Length - h.Old.Length
}

// String renders the hunk as a unified diff header.
func (h Hunk) String() string {
	return fmt.Sprintf("@@ -%s +%s @@", h.Old, h.New)
}

// DiffLine is one added or deleted line of a diff.
// Line is the line number on the side the line belongs to.
type DiffLine struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// ParsedDiff holds the added and deleted lines of a diff in diff order.
type ParsedDiff struct {
	Added   []DiffLine `json:"added"`
	Deleted []DiffLine `json:"deleted"`
}
