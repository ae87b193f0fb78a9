// Package diffparse reads unified diffs.
//
// It extracts two views of a diff: the list of changed regions
// (ParseHunks), used to move line numbers between revisions, and the
// numbered added/deleted lines (ParseAddedDeleted), used to find the lines
// a change removed.
//
// Both functions are pure. A malformed hunk header fails the whole call
// with a *MalformedDiffError; callers never see a partially parsed diff,
// since a silently mis-numbered line corrupts every attribution built on it.
package diffparse
