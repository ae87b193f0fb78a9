// Package blame turns attribution source output into ir.AttributionLine
// values and memoizes them per (revision, path).
//
// The wire format is `git blame --porcelain`: each group of lines starts
// with "<sha> <orig-line> <final-line> [<count>]", the first group of an
// origin carries its header block (author, committer, summary, boundary,
// previous, filename), and every line's content follows a tab.
//
// Cache is fill-once: concurrent callers asking for the same key share a
// single source invocation, and a populated entry never changes until
// Reset.
package blame
