// Package ir provides the shared value types for hyperblame.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the diff, attribution
// and change vocabulary in one foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Line numbers are 1-based everywhere, matching git and unified diffs
//   - Cache keys are value types (RevPath, HunkKey), never concatenated strings
//   - All JSON tags use snake_case
//   - Canonical JSON (canonical.go) is the only encoding used for hashing
package ir
