// Package gitcli implements the source contracts by running the git
// executable.
//
// Each call is one git process:
//
//	Blame        git blame --porcelain <rev> -- <path>
//	Diff         git diff -U0 <rev:path> <rev:path>
//	Change       git show -s, then git diff -M against the first parent
//	ResolveRevs  git rev-parse --verify <rev>^{commit}
//
// Failures, including git's own exit status, surface as
// *source.SourceUnavailableError carrying git's trimmed stderr.
package gitcli
