// Package config loads the optional hyperblame configuration file.
//
// The file is YAML. Before it is decoded it is checked against an embedded
// CUE schema, so type errors, unknown keys and out-of-range values are all
// reported together with the offending field:
//
//	workers: 8
//	strict: false
//	rename_key: new          # or "old"
//	ignore_revs_file: .git-blame-ignore-revs
//	default_prefixes: ["#", "//"]
//	languages:
//	  lisp:
//	    extensions: [".el", ".lisp"]
//	    comment_prefixes: [";"]
//
// Missing keys take the defaults from Default.
package config
