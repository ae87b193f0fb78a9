package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/hyperblame/internal/ir"
)

// createTestStore creates a new store in a temp dir with fixed run ids.
func createTestStore(t *testing.T, ids ...string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(NewFixedGenerator(ids...)))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestLine creates a reattributed line with minimal fields.
func createTestLine(final int, change, content string, modified bool) ir.ReattributedLine {
	return ir.ReattributedLine{
		AttributionLine: ir.AttributionLine{
			Change:     change,
			OriginLine: final,
			FinalLine:  final,
			Content:    content,
			Path:       "main.go",
		},
		Modified: modified,
	}
}
