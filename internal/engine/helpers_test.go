package engine

import (
	"io"
	"log/slog"

	"github.com/roach88/hyperblame/internal/testutil"
)

// newTestEngine creates an engine over repo with logging suppressed.
func newTestEngine(repo *testutil.FakeRepo, opts ...Option) *Engine {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(repo, repo, opts...)
}
