package testutil

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/hyperblame/internal/blame"
	"github.com/roach88/hyperblame/internal/ir"
	"github.com/roach88/hyperblame/internal/source"
)

// ErrNoFixture is wrapped by FakeRepo when a requested fixture is missing.
var ErrNoFixture = errors.New("no fixture")

// SHA returns a deterministic 40-hex change id for a readable name, so
// tests can write ID("A") where porcelain output needs a full object name.
func SHA(name string) string {
	sum := sha1.Sum([]byte(name))
	return hex.EncodeToString(sum[:])
}

// FakeRepo implements every source contract from in-memory fixtures.
//
// Blame fixtures are stored as porcelain text, so the parser runs exactly
// as it does against git. A diff with no fixture is reported as empty,
// meaning the two files are identical.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FakeRepo struct {
	mu sync.Mutex

	blames  map[ir.RevPath]string
	diffs   map[ir.HunkKey]string
	changes map[string]*ir.Change
	revs    map[string]string
	failing map[ir.RevPath]error

	blameCalls map[ir.RevPath]int
	diffCalls  map[ir.HunkKey]int

	// BlameGate, when set, is received from before every Blame returns.
	// Tests use it to hold concurrent callers inside the source.
	BlameGate chan struct{}
}

var (
	_ source.AttributionSource = (*FakeRepo)(nil)
	_ source.DiffSource        = (*FakeRepo)(nil)
	_ source.ChangeSource      = (*FakeRepo)(nil)
	_ source.RevResolver       = (*FakeRepo)(nil)
)

// NewFakeRepo creates an empty fake repository.
func NewFakeRepo() *FakeRepo {
	return &FakeRepo{
		blames:     make(map[ir.RevPath]string),
		diffs:      make(map[ir.HunkKey]string),
		changes:    make(map[string]*ir.Change),
		revs:       make(map[string]string),
		failing:    make(map[ir.RevPath]error),
		blameCalls: make(map[ir.RevPath]int),
		diffCalls:  make(map[ir.HunkKey]int),
	}
}

// AddBlame stores the attribution of path at rev.
//
// FinalLine is numbered 1..n in order, and an empty Path defaults to path.
func (f *FakeRepo) AddBlame(rev, path string, lines ...ir.AttributionLine) {
	numbered := make([]ir.AttributionLine, len(lines))
	for i, l := range lines {
		l.FinalLine = i + 1
		if l.Path == "" {
			l.Path = path
		}
		numbered[i] = l
	}

	var buf bytes.Buffer
	if err := blame.Write(&buf, numbered); err != nil {
		panic(fmt.Sprintf("render porcelain: %v", err))
	}
	f.AddBlameText(rev, path, buf.String())
}

// AddBlameText stores raw porcelain output for path at rev.
func (f *FakeRepo) AddBlameText(rev, path, porcelain string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blames[ir.RevPath{Rev: rev, Path: path}] = porcelain
}

// FailBlame makes Blame of path at rev fail with err.
func (f *FakeRepo) FailBlame(rev, path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[ir.RevPath{Rev: rev, Path: path}] = err
}

// AddDiff stores the unified diff between two files.
func (f *FakeRepo) AddDiff(from, to ir.RevPath, diff string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diffs[ir.HunkKey{Old: from, New: to}] = diff
}

// AddChange stores a change for Change lookups.
func (f *FakeRepo) AddChange(c *ir.Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes[c.ID] = c
}

// AddRev makes ResolveRevs map name to id.
func (f *FakeRepo) AddRev(name, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revs[name] = id
}

// Blame implements source.AttributionSource.
func (f *FakeRepo) Blame(ctx context.Context, at ir.RevPath) (string, error) {
	f.mu.Lock()
	f.blameCalls[at]++
	text, ok := f.blames[at]
	failErr := f.failing[at]
	gate := f.BlameGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if failErr != nil {
		return "", &source.SourceUnavailableError{Op: "blame", Target: at.String(), Err: failErr}
	}
	if !ok {
		return "", &source.SourceUnavailableError{Op: "blame", Target: at.String(), Err: ErrNoFixture}
	}
	return text, nil
}

// Diff implements source.DiffSource.
func (f *FakeRepo) Diff(ctx context.Context, from, to ir.RevPath) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ir.HunkKey{Old: from, New: to}
	f.diffCalls[key]++
	return f.diffs[key], nil
}

// Change implements source.ChangeSource.
func (f *FakeRepo) Change(ctx context.Context, rev string) (*ir.Change, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.revs[rev]; ok {
		rev = id
	}
	c, ok := f.changes[rev]
	if !ok {
		return nil, &source.SourceUnavailableError{Op: "change", Target: rev, Err: ErrNoFixture}
	}
	return c, nil
}

// ResolveRevs implements source.RevResolver. Unknown names resolve to
// themselves.
func (f *FakeRepo) ResolveRevs(ctx context.Context, revs []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(revs))
	for i, r := range revs {
		if id, ok := f.revs[r]; ok {
			out[i] = id
		} else {
			out[i] = r
		}
	}
	return out, nil
}

// BlameCalls returns how many times Blame was asked for path at rev.
func (f *FakeRepo) BlameCalls(rev, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blameCalls[ir.RevPath{Rev: rev, Path: path}]
}

// DiffCalls returns how many times Diff was asked for the pair.
func (f *FakeRepo) DiffCalls(from, to ir.RevPath) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.diffCalls[ir.HunkKey{Old: from, New: to}]
}
