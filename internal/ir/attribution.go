package ir

import (
	"sort"
)

// RevPath names a file at a revision.
// It is the typed cache key for attributions and one side of a HunkKey.
type RevPath struct {
	Rev  string `json:"rev"`
	Path string `json:"path"`
}

// String renders the git blob syntax rev:path.
func (r RevPath) String() string {
	return r.Rev + ":" + r.Path
}

// FlightKey joins revision and path with NUL, which git allows in neither.
// The bytes are kept as is, so distinct paths never share a key.
func (r RevPath) FlightKey() string {
	return r.Rev + "\x00" + r.Path
}

// HunkKey identifies the diff between two files at two revisions.
type HunkKey struct {
	Old RevPath `json:"old"`
	New RevPath `json:"new"`
}

// FlightKey joins both sides the way RevPath.FlightKey does.
func (k HunkKey) FlightKey() string {
	return k.Old.FlightKey() + "\x00" + k.New.FlightKey()
}

// Origin points at a file as it existed at a change.
// Used for the "previous" pointer of an attribution line.
type Origin struct {
	Change string `json:"change"`
	Path   string `json:"path"`
}

// RevPath converts the origin into a cache key.
func (o Origin) RevPath() RevPath {
	return RevPath{Rev: o.Change, Path: o.Path}
}

// Meta is the per-origin header block reported by the attribution source.
type Meta struct {
	Author        string `json:"author,omitempty"`
	AuthorMail    string `json:"author_mail,omitempty"`
	AuthorTime    int64  `json:"author_time,omitempty"`
	AuthorTZ      string `json:"author_tz,omitempty"`
	Committer     string `json:"committer,omitempty"`
	CommitterMail string `json:"committer_mail,omitempty"`
	CommitterTime int64  `json:"committer_time,omitempty"`
	CommitterTZ   string `json:"committer_tz,omitempty"`
	Summary       string `json:"summary,omitempty"`
}

// AttributionLine attributes one line of a file to the change that
// introduced it.
//
// FinalLine is the line number in the attributed revision; OriginLine is
// the line number inside Change's version of the file at Path.
type AttributionLine struct {
	Change     string  `json:"change"`
	OriginLine int     `json:"origin_line"`
	FinalLine  int     `json:"final_line"`
	Content    string  `json:"content"`
	Path       string  `json:"path"`
	Previous   *Origin `json:"previous,omitempty"`

	// Unblamable is set when the source could not attribute the line at all
	// (uncommitted content, or an explicit unblamable marker).
	Unblamable bool `json:"unblamable,omitempty"`

	Meta Meta `json:"meta"`
}

// IsBoundary reports whether the line's origin cannot be followed further
// back. Previous is present iff the line is not a boundary.
func (l AttributionLine) IsBoundary() bool {
	return l.Previous == nil
}

// Origin returns the change and path the line is attributed to.
func (l AttributionLine) Origin() Origin {
	return Origin{Change: l.Change, Path: l.Path}
}

// ReattributedLine is an attribution line after ignored changes have been
// skipped. Content and FinalLine always come from the starting attribution.
type ReattributedLine struct {
	AttributionLine

	// Modified is true when the origin differs from the direct attribution.
	Modified bool `json:"modified"`

	// Err is set when the walk for this line stopped early. The line then
	// keeps the last origin reached.
	Err error `json:"-"`
}

// ChangeSet is a set of change ids.
type ChangeSet map[string]struct{}

// NewChangeSet builds a set from ids. Empty ids are dropped.
func NewChangeSet(ids ...string) ChangeSet {
	s := make(ChangeSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id into the set.
func (s ChangeSet) Add(id string) {
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

// Has reports whether id is in the set. A nil set has no members.
func (s ChangeSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids in the set.
func (s ChangeSet) Len() int {
	return len(s)
}

// Sorted returns the ids in ascending order.
func (s ChangeSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
