package ir

// ModificationType classifies how a change touched a file.
type ModificationType string

const (
	ModificationAdd     ModificationType = "add"
	ModificationDelete  ModificationType = "delete"
	ModificationRename  ModificationType = "rename"
	ModificationCopy    ModificationType = "copy"
	ModificationModify  ModificationType = "modify"
	ModificationUnknown ModificationType = "unknown"
)

// Modification is one file touched by a change.
//
// OldPath is empty for added files and NewPath is empty for deleted files.
// Diff holds the unified diff text of this file only.
type Modification struct {
	Type    ModificationType `json:"type"`
	OldPath string           `json:"old_path,omitempty"`
	NewPath string           `json:"new_path,omitempty"`
	Diff    string           `json:"diff"`
}

// PreChangePath is the path of the file before the change. Added files
// have no old path and report their new one.
func (m Modification) PreChangePath() string {
	if m.OldPath == "" {
		return m.NewPath
	}
	return m.OldPath
}

// Change is a commit together with the files it touched.
type Change struct {
	ID            string         `json:"id"`
	Parents       []string       `json:"parents"`
	Author        string         `json:"author,omitempty"`
	Summary       string         `json:"summary,omitempty"`
	Modifications []Modification `json:"modifications"`
}

// ParentRev returns the revision the change was applied on top of.
// Root changes have no parent and report ok=false.
func (c Change) ParentRev() (rev string, ok bool) {
	if len(c.Parents) == 0 {
		return "", false
	}
	return c.Parents[0], true
}
