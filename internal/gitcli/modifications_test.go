package gitcli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hyperblame/internal/diffparse"
	"github.com/roach88/hyperblame/internal/ir"
)

const multiFileDiff = `diff --git a/foo.py b/foo.py
index 1111111..2222222 100644
--- a/foo.py
+++ b/foo.py
@@ -1,3 +1,2 @@
 import os
-# comment
 x = 1
diff --git a/old.go b/new.go
similarity index 90%
rename from old.go
rename to new.go
index 3333333..4444444 100644
--- a/old.go
+++ b/new.go
@@ -2 +2 @@
-var a = 1
+var a = 2
diff --git a/a.txt b/b.txt
similarity index 100%
rename from a.txt
rename to b.txt
diff --git a/gone.txt b/gone.txt
deleted file mode 100644
index 5555555..0000000
--- a/gone.txt
+++ /dev/null
@@ -1 +0,0 @@
-bye
diff --git a/added.txt b/added.txt
new file mode 100644
index 0000000..6666666
--- /dev/null
+++ b/added.txt
@@ -0,0 +1 @@
+hi
`

func TestParseModifications(t *testing.T) {
	mods, err := ParseModifications(multiFileDiff)
	require.NoError(t, err)
	require.Len(t, mods, 5)

	assert.Equal(t, ir.ModificationModify, mods[0].Type)
	assert.Equal(t, "foo.py", mods[0].OldPath)
	assert.Equal(t, "foo.py", mods[0].NewPath)

	assert.Equal(t, ir.ModificationRename, mods[1].Type)
	assert.Equal(t, "old.go", mods[1].OldPath)
	assert.Equal(t, "new.go", mods[1].NewPath)
	assert.Equal(t, "old.go", mods[1].PreChangePath())

	assert.Equal(t, ir.ModificationRename, mods[2].Type)
	assert.Equal(t, "a.txt", mods[2].OldPath)
	assert.Equal(t, "b.txt", mods[2].NewPath)
	assert.Empty(t, mods[2].Diff)

	assert.Equal(t, ir.ModificationDelete, mods[3].Type)
	assert.Equal(t, "gone.txt", mods[3].OldPath)
	assert.Empty(t, mods[3].NewPath)

	assert.Equal(t, ir.ModificationAdd, mods[4].Type)
	assert.Empty(t, mods[4].OldPath)
	assert.Equal(t, "added.txt", mods[4].NewPath)
}

func TestParseModifications_PerFileDiffIsParseable(t *testing.T) {
	mods, err := ParseModifications(multiFileDiff)
	require.NoError(t, err)

	foo, err := diffparse.ParseAddedDeleted(mods[0].Diff)
	require.NoError(t, err)
	assert.Equal(t, []ir.DiffLine{{Line: 2, Text: "# comment"}}, foo.Deleted)
	assert.Empty(t, foo.Added)

	renamed, err := diffparse.ParseAddedDeleted(mods[1].Diff)
	require.NoError(t, err)
	assert.Equal(t, []ir.DiffLine{{Line: 2, Text: "var a = 1"}}, renamed.Deleted)
	assert.Equal(t, []ir.DiffLine{{Line: 2, Text: "var a = 2"}}, renamed.Added)

	gone, err := diffparse.ParseAddedDeleted(mods[3].Diff)
	require.NoError(t, err)
	assert.Equal(t, []ir.DiffLine{{Line: 1, Text: "bye"}}, gone.Deleted)

	assert.NotContains(t, mods[0].Diff, "old.go", "each diff holds one file")
}

func TestParseModifications_Empty(t *testing.T) {
	mods, err := ParseModifications("")
	require.NoError(t, err)
	assert.Empty(t, mods)
}

func TestParseShow(t *testing.T) {
	c, err := parseShow("abc\x00p1 p2\x00Ada Lovelace\x00Fix: the thing\n")
	require.NoError(t, err)
	assert.Equal(t, "abc", c.ID)
	assert.Equal(t, []string{"p1", "p2"}, c.Parents)
	assert.Equal(t, "Ada Lovelace", c.Author)
	assert.Equal(t, "Fix: the thing", c.Summary)

	root, err := parseShow("abc\x00\x00Ada\x00Initial\n")
	require.NoError(t, err)
	assert.Empty(t, root.Parents)

	_, err = parseShow("garbage\n")
	require.Error(t, err)
}

func TestStripSide(t *testing.T) {
	assert.Equal(t, "x/y.go", stripSide("a/x/y.go", "a/"))
	assert.Equal(t, "", stripSide("/dev/null", "a/"))
	assert.Equal(t, "sp ace.go", stripSide(`"b/sp ace.go"`, "b/"))
}
