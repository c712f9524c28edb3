package chown

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yegor-usoltsev/chownmap/internal/fsys"
	"github.com/yegor-usoltsev/chownmap/internal/fsys/fsystest"
	"github.com/yegor-usoltsev/chownmap/internal/idmap"
)

var (
	keep     = idmap.Decision{Outcome: idmap.Keep}
	unmapped = idmap.Decision{Outcome: idmap.Unmapped, ID: 42}
)

func target(id int) idmap.Decision { return idmap.Decision{Outcome: idmap.Target, ID: id} }

func lstat(t *testing.T, m *fsystest.MemFS, p string) fsys.Node {
	t.Helper()
	n, err := fsys.Classify(m, p)
	require.NoError(t, err)
	return n
}

func TestApply_NoTargetNoSyscall(t *testing.T) {
	t.Parallel()

	m := fsystest.New().File("/f", 42, 42)
	a := Applier{FS: m}
	n := lstat(t, m, "/f")

	for _, pair := range [][2]idmap.Decision{{keep, keep}, {keep, unmapped}, {unmapped, keep}, {unmapped, unmapped}} {
		applied, err := a.Apply(n, pair[0], pair[1])
		require.NoError(t, err)
		assert.False(t, applied)
	}
	assert.Empty(t, m.Calls())
}

func TestApply_UserOnly(t *testing.T) {
	t.Parallel()

	m := fsystest.New().File("/f", 1000, 77)
	a := Applier{FS: m}

	applied, err := a.Apply(lstat(t, m, "/f"), target(300000), unmapped)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []fsystest.Call{{Op: "chown", Path: "/f", UID: 300000, GID: idmap.Unchanged}}, m.Calls())

	uid, gid := m.Owner("/f")
	assert.Equal(t, 300000, uid)
	assert.Equal(t, 77, gid)
}

func TestApply_LinkAware(t *testing.T) {
	t.Parallel()

	m := fsystest.New().
		File("/t", 5, 5).
		Symlink("/l", "/t", 5, 5).
		Dir("/d", 5, 5)
	a := Applier{FS: m}

	_, err := a.Apply(lstat(t, m, "/l"), keep, target(6))
	require.NoError(t, err)
	_, err = a.Apply(lstat(t, m, "/d"), target(6), keep)
	require.NoError(t, err)

	assert.Equal(t, []fsystest.Call{
		{Op: "lchown", Path: "/l", UID: idmap.Unchanged, GID: 6},
		{Op: "lchown", Path: "/d", UID: 6, GID: idmap.Unchanged},
	}, m.Calls())

	uid, gid := m.Owner("/t")
	assert.Equal(t, 5, uid, "link target untouched")
	assert.Equal(t, 5, gid, "link target untouched")
}

func TestApply_OtherKindNeverWritten(t *testing.T) {
	t.Parallel()

	m := fsystest.New().Fifo("/p", 1, 1)
	applied, err := Applier{FS: m}.Apply(lstat(t, m, "/p"), target(2), target(2))
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Empty(t, m.Calls())
}

func TestApply_Failure(t *testing.T) {
	t.Parallel()

	m := fsystest.New().File("/f", 1, 1).FailChown("/f", syscall.EPERM)
	applied, err := Applier{FS: m}.Apply(lstat(t, m, "/f"), target(2), target(3))
	require.Error(t, err)
	assert.False(t, applied)

	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "/f", werr.Path)
	assert.Equal(t, 2, werr.UID)
	assert.Equal(t, 3, werr.GID)
	assert.ErrorIs(t, err, syscall.EPERM)
}
