package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yegor-usoltsev/chownmap/internal/walk"
)

func writeMap(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "map.ini")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// selfMap maps the caller's own ids onto themselves, so writes succeed
// without privileges.
func selfMap() string {
	return fmt.Sprintf("[uid]\n%d=%d\n[gid]\n%d=%d\n", os.Getuid(), os.Getuid(), os.Getgid(), os.Getgid())
}

func TestRun_RemapsTree(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	tree := filepath.Join(tmp, "tree")
	require.NoError(t, os.MkdirAll(filepath.Join(tree, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tree, "a", "f"), []byte("x"), 0o644))
	m := writeMap(t, tmp, selfMap())

	assert.Equal(t, 0, Run([]string{"run", "--map", m, tree}))
	assert.Equal(t, 0, Run([]string{"run", "--map", m, "-j", "3", tree}))
	assert.Equal(t, 0, Run([]string{"run", "--map", m, "--dry-run", "-vv", tree}))
}

func TestRun_RefusedRootSymlink(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	tree := filepath.Join(tmp, "tree")
	link := filepath.Join(tmp, "link")
	require.NoError(t, os.Mkdir(tree, 0o755))
	require.NoError(t, os.Symlink(tree, link))
	m := writeMap(t, tmp, selfMap())

	assert.Equal(t, exitSymlinkRefused, Run([]string{"run", "--map", m, link}))
	assert.Equal(t, 0, Run([]string{"run", "--map", m, "--follow-symlinks", link}))
	// The most severe root status wins.
	assert.Equal(t, exitSymlinkRefused, Run([]string{"run", "--map", m, tree, link}))
}

func TestRun_RootNotDirectory(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	file := filepath.Join(tmp, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	m := writeMap(t, tmp, selfMap())

	assert.Equal(t, exitFailure, Run([]string{"run", "--map", m, file}))
	assert.Equal(t, exitFailure, Run([]string{"run", "--map", m, filepath.Join(tmp, "missing")}))
}

func TestRun_BadMapping(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	tree := t.TempDir()

	noGroups := writeMap(t, tmp, "[uid]\n1=2\n")
	assert.Equal(t, exitFailure, Run([]string{"run", "--map", noGroups, tree}))
	assert.Equal(t, exitFailure, Run([]string{"run", "--map", filepath.Join(tmp, "absent.ini"), tree}))
}

func TestRun_UsageErrors(t *testing.T) {
	t.Parallel()

	tree := t.TempDir()
	m := writeMap(t, t.TempDir(), selfMap())

	assert.NotEqual(t, 0, Run([]string{"run", tree}))
	assert.NotEqual(t, 0, Run([]string{"run", "--map", m}))
	assert.NotEqual(t, 0, Run([]string{"run", "--map", m, "--no-such-flag", tree}))
	assert.Equal(t, exitFailure, Run([]string{"run", "--map", m, "--workers=-1", tree}))
	assert.Equal(t, exitFailure, Run([]string{"run", "--map", m, "--max-depth=-2", tree}))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	good := writeMap(t, tmp, selfMap())
	bad := filepath.Join(tmp, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("uid:\n  x: 1\n"), 0o644))

	assert.Equal(t, 0, Run([]string{"validate", good}))
	assert.Equal(t, exitFailure, Run([]string{"validate", good, bad}))
}

func TestSample(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	out := filepath.Join(tmp, "conf", "map.yaml")

	require.Equal(t, 0, Run([]string{"sample", "--output", out}))
	assert.FileExists(t, out)
	assert.Equal(t, 0, Run([]string{"validate", out}))

	// Existing files are left alone.
	assert.Equal(t, exitFailure, Run([]string{"sample", "--output", out}))
	assert.Equal(t, exitFailure, Run([]string{"sample", "--format", "toml"}))
}

func TestStatusErrorExitCode(t *testing.T) {
	t.Parallel()

	for st, want := range map[walk.Status]int{
		walk.StatusFailed:         exitFailure,
		walk.StatusSymlinkRefused: exitSymlinkRefused,
		walk.StatusCanceled:       exitInterrupted,
	} {
		assert.Equal(t, want, (&statusError{status: st}).ExitCode(), st.String())
	}
}

func TestRun_CommandsReceiveContext(t *testing.T) {
	t.Parallel()

	// Each command's Run method takes a context.Context; a command that
	// actually executes returns 0 here rather than a binding failure.
	assert.Equal(t, 0, Run([]string{"sample", "--format", "yaml"}))
	assert.Equal(t, 0, Run([]string{"validate", writeMap(t, t.TempDir(), selfMap())}))
}
