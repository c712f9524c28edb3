package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yegor-usoltsev/chownmap/internal/idmap"
	"github.com/yegor-usoltsev/chownmap/internal/mapfile"
)

func TestSample_ParsesBack(t *testing.T) {
	t.Parallel()

	for format, name := range map[string]string{"ini": "map.ini", "yaml": "map.yaml"} {
		b, err := Sample(format)
		require.NoError(t, err, format)

		m, err := mapfile.Parse(name, b)
		require.NoError(t, err, format)
		assert.Equal(t, idmap.Decision{Outcome: idmap.Target, ID: 300000}, m.Lookup(idmap.User, 1000), format)
		assert.Equal(t, idmap.Decision{Outcome: idmap.Target, ID: 20044}, m.Lookup(idmap.Group, 80000), format)
	}

	_, err := Sample("toml")
	require.Error(t, err)
}

func TestWriteSample(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteSample(&buf, "", ""))
	assert.Contains(t, buf.String(), "[uid]")

	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "map.yaml")
	require.NoError(t, WriteSample(nil, path, ""))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "$schema:")

	err = WriteSample(nil, path, "")
	require.Error(t, err, "existing files are not overwritten")
	assert.ErrorIs(t, err, os.ErrExist)
}
