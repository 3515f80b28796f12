package triangle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadShaderFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := loadShaderFile(filepath.Join(dir, "nope.spv"))
		require.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.spv")
		require.NoError(t, os.WriteFile(path, nil, 0644))
		_, err := loadShaderFile(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "empty")
	})

	t.Run("blob read fully", func(t *testing.T) {
		// SPIR-V magic followed by padding; the loader must not inspect it.
		blob := []byte{0x03, 0x02, 0x23, 0x07, 0xde, 0xad, 0xbe, 0xef}
		path := filepath.Join(dir, "vert.spv")
		require.NoError(t, os.WriteFile(path, blob, 0644))
		data, err := loadShaderFile(path)
		require.NoError(t, err)
		require.Equal(t, blob, data)
	})
}
