package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/client"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("DASHCTL_SERVER", "")
	t.Setenv("DASHCTL_SECONDARY_CURRENCY", "")

	s, err := loadSettings(NewRootCommand())
	require.NoError(t, err)

	assert.Equal(t, defaultServer, s.Server)
	assert.Equal(t, "SGD", s.SecondaryCurrency)
	assert.Equal(t, client.DefaultChunkThreshold, s.ChunkThreshold)
	assert.False(t, s.Verbose)
}

func TestLoadSettings_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"server: http://from-file:9000/\n"+
			"secondary-currency: aud\n"+
			"chunk-threshold: 4096\n"), 0o644))

	t.Setenv("DASHCTL_SECONDARY_CURRENCY", "usd")

	root := NewRootCommand()
	require.NoError(t, root.PersistentFlags().Set("config", path))
	require.NoError(t, root.PersistentFlags().Set("server", "http://from-flag:8080"))

	s, err := loadSettings(root)
	require.NoError(t, err)

	assert.Equal(t, "http://from-flag:8080", s.Server)
	assert.Equal(t, "USD", s.SecondaryCurrency)
	assert.Equal(t, 4096, s.ChunkThreshold)
}

func TestLoadSettings_MissingFile(t *testing.T) {
	root := NewRootCommand()
	require.NoError(t, root.PersistentFlags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")))

	_, err := loadSettings(root)
	assert.Error(t, err)
}
