package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`optimizer:
  disablePasses:
    - choice-conversion
  fixpoint: false
  maxIterations: 4
`), 0644))

	config, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, []string{"choice-conversion"}, config.Optimizer.DisablePasses)
	require.False(t, config.Optimizer.Fixpoint)
	require.Equal(t, 4, config.Optimizer.MaxIterations)

	require.True(t, config.PassDisabled("choice-conversion"))
	require.False(t, config.PassDisabled("make-index"))
}

func TestRead_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`optimizer:
  maxIterations: 2
`), 0644))

	config, err := Read(path)
	require.NoError(t, err)
	require.True(t, config.Optimizer.Fixpoint)
	require.Equal(t, 2, config.Optimizer.MaxIterations)
	require.Empty(t, config.Optimizer.DisablePasses)
}

func TestRead_MissingExplicitPathFails(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't open config file")
}

func TestRead_MalformedYamlFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("optimizer: [not a mapping"), 0644))

	_, err := Read(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't decode yaml configuration")
}
