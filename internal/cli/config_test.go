package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/patterns/pkg/types"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")

	cfg, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendSQLite, cfg.Backend)
	assert.Equal(t, types.PolicyRejectIfExists, cfg.WritePolicy())
	assert.Equal(t, types.LogFormatText, cfg.LogFormat)

	_, err = os.Stat(filepath.Join(dir, configFileExt))
	assert.NoError(t, err)
}

func TestLoadConfigKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, configFileExt)
	content := "backend: sqlite\npolicy: merge\nlog_format: json\ndata_dir: store\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, types.PolicyMergeOverlay, cfg.WritePolicy())
	assert.Equal(t, types.LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, filepath.Join(dir, "store"), cfg.DataDir, "relative data_dir resolves against the config dir")
	assert.Equal(t, string(types.LogWarning), cfg.LogLevel, "unset keys take defaults")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "unknown backend", content: "backend: mongo\n", wantErr: types.ErrBackendUnknown},
		{name: "bad policy", content: "backend: sqlite\npolicy: never\n", wantErr: types.ErrInvalidPolicy},
		{name: "bad log format", content: "backend: sqlite\nlog_format: xml\n", wantErr: types.ErrLogFormatUnknown},
		{name: "malformed yaml", content: "backend: [unclosed\n", wantErr: errInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte(tt.content), 0o644))

			_, err := loadConfig(dir)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, errInvalidConfig)
		})
	}
}
