package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Width, cfg.Width)
}

func TestLoad_OverridesDefaultsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
width = 1280
height = 720
tts_provider = "local"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.Equal(t, "local", cfg.TTSProvider)
	assert.Equal(t, Defaults().FPS, cfg.FPS) // untouched fields keep defaults
}

func TestApplyEnv_OverridesFromLookup(t *testing.T) {
	cfg := Defaults()
	env := map[string]string{"DEMOREEL_TTS_API_KEY": "secret-value", "DEMOREEL_WORKERS": "4"}
	cfg.ApplyEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok })

	assert.Equal(t, "secret-value", cfg.TTSAPIKey)
	assert.Equal(t, 4, cfg.Workers)
}

func TestValidate_RejectsNonPositiveDimensions(t *testing.T) {
	cfg := Defaults()
	cfg.Width = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RequiresTTSProviderUnlessNoVoiceover(t *testing.T) {
	cfg := Defaults()
	cfg.TTSProvider = ""
	assert.Error(t, cfg.Validate())

	cfg.NoVoiceover = true
	assert.NoError(t, cfg.Validate())
}

func TestNextVersionDir_FirstRunIsV1(t *testing.T) {
	dir, err := NextVersionDir(filepath.Join(t.TempDir(), "renders"))
	require.NoError(t, err)
	assert.Equal(t, "v1", filepath.Base(dir))
}

func TestNextVersionDir_IncrementsPastExisting(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "v1"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "v3"), 0o755))

	dir, err := NextVersionDir(root)
	require.NoError(t, err)
	assert.Equal(t, "v4", filepath.Base(dir))
}

func TestAcquireVersionLock_SecondAcquireFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "v1")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	lock1, err := AcquireVersionLock(dir)
	require.NoError(t, err)
	defer lock1.Release()

	_, err = AcquireVersionLock(dir)
	assert.Error(t, err)
}
