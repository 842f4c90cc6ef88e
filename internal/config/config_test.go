package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/landcover-api/internal/registry"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.ReadHeaderTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, int64(16<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "models", cfg.ModelsDir)
	assert.Equal(t, registry.RGB, cfg.DefaultModel)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.Overrides)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LANDCOVER_MODELS_DIR", "/srv/models")
	t.Setenv("LANDCOVER_MODELS_DEFAULT", "ndvi")
	t.Setenv("LANDCOVER_MODELS_RGB_NIR_INPUT", "input_1")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/srv/models", cfg.ModelsDir)
	assert.Equal(t, registry.NDVI, cfg.DefaultModel)
	assert.Equal(t, registry.Override{InputName: "input_1"}, cfg.Overrides[registry.RGBNIR])

	d, ok := cfg.Registry().Lookup(registry.RGBNIR)
	require.True(t, ok)
	assert.Equal(t, "input_1", d.InputName)
	assert.Equal(t, filepath.Join("/srv/models", "model_RGB_NIR_v0.onnx"), d.Path)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "landcover.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "7000"
  shutdown_timeout: 3s
upload:
  max_bytes: 1048576
models:
  ndvi:
    path: /opt/ndvi.onnx
cors:
  allowed_origins:
    - http://localhost:5173
`), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(1<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "/opt/ndvi.onnx", cfg.Overrides[registry.NDVI].Path)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("LANDCOVER_MODELS_DEFAULT", "thermal")
	_, err := Load(viper.New(), "")
	assert.ErrorContains(t, err, "models.default")

	t.Setenv("LANDCOVER_MODELS_DEFAULT", "rgb")
	t.Setenv("LANDCOVER_UPLOAD_MAX_BYTES", "0")
	_, err = Load(viper.New(), "")
	assert.ErrorContains(t, err, "upload.max_bytes")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read config")
}
