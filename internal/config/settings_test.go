package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultraschall/podcast-tools/internal/audio"
	"golang.org/x/text/encoding/charmap"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "log_level": "debug",
  "property_store": "sqlite",
  "update_interval": "12h",
  "max_concurrent_files": 8
}`), 0644))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", settings.LogLevel)
	assert.Equal(t, StoreSQLite, settings.PropertyStore)
	assert.Equal(t, 12*time.Hour, settings.UpdateInterval)
	assert.Equal(t, 8, settings.MaxConcurrentFiles)
	assert.Equal(t, 30*time.Second, settings.HTTPTimeout)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ULTRASCHALL_LOG_LEVEL", "warn")
	t.Setenv("ULTRASCHALL_UPDATE_URL", "http://localhost/release.txt")

	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", settings.LogLevel)
	assert.Equal(t, "http://localhost/release.txt", settings.UpdateURL)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	settings := DefaultSettings()
	settings.UpdateInterval = 6 * time.Hour
	settings.EmptyFieldAction = audio.TagEmpty.String()
	settings.CoverMaxSize = 1400
	require.NoError(t, settings.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)
}

func TestToTagConfig(t *testing.T) {
	settings := DefaultSettings()
	settings.LegacyCharset = "iso-8859-15"
	settings.EmptyFieldAction = "empty"

	cfg, err := settings.ToTagConfig()
	require.NoError(t, err)
	assert.Equal(t, audio.TagEmpty, cfg.EmptyField)
	assert.Equal(t, charmap.ISO8859_15, cfg.LegacyCharset)
}

func TestToTagConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"charset", func(s *Settings) { s.LegacyCharset = "klingon" }},
		{"action", func(s *Settings) { s.EmptyFieldAction = "delete" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			tt.modify(settings)

			_, err := settings.ToTagConfig()
			assert.Error(t, err)
		})
	}
}
