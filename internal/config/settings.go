package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/ultraschall/podcast-tools/internal/audio"
	"golang.org/x/text/encoding/htmlindex"
)

// EnvPrefix prefixes environment overrides, e.g. ULTRASCHALL_LOG_LEVEL.
const EnvPrefix = "ULTRASCHALL"

// Property store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Settings holds all configuration options.
type Settings struct {
	// Logging
	LogLevel string `json:"log_level" mapstructure:"log_level"`
	LogFile  string `json:"log_file" mapstructure:"log_file"`

	// Property store
	PropertyStore     string `json:"property_store" mapstructure:"property_store"` // file, sqlite, memory
	PropertyStorePath string `json:"property_store_path" mapstructure:"property_store_path"`

	// Update check
	UpdateURL      string        `json:"update_url" mapstructure:"update_url"`
	DownloadURL    string        `json:"download_url" mapstructure:"download_url"`
	UpdateInterval time.Duration `json:"update_interval" mapstructure:"update_interval"`
	HTTPTimeout    time.Duration `json:"http_timeout" mapstructure:"http_timeout"`
	UserAgent      string        `json:"user_agent" mapstructure:"user_agent"`

	// Tag settings
	LegacyCharset    string `json:"legacy_charset" mapstructure:"legacy_charset"`
	EmptyFieldAction string `json:"empty_field_action" mapstructure:"empty_field_action"` // keep, empty, modify

	// Batch processing
	MaxConcurrentFiles int `json:"max_concurrent_files" mapstructure:"max_concurrent_files"`

	// Cover art settings
	CoverMaxSize      int  `json:"cover_max_size" mapstructure:"cover_max_size"` // 0 keeps the original size
	ConvertCoverToJPG bool `json:"convert_cover_to_jpg" mapstructure:"convert_cover_to_jpg"`
}

// Dir returns the directory holding the settings and property files.
func Dir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, _ = os.UserHomeDir()
	}
	return filepath.Join(dir, "ultraschall")
}

// DefaultPath returns the default settings file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "settings.json")
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		LogLevel: "info",
		LogFile:  "",

		PropertyStore:     StoreFile,
		PropertyStorePath: filepath.Join(Dir(), "properties.json"),

		UpdateURL:      "https://ultraschall.io/ultraschall_release.txt",
		DownloadURL:    "http://ultraschall.fm/download",
		UpdateInterval: 24 * time.Hour,
		HTTPTimeout:    30 * time.Second,
		UserAgent:      "Ultraschall",

		LegacyCharset:    "windows-1252",
		EmptyFieldAction: audio.TagDoNotModify.String(),

		MaxConcurrentFiles: 4,

		CoverMaxSize:      0,
		ConvertCoverToJPG: false,
	}
}

// setDefaults registers every field of d with v so that environment
// overrides apply to keys absent from the file.
func setDefaults(v *viper.Viper, d *Settings) {
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)

	v.SetDefault("property_store", d.PropertyStore)
	v.SetDefault("property_store_path", d.PropertyStorePath)

	v.SetDefault("update_url", d.UpdateURL)
	v.SetDefault("download_url", d.DownloadURL)
	v.SetDefault("update_interval", d.UpdateInterval)
	v.SetDefault("http_timeout", d.HTTPTimeout)
	v.SetDefault("user_agent", d.UserAgent)

	v.SetDefault("legacy_charset", d.LegacyCharset)
	v.SetDefault("empty_field_action", d.EmptyFieldAction)

	v.SetDefault("max_concurrent_files", d.MaxConcurrentFiles)

	v.SetDefault("cover_max_size", d.CoverMaxSize)
	v.SetDefault("convert_cover_to_jpg", d.ConvertCoverToJPG)
}

// Load reads settings from a JSON file and applies ULTRASCHALL_*
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v, DefaultSettings())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

// Save writes settings to a JSON file.
//
// Durations are written as strings such as "24h0m0s" so the file stays
// readable.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	type alias Settings
	out := struct {
		*alias
		UpdateInterval string `json:"update_interval"`
		HTTPTimeout    string `json:"http_timeout"`
	}{
		alias:          (*alias)(s),
		UpdateInterval: s.UpdateInterval.String(),
		HTTPTimeout:    s.HTTPTimeout.String(),
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ToTagConfig converts settings to an audio.TagConfig.
func (s *Settings) ToTagConfig() (*audio.TagConfig, error) {
	cfg := audio.DefaultTagConfig()

	action, err := audio.ParseTagEditAction(s.EmptyFieldAction)
	if err != nil {
		return nil, err
	}
	cfg.EmptyField = action

	if s.LegacyCharset != "" {
		enc, err := htmlindex.Get(s.LegacyCharset)
		if err != nil {
			return nil, fmt.Errorf("legacy charset %q: %w", s.LegacyCharset, err)
		}
		cfg.LegacyCharset = enc
	}

	return cfg, nil
}
